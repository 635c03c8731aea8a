package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/jewelry/jewelry-api/internal/middleware"
	"github.com/jewelry/jewelry-api/internal/pkg/errorhandler"
	"github.com/jewelry/jewelry-api/internal/pkg/realtime"
	"github.com/jewelry/jewelry-api/internal/pkg/response"
	"github.com/jewelry/jewelry-api/internal/pkg/validator"
)

// Handler handles auth HTTP requests
type Handler struct {
	service  *Service
	streamer *realtime.Streamer
}

// NewHandler creates auth handler
func NewHandler(service *Service, streamer *realtime.Streamer) *Handler {
	return &Handler{service: service, streamer: streamer}
}

// Login handles POST /auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	if errs := validator.Validate(&req); errs != nil {
		errorhandler.LogValidationError(r.Context(), errs)
		response.ValidationError(w, errs)
		return
	}

	result, err := h.service.SignIn(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCredentials):
			response.Unauthorized(w, "Invalid email or password")
		case errors.Is(err, ErrNotAdmin):
			response.Forbidden(w, "Administrator access required")
		default:
			log.Error().Err(err).Str("email", req.Email).Msg("login failed with internal error")
			response.InternalError(w)
		}
		return
	}

	response.OK(w, result)
}

// Refresh handles POST /auth/refresh
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	result, err := h.service.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, ErrInvalidRefreshToken) || errors.Is(err, ErrUserNotFound) {
			response.Unauthorized(w, "Invalid or expired refresh token")
			return
		}
		errorhandler.HandleInternal(r.Context(), w, err)
		return
	}

	response.OK(w, result)
}

// Logout handles POST /auth/logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	if err := h.service.SignOut(r.Context(), req.RefreshToken); err != nil {
		log.Warn().Err(err).Msg("failed to revoke refresh token")
	}

	response.NoContent(w)
}

// Me handles GET /auth/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	u, err := h.service.GetCurrentUser(r.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			response.NotFound(w, "User not found")
			return
		}
		errorhandler.HandleInternal(r.Context(), w, err)
		return
	}

	response.OK(w, u)
}

// Session handles GET /auth/session
func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	response.OK(w, SessionResponse{LoggedIn: h.service.Session().LoggedIn()})
}

// SessionStream handles GET /auth/session/stream (websocket)
func (h *Handler) SessionStream(w http.ResponseWriter, r *http.Request) {
	session := h.service.Session()
	err := realtime.Serve(h.streamer, w, r, func(ctx context.Context) <-chan SessionResponse {
		out := make(chan SessionResponse)
		go func() {
			defer close(out)
			for loggedIn := range session.Subscribe(ctx) {
				select {
				case out <- SessionResponse{LoggedIn: loggedIn}:
				case <-ctx.Done():
					return
				}
			}
		}()
		return out
	})
	if err != nil {
		log.Debug().Err(err).Msg("session stream ended")
	}
}
