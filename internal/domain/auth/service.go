package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jewelry/jewelry-api/internal/domain/user"
	"github.com/jewelry/jewelry-api/internal/pkg/jwt"
	"github.com/jewelry/jewelry-api/internal/pkg/password"
)

// Service handles authentication business logic
type Service struct {
	userRepo   user.Repository
	jwtService *jwt.Service
	refresh    RefreshStore
	session    *SessionState
}

// NewService creates auth service
func NewService(userRepo user.Repository, jwtService *jwt.Service, refresh RefreshStore, session *SessionState) *Service {
	if session == nil {
		session = NewSessionState(false)
	}
	return &Service{
		userRepo:   userRepo,
		jwtService: jwtService,
		refresh:    refresh,
		session:    session,
	}
}

// Session returns the shared session-state holder.
func (s *Service) Session() *SessionState {
	return s.session
}

// SignIn authenticates an administrator
func (s *Service) SignIn(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	u, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("sign in: %w", err)
	}
	if u == nil || !password.Verify(req.Password, u.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	if !u.IsAdmin() {
		return nil, ErrNotAdmin
	}

	result, err := s.generateTokens(ctx, u)
	if err != nil {
		return nil, err
	}

	if err := s.userRepo.UpdateLastLogin(ctx, u.ID); err != nil {
		log.Warn().Err(err).Str("user_id", u.ID.String()).Msg("failed to record last login")
	}
	s.session.Set(true)
	return result, nil
}

// SignOut revokes the refresh token and clears the session flag
func (s *Service) SignOut(ctx context.Context, refreshToken string) error {
	defer s.session.Set(false)

	if refreshToken == "" {
		return nil // Nothing to revoke
	}
	return s.refresh.Delete(ctx, jwt.HashRefreshToken(refreshToken))
}

// Refresh rotates the token pair
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	if refreshToken == "" {
		return nil, ErrRefreshTokenRequired
	}

	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	userID, err := s.refresh.Take(ctx, jwt.HashRefreshToken(refreshToken))
	if err != nil {
		if errors.Is(err, ErrInvalidRefreshToken) {
			return nil, err
		}
		return nil, fmt.Errorf("refresh lookup: %w", err)
	}
	if userID != claims.UserID {
		return nil, ErrInvalidRefreshToken
	}

	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("refresh: %w", err)
	}
	if u == nil {
		return nil, ErrUserNotFound
	}

	return s.generateTokens(ctx, u)
}

// GetCurrentUser returns current user by ID
func (s *Service) GetCurrentUser(ctx context.Context, userID uuid.UUID) (*UserResponse, error) {
	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}

	resp := NewUserResponse(u)
	return &resp, nil
}

// EnsureAdmin creates an administrator or resets the password of an
// existing one. It reports whether a new account was created.
func (s *Service) EnsureAdmin(ctx context.Context, email, plain string) (bool, error) {
	hash, err := password.Hash(plain)
	if err != nil {
		return false, err
	}

	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return false, err
	}
	if existing != nil {
		return false, s.userRepo.UpdatePassword(ctx, existing.ID, hash)
	}

	u := &user.User{
		ID:           uuid.New(),
		Email:        user.NormalizeEmail(email),
		PasswordHash: hash,
		Role:         user.RoleAdmin,
	}
	if err := s.userRepo.Create(ctx, u); err != nil {
		return false, err
	}
	return true, nil
}

// generateTokens creates access and refresh tokens
func (s *Service) generateTokens(ctx context.Context, u *user.User) (*AuthResponse, error) {
	accessToken, err := s.jwtService.GenerateAccessToken(u.ID, string(u.Role))
	if err != nil {
		return nil, err
	}

	refreshToken, _, expiresAt, err := s.jwtService.GenerateRefreshToken(u.ID)
	if err != nil {
		return nil, err
	}

	// Only hash(refresh) is stored
	if err := s.refresh.Save(ctx, jwt.HashRefreshToken(refreshToken), u.ID, time.Until(expiresAt)); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &AuthResponse{
		User: NewUserResponse(u),
		Tokens: TokensResponse{
			AccessToken:  accessToken,
			RefreshToken: refreshToken, // return raw refresh to client
			ExpiresIn:    int(s.jwtService.AccessTTL().Seconds()),
			TokenType:    "Bearer",
		},
	}, nil
}
