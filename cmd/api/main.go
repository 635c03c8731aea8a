package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/jewelry/jewelry-api/internal/config"
	"github.com/jewelry/jewelry-api/internal/domain/auth"
	"github.com/jewelry/jewelry-api/internal/domain/jewelry"
	"github.com/jewelry/jewelry-api/internal/domain/upload"
	"github.com/jewelry/jewelry-api/internal/domain/user"
	"github.com/jewelry/jewelry-api/internal/middleware"
	"github.com/jewelry/jewelry-api/internal/pkg/database"
	"github.com/jewelry/jewelry-api/internal/pkg/imagehost"
	"github.com/jewelry/jewelry-api/internal/pkg/imaging"
	"github.com/jewelry/jewelry-api/internal/pkg/jwt"
	"github.com/jewelry/jewelry-api/internal/pkg/logger"
	"github.com/jewelry/jewelry-api/internal/pkg/realtime"
	pkgresponse "github.com/jewelry/jewelry-api/internal/pkg/response"
	"github.com/jewelry/jewelry-api/internal/pkg/storage"
)

func main() {
	cfg := config.Load()
	setupLogger(cfg)

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	log.Info().
		Str("env", cfg.Env).
		Str("port", cfg.Port).
		Msg("Starting Jewelry API")

	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply migrations")
	}

	redis, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer database.CloseRedis(redis)

	ctx := context.Background()

	// ---------- Image pipeline ----------
	store, err := storage.New(ctx, cfg.StorageConfig())
	if err != nil {
		// The chain still works without the storage provider
		log.Error().Err(err).Str("driver", cfg.StorageDriver).Msg("Object storage unavailable, storage provider disabled")
	}

	var objectStore imagehost.ObjectStore
	if store != nil {
		objectStore = store
	}
	providers, err := imagehost.NewChain(cfg.ChainConfig(), objectStore, imagehost.NewHTTPClient(cfg.ImageProviderTimeout))
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid image provider chain")
	}

	pipeline := imagehost.NewPipeline(imagehost.Config{
		Preprocessor:   imaging.NewProcessor(cfg.ImagingConfig()),
		Providers:      providers,
		Inline:         imagehost.NewInlineEncoder(cfg.InlineWarnBytes),
		AttemptTimeout: cfg.ImageProviderTimeout,
	})
	log.Info().Strs("providers", pipeline.Providers()).Msg("Image provider chain ready")

	// ---------- Services ----------
	jwtService := jwt.NewService(cfg.JWTSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)
	streamer := realtime.NewStreamer(cfg.AllowedOrigins)

	session := auth.NewSessionState(false)
	authService := auth.NewService(user.NewRepository(db), jwtService, auth.NewRefreshStore(redis), session)

	feed := jewelry.NewFeed(redis)
	go feed.Run()
	defer feed.Shutdown()

	jewelryService := jewelry.NewService(jewelry.NewRepository(db), pipeline, feed)

	// ---------- Router ----------
	router := newRouter(routerDeps{
		cfg:            cfg,
		jwtService:     jwtService,
		authHandler:    auth.NewHandler(authService, streamer),
		jewelryHandler: jewelry.NewHandler(jewelryService, streamer, cfg.ImageMaxUploadBytes),
		uploadHandler:  upload.NewHandler(pipeline, cfg.ImageMaxUploadBytes),
		localFiles:     localFiles(store),
	})

	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		// an upload may walk the whole chain before answering
		WriteTimeout: time.Duration(len(providers)+1)*cfg.ImageProviderTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited properly")
}

type routerDeps struct {
	cfg            *config.Config
	jwtService     *jwt.Service
	authHandler    *auth.Handler
	jewelryHandler *jewelry.Handler
	uploadHandler  *upload.Handler
	localFiles     http.Handler // nil unless STORAGE_DRIVER=local
}

func newRouter(d routerDeps) http.Handler {
	authMiddleware := middleware.Auth(d.jwtService)
	adminOnly := middleware.RequireAdmin()

	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recover)
	r.Use(middleware.CORSHandler(d.cfg.AllowedOrigins))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		pkgresponse.OK(w, map[string]string{
			"status":  "ok",
			"version": "1.0.0",
		})
	})

	if d.localFiles != nil {
		r.Handle("/uploads/*", http.StripPrefix("/uploads/", d.localFiles))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Mount("/auth", d.authHandler.Routes(authMiddleware))
		r.Mount("/jewelry", d.jewelryHandler.Routes(authMiddleware, adminOnly))
		r.Mount("/categories", d.jewelryHandler.CategoryRoutes())
		r.Mount("/images", d.uploadHandler.Routes(authMiddleware, adminOnly))
	})

	return r
}

// localFiles serves the local storage directory so stored image URLs resolve.
func localFiles(store storage.Storage) http.Handler {
	local, ok := store.(*storage.LocalStorage)
	if !ok {
		return nil
	}
	return http.FileServer(http.Dir(local.Root()))
}

func setupLogger(cfg *config.Config) {
	logger.Init(logger.Config{
		Level:       cfg.LogLevel,
		Environment: cfg.Env,
	})
}
