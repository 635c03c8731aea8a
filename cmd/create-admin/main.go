// Command create-admin creates an administrator account, or resets the
// password of an existing one.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jewelry/jewelry-api/internal/config"
	"github.com/jewelry/jewelry-api/internal/domain/auth"
	"github.com/jewelry/jewelry-api/internal/domain/user"
	"github.com/jewelry/jewelry-api/internal/pkg/database"
	"github.com/jewelry/jewelry-api/internal/pkg/jwt"
	"github.com/jewelry/jewelry-api/internal/pkg/logger"
)

func main() {
	email := flag.String("email", "", "administrator email")
	password := flag.String("password", os.Getenv("ADMIN_PASSWORD"), "password (defaults to $ADMIN_PASSWORD)")
	list := flag.Bool("list", false, "list existing accounts and exit")
	flag.Parse()

	cfg := config.Load()
	logger.Init(logger.Config{Level: cfg.LogLevel, Environment: "development"})

	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply migrations")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	repo := user.NewRepository(db)

	if *list {
		users, err := repo.List(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to list users")
		}
		for _, u := range users {
			lastLogin := "never"
			if u.LastLoginAt.Valid {
				lastLogin = u.LastLoginAt.Time.Format(time.RFC3339)
			}
			fmt.Printf("%s\t%s\t%s\tlast login: %s\n", u.ID, u.Email, u.Role, lastLogin)
		}
		return
	}

	if *email == "" || *password == "" {
		flag.Usage()
		os.Exit(2)
	}

	// Tokens are not issued here, only the account is written
	svc := auth.NewService(repo, jwt.NewService(cfg.JWTSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL), auth.NewRefreshStore(nil), nil)

	created, err := svc.EnsureAdmin(ctx, *email, *password)
	if err != nil {
		log.Fatal().Err(err).Str("email", *email).Msg("Failed to save administrator")
	}

	if created {
		log.Info().Str("email", user.NormalizeEmail(*email)).Msg("Administrator created")
	} else {
		log.Info().Str("email", user.NormalizeEmail(*email)).Msg("Administrator password reset")
	}
}
