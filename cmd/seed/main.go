package main

import (
	"context"
	"time"

	"github.com/joho/godotenv"

	"github.com/oksasatya/go-user-admin/config"
	appuser "github.com/oksasatya/go-user-admin/internal/application"
	"github.com/oksasatya/go-user-admin/internal/container"
	"github.com/oksasatya/go-user-admin/internal/domain/apperror"
	pginfra "github.com/oksasatya/go-user-admin/internal/infrastructure/postgres"
	"github.com/oksasatya/go-user-admin/internal/router"
	"github.com/oksasatya/go-user-admin/pkg/helpers"
)

// seed creates a demo user through the same service the API uses, so every
// business rule applies. Re-running it is harmless.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-seed", cfg.Env)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), 2, 1, time.Minute)
	if err != nil {
		logger.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	container.SetConfig(cfg)
	container.SetLogger(logger)
	container.SetPGPool(pool)
	svc := router.BuildUserService()

	phone := "(11) 98765-4321"
	in := appuser.CreateUserInput{
		Name:      "Demo User",
		Email:     "demo@example.com",
		Password:  "password123",
		BirthDate: time.Date(1990, time.May, 17, 0, 0, 0, 0, time.UTC),
		Phone:     &phone,
	}
	if vs := appuser.NewValidator(nil).ValidateCreate(in); len(vs) > 0 {
		logger.Fatalf("seed user is invalid: %v", vs)
	}

	u, err := svc.Create(ctx, in)
	switch {
	case apperror.KindOf(err) == apperror.KindDuplicateEmail:
		logger.WithField("email", in.Email).Info("seed user already exists")
	case err != nil:
		logger.Fatalf("failed to seed user: %v", err)
	default:
		logger.WithField("user_id", u.ID).WithField("email", u.Email).Info("seeded user")
	}
}
