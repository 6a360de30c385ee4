package main

import (
	"context"
	"errors"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"

	"protoform/internal/auth"
	"protoform/internal/cache"
	"protoform/internal/config"
	"protoform/internal/db"
	apperrors "protoform/internal/errors"
	"protoform/internal/model"
	"protoform/internal/repository"
	"protoform/internal/service"
)

// SeedUser is the demo account created by the seeder, read from SEED_* variables.
type SeedUser struct {
	Name     string `envconfig:"NAME" default:"Demo User"`
	Email    string `envconfig:"EMAIL" default:"demo@protoform.local"`
	Phone    string `envconfig:"PHONE" default:"+15550100"`
	Password string `envconfig:"PASSWORD" required:"true"`
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fallback := zerolog.New(os.Stderr)
		fallback.Fatal().Err(err).Msg("load config")
	}
	logger := config.NewLogger(cfg.Logging)

	var seed SeedUser
	if err := envconfig.Process("seed", &seed); err != nil {
		logger.Fatal().Err(err).Msg("load seed user")
	}

	ctx := context.Background()
	gormDB, err := db.NewMySQL(ctx, db.Options{
		Host:         cfg.DBHost,
		Port:         cfg.DBPort,
		User:         cfg.DBUser,
		Password:     cfg.DBPassword,
		Name:         cfg.DBName,
		MaxOpenConns: cfg.DBMaxOpenConns,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("connect to database")
	}
	defer db.Close(gormDB)

	if err := gormDB.AutoMigrate(&model.User{}, &model.QuoteRequest{}); err != nil {
		logger.Fatal().Err(err).Msg("run migrations")
	}
	logger.Info().Msg("database migrations completed")

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cacheClient.Close()

	authService := service.NewAuthService(
		repository.NewUserRepository(gormDB),
		auth.NewJWTService(cfg.JWTSecret),
		cacheClient,
		logger,
	)

	user, err := authService.Register(ctx, seed.Name, seed.Email, seed.Phone, seed.Password)
	switch {
	case errors.Is(err, apperrors.ErrEmailAlreadyRegistered), errors.Is(err, apperrors.ErrPhoneAlreadyRegistered):
		logger.Info().Str("email", seed.Email).Msg("demo user already present, nothing to do")
	case err != nil:
		logger.Fatal().Err(err).Msg("seed demo user")
	default:
		logger.Info().Uint("user_id", user.ID).Str("email", user.Email).Msg("demo user created")
	}
}
