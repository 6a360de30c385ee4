package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "protoform/docs" // swagger docs

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"protoform/internal/auth"
	"protoform/internal/cache"
	"protoform/internal/config"
	"protoform/internal/db"
	"protoform/internal/handler"
	"protoform/internal/model"
	"protoform/internal/repository"
	"protoform/internal/router"
	"protoform/internal/service"
	"protoform/internal/storage"
)

const shutdownTimeout = 10 * time.Second

// @title Protoform Quote API
// @version 1.0
// @description 3D-printing quote requests: registration, login, model uploads and downloads.
// @host localhost:5000
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fallback := zerolog.New(os.Stderr)
		fallback.Fatal().Err(err).Msg("load config")
	}
	logger := config.NewLogger(cfg.Logging)

	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server exited")
	}
}

func run(cfg *config.Config, logger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gormDB, err := db.NewMySQL(ctx, db.Options{
		Host:         cfg.DBHost,
		Port:         cfg.DBPort,
		User:         cfg.DBUser,
		Password:     cfg.DBPassword,
		Name:         cfg.DBName,
		MaxOpenConns: cfg.DBMaxOpenConns,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(gormDB); err != nil {
			logger.Error().Err(err).Msg("close database")
		}
	}()
	logger.Info().Str("host", cfg.DBHost).Str("database", cfg.DBName).Msg("connected to database")

	if cfg.DBAutoMigrate {
		if err := gormDB.AutoMigrate(&model.User{}, &model.QuoteRequest{}); err != nil {
			return err
		}
		logger.Info().Msg("auto-migrate completed")
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cacheClient.Close()
	if !cacheClient.Enabled() {
		logger.Info().Msg("REDIS_ADDR not set, listing cache disabled")
	}

	store, err := storage.NewLocal(cfg.UploadDir)
	if err != nil {
		return err
	}
	logger.Info().Str("dir", store.Dir()).Msg("upload directory ready")

	userRepo := repository.NewUserRepository(gormDB)
	quoteRepo := repository.NewQuoteRepository(gormDB)

	jwtService := auth.NewJWTService(cfg.JWTSecret)

	authService := service.NewAuthService(userRepo, jwtService, cacheClient, logger)
	userService := service.NewUserService(userRepo, cacheClient)
	quoteService := service.NewQuoteService(quoteRepo, store, cacheClient, logger)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	router.Register(
		e,
		cfg,
		logger,
		jwtService,
		handler.NewAuthHandler(authService, userService, logger),
		handler.NewUserHandler(userService, logger),
		handler.NewQuoteHandler(quoteService, logger),
	)

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.ServerPort
		logger.Info().Str("addr", addr).Str("swagger", "http://localhost:"+cfg.ServerPort+"/swagger/index.html").Msg("server listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
