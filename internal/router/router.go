package router

import (
	"net/http"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"protoform/internal/auth"
	"protoform/internal/config"
	"protoform/internal/handler"
	"protoform/internal/metrics"
)

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	logger zerolog.Logger,
	jwtService *auth.JWTService,
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
	quoteHandler *handler.QuoteHandler,
) {
	e.Use(middleware.RequestID())
	e.Use(RequestLogger(logger))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.CORSAllowOrigins,
	}))
	e.Use(metrics.Middleware())

	e.Validator = NewValidator()

	e.GET("/", func(c echo.Context) error {
		return c.String(http.StatusOK, "Backend is working!")
	})
	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// Uploaded models are served as-is for admins.
	e.Static("/uploads", cfg.UploadDir)

	requireToken := echojwt.WithConfig(echojwt.Config{
		ParseTokenFunc: func(c echo.Context, raw string) (interface{}, error) {
			return jwtService.ValidateToken(raw)
		},
	})

	listing := []echo.MiddlewareFunc{}
	if cfg.ProtectListings {
		listing = append(listing, requireToken)
	}

	api := e.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)
	authGroup.GET("/users", userHandler.ListUsers, listing...)
	authGroup.GET("/me", authHandler.Me, requireToken)

	quotes := api.Group("/quotes")
	quotes.POST("/submit-quote", quoteHandler.SubmitQuote, middleware.BodyLimit(cfg.UploadBodyLimit))
	quotes.GET("/quote-requests", quoteHandler.ListQuotes, listing...)
	quotes.GET("/download/:filename", quoteHandler.Download)
}
