package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"protoform/internal/service"
)

// UserHandler serves the user listing.
type UserHandler struct {
	svc    service.UserService
	logger zerolog.Logger
}

// NewUserHandler creates a handler layer.
func NewUserHandler(svc service.UserService, logger zerolog.Logger) *UserHandler {
	return &UserHandler{svc: svc, logger: logger}
}

// ListUsers godoc
// @Summary List users
// @Tags auth
// @Produce json
// @Success 200 {array} model.User
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/users [get]
func (h *UserHandler) ListUsers(c echo.Context) error {
	users, err := h.svc.ListUsers(c.Request().Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("list users")
		return mapError(err)
	}
	return c.JSON(http.StatusOK, users)
}
