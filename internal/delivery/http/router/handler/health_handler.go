package handler

import (
	"net/http"

	"credstore/internal/usecase"

	"github.com/labstack/echo/v4"
)

// HealthHandler reports whether the account document is readable.
type HealthHandler struct {
	uc usecase.CredentialUsecase
}

// NewHealthHandler is the constructor for HealthHandler, injected by Fx.
func NewHealthHandler(uc usecase.CredentialUsecase) *HealthHandler {
	return &HealthHandler{
		uc: uc,
	}
}

// Check handles GET /health.
func (h *HealthHandler) Check(c echo.Context) error {
	if err := h.uc.Ping(c.Request().Context()); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
