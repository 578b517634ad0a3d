// Package handler contains the HTTP handlers for the application.
package handler

import (
	"net/http"

	"credstore/internal/delivery/http/response"
	domainerrors "credstore/internal/domain/errors"
	"credstore/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// CredentialHandler exposes registration, login and the account listing.
type CredentialHandler struct {
	uc usecase.CredentialUsecase
}

// NewCredentialHandler is the constructor for CredentialHandler, injected by Fx.
func NewCredentialHandler(uc usecase.CredentialUsecase) *CredentialHandler {
	return &CredentialHandler{
		uc: uc,
	}
}

// Register handles POST /register.
func (h *CredentialHandler) Register(c echo.Context) error {
	var input usecase.RegisterInput
	if err := c.Bind(&input); err != nil {
		return domainerrors.ErrInvalidInput.WrapMessage(err.Error())
	}

	if err := h.uc.Register(c.Request().Context(), input); err != nil {
		return errors.WithStack(err)
	}

	return response.Message(c, http.StatusOK, response.RegisterSuccess)
}

// Login handles POST /login.
func (h *CredentialHandler) Login(c echo.Context) error {
	var input usecase.LoginInput
	if err := c.Bind(&input); err != nil {
		return domainerrors.ErrInvalidInput.WrapMessage(err.Error())
	}

	if err := h.uc.Login(c.Request().Context(), input); err != nil {
		return errors.WithStack(err)
	}

	return response.Message(c, http.StatusOK, response.LoginSuccess)
}

// List handles GET /users.
func (h *CredentialHandler) List(c echo.Context) error {
	accounts, err := h.uc.List(c.Request().Context())
	if err != nil {
		return errors.WithStack(err)
	}

	return response.OK(c, accounts)
}
