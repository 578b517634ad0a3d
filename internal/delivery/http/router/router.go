// Package router contains routing and server setup for the HTTP delivery.
package router

import (
	"credstore/internal/delivery/http/router/handler"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

type RouterParams struct {
	fx.In

	CredentialHandler *handler.CredentialHandler
	HealthHandler     *handler.HealthHandler
}

// router holds all the handlers that need to be registered.
type router struct {
	credentialHandler *handler.CredentialHandler
	healthHandler     *handler.HealthHandler
}

// NewRouter is the constructor for the Router.
// Fx will inject the required handlers here.
func NewRouter(params RouterParams) *router {
	return &router{
		credentialHandler: params.CredentialHandler,
		healthHandler:     params.HealthHandler,
	}
}

// RegisterRoutes sets up all the API routes for the application.
func (r *router) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", r.healthHandler.Check)

	e.POST("/register", r.credentialHandler.Register)
	e.POST("/login", r.credentialHandler.Login)
	e.GET("/users", r.credentialHandler.List)
}
