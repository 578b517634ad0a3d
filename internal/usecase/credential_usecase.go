// Package usecase contains the application-specific business rules.
// It orchestrates the domain layer to perform tasks.
package usecase

import (
	"context"

	"credstore/internal/domain/entity"
)

// --- Input DTOs ---

// RegisterInput is the registration candidate as submitted by the client.
type RegisterInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginInput is a login attempt as submitted by the client.
type LoginInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// CredentialUsecase defines the credential operations exposed to the delivery layer.
type CredentialUsecase interface {
	// Register validates the candidate, hashes the password and appends a new account.
	Register(ctx context.Context, input RegisterInput) error

	// Login succeeds only when an account with this username exists and the password matches.
	Login(ctx context.Context, input LoginInput) error

	// List returns every stored account in persisted order.
	List(ctx context.Context) ([]entity.Account, error)

	// Ping reports whether the account document can currently be read.
	Ping(ctx context.Context) error
}
