// Package repository defines the interfaces for the persistence layer.
// These interfaces act as a contract between the domain/application layers and the infrastructure layer.
package repository

import (
	"context"
	"errors"

	"credstore/internal/domain/entity"
)

// ErrAccountNotFound is returned when no account has the requested username.
var ErrAccountNotFound = errors.New("account not found")

// AccountRepository owns the account collection. It is the only component allowed
// to read or rewrite the persisted document.
type AccountRepository interface {
	// LoadAll returns a copy of the full collection in persisted order.
	LoadAll(ctx context.Context) ([]entity.Account, error)

	// Usernames returns the set of usernames currently stored.
	Usernames(ctx context.Context) (entity.UsernameSet, error)

	// FindByUsername returns the account with exactly this username, or ErrAccountNotFound.
	FindByUsername(ctx context.Context, username string) (*entity.Account, error)

	// Append adds one account. Uniqueness is re-checked inside the same exclusive
	// section that rewrites the document, so two concurrent appends of one username
	// can never both succeed.
	Append(ctx context.Context, account entity.Account) error
}
