package repository

import (
	"context"
	"errors"
)

// ErrDocumentNotFound is returned by a DocumentBackend when nothing has been persisted yet.
var ErrDocumentNotFound = errors.New("document not found")

// DocumentBackend stores one opaque document. Replace must be all-or-nothing:
// after a failed Replace, Read still returns the previous content.
type DocumentBackend interface {
	Read(ctx context.Context) ([]byte, error)
	Replace(ctx context.Context, data []byte) error
}
