package postgres

import (
	"context"

	"credstore/internal/domain/repository"
	"credstore/internal/infra/persistence/model"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DocumentBackend stores the account document in one row of credential_documents.
type DocumentBackend struct {
	db   *gorm.DB
	name string
}

var _ repository.DocumentBackend = (*DocumentBackend)(nil)

// NewDocumentBackend binds the backend to the row keyed by name.
func NewDocumentBackend(db *gorm.DB, name string) *DocumentBackend {
	return &DocumentBackend{
		db:   db,
		name: name,
	}
}

// Migrate creates the credential_documents table when it does not exist.
func (b *DocumentBackend) Migrate(ctx context.Context) error {
	if err := b.db.WithContext(ctx).AutoMigrate(&model.CredentialDocumentModel{}); err != nil {
		return errors.Wrap(err, "migrate credential_documents")
	}

	return nil
}

// Read returns the stored body, or ErrDocumentNotFound when the row is absent.
func (b *DocumentBackend) Read(ctx context.Context) ([]byte, error) {
	var doc model.CredentialDocumentModel
	err := b.db.WithContext(ctx).
		Where("name = ?", b.name).
		Take(&doc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Wrap(repository.ErrDocumentNotFound, b.name)
		}

		return nil, errors.Wrapf(err, "read document %s", b.name)
	}

	return doc.Body, nil
}

// Replace upserts the row inside a transaction, so a failure leaves the old body.
func (b *DocumentBackend) Replace(ctx context.Context, data []byte) error {
	doc := model.CredentialDocumentModel{
		Name: b.name,
		Body: data,
	}

	err := b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"body", "updated_at"}),
		}).Create(&doc).Error
	})
	if err != nil {
		return errors.Wrapf(err, "replace document %s", b.name)
	}

	return nil
}
