// Package persistence selects the document backend named by storage.driver.
package persistence

import (
	"context"
	"log/slog"

	"credstore/config"
	"credstore/internal/domain/lifecycle"
	"credstore/internal/domain/repository"
	"credstore/internal/infra/persistence/blobdoc"
	"credstore/internal/infra/persistence/filedoc"
	"credstore/internal/infra/persistence/postgres"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// Params defines the required parameters
type Params struct {
	fx.In
	fx.Lifecycle

	Config *config.Config
	Logger *slog.Logger
}

// NewDocumentBackend builds the backend for the configured driver and ties its
// resources to the application lifecycle.
func NewDocumentBackend(params Params) (repository.DocumentBackend, error) {
	storage := params.Config.Storage
	if storage == nil {
		return nil, errors.New("storage is not configured")
	}

	switch storage.Driver {
	case config.StorageDriverFile:
		params.Logger.Info("Using file account storage", slog.String("path", storage.Path))

		return filedoc.New(storage.Path), nil

	case config.StorageDriverBlob:
		return newBlobBackend(params)

	case config.StorageDriverPostgres:
		return newPostgresBackend(params)

	default:
		return nil, errors.Errorf("unknown storage driver: %s", storage.Driver)
	}
}

func newBlobBackend(params Params) (repository.DocumentBackend, error) {
	storage := params.Config.Storage

	ctx, cancel := context.WithTimeout(context.Background(), lifecycle.DefaultTimeout)
	defer cancel()

	backend, err := blobdoc.Open(ctx, storage.BucketURL, storage.Key)
	if err != nil {
		return nil, err
	}

	params.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return backend.Close()
		},
	})
	params.Logger.Info("Using blob account storage",
		slog.String("bucketUrl", storage.BucketURL),
		slog.String("key", storage.Key),
	)

	return backend, nil
}

func newPostgresBackend(params Params) (repository.DocumentBackend, error) {
	db, err := postgres.Open(postgres.Params{
		Lifecycle: params.Lifecycle,
		Config:    params.Config,
		Logger:    params.Logger,
	})
	if err != nil {
		return nil, err
	}

	backend := postgres.NewDocumentBackend(db, params.Config.Storage.DocumentName)

	// Appended after Open's ping hook, so the table is created on a live connection.
	params.Append(fx.Hook{
		OnStart: func(startCtx context.Context) error {
			ctx, cancel := context.WithTimeout(startCtx, lifecycle.DefaultTimeout)
			defer cancel()

			return backend.Migrate(ctx)
		},
	})
	params.Logger.Info("Using postgres account storage",
		slog.String("document", params.Config.Storage.DocumentName),
	)

	return backend, nil
}
