// Package accountstore keeps the account collection in a single JSON document and
// serializes every mutation of it.
package accountstore

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"credstore/config"
	"credstore/internal/domain/entity"
	domainerrors "credstore/internal/domain/errors"
	"credstore/internal/domain/lifecycle"
	"credstore/internal/domain/repository"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

var emptyCollection = []byte("[]")

// Store is the only owner of the persisted account document.
//
// Appends hold the write lock across load, uniqueness check and replace, so the
// sequence is one critical section. Reads share the read lock and therefore never
// observe a document that is being replaced.
type Store struct {
	mu      sync.RWMutex
	backend repository.DocumentBackend
	logger  *slog.Logger
}

// Params defines the parameters required for the store
type Params struct {
	fx.In
	fx.Lifecycle

	Config  *config.Config
	Logger  *slog.Logger
	Backend repository.DocumentBackend
}

// New builds the store and, on start, makes sure the document exists when
// storage.createIfMissing is set.
func New(params Params) repository.AccountRepository {
	store := NewStore(params.Backend, params.Logger)

	createIfMissing := params.Config.Storage != nil && params.Config.Storage.CreateIfMissing
	params.Append(fx.Hook{
		OnStart: func(startCtx context.Context) error {
			ctx, cancel := context.WithTimeout(startCtx, lifecycle.DefaultTimeout)
			defer cancel()

			return store.Ensure(ctx, createIfMissing)
		},
	})

	return store
}

// NewStore wraps a document backend.
func NewStore(backend repository.DocumentBackend, logger *slog.Logger) *Store {
	return &Store{
		backend: backend,
		logger:  logger,
	}
}

// Ensure checks that the document is readable. A missing document is created as an
// empty collection when create is true; otherwise it is only reported, and requests
// will fail with StorageUnavailable until it appears.
func (s *Store) Ensure(ctx context.Context, create bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	accounts, err := s.load(ctx)
	if err == nil {
		s.logger.Info("Account document ready", slog.Int("accounts", len(accounts)))

		return nil
	}

	if !errors.Is(err, repository.ErrDocumentNotFound) {
		return err
	}

	if !create {
		s.logger.Warn("Account document missing and storage.createIfMissing is off")

		return nil
	}

	if err := s.backend.Replace(ctx, emptyCollection); err != nil {
		return domainerrors.NewStorageUnavailableError(err, "create account document")
	}
	s.logger.Info("Created empty account document")

	return nil
}

// LoadAll returns a copy of the full collection in persisted order.
func (s *Store) LoadAll(ctx context.Context) ([]entity.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.load(ctx)
}

// Usernames returns the set of usernames currently stored.
func (s *Store) Usernames(ctx context.Context) (entity.UsernameSet, error) {
	accounts, err := s.LoadAll(ctx)
	if err != nil {
		return nil, err
	}

	return entity.NewUsernameSet(accounts), nil
}

// FindByUsername scans the collection for an exact username match.
func (s *Store) FindByUsername(ctx context.Context, username string) (*entity.Account, error) {
	accounts, err := s.LoadAll(ctx)
	if err != nil {
		return nil, err
	}

	for i := range accounts {
		if accounts[i].Username == username {
			account := accounts[i]

			return &account, nil
		}
	}

	return nil, repository.ErrAccountNotFound
}

// Append adds account to the end of the collection and rewrites the document.
// A username already present yields ErrUsernameTaken and nothing is written.
func (s *Store) Append(ctx context.Context, account entity.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	accounts, err := s.load(ctx)
	if err != nil {
		return err
	}

	if entity.NewUsernameSet(accounts).Contains(account.Username) {
		return errors.WithStack(domainerrors.ErrUsernameTaken)
	}

	data, err := json.Marshal(append(accounts, account))
	if err != nil {
		return domainerrors.NewStorageUnavailableError(err, "encode account document")
	}

	if err := s.backend.Replace(ctx, data); err != nil {
		s.logger.Error("Failed to replace account document", slog.Any("error", err))

		return domainerrors.NewStorageUnavailableError(err, "replace account document")
	}

	return nil
}

// load must be called with s.mu held.
func (s *Store) load(ctx context.Context) ([]entity.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.WithStack(err)
	}

	data, err := s.backend.Read(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrDocumentNotFound) {
			return nil, domainerrors.NewStorageUnavailableError(err, "account document missing")
		}

		return nil, domainerrors.NewStorageUnavailableError(err, "read account document")
	}

	accounts, err := decode(data)
	if err != nil {
		return nil, domainerrors.NewStorageUnavailableError(err, "decode account document")
	}

	return accounts, nil
}

// record mirrors entity.Account with pointers so missing fields are detected.
type record struct {
	Username *string `json:"username"`
	Password *string `json:"password"`
}

func decode(data []byte) ([]entity.Account, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, errors.New("account document is not a JSON array")
	}

	var records []record
	if err := json.Unmarshal(trimmed, &records); err != nil {
		return nil, errors.Wrap(err, "unmarshal account document")
	}

	accounts := make([]entity.Account, 0, len(records))
	for i, r := range records {
		if r.Username == nil || r.Password == nil {
			return nil, errors.Errorf("account %d is missing username or password", i)
		}
		accounts = append(accounts, entity.Account{
			Username:       *r.Username,
			PasswordDigest: *r.Password,
		})
	}

	return accounts, nil
}
