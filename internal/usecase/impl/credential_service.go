// Package impl contains the implementation of the application's business logic.
package impl

import (
	"context"
	"log/slog"

	"credstore/config"
	deliverycontext "credstore/internal/delivery/context"
	"credstore/internal/domain/entity"
	domainerrors "credstore/internal/domain/errors"
	"credstore/internal/domain/repository"
	"credstore/internal/domain/service"
	"credstore/internal/usecase"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// credentialService implements the CredentialUsecase interface.
type credentialService struct {
	accountRepo   repository.AccountRepository
	hasher        service.PasswordHasher
	validator     service.CredentialValidator
	exposeDigests bool
	logger        *slog.Logger
}

// CredentialServiceParams holds dependencies for CredentialService, injected by Fx.
type CredentialServiceParams struct {
	fx.In

	AccountRepo repository.AccountRepository
	Hasher      service.PasswordHasher
	Validator   service.CredentialValidator
	Config      *config.Config
	Logger      *slog.Logger
}

// NewCredentialService is the constructor for credentialService.
func NewCredentialService(params CredentialServiceParams) usecase.CredentialUsecase {
	exposeDigests := true
	if params.Config != nil && params.Config.Accounts != nil {
		exposeDigests = params.Config.Accounts.ExposeDigests
	}

	return &credentialService{
		accountRepo:   params.AccountRepo,
		hasher:        params.Hasher,
		validator:     params.Validator,
		exposeDigests: exposeDigests,
		logger:        params.Logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *credentialService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Register validates the candidate against the stored usernames and appends it.
// The store re-checks uniqueness under its write lock, so a concurrent registration
// of the same username still ends in ErrUsernameTaken.
func (srv *credentialService) Register(ctx context.Context, input usecase.RegisterInput) error {
	candidate := entity.Credentials{
		Username: input.Username,
		Password: input.Password,
	}

	existing, err := srv.accountRepo.Usernames(ctx)
	if err != nil {
		srv.log(ctx).Error("Failed to load usernames", slog.Any("error", err))

		return err
	}

	if err := srv.validator.Validate(candidate, existing); err != nil {
		srv.log(ctx).Info("Registration rejected",
			slog.String("username", candidate.Username),
			slog.String("reason", errorCode(err)),
		)

		return err
	}

	digest, err := srv.hasher.Hash(candidate.Password)
	if err != nil {
		srv.log(ctx).Error("Failed to hash password", slog.Any("error", err))

		return domainerrors.ErrPasswordHashFailed.WrapMessage(err.Error())
	}

	account := entity.Account{
		Username:       candidate.Username,
		PasswordDigest: digest,
	}
	if err := srv.accountRepo.Append(ctx, account); err != nil {
		if errors.Is(err, domainerrors.ErrUsernameTaken) {
			srv.log(ctx).Info("Registration lost race for username", slog.String("username", candidate.Username))
		} else {
			srv.log(ctx).Error("Failed to append account", slog.String("username", candidate.Username), slog.Any("error", err))
		}

		return err
	}

	srv.log(ctx).Info("Account registered", slog.String("username", candidate.Username))

	return nil
}

// Login checks the password against the stored digest. An unknown username and a
// wrong password produce the same ErrAuthenticationFailed.
func (srv *credentialService) Login(ctx context.Context, input usecase.LoginInput) error {
	account, err := srv.accountRepo.FindByUsername(ctx, input.Username)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			// keep the unknown-user path as slow as a digest comparison
			_, _ = srv.hasher.Hash(input.Password)
			srv.log(ctx).Info("Login failed", slog.String("username", input.Username))

			return errors.WithStack(domainerrors.ErrAuthenticationFailed)
		}

		srv.log(ctx).Error("Failed to look up account", slog.Any("error", err))

		return err
	}

	if !srv.hasher.Check(input.Password, account.PasswordDigest) {
		srv.log(ctx).Info("Login failed", slog.String("username", input.Username))

		return errors.WithStack(domainerrors.ErrAuthenticationFailed)
	}

	srv.log(ctx).Debug("Login succeeded", slog.String("username", input.Username))

	return nil
}

// List returns the stored accounts. Digests are blanked when accounts.exposeDigests is off.
func (srv *credentialService) List(ctx context.Context) ([]entity.Account, error) {
	accounts, err := srv.accountRepo.LoadAll(ctx)
	if err != nil {
		srv.log(ctx).Error("Failed to list accounts", slog.Any("error", err))

		return nil, err
	}

	if !srv.exposeDigests {
		for i := range accounts {
			accounts[i].PasswordDigest = ""
		}
	}

	return accounts, nil
}

// Ping loads the collection once and discards it.
func (srv *credentialService) Ping(ctx context.Context) error {
	_, err := srv.accountRepo.LoadAll(ctx)

	return err
}

func errorCode(err error) string {
	var appErr domainerrors.AppError
	if errors.As(err, &appErr) {
		return appErr.ErrorCode()
	}

	return "UNKNOWN"
}
