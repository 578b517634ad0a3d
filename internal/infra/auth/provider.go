package auth

import (
	"log/slog"

	"credstore/config"
	"credstore/internal/domain/service"
)

// NewPasswordHasher picks the hasher named by auth.hasher.
func NewPasswordHasher(cfg *config.Config, logger *slog.Logger) service.PasswordHasher {
	if cfg.Auth != nil && cfg.Auth.Hasher == config.HasherBcrypt {
		logger.Info("Using bcrypt password hasher", slog.Int("cost", cfg.Auth.BcryptCost))

		return NewBcryptHasherWithCost(cfg.Auth.BcryptCost)
	}

	logger.Warn("Using unsalted SHA3-256 password digests")

	return NewSHA3Hasher()
}
