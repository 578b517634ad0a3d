package service

import "credstore/internal/domain/entity"

// CredentialValidator checks a registration candidate against the business rules.
// Rules are evaluated in a fixed order and the first failing one is returned as an
// AppError from the domain errors package.
type CredentialValidator interface {
	Validate(candidate entity.Credentials, existing entity.UsernameSet) error
}
