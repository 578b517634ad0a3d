// Package validation implements the registration rules on top of go-playground/validator.
package validation

import (
	"fmt"
	"unicode"

	"credstore/config"
	"credstore/internal/domain/entity"
	domainerrors "credstore/internal/domain/errors"
	"credstore/internal/domain/service"

	"github.com/go-playground/validator/v10"
)

// DefaultMinLength is the shortest username or password accepted.
const DefaultMinLength = 5

const (
	tagRequired     = "required"
	tagAlphanumeric = "usernamechars"
)

// alphanumeric matches letters, numbers and the combining marks that belong to
// words (Other_Alphabetic), so scripts such as Devanagari keep their vowel signs.
// The built-in alphanumunicode tag rejects those marks.
func alphanumeric(fl validator.FieldLevel) bool {
	for _, r := range fl.Field().String() {
		if !unicode.In(r, unicode.L, unicode.N, unicode.Other_Alphabetic) {
			return false
		}
	}

	return true
}

type credentialValidator struct {
	validate  *validator.Validate
	minLength string
	lengthErr error
}

// NewCredentialValidator builds the validator with the configured minimum length.
func NewCredentialValidator(cfg *config.Config) service.CredentialValidator {
	minLength := DefaultMinLength
	if cfg != nil && cfg.Validation != nil && cfg.Validation.MinLength > 0 {
		minLength = cfg.Validation.MinLength
	}

	return NewCredentialValidatorWithMinLength(minLength)
}

// NewCredentialValidatorWithMinLength builds the validator with an explicit minimum length.
func NewCredentialValidatorWithMinLength(minLength int) service.CredentialValidator {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.RegisterValidation(tagAlphanumeric, alphanumeric); err != nil {
		panic(fmt.Sprintf("register %s validation: %v", tagAlphanumeric, err))
	}

	return &credentialValidator{
		validate:  validate,
		minLength: fmt.Sprintf("min=%d", minLength),
		lengthErr: domainerrors.NewInvalidLengthError(minLength),
	}
}

// Validate applies the rules in order: empty fields, username characters,
// lengths, then uniqueness. The first failure wins.
func (v *credentialValidator) Validate(candidate entity.Credentials, existing entity.UsernameSet) error {
	if !v.valid(candidate.Username, tagRequired) || !v.valid(candidate.Password, tagRequired) {
		return domainerrors.ErrEmptyFields
	}

	if !v.valid(candidate.Username, tagAlphanumeric) {
		return domainerrors.ErrInvalidCharacter
	}

	if !v.valid(candidate.Username, v.minLength) || !v.valid(candidate.Password, v.minLength) {
		return v.lengthErr
	}

	if existing.Contains(candidate.Username) {
		return domainerrors.ErrUsernameTaken
	}

	return nil
}

func (v *credentialValidator) valid(value, tag string) bool {
	return v.validate.Var(value, tag) == nil
}
