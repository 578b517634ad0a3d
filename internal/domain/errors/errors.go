package errors

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

// Kind groups application errors by how the caller is expected to react.
type Kind int

const (
	// KindInternal is an unexpected failure inside the service.
	KindInternal Kind = iota
	// KindValidation is a user input problem, fixed by resubmitting corrected input.
	KindValidation
	// KindAuthentication means the login credentials did not match any stored account.
	KindAuthentication
	// KindStorage means the account document could not be read or written.
	KindStorage
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthentication:
		return "authentication"
	case KindStorage:
		return "storage"
	default:
		return "internal"
	}
}

// AppError defines the interface for application-specific errors
type AppError interface {
	error
	HTTPCode() int     // HTTP status code
	ErrorCode() string // Business error code
	Message() string   // User-friendly error message
	Details() string   // Detailed error information (optional)
	Kind() Kind        // Error category
}

// BaseError is a basic error structure that implements the AppError interface
type BaseError struct {
	httpCode  int
	errorCode string
	message   string
	details   string
	kind      Kind
}

// NewBaseError creates a new base error
func NewBaseError(kind Kind, httpCode int, errorCode, message, details string) *BaseError {
	return &BaseError{
		httpCode:  httpCode,
		errorCode: errorCode,
		message:   message,
		details:   details,
		kind:      kind,
	}
}

// Error implements the error interface
func (e *BaseError) Error() string {
	return e.message
}

// WrapMessage wraps the error with additional context message
func (e *BaseError) WrapMessage(message string) error {
	return errors.Wrap(e, message)
}

// HTTPCode returns the HTTP status code
func (e *BaseError) HTTPCode() int {
	return e.httpCode
}

// ErrorCode returns the business error code
func (e *BaseError) ErrorCode() string {
	return e.errorCode
}

// Message returns the user-friendly error message
func (e *BaseError) Message() string {
	return e.message
}

// Details returns detailed error information
func (e *BaseError) Details() string {
	return e.details
}

// Kind returns the error category
func (e *BaseError) Kind() Kind {
	return e.kind
}

const invalidLengthMessage = "Either password and username must be longer than %d characters."

// Predefined error types
var (
	// Registration rules, reported in this order of precedence.
	ErrEmptyFields = NewBaseError(
		KindValidation,
		http.StatusBadRequest,
		"EMPTY_FIELDS",
		"Cannot pass empty username nor password.",
		"",
	)

	ErrInvalidCharacter = NewBaseError(
		KindValidation,
		http.StatusBadRequest,
		"INVALID_CHARACTER",
		"Special characters used in username.",
		"",
	)

	ErrInvalidLength = NewBaseError(
		KindValidation,
		http.StatusBadRequest,
		"INVALID_LENGTH",
		fmt.Sprintf(invalidLengthMessage, 5),
		"",
	)

	ErrUsernameTaken = NewBaseError(
		KindValidation,
		http.StatusConflict,
		"USERNAME_TAKEN",
		"Username is taken.",
		"",
	)

	// The request body could not be decoded at all.
	ErrInvalidInput = NewBaseError(
		KindValidation,
		http.StatusBadRequest,
		"INVALID_INPUT",
		"Invalid request body.",
		"",
	)

	// Same outcome for an unknown username and a wrong password.
	ErrAuthenticationFailed = NewBaseError(
		KindAuthentication,
		http.StatusUnauthorized,
		"AUTHENTICATION_FAILED",
		"Invalid username or password.",
		"",
	)

	// ErrStorageUnavailable is the target for errors.Is on any StorageUnavailableError.
	ErrStorageUnavailable = NewBaseError(
		KindStorage,
		http.StatusInternalServerError,
		"STORAGE_UNAVAILABLE",
		"Storage unavailable.",
		"",
	)

	ErrPasswordHashFailed = NewBaseError(
		KindInternal,
		http.StatusInternalServerError,
		"PASSWORD_HASH_FAILED",
		"Password processing failed.",
		"",
	)

	ErrInternalError = NewBaseError(
		KindInternal,
		http.StatusInternalServerError,
		"INTERNAL_ERROR",
		"Internal server error.",
		"",
	)
)

// InvalidLengthError is ErrInvalidLength with the configured minimum in its message.
type InvalidLengthError struct {
	*BaseError
}

// NewInvalidLengthError builds the length error for a minimum of minLength characters
func NewInvalidLengthError(minLength int) *InvalidLengthError {
	return &InvalidLengthError{
		BaseError: NewBaseError(
			KindValidation,
			ErrInvalidLength.HTTPCode(),
			ErrInvalidLength.ErrorCode(),
			fmt.Sprintf(invalidLengthMessage, minLength),
			"",
		),
	}
}

// Is lets errors.Is(err, ErrInvalidLength) match whatever minimum is configured.
func (e *InvalidLengthError) Is(target error) bool {
	return target == ErrInvalidLength
}

// StorageUnavailableError reports that the account document could not be read or written.
// The cause is kept for logs and never rendered to clients.
type StorageUnavailableError struct {
	err     error
	details string
}

// NewStorageUnavailableError wraps a persistence failure
func NewStorageUnavailableError(err error, details string) AppError {
	return &StorageUnavailableError{
		err:     err,
		details: details,
	}
}

// Error implements the error interface
func (e *StorageUnavailableError) Error() string {
	if e.err == nil {
		return "storage unavailable: " + e.details
	}

	return errors.Wrap(e.err, "storage unavailable: "+e.details).Error()
}

// Unwrap exposes the persistence cause
func (e *StorageUnavailableError) Unwrap() error {
	return e.err
}

// Is lets errors.Is(err, ErrStorageUnavailable) match every storage failure.
func (e *StorageUnavailableError) Is(target error) bool {
	return target == ErrStorageUnavailable
}

// HTTPCode returns the HTTP status code
func (e *StorageUnavailableError) HTTPCode() int {
	return ErrStorageUnavailable.HTTPCode()
}

// ErrorCode returns the business error code
func (e *StorageUnavailableError) ErrorCode() string {
	return ErrStorageUnavailable.ErrorCode()
}

// Message returns the user-friendly error message
func (e *StorageUnavailableError) Message() string {
	return ErrStorageUnavailable.Message()
}

// Details returns which storage operation failed
func (e *StorageUnavailableError) Details() string {
	return e.details
}

// Kind returns KindStorage
func (e *StorageUnavailableError) Kind() Kind {
	return KindStorage
}

// KindOf returns the category of err, KindInternal when err carries no AppError.
func KindOf(err error) Kind {
	var appErr AppError
	if errors.As(err, &appErr) {
		return appErr.Kind()
	}

	return KindInternal
}
