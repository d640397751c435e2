package service

import (
	"errors"

	"github.com/emzola/biblioteca/internal/validator"
	"github.com/emzola/biblioteca/repository"
)

var (
	ErrFailedValidation     = errors.New("failed validation")
	ErrRecordNotFound       = errors.New("record not found")
	ErrEditConflict         = errors.New("edit conflict")
	ErrConflict             = errors.New("conflict")
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrContentTooLarge      = errors.New("content too large")
	ErrBadRequest           = errors.New("bad request")
	ErrCoverStorageDisabled = errors.New("cover storage disabled")
)

// Conflict reasons reported to clients.
const (
	ReasonDuplicateTitle = "a book with this title already exists"
	ReasonDuplicateISBN  = "a book with this isbn already exists"
	ReasonAlreadyLoaned  = "book is already loaned"
	ReasonNotLoaned      = "book is not loaned"
	ReasonDeleteLoaned   = "cannot delete a book that is currently loaned"
)

// ValidationError carries the per-field messages of a rejected input.
type ValidationError struct {
	Errors map[string]string
}

func (e *ValidationError) Error() string {
	return "failed validation: " + (&validator.Validator{Errors: e.Errors}).String()
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrFailedValidation
}

func failedValidation(v *validator.Validator) error {
	return &ValidationError{Errors: v.Errors}
}

// ConflictError reports a request that clashes with the current catalog state.
type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string {
	return e.Reason
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

func conflict(reason string) error {
	return &ConflictError{Reason: reason}
}

// translate maps repository errors onto service errors.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrRecordNotFound):
		return ErrRecordNotFound
	case errors.Is(err, repository.ErrEditConflict):
		return ErrEditConflict
	case errors.Is(err, repository.ErrDuplicateTitle):
		return conflict(ReasonDuplicateTitle)
	case errors.Is(err, repository.ErrDuplicateISBN):
		return conflict(ReasonDuplicateISBN)
	default:
		return err
	}
}
