package repository

import (
	"errors"
	"strings"

	"github.com/lib/pq"
)

var (
	ErrRecordNotFound = errors.New("record not found")
	ErrEditConflict   = errors.New("edit conflict")
	ErrDuplicateTitle = errors.New("duplicate title")
	ErrDuplicateISBN  = errors.New("duplicate isbn")
)

// uniqueViolation maps a unique constraint failure on books.title or books.isbn to
// the matching sentinel. Other errors are returned unchanged.
func uniqueViolation(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if pqErr.Code != "23505" {
			return err
		}
		switch {
		case strings.Contains(pqErr.Constraint, "isbn"):
			return ErrDuplicateISBN
		case strings.Contains(pqErr.Constraint, "title"):
			return ErrDuplicateTitle
		}
		return err
	}
	// modernc.org/sqlite reports "UNIQUE constraint failed: books.title (2067)".
	msg := err.Error()
	if strings.Contains(msg, "UNIQUE constraint failed") {
		switch {
		case strings.Contains(msg, "books.isbn"):
			return ErrDuplicateISBN
		case strings.Contains(msg, "books.title"):
			return ErrDuplicateTitle
		}
	}
	return err
}
