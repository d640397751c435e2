package service

import (
	"context"
	"strings"

	"github.com/emzola/biblioteca/data"
	"github.com/emzola/biblioteca/data/dto"
	"github.com/emzola/biblioteca/internal/validator"
	"github.com/emzola/biblioteca/repository"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type books interface {
	ListBooks(ctx context.Context, filters data.BookFilters) ([]*data.Book, data.Metadata, error)
	GetBook(ctx context.Context, bookID int64) (*data.Book, error)
	CreateBook(ctx context.Context, requestBody dto.CreateBookRequestBody) (*data.Book, error)
	UpdateBook(ctx context.Context, bookID int64, requestBody dto.UpdateBookRequestBody) (*data.Book, error)
	DeleteBook(ctx context.Context, bookID int64) error
	LoanBook(ctx context.Context, bookID int64) (*data.Book, error)
	ReturnBook(ctx context.Context, bookID int64) (*data.Book, error)
}

func bookSpan(bookID int64) trace.SpanStartOption {
	return trace.WithAttributes(attribute.Int64("book.id", bookID))
}

// ListBooks service retrieves a page of books matching the filters, ordered by title.
func (s *service) ListBooks(ctx context.Context, filters data.BookFilters) (books []*data.Book, metadata data.Metadata, err error) {
	ctx, span := s.tracer.Start(ctx, "books.list")
	defer func() { finishSpan(span, err) }()
	v := validator.New()
	if data.ValidateBookFilters(v, filters); !v.Valid() {
		return nil, data.Metadata{}, failedValidation(v)
	}
	filters.Search = strings.TrimSpace(filters.Search)
	filters.Filters = filters.Filters.Clamp()
	err = s.repo.Transact(ctx, func(tx repository.Repository) error {
		books, metadata, err = tx.GetAllBooks(ctx, filters)
		return err
	})
	if err != nil {
		return nil, data.Metadata{}, err
	}
	span.SetAttributes(attribute.Int("books.total", metadata.Total))
	return books, metadata, nil
}

// GetBook service retrieves the details of a book.
func (s *service) GetBook(ctx context.Context, bookID int64) (book *data.Book, err error) {
	ctx, span := s.tracer.Start(ctx, "books.get", bookSpan(bookID))
	defer func() { finishSpan(span, err) }()
	err = s.repo.Transact(ctx, func(tx repository.Repository) error {
		book, err = tx.GetBook(ctx, bookID)
		return translate(err)
	})
	if err != nil {
		return nil, err
	}
	return book, nil
}

// CreateBook service validates and stores a new book. New books are always available.
func (s *service) CreateBook(ctx context.Context, requestBody dto.CreateBookRequestBody) (book *data.Book, err error) {
	ctx, span := s.tracer.Start(ctx, "books.create")
	defer func() { finishSpan(span, err) }()
	book = requestBody.Book()
	v := validator.New()
	if data.ValidateBook(v, book); !v.Valid() {
		return nil, failedValidation(v)
	}
	err = s.repo.Transact(ctx, func(tx repository.Repository) error {
		if err := checkUnique(ctx, tx, book.Title, book.ISBN, 0); err != nil {
			return err
		}
		return translate(tx.CreateBook(ctx, book))
	})
	if err != nil {
		return nil, err
	}
	return book, nil
}

// UpdateBook service applies the supplied fields to a book. Fields left out of the
// request keep their stored value and are not revalidated.
func (s *service) UpdateBook(ctx context.Context, bookID int64, requestBody dto.UpdateBookRequestBody) (book *data.Book, err error) {
	ctx, span := s.tracer.Start(ctx, "books.update", bookSpan(bookID))
	defer func() { finishSpan(span, err) }()
	err = s.repo.Transact(ctx, func(tx repository.Repository) error {
		book, err = tx.GetBook(ctx, bookID)
		if err != nil {
			return translate(err)
		}
		if requestBody.Empty() {
			return nil
		}
		v := validator.New()
		if requestBody.Apply(v, book); !v.Valid() {
			return failedValidation(v)
		}
		title := ""
		if requestBody.Title.Set {
			title = book.Title
		}
		var isbn *string
		if requestBody.ISBN.Set {
			isbn = book.ISBN
		}
		if err := checkUnique(ctx, tx, title, isbn, book.ID); err != nil {
			return err
		}
		return translate(tx.UpdateBook(ctx, book))
	})
	if err != nil {
		return nil, err
	}
	return book, nil
}

// DeleteBook service permanently removes a book that is not on loan.
func (s *service) DeleteBook(ctx context.Context, bookID int64) (err error) {
	ctx, span := s.tracer.Start(ctx, "books.delete", bookSpan(bookID))
	defer func() { finishSpan(span, err) }()
	return s.repo.Transact(ctx, func(tx repository.Repository) error {
		book, err := tx.GetBook(ctx, bookID)
		if err != nil {
			return translate(err)
		}
		if book.IsLoaned() {
			return conflict(ReasonDeleteLoaned)
		}
		return translate(tx.DeleteBook(ctx, bookID))
	})
}

// LoanBook service marks an available book as loaned from now.
func (s *service) LoanBook(ctx context.Context, bookID int64) (book *data.Book, err error) {
	ctx, span := s.tracer.Start(ctx, "books.loan", bookSpan(bookID))
	defer func() { finishSpan(span, err) }()
	err = s.repo.Transact(ctx, func(tx repository.Repository) error {
		book, err = tx.GetBook(ctx, bookID)
		if err != nil {
			return translate(err)
		}
		if book.IsLoaned() {
			return conflict(ReasonAlreadyLoaned)
		}
		book.MarkLoaned(s.now())
		return translate(tx.UpdateBook(ctx, book))
	})
	if err != nil {
		return nil, err
	}
	s.loans.Add(ctx, 1)
	return book, nil
}

// ReturnBook service marks a loaned book as available again.
func (s *service) ReturnBook(ctx context.Context, bookID int64) (book *data.Book, err error) {
	ctx, span := s.tracer.Start(ctx, "books.return", bookSpan(bookID))
	defer func() { finishSpan(span, err) }()
	err = s.repo.Transact(ctx, func(tx repository.Repository) error {
		book, err = tx.GetBook(ctx, bookID)
		if err != nil {
			return translate(err)
		}
		if !book.IsLoaned() {
			return conflict(ReasonNotLoaned)
		}
		book.MarkAvailable()
		return translate(tx.UpdateBook(ctx, book))
	})
	if err != nil {
		return nil, err
	}
	s.returns.Add(ctx, 1)
	return book, nil
}

// checkUnique rejects a title or isbn already used by a book other than excludeID.
// An empty title or nil isbn is not checked.
func checkUnique(ctx context.Context, tx repository.Repository, title string, isbn *string, excludeID int64) error {
	if title != "" {
		exists, err := tx.TitleExists(ctx, title, excludeID)
		if err != nil {
			return err
		}
		if exists {
			return conflict(ReasonDuplicateTitle)
		}
	}
	if isbn != nil {
		exists, err := tx.ISBNExists(ctx, *isbn, excludeID)
		if err != nil {
			return err
		}
		if exists {
			return conflict(ReasonDuplicateISBN)
		}
	}
	return nil
}
