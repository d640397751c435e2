package service

import (
	"context"
	"fmt"
	"io"

	"github.com/emzola/biblioteca/data"
	"github.com/emzola/biblioteca/internal/validator"
	"github.com/emzola/biblioteca/repository"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// MaxCoverSize is the largest accepted cover image, in bytes.
const MaxCoverSize = 2 << 20

var supportedCoverTypes = []string{"image/jpeg", "image/png"}

// CoverStore saves cover images and returns the public URL they are served from.
type CoverStore interface {
	PutCover(ctx context.Context, key string, body []byte, contentType string) (string, error)
}

type covers interface {
	UpdateBookCover(ctx context.Context, bookID int64, cover io.Reader) (*data.Book, error)
}

// UpdateBookCover service uploads a cover image for a book and records its URL.
func (s *service) UpdateBookCover(ctx context.Context, bookID int64, cover io.Reader) (book *data.Book, err error) {
	ctx, span := s.tracer.Start(ctx, "books.update_cover", bookSpan(bookID))
	defer func() { finishSpan(span, err) }()
	if s.covers == nil {
		return nil, ErrCoverStorageDisabled
	}
	book, err = s.GetBook(ctx, bookID)
	if err != nil {
		return nil, err
	}
	buffer, err := io.ReadAll(io.LimitReader(cover, MaxCoverSize+1))
	if err != nil {
		return nil, ErrBadRequest
	}
	switch {
	case len(buffer) == 0:
		return nil, ErrBadRequest
	case len(buffer) > MaxCoverSize:
		return nil, ErrContentTooLarge
	}
	mtype := mimetype.Detect(buffer)
	if !validator.Mime(mtype, supportedCoverTypes...) {
		return nil, ErrUnsupportedMediaType
	}
	key := "bookcovers/" + uuid.NewString() + mtype.Extension()
	url, err := s.covers.PutCover(ctx, key, buffer, mtype.String())
	if err != nil {
		return nil, fmt.Errorf("upload cover: %w", err)
	}
	book.CoverURL = &url
	v := validator.New()
	if data.ValidateCoverURL(v, book.CoverURL); !v.Valid() {
		return nil, failedValidation(v)
	}
	err = s.repo.Transact(ctx, func(tx repository.Repository) error {
		return translate(tx.UpdateBook(ctx, book))
	})
	if err != nil {
		return nil, err
	}
	s.logger.PrintInfo("book cover uploaded", map[string]string{"book_id": fmt.Sprint(bookID), "key": key})
	return book, nil
}
