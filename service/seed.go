package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/emzola/biblioteca/data"
	"github.com/emzola/biblioteca/data/dto"
	"github.com/emzola/biblioteca/internal/validator"
	"github.com/emzola/biblioteca/repository"
	"go.opentelemetry.io/otel/attribute"
	"gopkg.in/yaml.v3"
)

// SeedResult counts what a seed run did.
type SeedResult struct {
	Created int
	Skipped int
}

type seeds interface {
	Seed(ctx context.Context, catalog dto.SeedCatalog) (SeedResult, error)
}

// ReadSeedCatalog decodes a YAML seed catalog. Unknown keys are rejected.
func ReadSeedCatalog(r io.Reader) (dto.SeedCatalog, error) {
	var catalog dto.SeedCatalog
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&catalog); err != nil {
		return dto.SeedCatalog{}, fmt.Errorf("decode seed catalog: %w", err)
	}
	return catalog, nil
}

// Seed service imports a catalog in one transaction. Books whose title or isbn is
// already present are skipped, so running it twice is harmless. The year lower bound
// does not apply to seeded books.
func (s *service) Seed(ctx context.Context, catalog dto.SeedCatalog) (result SeedResult, err error) {
	ctx, span := s.tracer.Start(ctx, "books.seed")
	defer func() { finishSpan(span, err) }()

	books := make([]*data.Book, 0, len(catalog.Books))
	for i, seed := range catalog.Books {
		book := seed.Book()
		v := validator.New()
		validateSeedBook(v, book, seed.Status)
		if !v.Valid() {
			errs := make(map[string]string, len(v.Errors))
			for k, msg := range v.Errors {
				errs[fmt.Sprintf("books[%d].%s", i, k)] = msg
			}
			return SeedResult{}, &ValidationError{Errors: errs}
		}
		if seed.Status == data.StatusLoaned {
			book.MarkLoaned(s.now())
		}
		books = append(books, book)
	}

	err = s.repo.Transact(ctx, func(tx repository.Repository) error {
		for _, book := range books {
			err := checkUnique(ctx, tx, book.Title, book.ISBN, 0)
			switch {
			case err == nil:
			case errors.Is(err, ErrConflict):
				result.Skipped++
				continue
			default:
				return err
			}
			if err := tx.CreateBook(ctx, book); err != nil {
				return translate(err)
			}
			result.Created++
		}
		return nil
	})
	if err != nil {
		return SeedResult{}, err
	}
	span.SetAttributes(attribute.Int("seed.created", result.Created), attribute.Int("seed.skipped", result.Skipped))
	s.logger.PrintInfo("catalog seeded", map[string]string{
		"created": fmt.Sprint(result.Created),
		"skipped": fmt.Sprint(result.Skipped),
	})
	return result, nil
}

func validateSeedBook(v *validator.Validator, book *data.Book, status data.Status) {
	data.ValidateTitle(v, book.Title)
	data.ValidateAuthor(v, book.Author)
	v.Check(book.Year != 0, "year", "must be provided")
	data.ValidateYearNotFuture(v, book.Year)
	data.ValidateGenre(v, book.Genre)
	data.ValidatePublisher(v, book.Publisher)
	data.ValidateEditionNumber(v, book.EditionNumber)
	data.ValidateDescription(v, book.Description)
	data.ValidateCoverURL(v, book.CoverURL)
	data.ValidateISBN(v, book.ISBN)
	if status != "" {
		v.Check(status.Valid(), "status", "must be one of available, loaned")
	}
}
