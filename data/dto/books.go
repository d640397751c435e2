package dto

import (
	"strings"

	"github.com/emzola/biblioteca/data"
	"github.com/emzola/biblioteca/internal/validator"
)

// CreateBookRequestBody defines the request body for CreateBook. Optional fields are
// pointers so that absent values are stored as NULL.
type CreateBookRequestBody struct {
	Title         string  `json:"title" yaml:"title"`
	Author        string  `json:"author" yaml:"author"`
	Year          int32   `json:"year" yaml:"year"`
	Genre         *string `json:"genre" yaml:"genre"`
	Publisher     *string `json:"publisher" yaml:"publisher"`
	EditionNumber *int32  `json:"edition_number" yaml:"edition_number"`
	Description   *string `json:"description" yaml:"description"`
	CoverURL      *string `json:"cover_url" yaml:"cover_url"`
	ISBN          *string `json:"isbn" yaml:"isbn"`
}

// Book maps the body onto a new, available book.
func (body CreateBookRequestBody) Book() *data.Book {
	return &data.Book{
		Title:         strings.TrimSpace(body.Title),
		Author:        strings.TrimSpace(body.Author),
		Year:          body.Year,
		Genre:         data.NullableString(body.Genre),
		Publisher:     data.NullableString(body.Publisher),
		EditionNumber: body.EditionNumber,
		Description:   data.NullableString(body.Description),
		CoverURL:      data.NullableString(body.CoverURL),
		ISBN:          data.NullableString(body.ISBN),
		Status:        data.StatusAvailable,
	}
}

// UpdateBookRequestBody defines the request body for UpdateBook. Every field records
// whether it was present in the payload, so only supplied fields are applied. Status
// and loan_date are deliberately absent: they only change through loan and return.
type UpdateBookRequestBody struct {
	Title         Optional[string] `json:"title"`
	Author        Optional[string] `json:"author"`
	Year          Optional[int32]  `json:"year"`
	Genre         Optional[string] `json:"genre"`
	Publisher     Optional[string] `json:"publisher"`
	EditionNumber Optional[int32]  `json:"edition_number"`
	Description   Optional[string] `json:"description"`
	CoverURL      Optional[string] `json:"cover_url"`
	ISBN          Optional[string] `json:"isbn"`
}

// Apply copies the supplied fields onto book, running each through its validator.
// Fields that were not supplied are neither validated nor touched.
func (body UpdateBookRequestBody) Apply(v *validator.Validator, book *data.Book) {
	applyRequired(v, "title", body.Title, trimmed, data.ValidateTitle, &book.Title)
	applyRequired(v, "author", body.Author, trimmed, data.ValidateAuthor, &book.Author)
	applyRequired(v, "year", body.Year, same[int32], data.ValidateYear, &book.Year)

	applyOptional(v, body.Genre, data.NullableString, data.ValidateGenre, &book.Genre)
	applyOptional(v, body.Publisher, data.NullableString, data.ValidatePublisher, &book.Publisher)
	applyOptional(v, body.EditionNumber, same[*int32], data.ValidateEditionNumber, &book.EditionNumber)
	applyOptional(v, body.Description, data.NullableString, data.ValidateDescription, &book.Description)
	applyOptional(v, body.CoverURL, data.NullableString, data.ValidateCoverURL, &book.CoverURL)
	applyOptional(v, body.ISBN, data.NullableString, data.ValidateISBN, &book.ISBN)
}

// Empty reports whether no field was supplied at all.
func (body UpdateBookRequestBody) Empty() bool {
	return !body.Title.Set && !body.Author.Set && !body.Year.Set && !body.Genre.Set &&
		!body.Publisher.Set && !body.EditionNumber.Set && !body.Description.Set &&
		!body.CoverURL.Set && !body.ISBN.Set
}

func applyRequired[T any](v *validator.Validator, key string, field Optional[T], normalize func(T) T, validate func(*validator.Validator, T), dst *T) {
	if !field.Set {
		return
	}
	if !field.Valid {
		v.AddError(key, "must not be null")
		return
	}
	value := normalize(field.Value)
	validate(v, value)
	*dst = value
}

func applyOptional[T any](v *validator.Validator, field Optional[T], normalize func(*T) *T, validate func(*validator.Validator, *T), dst **T) {
	if !field.Set {
		return
	}
	var value *T
	if field.Valid {
		raw := field.Value
		value = normalize(&raw)
	}
	validate(v, value)
	*dst = value
}

func trimmed(s string) string {
	return strings.TrimSpace(s)
}

func same[T any](value T) T {
	return value
}

// SeedBook is one entry of a seed catalog file.
type SeedBook struct {
	CreateBookRequestBody `yaml:",inline"`
	Status                data.Status `yaml:"status"`
}

// SeedCatalog is the top-level document of a seed catalog file.
type SeedCatalog struct {
	Books []SeedBook `yaml:"books"`
}
