package data

import (
	"strings"
	"time"

	"github.com/emzola/biblioteca/internal/validator"
)

// Status is the loan state of a book.
type Status string

const (
	StatusAvailable Status = "available"
	StatusLoaned    Status = "loaned"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	return s == StatusAvailable || s == StatusLoaned
}

// Field bounds shared by create, update and seed.
const (
	TitleMinLength       = 3
	TitleMaxLength       = 90
	AuthorMaxLength      = 100
	GenreMaxLength       = 50
	PublisherMaxLength   = 50
	DescriptionMaxLength = 2000
	CoverURLMaxLength    = 255
	ISBNMaxLength        = 20
	MinYear              = 1900
)

// Book defines a catalog record.
type Book struct {
	ID            int64      `json:"id"`
	CreatedAt     time.Time  `json:"created_at"`
	Title         string     `json:"title"`
	Author        string     `json:"author"`
	Year          int32      `json:"year"`
	Genre         *string    `json:"genre"`
	Publisher     *string    `json:"publisher"`
	EditionNumber *int32     `json:"edition_number"`
	Description   *string    `json:"description"`
	CoverURL      *string    `json:"cover_url"`
	ISBN          *string    `json:"isbn"`
	Status        Status     `json:"status"`
	LoanDate      *time.Time `json:"loan_date"`
	Version       int32      `json:"-"`
}

// IsLoaned reports whether the book is currently out on loan.
func (b *Book) IsLoaned() bool {
	return b.Status == StatusLoaned
}

// MarkLoaned moves the book to the loaned state. loan_date is only ever set together
// with the loaned status.
func (b *Book) MarkLoaned(at time.Time) {
	at = at.UTC()
	b.Status = StatusLoaned
	b.LoanDate = &at
}

// MarkAvailable moves the book back to the available state and clears loan_date.
func (b *Book) MarkAvailable() {
	b.Status = StatusAvailable
	b.LoanDate = nil
}

// NullableString trims s and returns nil when nothing is left, so that blank optional
// fields are stored as NULL.
func NullableString(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func ValidateTitle(v *validator.Validator, title string) {
	v.Check(title != "", "title", "must be provided")
	v.Check(validator.RuneLen(title) >= TitleMinLength, "title", "must be at least 3 characters long")
	v.Check(validator.RuneLen(title) <= TitleMaxLength, "title", "must not be more than 90 characters long")
}

func ValidateAuthor(v *validator.Validator, author string) {
	v.Check(author != "", "author", "must be provided")
	v.Check(validator.RuneLen(author) <= AuthorMaxLength, "author", "must not be more than 100 characters long")
}

func ValidateYear(v *validator.Validator, year int32) {
	v.Check(year != 0, "year", "must be provided")
	v.Check(year >= MinYear, "year", "must be greater than or equal to 1900")
	ValidateYearNotFuture(v, year)
}

// ValidateYearNotFuture only applies the upper bound. Seeded historical books use it in
// place of ValidateYear.
func ValidateYearNotFuture(v *validator.Validator, year int32) {
	v.Check(year <= int32(time.Now().Year()), "year", "must not be in the future")
}

func ValidateGenre(v *validator.Validator, genre *string) {
	validateOptionalLength(v, "genre", genre, GenreMaxLength)
}

func ValidatePublisher(v *validator.Validator, publisher *string) {
	validateOptionalLength(v, "publisher", publisher, PublisherMaxLength)
}

func ValidateDescription(v *validator.Validator, description *string) {
	validateOptionalLength(v, "description", description, DescriptionMaxLength)
}

func ValidateCoverURL(v *validator.Validator, coverURL *string) {
	validateOptionalLength(v, "cover_url", coverURL, CoverURLMaxLength)
}

func ValidateISBN(v *validator.Validator, isbn *string) {
	validateOptionalLength(v, "isbn", isbn, ISBNMaxLength)
}

func ValidateEditionNumber(v *validator.Validator, edition *int32) {
	if edition != nil {
		v.Check(*edition >= 1, "edition_number", "must be greater than zero")
	}
}

func validateOptionalLength(v *validator.Validator, key string, value *string, max int) {
	if value != nil {
		v.Check(validator.RuneLen(*value) <= max, key, "must not be more than "+itoa(max)+" characters long")
	}
}

// ValidateBook checks every writable field of a new book.
func ValidateBook(v *validator.Validator, book *Book) {
	ValidateTitle(v, book.Title)
	ValidateAuthor(v, book.Author)
	ValidateYear(v, book.Year)
	ValidateGenre(v, book.Genre)
	ValidatePublisher(v, book.Publisher)
	ValidateEditionNumber(v, book.EditionNumber)
	ValidateDescription(v, book.Description)
	ValidateCoverURL(v, book.CoverURL)
	ValidateISBN(v, book.ISBN)
}
