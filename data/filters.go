package data

import (
	"math"
	"strconv"

	"github.com/emzola/biblioteca/internal/validator"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Filters holds pagination parameters.
type Filters struct {
	Page     int
	PageSize int
}

// Clamp returns a copy with page >= 1 and page size in [1, MaxPageSize]. A page size
// below one falls back to the default rather than the minimum.
func (f Filters) Clamp() Filters {
	if f.Page < 1 {
		f.Page = DefaultPage
	}
	if f.PageSize < 1 {
		f.PageSize = DefaultPageSize
	}
	if f.PageSize > MaxPageSize {
		f.PageSize = MaxPageSize
	}
	return f
}

func (f Filters) Limit() int {
	return f.PageSize
}

func (f Filters) Offset() int {
	return (f.Page - 1) * f.PageSize
}

// BookFilters narrows a book listing. Zero values mean "no filter".
type BookFilters struct {
	Search    string
	Genre     string
	Publisher string
	Year      int
	Status    string
	Filters
}

func ValidateBookFilters(v *validator.Validator, f BookFilters) {
	if f.Status != "" {
		v.Check(Status(f.Status).Valid(), "status", "must be one of available, loaned")
	}
	v.Check(f.Year >= 0, "year", "must not be negative")
	v.Check(f.Page <= 10_000_000, "page", "must be a maximum of 10 million")
}

// Metadata describes one page of a listing.
type Metadata struct {
	Page     int `json:"page"`
	PerPage  int `json:"per_page"`
	LastPage int `json:"last_page"`
	Total    int `json:"total"`
}

// CalculateMetadata builds page metadata from the pre-pagination match count.
func CalculateMetadata(total, page, pageSize int) Metadata {
	lastPage := 1
	if total > 0 {
		lastPage = int(math.Ceil(float64(total) / float64(pageSize)))
	}
	return Metadata{
		Page:     page,
		PerPage:  pageSize,
		LastPage: lastPage,
		Total:    total,
	}
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
