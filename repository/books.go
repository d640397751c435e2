package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/emzola/biblioteca/data"
)

type books interface {
	CreateBook(ctx context.Context, book *data.Book) error
	GetBook(ctx context.Context, id int64) (*data.Book, error)
	GetAllBooks(ctx context.Context, filters data.BookFilters) ([]*data.Book, data.Metadata, error)
	UpdateBook(ctx context.Context, book *data.Book) error
	DeleteBook(ctx context.Context, id int64) error
	TitleExists(ctx context.Context, title string, excludeID int64) (bool, error)
	ISBNExists(ctx context.Context, isbn string, excludeID int64) (bool, error)
	GetBookStats(ctx context.Context) (data.Stats, error)
}

const bookColumns = `id, created_at, title, author, year, genre, publisher, edition_number, description, cover_url, isbn, status, loan_date, version`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBook(row rowScanner) (*data.Book, error) {
	var book data.Book
	err := row.Scan(
		&book.ID,
		&book.CreatedAt,
		&book.Title,
		&book.Author,
		&book.Year,
		&book.Genre,
		&book.Publisher,
		&book.EditionNumber,
		&book.Description,
		&book.CoverURL,
		&book.ISBN,
		&book.Status,
		&book.LoanDate,
		&book.Version,
	)
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// nullable turns an optional field into a driver argument, nil meaning NULL.
func nullable[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullableInt(p *int32) any {
	if p == nil {
		return nil
	}
	return int64(*p)
}

// CreateBook creates a new book record and fills in its ID, creation time and version.
func (r *repository) CreateBook(ctx context.Context, book *data.Book) error {
	query := r.q.Rebind(`
		INSERT INTO books (created_at, title, author, year, genre, publisher, edition_number, description, cover_url, isbn, status, loan_date, version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1)
		RETURNING id`)
	createdAt := time.Now().UTC().Truncate(time.Second)
	args := []any{
		createdAt,
		book.Title,
		book.Author,
		int64(book.Year),
		nullable(book.Genre),
		nullable(book.Publisher),
		nullableInt(book.EditionNumber),
		nullable(book.Description),
		nullable(book.CoverURL),
		nullable(book.ISBN),
		string(book.Status),
		nullable(book.LoanDate),
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := r.q.QueryRowxContext(ctx, query, args...).Scan(&book.ID); err != nil {
		return uniqueViolation(err)
	}
	book.CreatedAt = createdAt
	book.Version = 1
	return nil
}

// GetBook retrieves a book record by its ID.
func (r *repository) GetBook(ctx context.Context, id int64) (*data.Book, error) {
	if id < 1 {
		return nil, ErrRecordNotFound
	}
	query := r.q.Rebind(`SELECT ` + bookColumns + ` FROM books WHERE id = ?`)
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	book, err := scanBook(r.q.QueryRowxContext(ctx, query, id))
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrRecordNotFound
		default:
			return nil, err
		}
	}
	return book, nil
}

// GetAllBooks retrieves one page of book records matching filters, ordered by title.
// The metadata total counts every match before pagination.
func (r *repository) GetAllBooks(ctx context.Context, filters data.BookFilters) ([]*data.Book, data.Metadata, error) {
	where, args := bookConditions(filters)
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var total int
	countQuery := r.q.Rebind(`SELECT COUNT(*) FROM books` + where)
	if err := r.q.QueryRowxContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, data.Metadata{}, err
	}

	query := r.q.Rebind(`SELECT ` + bookColumns + ` FROM books` + where + ` ORDER BY title ASC, id ASC LIMIT ? OFFSET ?`)
	args = append(args, int64(filters.Limit()), int64(filters.Offset()))
	rows, err := r.q.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, data.Metadata{}, err
	}
	defer rows.Close()
	books := []*data.Book{}
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, data.Metadata{}, err
		}
		books = append(books, book)
	}
	if err = rows.Err(); err != nil {
		return nil, data.Metadata{}, err
	}
	return books, data.CalculateMetadata(total, filters.Page, filters.PageSize), nil
}

func bookConditions(f data.BookFilters) (string, []any) {
	var conds []string
	var args []any
	if f.Search != "" {
		pattern := "%" + escapeLike(strings.ToLower(f.Search)) + "%"
		conds = append(conds, `(LOWER(title) LIKE ? ESCAPE '\' OR LOWER(author) LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern)
	}
	if f.Genre != "" {
		conds = append(conds, `genre = ?`)
		args = append(args, f.Genre)
	}
	if f.Publisher != "" {
		conds = append(conds, `publisher = ?`)
		args = append(args, f.Publisher)
	}
	if f.Year != 0 {
		conds = append(conds, `year = ?`)
		args = append(args, int64(f.Year))
	}
	if f.Status != "" {
		conds = append(conds, `status = ?`)
		args = append(args, f.Status)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// UpdateBook writes every mutable column of book. The write only happens if the
// stored version still matches book.Version; otherwise ErrEditConflict is returned.
func (r *repository) UpdateBook(ctx context.Context, book *data.Book) error {
	query := r.q.Rebind(`
		UPDATE books
		SET title = ?, author = ?, year = ?, genre = ?, publisher = ?, edition_number = ?, description = ?,
		cover_url = ?, isbn = ?, status = ?, loan_date = ?, version = version + 1
		WHERE id = ? AND version = ?
		RETURNING version`)
	args := []any{
		book.Title,
		book.Author,
		int64(book.Year),
		nullable(book.Genre),
		nullable(book.Publisher),
		nullableInt(book.EditionNumber),
		nullable(book.Description),
		nullable(book.CoverURL),
		nullable(book.ISBN),
		string(book.Status),
		nullable(book.LoanDate),
		book.ID,
		book.Version,
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	err := r.q.QueryRowxContext(ctx, query, args...).Scan(&book.Version)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return ErrEditConflict
		default:
			return uniqueViolation(err)
		}
	}
	return nil
}

// DeleteBook deletes a book record.
func (r *repository) DeleteBook(ctx context.Context, id int64) error {
	if id < 1 {
		return ErrRecordNotFound
	}
	query := r.q.Rebind(`DELETE FROM books WHERE id = ?`)
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	result, err := r.q.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// TitleExists reports whether a book other than excludeID already has title.
func (r *repository) TitleExists(ctx context.Context, title string, excludeID int64) (bool, error) {
	return r.exists(ctx, `SELECT 1 FROM books WHERE title = ? AND id <> ? LIMIT 1`, title, excludeID)
}

// ISBNExists reports whether a book other than excludeID already has isbn.
func (r *repository) ISBNExists(ctx context.Context, isbn string, excludeID int64) (bool, error) {
	return r.exists(ctx, `SELECT 1 FROM books WHERE isbn = ? AND id <> ? LIMIT 1`, isbn, excludeID)
}

func (r *repository) exists(ctx context.Context, query string, args ...any) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	var one int
	err := r.q.QueryRowxContext(ctx, r.q.Rebind(query), args...).Scan(&one)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	case err != nil:
		return false, err
	}
	return true, nil
}

// GetBookStats counts books by status and by publisher. Books without a publisher
// are left out of the publisher breakdown.
func (r *repository) GetBookStats(ctx context.Context) (data.Stats, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	stats := data.Stats{ByPublisher: map[string]int{}}
	query := r.q.Rebind(`
		SELECT COUNT(*), COUNT(CASE WHEN status = ? THEN 1 END)
		FROM books`)
	if err := r.q.QueryRowxContext(ctx, query, string(data.StatusLoaned)).Scan(&stats.Total, &stats.Loaned); err != nil {
		return data.Stats{}, err
	}
	stats.Available = stats.Total - stats.Loaned

	rows, err := r.q.QueryxContext(ctx, `
		SELECT publisher, COUNT(*)
		FROM books
		WHERE publisher IS NOT NULL
		GROUP BY publisher`)
	if err != nil {
		return data.Stats{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var publisher string
		var count int
		if err := rows.Scan(&publisher, &count); err != nil {
			return data.Stats{}, err
		}
		stats.ByPublisher[publisher] = count
	}
	if err = rows.Err(); err != nil {
		return data.Stats{}, err
	}
	return stats, nil
}
