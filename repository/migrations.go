package repository

import (
	"context"
	"fmt"
	"time"
)

const postgresSchema = `
	CREATE TABLE IF NOT EXISTS books (
		id bigserial PRIMARY KEY,
		created_at timestamp(0) with time zone NOT NULL DEFAULT NOW(),
		title varchar(90) NOT NULL,
		author varchar(100) NOT NULL,
		year integer NOT NULL,
		genre varchar(50),
		publisher varchar(50),
		edition_number integer,
		description text,
		cover_url varchar(255),
		isbn varchar(20),
		status text NOT NULL DEFAULT 'available',
		loan_date timestamp(0) with time zone,
		version integer NOT NULL DEFAULT 1,
		CONSTRAINT books_title_key UNIQUE (title),
		CONSTRAINT books_isbn_key UNIQUE (isbn),
		CONSTRAINT books_status_check CHECK (status IN ('available', 'loaned')),
		CONSTRAINT books_loan_date_check CHECK ((status = 'loaned') = (loan_date IS NOT NULL)),
		CONSTRAINT books_edition_number_check CHECK (edition_number IS NULL OR edition_number >= 1)
	);
	CREATE INDEX IF NOT EXISTS books_status_idx ON books (status);
	CREATE INDEX IF NOT EXISTS books_publisher_idx ON books (publisher);`

const sqliteSchema = `
	CREATE TABLE IF NOT EXISTS books (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		created_at TIMESTAMP NOT NULL,
		title TEXT NOT NULL,
		author TEXT NOT NULL,
		year INTEGER NOT NULL,
		genre TEXT,
		publisher TEXT,
		edition_number INTEGER,
		description TEXT,
		cover_url TEXT,
		isbn TEXT,
		status TEXT NOT NULL DEFAULT 'available',
		loan_date TIMESTAMP,
		version INTEGER NOT NULL DEFAULT 1,
		CONSTRAINT books_title_key UNIQUE (title),
		CONSTRAINT books_isbn_key UNIQUE (isbn),
		CONSTRAINT books_status_check CHECK (status IN ('available', 'loaned')),
		CONSTRAINT books_loan_date_check CHECK ((status = 'loaned') = (loan_date IS NOT NULL)),
		CONSTRAINT books_edition_number_check CHECK (edition_number IS NULL OR edition_number >= 1)
	);
	CREATE INDEX IF NOT EXISTS books_status_idx ON books (status);
	CREATE INDEX IF NOT EXISTS books_publisher_idx ON books (publisher);`

// Migrate creates the books table for the connected dialect. It is safe to run on
// every start.
func (r *repository) Migrate(ctx context.Context) error {
	var schema string
	switch r.db.DriverName() {
	case "postgres":
		schema = postgresSchema
	case "sqlite":
		schema = sqliteSchema
	default:
		return fmt.Errorf("no schema for driver %q", r.db.DriverName())
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}
