package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Repository defines the app's repository layer.
type Repository interface {
	books
	// Transact runs fn against a repository bound to a single transaction. The
	// transaction is committed when fn returns nil and rolled back otherwise.
	Transact(ctx context.Context, fn func(Repository) error) error
	Migrate(ctx context.Context) error
}

type repository struct {
	db *sqlx.DB
	q  sqlx.ExtContext
}

// New creates a new instance of Repository.
func New(db *sqlx.DB) *repository {
	return &repository{db: db, q: db}
}

func (r *repository) Transact(ctx context.Context, fn func(Repository) error) (err error) {
	if _, ok := r.q.(*sqlx.Tx); ok {
		return fn(r)
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()
	if err := fn(&repository{db: r.db, q: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
