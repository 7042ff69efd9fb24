// Package dbx provides small DB abstractions shared by repositories and
// services: a minimal interface (DBTX) implemented by both *sql.DB and
// *sql.Tx, helpers that scope work to a single transaction, and helpers for
// classifying PostgreSQL errors.
package dbx

import (
	"context"
	"database/sql"
	"time"
)

// DBTX is the subset of database/sql used by our repos.
// Both *sql.DB and *sql.Tx satisfy this interface.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// TxFunc is the unit of work executed inside WithTx.
type TxFunc func(ctx context.Context, tx DBTX) error

// WithTx begins a transaction, runs fn with a transactional handle, and then
// commits on success or rolls back on error/panic. Panics are rethrown.
// The transaction is released on every exit path.
//
// Typical use:
//
//	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
//	    users := rm.Users(tx)
//	    _, err := users.Create(ctx, u)
//	    return err
//	})
func WithTx(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn TxFunc) (err error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return &BeginError{Err: err}
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		if cerr := tx.Commit(); cerr != nil {
			err = &CommitError{Err: cerr}
		}
	}()

	err = fn(ctx, tx)
	return err
}

// InTx runs fn in a transaction and returns its value. It is WithTx for
// units of work that produce a result.
func InTx[T any](ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn func(ctx context.Context, tx DBTX) (T, error)) (T, error) {
	var out T
	err := WithTx(ctx, db, opts, func(ctx context.Context, tx DBTX) error {
		v, err := fn(ctx, tx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// Ping checks database reachability with a bounded wait.
func Ping(ctx context.Context, db *sql.DB, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return db.PingContext(ctx)
}

// BeginError reports a failure to open a transaction.
type BeginError struct{ Err error }

func (e *BeginError) Error() string { return "begin tx: " + e.Err.Error() }
func (e *BeginError) Unwrap() error { return e.Err }

// CommitError reports a failure to commit a transaction whose work succeeded.
type CommitError struct{ Err error }

func (e *CommitError) Error() string { return "commit tx: " + e.Err.Error() }
func (e *CommitError) Unwrap() error { return e.Err }
