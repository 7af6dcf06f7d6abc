// Package repo contains all database access logic for the rideshare API.
// Each resource has its own file with an interface and a Postgres implementation.
// No business logic lives here, only SQL and type mapping.
package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Postgres SQLSTATEs the repos translate into domain errors.
const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// db is the minimal interface satisfied by *pgxpool.Pool, pgx.Conn, and pgx.Tx.
// Accepting this interface instead of *pgxpool.Pool directly allows integration
// tests to pass a transaction that is rolled back after each test, giving free
// per-test isolation without any manual cleanup.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// txBeginner is a db that can also open a transaction. pgx.Tx satisfies it
// too (nested transactions become savepoints).
type txBeginner interface {
	db
	Begin(ctx context.Context) (pgx.Tx, error)
}

// scanner is satisfied by both pgx.Row and pgx.Rows, allowing scan functions
// to be reused for both QueryRow and Query calls.
type scanner interface {
	Scan(dest ...any) error
}

// table is the query plumbing shared by every entity repo: one table (or
// aliased FROM clause), one column list, one scan function.
// Entity repos embed it and add their own writes.
type table[T any] struct {
	db      db
	from    string
	columns string
	scan    func(scanner) (T, error)
}

// findOne returns the first row matching where, or domain.ErrNotFound.
func (t table[T]) findOne(ctx context.Context, where string, args pgx.NamedArgs) (T, error) {
	q := "SELECT " + t.columns + " FROM " + t.from + " WHERE " + where + " LIMIT 1"
	return t.scan(t.db.QueryRow(ctx, q, args))
}

// find returns every row matching where; tail is appended verbatim
// (ORDER BY, LIMIT, ...). The result is never nil.
func (t table[T]) find(ctx context.Context, where, tail string, args pgx.NamedArgs) ([]T, error) {
	q := "SELECT " + t.columns + " FROM " + t.from + " WHERE " + where + " " + tail
	rows, err := t.db.Query(ctx, q, args)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		v, err := t.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

// count returns the number of rows matching where.
func (t table[T]) count(ctx context.Context, where string, args pgx.NamedArgs) (int64, error) {
	var n int64
	q := "SELECT count(*) FROM " + t.from + " WHERE " + where
	if err := t.db.QueryRow(ctx, q, args).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// removeMany deletes every row matching where and returns how many went.
// from must be a bare table name for this to be valid SQL.
func (t table[T]) removeMany(ctx context.Context, where string, args pgx.NamedArgs) (int64, error) {
	tag, err := t.db.Exec(ctx, "DELETE FROM "+t.from+" WHERE "+where, args)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// isUniqueViolation reports whether err is a Postgres unique constraint error.
func isUniqueViolation(err error) bool {
	_, ok := violated(err, uniqueViolation)
	return ok
}

// isForeignKeyViolation reports whether err is a Postgres foreign key error,
// e.g. deleting a row that a RESTRICT reference still points at.
func isForeignKeyViolation(err error) bool {
	_, ok := violated(err, foreignKeyViolation)
	return ok
}

// violated returns the name of the constraint err reports when its SQLSTATE
// is code.
func violated(err error, code string) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == code {
		return pgErr.ConstraintName, true
	}
	return "", false
}

// Repos groups the repos that share one transaction.
type Repos struct {
	Trips        TripRepo
	Reservations ReservationRepo
}

// Store opens transactions spanning several repos.
type Store interface {
	// InTx runs fn inside a single transaction. The transaction commits when
	// fn returns nil and rolls back otherwise; fn's error is returned as is.
	InTx(ctx context.Context, fn func(Repos) error) error
}

type pgStore struct {
	db txBeginner
}

// NewStore constructs a Store backed by the provided connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewStore(db txBeginner) Store {
	return &pgStore{db: db}
}

func (s *pgStore) InTx(ctx context.Context, fn func(Repos) error) error {
	return pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		return fn(Repos{
			Trips:        NewTripRepo(tx),
			Reservations: NewReservationRepo(tx),
		})
	})
}
