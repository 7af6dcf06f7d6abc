package testutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// Querier is satisfied by *pgxpool.Pool and pgx.Tx.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// InsertUser creates a user row with default preferences and returns its ID.
// Users are owned by the identity service, so the repos never create them;
// integration tests need rows to satisfy the foreign keys.
func InsertUser(t *testing.T, q Querier, firstName string) uuid.UUID {
	t.Helper()

	var id pgtype.UUID
	err := q.QueryRow(context.Background(),
		`INSERT INTO users (email, first_name, last_name) VALUES (@email, @first, @last) RETURNING id`,
		pgx.NamedArgs{
			"email": uuid.NewString() + "@example.test",
			"first": firstName,
			// (first_name, last_name) is unique
			"last": "Test-" + uuid.NewString()[:8],
		},
	).Scan(&id)
	if err != nil {
		t.Fatalf("testutil.InsertUser: %v", err)
	}
	return uuid.UUID(id.Bytes)
}
