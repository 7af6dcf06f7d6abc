package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/rideshare/internal/domain"
)

const userColumns = `id, email, first_name, last_name, vehicle, seats, luggage_size, talk, smoke,
	created_at, updated_at`

// UserRepo reads and updates user profiles. Accounts themselves are created
// by the identity service, so there is no Create here.
type UserRepo interface {
	// GetByID returns domain.ErrNotFound if the user does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (domain.User, error)

	// ListByIDs returns the users among ids that exist, in no particular order.
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.User, error)

	// UpdateProfile writes the editable fields of u and returns the stored
	// row. An email or first+last name already used by another account
	// yields a *domain.FieldError with Reason "exists".
	UpdateProfile(ctx context.Context, u domain.User) (domain.User, error)

	// Delete removes the account. It returns domain.ErrNotFound if there is
	// no such user and domain.ErrHasActiveReservations while trips or
	// reservations still reference it. Favorites go with the account.
	Delete(ctx context.Context, id uuid.UUID) error
}

// uniqueUserFields maps users' unique constraints onto the input field
// reported back to the client.
var uniqueUserFields = map[string]string{
	"users_email_key": "email",
	"users_name_key":  "username",
}

type pgUserRepo struct {
	db    db
	users table[domain.User]
}

// NewUserRepo constructs a UserRepo backed by the provided db connection.
func NewUserRepo(db db) UserRepo {
	return &pgUserRepo{
		db: db,
		users: table[domain.User]{
			db:      db,
			from:    "users",
			columns: userColumns,
			scan:    scanUser,
		},
	}
}

func (r *pgUserRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.User, error) {
	u, err := r.users.findOne(ctx, "id = @id", pgx.NamedArgs{"id": id})
	if err != nil {
		return domain.User{}, fmt.Errorf("repo.UserRepo.GetByID: %w", err)
	}
	return u, nil
}

func (r *pgUserRepo) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.User, error) {
	if len(ids) == 0 {
		return []domain.User{}, nil
	}
	users, err := r.users.find(ctx, "id = ANY(@ids)", "", pgx.NamedArgs{"ids": ids})
	if err != nil {
		return nil, fmt.Errorf("repo.UserRepo.ListByIDs: %w", err)
	}
	return users, nil
}

func (r *pgUserRepo) UpdateProfile(ctx context.Context, u domain.User) (domain.User, error) {
	const q = `
		UPDATE users
		SET email = @email, first_name = @first_name, last_name = @last_name,
			vehicle = @vehicle, seats = @seats, luggage_size = @luggage_size,
			talk = @talk, smoke = @smoke, updated_at = now()
		WHERE id = @id
		RETURNING ` + userColumns

	result, err := scanUser(r.db.QueryRow(ctx, q, pgx.NamedArgs{
		"id":           u.ID,
		"email":        u.Email,
		"first_name":   u.FirstName,
		"last_name":    u.LastName,
		"vehicle":      u.Vehicle,
		"seats":        u.Seats,
		"luggage_size": string(u.LuggageSize),
		"talk":         string(u.Talk),
		"smoke":        u.Smoke,
	}))
	if err != nil {
		if constraint, ok := violated(err, uniqueViolation); ok {
			if field, known := uniqueUserFields[constraint]; known {
				return domain.User{}, fmt.Errorf("repo.UserRepo.UpdateProfile: %w", domain.NewFieldError(field, "exists"))
			}
		}
		return domain.User{}, fmt.Errorf("repo.UserRepo.UpdateProfile: %w", err)
	}
	return result, nil
}

func (r *pgUserRepo) Delete(ctx context.Context, id uuid.UUID) error {
	n, err := r.users.removeMany(ctx, "id = @id", pgx.NamedArgs{"id": id})
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("repo.UserRepo.Delete: %w: user still publishes trips or holds reservations",
				domain.ErrHasActiveReservations)
		}
		return fmt.Errorf("repo.UserRepo.Delete: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("repo.UserRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

func scanUser(s scanner) (domain.User, error) {
	var (
		u             domain.User
		id            pgtype.UUID
		luggage, talk string
	)
	err := s.Scan(&id, &u.Email, &u.FirstName, &u.LastName, &u.Vehicle, &u.Seats,
		&luggage, &talk, &u.Smoke, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, domain.ErrNotFound
		}
		return domain.User{}, err
	}
	u.ID = uuid.UUID(id.Bytes)
	u.LuggageSize = domain.LuggageSize(luggage)
	u.Talk = domain.Talk(talk)
	return u, nil
}
