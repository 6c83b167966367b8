package store

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/tasknest/tasknest/internal/errs"
	"github.com/tasknest/tasknest/internal/models"
)

type UserStore struct{ db *DB }

func NewUserStore(db *DB) *UserStore { return &UserStore{db: db} }

const userColumns = `id, username, password_hash, email, phone_number, phone_number_verified, created_at, updated_at`

// UserUpdate carries the optional fields a profile update may change.
// Password is expected to be hashed already; the plaintext never reaches the store.
type UserUpdate struct {
	Username            *string
	PasswordHash        *string
	Email               *string
	PhoneNumber         *string
	PhoneNumberVerified *bool
}

func (s *UserStore) Create(ctx context.Context, username, passwordHash, email string, phoneNumber *string) (*models.User, error) {
	const q = `
INSERT INTO users (username, password_hash, email, phone_number)
VALUES ($1, $2, $3, $4)
RETURNING ` + userColumns
	var u models.User
	err := s.db.Pool.QueryRow(ctx, q, username, passwordHash, email, phoneNumber).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Email, &u.PhoneNumber, &u.PhoneNumberVerified, &u.CreatedAt, &u.UpdatedAt)
	if isUniqueViolation(err) {
		return nil, errs.ErrAlreadyExists
	}
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return &u, nil
}

func (s *UserStore) GetByID(ctx context.Context, id int64) (*models.User, error) {
	var u models.User
	err := s.db.Pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Email, &u.PhoneNumber, &u.PhoneNumberVerified, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

func (s *UserStore) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	err := s.db.Pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Email, &u.PhoneNumber, &u.PhoneNumberVerified, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user by username: %w", err)
	}
	return &u, nil
}

func (s *UserStore) List(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.Pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var out []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Email, &u.PhoneNumber, &u.PhoneNumberVerified, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// Update applies the provided fields with a parameter-bound builder. An update
// with no fields set returns errs.ErrValidation before touching the database.
func (s *UserStore) Update(ctx context.Context, id int64, upd UserUpdate) (*models.User, error) {
	b := sq.Update("users").PlaceholderFormat(sq.Dollar)
	if upd.Username != nil {
		b = b.Set("username", *upd.Username)
	}
	if upd.PasswordHash != nil {
		b = b.Set("password_hash", *upd.PasswordHash)
	}
	if upd.Email != nil {
		b = b.Set("email", *upd.Email)
	}
	if upd.PhoneNumber != nil {
		b = b.Set("phone_number", *upd.PhoneNumber)
	}
	if upd.PhoneNumberVerified != nil {
		b = b.Set("phone_number_verified", *upd.PhoneNumberVerified)
	}

	q, args, err := b.Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING " + userColumns).
		ToSql()
	if err != nil {
		return nil, errs.ErrValidation
	}

	var u models.User
	err = s.db.Pool.QueryRow(ctx, q, args...).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Email, &u.PhoneNumber, &u.PhoneNumberVerified, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.ErrNotFound
	}
	if isUniqueViolation(err) {
		return nil, errs.ErrAlreadyExists
	}
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return &u, nil
}

func (s *UserStore) Delete(ctx context.Context, id int64) error {
	tag, err := s.db.Pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}
