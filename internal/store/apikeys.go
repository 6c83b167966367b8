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

type APIKeyStore struct{ db *DB }

func NewAPIKeyStore(db *DB) *APIKeyStore { return &APIKeyStore{db: db} }

const apiKeyColumns = `id, api_key, client_name, contact_email, is_active, created_at, updated_at`

type APIKeyUpdate struct {
	ClientName   *string
	ContactEmail *string
	IsActive     *bool
}

func (s *APIKeyStore) Insert(ctx context.Context, key, clientName, contactEmail string) (*models.APIKey, error) {
	const q = `
INSERT INTO api_keys (api_key, client_name, contact_email)
VALUES ($1, $2, $3)
RETURNING ` + apiKeyColumns
	var ak models.APIKey
	err := s.db.Pool.QueryRow(ctx, q, key, clientName, contactEmail).
		Scan(&ak.ID, &ak.Key, &ak.ClientName, &ak.ContactEmail, &ak.IsActive, &ak.CreatedAt, &ak.UpdatedAt)
	if isUniqueViolation(err) {
		return nil, errs.ErrAlreadyExists
	}
	if err != nil {
		return nil, fmt.Errorf("insert api key: %w", err)
	}
	return &ak, nil
}

// ActiveKeyExists reports whether the presented key matches a row with
// is_active set. Inactive keys are rejected even on an exact match.
func (s *APIKeyStore) ActiveKeyExists(ctx context.Context, key string) (bool, error) {
	var exists bool
	err := s.db.Pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM api_keys WHERE api_key = $1 AND is_active = TRUE)`, key).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check api key: %w", err)
	}
	return exists, nil
}

func (s *APIKeyStore) List(ctx context.Context) ([]models.APIKey, error) {
	rows, err := s.db.Pool.Query(ctx, `SELECT `+apiKeyColumns+` FROM api_keys ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list api keys: %w", err)
	}
	defer rows.Close()

	var out []models.APIKey
	for rows.Next() {
		var ak models.APIKey
		if err := rows.Scan(&ak.ID, &ak.Key, &ak.ClientName, &ak.ContactEmail, &ak.IsActive, &ak.CreatedAt, &ak.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan api key: %w", err)
		}
		out = append(out, ak)
	}
	return out, rows.Err()
}

func (s *APIKeyStore) GetByID(ctx context.Context, id int64) (*models.APIKey, error) {
	var ak models.APIKey
	err := s.db.Pool.QueryRow(ctx, `SELECT `+apiKeyColumns+` FROM api_keys WHERE id = $1`, id).
		Scan(&ak.ID, &ak.Key, &ak.ClientName, &ak.ContactEmail, &ak.IsActive, &ak.CreatedAt, &ak.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get api key: %w", err)
	}
	return &ak, nil
}

func (s *APIKeyStore) Update(ctx context.Context, id int64, upd APIKeyUpdate) (*models.APIKey, error) {
	b := sq.Update("api_keys").PlaceholderFormat(sq.Dollar)
	if upd.ClientName != nil {
		b = b.Set("client_name", *upd.ClientName)
	}
	if upd.ContactEmail != nil {
		b = b.Set("contact_email", *upd.ContactEmail)
	}
	if upd.IsActive != nil {
		b = b.Set("is_active", *upd.IsActive)
	}

	q, args, err := b.Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING " + apiKeyColumns).
		ToSql()
	if err != nil {
		return nil, errs.ErrValidation
	}

	var ak models.APIKey
	err = s.db.Pool.QueryRow(ctx, q, args...).
		Scan(&ak.ID, &ak.Key, &ak.ClientName, &ak.ContactEmail, &ak.IsActive, &ak.CreatedAt, &ak.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update api key: %w", err)
	}
	return &ak, nil
}

func (s *APIKeyStore) Delete(ctx context.Context, id int64) error {
	tag, err := s.db.Pool.Exec(ctx, `DELETE FROM api_keys WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete api key: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}
