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

type TodoStore struct{ db *DB }

func NewTodoStore(db *DB) *TodoStore { return &TodoStore{db: db} }

const todoColumns = `id, user_id, description, done, created_at, updated_at`

type TodoUpdate struct {
	Description *string
	Done        *bool
}

func (s *TodoStore) Create(ctx context.Context, userID int64, description string, done bool) (*models.Todo, error) {
	const q = `
INSERT INTO todos (user_id, description, done)
VALUES ($1, $2, $3)
RETURNING ` + todoColumns
	var t models.Todo
	err := s.db.Pool.QueryRow(ctx, q, userID, description, done).
		Scan(&t.ID, &t.UserID, &t.Description, &t.Done, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert todo: %w", err)
	}
	return &t, nil
}

func (s *TodoStore) GetByID(ctx context.Context, id int64) (*models.Todo, error) {
	var t models.Todo
	err := s.db.Pool.QueryRow(ctx, `SELECT `+todoColumns+` FROM todos WHERE id = $1`, id).
		Scan(&t.ID, &t.UserID, &t.Description, &t.Done, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get todo: %w", err)
	}
	return &t, nil
}

func (s *TodoStore) List(ctx context.Context) ([]models.Todo, error) {
	rows, err := s.db.Pool.Query(ctx, `SELECT `+todoColumns+` FROM todos ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	defer rows.Close()

	var out []models.Todo
	for rows.Next() {
		var t models.Todo
		if err := rows.Scan(&t.ID, &t.UserID, &t.Description, &t.Done, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan todo: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *TodoStore) Update(ctx context.Context, id int64, upd TodoUpdate) (*models.Todo, error) {
	b := sq.Update("todos").PlaceholderFormat(sq.Dollar)
	if upd.Description != nil {
		b = b.Set("description", *upd.Description)
	}
	if upd.Done != nil {
		b = b.Set("done", *upd.Done)
	}

	q, args, err := b.Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING " + todoColumns).
		ToSql()
	if err != nil {
		return nil, errs.ErrValidation
	}

	var t models.Todo
	err = s.db.Pool.QueryRow(ctx, q, args...).
		Scan(&t.ID, &t.UserID, &t.Description, &t.Done, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update todo: %w", err)
	}
	return &t, nil
}

func (s *TodoStore) Delete(ctx context.Context, id int64) error {
	tag, err := s.db.Pool.Exec(ctx, `DELETE FROM todos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete todo: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}
