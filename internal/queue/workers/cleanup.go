package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/tasknest/tasknest/internal/queue"
)

// ExpiredTokenPruner removes token rows whose expiry has passed.
type ExpiredTokenPruner interface {
	DeleteExpired(ctx context.Context, now time.Time) (refresh, access int64, err error)
}

// CleanupWorker prunes expired refresh and access token rows. The session
// flow also prunes inline on detection; this worker sweeps up the rest.
type CleanupWorker struct {
	tokens ExpiredTokenPruner
}

func NewCleanupWorker(tokens ExpiredTokenPruner) *CleanupWorker {
	return &CleanupWorker{tokens: tokens}
}

func (w *CleanupWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload queue.TokenCleanupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	before := time.Now()
	if payload.Before != "" {
		parsed, err := time.Parse(time.RFC3339, payload.Before)
		if err != nil {
			return fmt.Errorf("parse cutoff: %w", err)
		}
		before = parsed
	}

	refresh, access, err := w.tokens.DeleteExpired(ctx, before)
	if err != nil {
		return fmt.Errorf("prune expired tokens: %w", err)
	}

	slog.Info("pruned expired tokens", "refresh_deleted", refresh, "access_deleted", access)
	return nil
}
