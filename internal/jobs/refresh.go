package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/watchtowerhq/watchtower/internal/provider"
)

// Enqueuer submits refresh tasks from the serving path. It implements
// summary.Refresher.
type Enqueuer struct {
	client *asynq.Client
	log    zerolog.Logger
}

// NewEnqueuer wraps an asynq client
func NewEnqueuer(client *asynq.Client, log zerolog.Logger) *Enqueuer {
	return &Enqueuer{client: client, log: log}
}

// EnqueueRefresh schedules a background re-summarization. A task ID conflict
// means a refresh for this fingerprint is already queued, which is the point
// of the dedup, not a failure.
func (e *Enqueuer) EnqueueRefresh(ctx context.Context, req provider.Request) error {
	task, err := NewSummaryRefreshTask(req.Text, req.Context)
	if err != nil {
		return err
	}
	if _, err := e.client.EnqueueContext(ctx, task); err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) {
			return nil
		}
		return fmt.Errorf("enqueue refresh: %w", err)
	}
	return nil
}

// Renewer recomputes a summary and re-populates the cache. Implemented by
// summary.Service.
type Renewer interface {
	Refresh(ctx context.Context, req provider.Request) error
}

// RefreshHandler processes summary:refresh tasks in the worker
type RefreshHandler struct {
	renewer Renewer
	log     zerolog.Logger
}

// NewRefreshHandler creates the worker-side handler
func NewRefreshHandler(renewer Renewer, log zerolog.Logger) *RefreshHandler {
	return &RefreshHandler{renewer: renewer, log: log}
}

// ProcessTask implements asynq.Handler
func (h *RefreshHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var p SummaryRefreshPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("unmarshal refresh payload: %v: %w", err, asynq.SkipRetry)
	}
	if err := h.renewer.Refresh(ctx, provider.Request{Text: p.Text, Context: p.Context}); err != nil {
		h.log.Warn().Err(err).Str("fingerprint", p.Fingerprint).Msg("refresh failed")
		return err
	}
	return nil
}
