// Package jobs defines the background task types shared by the gateway (which
// enqueues) and the worker (which processes).
package jobs

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/watchtowerhq/watchtower/internal/summary"
)

const TaskSummaryRefresh = "summary:refresh"

// SummaryRefreshPayload carries the original request text so the worker can
// recompute the summary for its fingerprint.
type SummaryRefreshPayload struct {
	Fingerprint string `json:"fingerprint"`
	Text        string `json:"text"`
	Context     string `json:"context,omitempty"`
}

// NewSummaryRefreshTask builds a refresh task. The task ID is the fingerprint
// so concurrent hits on the same cooling entry enqueue a single refresh.
func NewSummaryRefreshTask(text, context string) (*asynq.Task, error) {
	fp := summary.Fingerprint(text, context)
	payload, err := json.Marshal(SummaryRefreshPayload{Fingerprint: fp, Text: text, Context: context})
	if err != nil {
		return nil, fmt.Errorf("marshal refresh payload: %w", err)
	}
	return asynq.NewTask(TaskSummaryRefresh, payload, asynq.TaskID(fp), asynq.MaxRetry(2)), nil
}
