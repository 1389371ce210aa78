package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/sourcedesk/sourcedesk/internal/docstore"
)

const (
	// TaskDocstoreCleanup sweeps abandoned staged uploads.
	TaskDocstoreCleanup = "docstore:cleanup"
)

// DocstoreCleanupPayload bounds the retention window for staged files.
type DocstoreCleanupPayload struct {
	OlderThanMinutes int `json:"olderThanMinutes"`
}

// NewDocstoreCleanupTask builds a cleanup task.
func NewDocstoreCleanupTask(olderThan time.Duration) (*asynq.Task, error) {
	payload := DocstoreCleanupPayload{OlderThanMinutes: int(olderThan.Minutes())}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDocstoreCleanup, body, asynq.Queue(QueueDefault)), nil
}

// DocstoreCleanupJob removes staged files left behind by crashed submissions.
type DocstoreCleanupJob struct {
	store  *docstore.Store
	logger *slog.Logger
}

// NewDocstoreCleanupJob constructs the cleanup job.
func NewDocstoreCleanupJob(store *docstore.Store, logger *slog.Logger) *DocstoreCleanupJob {
	return &DocstoreCleanupJob{store: store, logger: logger}
}

// Handle processes TaskDocstoreCleanup tasks.
func (j *DocstoreCleanupJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload DocstoreCleanupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	olderThan := time.Duration(payload.OlderThanMinutes) * time.Minute
	if olderThan <= 0 {
		olderThan = time.Hour
	}
	removed, err := j.store.CleanupStaged(olderThan)
	if err != nil {
		return err
	}
	if removed > 0 && j.logger != nil {
		j.logger.Info("staged uploads swept", slog.Int("removed", removed))
	}
	return nil
}
