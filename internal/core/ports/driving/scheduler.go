package driving

import (
	"context"

	"github.com/custodia-labs/docflow/internal/core/domain"
)

// Scheduler manages background tasks like the index sweep.
type Scheduler interface {
	// Start begins running scheduled tasks.
	// Blocks until context is cancelled or an error occurs.
	Start(ctx context.Context) error

	// Stop gracefully stops all running tasks.
	Stop() error

	// RunNow executes a task synchronously regardless of its schedule.
	RunNow(ctx context.Context, taskID string) (domain.TaskResult, error)
}
