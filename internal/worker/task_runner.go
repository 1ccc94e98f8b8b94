package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/panjf2000/ants/v2"

	"notewise/internal/platform/logger"
)

// TaskRunner executes detached side effects on a bounded pool. Tasks get a
// context that ignores the caller's cancellation but carries its own timeout.
// Errors and panics are logged and never returned.
type TaskRunner struct {
	pool    *ants.Pool
	timeout time.Duration
	log     *logger.Logger
}

func NewTaskRunner(size int, timeout time.Duration, log *logger.Logger) (*TaskRunner, error) {
	if size <= 0 {
		size = 64
	}
	if log == nil {
		log = logger.Nop()
	}
	pool, err := ants.NewPool(size, ants.WithPanicHandler(func(p interface{}) {
		log.Error("detached task panic recovered", "panic", p)
	}))
	if err != nil {
		return nil, fmt.Errorf("create task pool failed: %w", err)
	}
	return &TaskRunner{pool: pool, timeout: timeout, log: log}, nil
}

func (r *TaskRunner) Go(ctx context.Context, name string, task func(ctx context.Context) error) {
	detached := context.WithoutCancel(ctx)
	err := r.pool.Submit(func() {
		taskCtx := detached
		if r.timeout > 0 {
			var cancel context.CancelFunc
			taskCtx, cancel = context.WithTimeout(detached, r.timeout)
			defer cancel()
		}
		if err := task(taskCtx); err != nil {
			r.log.Warn("detached task failed", "task", name, "error", err)
		}
	})
	if err != nil {
		r.log.Warn("detached task rejected", "task", name, "error", err)
	}
}

// Close waits up to timeout for running tasks to finish.
func (r *TaskRunner) Close(timeout time.Duration) {
	if err := r.pool.ReleaseTimeout(timeout); err != nil {
		r.log.Warn("task pool release timed out", "error", err)
	}
}
