package services

import (
	"context"
	"log"
	"sync"
	"time"
)

// DefaultTaskTimeout bounds each background task
const DefaultTaskTimeout = 30 * time.Second

// TaskRunner runs fire-and-forget side effects off the request path.
// A task never reports back to the caller; failures are logged.
type TaskRunner struct {
	wg      sync.WaitGroup
	timeout time.Duration
}

var taskRunnerInstance = NewTaskRunner(DefaultTaskTimeout)

// NewTaskRunner creates a runner whose tasks are cancelled after timeout
func NewTaskRunner(timeout time.Duration) *TaskRunner {
	return &TaskRunner{timeout: timeout}
}

// GetTaskRunner returns the process-wide task runner
func GetTaskRunner() *TaskRunner {
	return taskRunnerInstance
}

// SetTaskRunner replaces the process-wide task runner
func SetTaskRunner(r *TaskRunner) {
	taskRunnerInstance = r
}

// Go starts fn on its own goroutine with a context detached from any request
func (r *TaskRunner) Go(name string, fn func(ctx context.Context) error) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer func() {
			if rec := recover(); rec != nil {
				log.Printf("background task %s panicked: %v", name, rec)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()

		if err := fn(ctx); err != nil {
			log.Printf("background task %s failed: %v", name, err)
		}
	}()
}

// Wait blocks until every started task has finished
func (r *TaskRunner) Wait() {
	r.wg.Wait()
}
