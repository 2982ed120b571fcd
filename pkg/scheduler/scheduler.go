// Package scheduler runs a task once, after a delay, unless the job is canceled first.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrCanceled is the job's result when it was canceled before the task got to run.
	ErrCanceled = errors.New("canceled before the task ran")
	// ErrFailed is the job's result when the task ran and returned an error, which is wrapped.
	ErrFailed = errors.New("task failed")
)

type Task interface {
	Run(ctx context.Context) error
}

// RunFunc adapts a function to the Task interface.
type RunFunc func(ctx context.Context) error

func (f RunFunc) Run(ctx context.Context) error {
	return f(ctx)
}

// Schedule runs the task after waitTime has passed. Canceling the job (or its parent context)
// before that prevents the task from running; once the task has started, cancellation only
// propagates through the task's context.
func Schedule(ctx context.Context, task Task, waitTime time.Duration) *Job {
	subCtx, cancel := context.WithCancel(ctx)
	j := Job{
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go j.run(subCtx, task, waitTime)
	return &j
}

type Job struct {
	cancel    context.CancelFunc
	done      chan struct{}
	completed bool
	err       error
}

func (j *Job) run(ctx context.Context, task Task, waitTime time.Duration) {
	defer close(j.done)
	timer := time.NewTimer(waitTime)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		j.err = ErrCanceled
	case <-timer.C:
		j.completed = true
		if err := task.Run(ctx); err != nil {
			j.err = fmt.Errorf("%w: %w", ErrFailed, err)
		}
	}
}

func (j *Job) Cancel() {
	j.cancel()
}

// Done returns a channel that is closed once the job has run, failed, or been canceled.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Result reports whether the job has run, and with what outcome. While the job is pending, it
// returns false and no error.
func (j *Job) Result() (bool, error) {
	select {
	case <-j.done:
		return j.completed, j.err
	default:
		return false, nil
	}
}
