// Package async runs functions on goroutines and delivers their results as
// callbacks on the caller's goroutine.
package async

import (
	"context"
	"time"
)

// A Runner spawns goroutines for funcs and queues their callbacks in a Mailbox.
// Callbacks run synchronously from ProcessMessages or Wait on the owning goroutine.
type Runner struct {
	bx *Mailbox
}

func NewRunner() Runner {
	return Runner{
		bx: NewMailbox(),
	}
}

func (r *Runner) NumRunning() int {
	return r.bx.Count()
}

// RunAsync runs f on a new goroutine; cb receives its result from ProcessMessages.
func (r *Runner) RunAsync(f func() error, cb AsyncErrorResponseHandler) {
	asyncErr := r.bx.NewAsyncError(cb)
	go func(rsp *AsyncError) {
		rsp.SetValue(f())
	}(asyncErr)
}

// ProcessMessages invokes the callbacks of every completed func.
func (r *Runner) ProcessMessages() {
	r.bx.ProcessMessages()
}

// Wait processes messages every poll interval until nothing is running or ctx is done.
func (r *Runner) Wait(ctx context.Context, poll time.Duration) error {
	for {
		r.ProcessMessages()
		if r.NumRunning() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(poll):
		}
	}
}
