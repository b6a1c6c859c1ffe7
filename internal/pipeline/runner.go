package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/tobysim/radiation/internal/queue"
)

// ErrAlreadyStarted is returned by a second call to Start.
var ErrAlreadyStarted = errors.New("pipeline already started")

// Worker is a long-running pipeline stage.
type Worker interface {
	Name() string
	Run(ctx context.Context) error
}

// Runner starts the workers together and shuts them down together.
type Runner struct {
	queue   *queue.UtteranceQueue
	workers []Worker

	mu      sync.Mutex
	cancel  context.CancelFunc
	group   *errgroup.Group
	stopped bool
	err     error
}

// NewRunner creates a runner for workers sharing q.
func NewRunner(q *queue.UtteranceQueue, workers ...Worker) *Runner {
	return &Runner{queue: q, workers: workers}
}

// Start launches every worker.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.group != nil {
		return ErrAlreadyStarted
	}

	ctx, r.cancel = context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(ctx)
	r.group = g

	for _, w := range r.workers {
		g.Go(func() (err error) {
			defer func() {
				if p := recover(); p != nil {
					err = fmt.Errorf("%s worker panic: %v", w.Name(), p)
				}
			}()
			log.Debug("Worker started", "worker", w.Name())
			err = w.Run(gctx)
			log.Debug("Worker stopped", "worker", w.Name(), "error", err)
			return err
		})
	}
	return nil
}

// Stop signals shutdown, unblocks readers and waits for every worker to
// return. It is safe to call more than once.
func (r *Runner) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.group == nil || r.stopped {
		return r.err
	}
	r.stopped = true

	r.cancel()
	_ = r.queue.Close()
	for _, w := range r.workers {
		if c, ok := w.(io.Closer); ok {
			if err := c.Close(); err != nil {
				log.Debug("Worker close failed", "worker", w.Name(), "error", err)
			}
		}
	}

	r.err = r.group.Wait()
	return r.err
}
