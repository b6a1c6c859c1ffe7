package pipeline

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/tobysim/radiation/internal/queue"
)

// ConsoleInjector queues typed lines for speech. Lines are spoken as typed,
// without lexicon correction.
type ConsoleInjector struct {
	r     io.Reader
	queue *queue.UtteranceQueue
}

// NewConsoleInjector reads lines from r. If r is an io.Closer, closing it
// is how a blocked read is interrupted at shutdown.
func NewConsoleInjector(r io.Reader, q *queue.UtteranceQueue) *ConsoleInjector {
	return &ConsoleInjector{r: r, queue: q}
}

// Name identifies the worker in logs.
func (c *ConsoleInjector) Name() string { return "console" }

// Run reads until end of input, which stops only this worker.
func (c *ConsoleInjector) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(c.r)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		u := queue.NewUtterance(line, queue.SourceConsole)
		if err := c.queue.Enqueue(u); err != nil {
			if errors.Is(err, queue.ErrQueueClosed) {
				return nil
			}
			log.Warn("Dropped console line", "id", u.ID, "error", err)
			continue
		}
		log.Debug("Queued console line", "id", u.ID, "text", line)
	}

	if err := scanner.Err(); err != nil && ctx.Err() == nil && !errors.Is(err, io.ErrClosedPipe) {
		log.Warn("Console input failed", "error", err)
	}
	log.Debug("Console input closed")
	return nil
}

// Close interrupts a blocked read when the reader supports it.
func (c *ConsoleInjector) Close() error {
	if closer, ok := c.r.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
