package queue

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrQueueFull is returned when a bounded queue is at capacity
	ErrQueueFull = errors.New("queue is full")

	// ErrQueueClosed is returned when operations are attempted on a closed queue
	ErrQueueClosed = errors.New("queue is closed")

	// ErrTimeout is returned by Dequeue when the poll interval elapses with nothing queued
	ErrTimeout = errors.New("queue poll timed out")
)

// Source identifies which producer created an utterance.
type Source string

const (
	SourceMic     Source = "mic"
	SourceConsole Source = "console"
	SourceKey     Source = "key"
)

// Utterance is one unit of text queued for synthesis. It is immutable once
// created and consumed exactly once.
type Utterance struct {
	ID      string
	Text    string
	Source  Source
	Created time.Time
}

// NewUtterance stamps text with a fresh id and creation time.
func NewUtterance(text string, src Source) Utterance {
	return Utterance{
		ID:      uuid.NewString(),
		Text:    text,
		Source:  src,
		Created: time.Now(),
	}
}

// Stats tracks queue throughput.
type Stats struct {
	TotalEnqueued int64
	TotalDequeued int64
	TotalDropped  int64
	CurrentSize   int
	PeakSize      int
	LastEnqueue   time.Time
	LastDequeue   time.Time
	// AverageWait is the mean time an utterance spent queued before dequeue.
	AverageWait time.Duration
}

// UtteranceQueue is a multi-producer, single-consumer FIFO of utterances.
type UtteranceQueue struct {
	items    []Utterance
	capacity int // 0 means unbounded

	mu       sync.Mutex
	notEmpty chan struct{}
	done     chan struct{}

	closed    bool
	stats     Stats
	totalWait time.Duration
}

// New creates a queue. A capacity of zero leaves the queue unbounded.
func New(capacity int) *UtteranceQueue {
	return &UtteranceQueue{
		items:    make([]Utterance, 0, 8),
		capacity: capacity,
		notEmpty: make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
}

// Enqueue appends an utterance. It never blocks.
func (q *UtteranceQueue) Enqueue(u Utterance) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrQueueClosed
	}

	if q.capacity > 0 && len(q.items) >= q.capacity {
		q.stats.TotalDropped++
		return ErrQueueFull
	}

	if u.Created.IsZero() {
		u.Created = time.Now()
	}
	q.items = append(q.items, u)

	q.stats.TotalEnqueued++
	q.stats.LastEnqueue = time.Now()
	if len(q.items) > q.stats.PeakSize {
		q.stats.PeakSize = len(q.items)
	}

	// Wake the consumer without blocking if a wakeup is already pending.
	select {
	case q.notEmpty <- struct{}{}:
	default:
	}

	return nil
}

// Dequeue removes and returns the oldest utterance. It waits at most timeout
// for one to arrive, returning ErrTimeout if none did. Items enqueued before
// Close are still delivered; once drained a closed queue returns ErrQueueClosed.
func (q *UtteranceQueue) Dequeue(ctx context.Context, timeout time.Duration) (Utterance, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		if u, ok, err := q.pop(); ok || err != nil {
			return u, err
		}

		select {
		case <-q.notEmpty:
		case <-q.done:
		case <-timer.C:
			// One last look so a racing Enqueue is never missed.
			if u, ok, err := q.pop(); ok || err != nil {
				return u, err
			}
			return Utterance{}, ErrTimeout
		case <-ctx.Done():
			return Utterance{}, ctx.Err()
		}
	}
}

func (q *UtteranceQueue) pop() (Utterance, bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		if q.closed {
			return Utterance{}, false, ErrQueueClosed
		}
		return Utterance{}, false, nil
	}

	u := q.items[0]
	q.items[0] = Utterance{}
	q.items = q.items[1:]

	now := time.Now()
	q.stats.TotalDequeued++
	q.stats.LastDequeue = now
	q.totalWait += now.Sub(u.Created)

	return u, true, nil
}

// Len returns the number of queued utterances.
func (q *UtteranceQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.items)
}

// Stats returns current queue statistics.
func (q *UtteranceQueue) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()

	stats := q.stats
	stats.CurrentSize = len(q.items)
	if stats.TotalDequeued > 0 {
		stats.AverageWait = q.totalWait / time.Duration(stats.TotalDequeued)
	}
	return stats
}

// Close stops accepting new utterances and wakes a waiting consumer.
func (q *UtteranceQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}

	q.closed = true
	close(q.done)
	return nil
}
