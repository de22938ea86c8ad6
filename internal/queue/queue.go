package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// DefaultDelay is the pause between two consecutive jobs.
const DefaultDelay = 2 * time.Second

// ErrQueueClosed is returned by Enqueue after Close has been called.
var ErrQueueClosed = errors.New("request queue closed")

// Job is a unit of queued work. ctx is cancelled once the queue is closing;
// jobs still run to completion so their callers are resolved.
type Job func(ctx context.Context)

// RequestQueue runs jobs one at a time in FIFO order on a single worker
// goroutine owned by the queue. Between two jobs the worker waits for the
// configured delay; no delay follows the last job of a burst.
type RequestQueue struct {
	mu     sync.Mutex
	jobs   []Job
	closed bool

	delay  time.Duration
	wake   chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a RequestQueue and starts its worker. A negative delay is treated as zero.
func New(delay time.Duration) *RequestQueue {
	if delay < 0 {
		delay = 0
	}
	ctx, cancel := context.WithCancel(context.Background())
	q := &RequestQueue{
		delay:  delay,
		wake:   make(chan struct{}, 1),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go q.run()
	return q
}

// Enqueue appends job to the tail of the queue.
func (q *RequestQueue) Enqueue(job Job) error {
	if job == nil {
		return fmt.Errorf("enqueue: nil job")
	}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrQueueClosed
	}
	q.jobs = append(q.jobs, job)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
	return nil
}

// Len returns the number of jobs waiting to run, excluding the one running.
func (q *RequestQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}

// Close stops accepting jobs, runs the ones already queued without delay
// and with a cancelled context, and waits for the worker to exit or for
// ctx to expire.
func (q *RequestQueue) Close(ctx context.Context) error {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.cancel()

	select {
	case <-q.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("closing request queue: %w", ctx.Err())
	}
}

func (q *RequestQueue) run() {
	defer close(q.done)

	for {
		job, closed := q.pop()
		if job == nil {
			if closed {
				return
			}
			select {
			case <-q.wake:
			case <-q.ctx.Done():
			}
			continue
		}

		q.exec(job)

		if q.delay > 0 && q.Len() > 0 {
			t := time.NewTimer(q.delay)
			select {
			case <-t.C:
			case <-q.ctx.Done():
				t.Stop()
			}
		}
	}
}

func (q *RequestQueue) pop() (Job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.jobs) == 0 {
		return nil, q.closed
	}
	job := q.jobs[0]
	q.jobs[0] = nil
	q.jobs = q.jobs[1:]
	return job, q.closed
}

// exec runs a single job. A panicking job is logged and treated as complete.
func (q *RequestQueue) exec(job Job) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic in queued job", "error", r)
		}
	}()
	job(q.ctx)
}
