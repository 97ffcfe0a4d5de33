package jobs

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"
)

// ErrQueueFull reports that a job was rejected because the queue has
// no capacity left. Unlike a duplicate key, this means no job exists
// for the entity and the caller must unwind its state.
var ErrQueueFull = errors.New("job queue full")

// Dispatcher is the FIFO queue between domain mutations and the chain
// sync worker. At most one job per idempotency key is in flight at any
// time; enqueueing a duplicate key is a silent no-op. Jobs are drained
// by a single consumer so transactions from the one signing identity
// stay strictly ordered.
type Dispatcher struct {
	log *logrus.Logger

	mu       sync.Mutex
	inflight map[string]struct{}
	queue    chan Job
}

func NewDispatcher(log *logrus.Logger, size int) *Dispatcher {
	if size <= 0 {
		size = 256
	}
	return &Dispatcher{
		log:      log,
		inflight: make(map[string]struct{}),
		queue:    make(chan Job, size),
	}
}

// Enqueue adds a job unless one with the same idempotency key is
// already queued or executing; a duplicate key is a silent no-op, not
// an error. A full queue returns ErrQueueFull: the job was dropped and
// the caller must put the entity in a re-issuable state.
func (d *Dispatcher) Enqueue(job Job) error {
	d.mu.Lock()
	if _, dup := d.inflight[job.IdempotencyKey]; dup {
		d.mu.Unlock()
		d.log.Debugf("[JOBS] duplicate key absorbed: %s", job.IdempotencyKey)
		return nil
	}
	d.inflight[job.IdempotencyKey] = struct{}{}
	d.mu.Unlock()

	select {
	case d.queue <- job:
		d.log.Infof("[JOBS] enqueued %s (key=%s)", job.Type, job.IdempotencyKey)
		return nil
	default:
		// Queue full. Release the key so the mutation can be re-issued.
		d.mu.Lock()
		delete(d.inflight, job.IdempotencyKey)
		d.mu.Unlock()
		d.log.Errorf("[JOBS] queue full, dropped %s (key=%s)", job.Type, job.IdempotencyKey)
		return ErrQueueFull
	}
}

// Next blocks until a job is available or the context is cancelled.
func (d *Dispatcher) Next(ctx context.Context) (Job, bool) {
	select {
	case <-ctx.Done():
		return Job{}, false
	case job := <-d.queue:
		return job, true
	}
}

// Done releases the idempotency key once a job has been consumed,
// whether it succeeded or failed at the chain level. A fresh enqueue
// under the same key is allowed from this point on.
func (d *Dispatcher) Done(idempotencyKey string) {
	d.mu.Lock()
	delete(d.inflight, idempotencyKey)
	d.mu.Unlock()
}

// Pending reports queued plus executing jobs
func (d *Dispatcher) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.inflight)
}
