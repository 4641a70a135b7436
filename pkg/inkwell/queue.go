package inkwell

import (
	"context"
	"sync"

	"github.com/cperrin88/inkwell/internal/logger"
	"github.com/cperrin88/inkwell/pkg/errutils"
	"github.com/cperrin88/inkwell/pkg/operation"
)

// Queue runs operations one at a time on a single worker goroutine, in the
// order they were added.
type Queue struct {
	mu      sync.Mutex
	cond    *sync.Cond
	pending []*operation.Operation
	running *operation.Operation
	closed  bool

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewQueue starts the worker.
func NewQueue() *Queue {
	ctx, cancel := context.WithCancel(context.Background())
	q := &Queue{ctx: ctx, cancel: cancel, done: make(chan struct{})}
	q.cond = sync.NewCond(&q.mu)
	go q.work()
	return q
}

// Enqueue adds op to the back of the queue.
func (q *Queue) Enqueue(op *operation.Operation) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return errutils.ErrQueueClosed
	}
	q.pending = append(q.pending, op)
	q.mu.Unlock()
	q.cond.Signal()
	return nil
}

// Outstanding returns the number of operations that have not reached a
// terminal state, queued or running.
func (q *Queue) Outstanding() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := 0
	for _, op := range q.pending {
		if !op.State().Terminal() {
			n++
		}
	}
	if q.running != nil && !q.running.State().Terminal() {
		n++
	}
	return n
}

// Close stops accepting work, cancels every queued and running operation and
// waits for the worker to exit. Each cancelled operation still completes.
// Close must not be called from a callback running on the worker.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		<-q.done
		return
	}
	q.closed = true
	pending := append([]*operation.Operation(nil), q.pending...)
	running := q.running
	q.mu.Unlock()

	for _, op := range pending {
		op.Cancel()
	}
	if running != nil {
		running.Cancel()
	}
	q.cancel()
	q.cond.Broadcast()
	<-q.done
}

func (q *Queue) work() {
	defer close(q.done)
	for {
		q.mu.Lock()
		for len(q.pending) == 0 && !q.closed {
			q.cond.Wait()
		}
		if len(q.pending) == 0 {
			q.mu.Unlock()
			return
		}
		op := q.pending[0]
		q.pending[0] = nil
		q.pending = q.pending[1:]
		q.running = op
		q.mu.Unlock()

		if op.State() == operation.StateIdle {
			logger.Debug("Starting operation", logger.Fields{"id": op.ID(), "key": op.Identifier().Key()})
		}
		op.Start(q.ctx)

		q.mu.Lock()
		q.running = nil
		q.mu.Unlock()
	}
}
