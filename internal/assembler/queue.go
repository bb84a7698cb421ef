package assembler

import (
	"context"
	"sync"

	"github.com/datallboy/gonzb-assembler/internal/domain"
)

// item is one unit of work. A nil file marks the job as fully downloaded; a
// nil job stops the worker.
type item struct {
	job  *domain.Job
	file *domain.FileItem
}

// queue is an unbounded FIFO with a single consumer.
type queue struct {
	mu     sync.Mutex
	items  []item
	signal chan struct{}
}

func newQueue() *queue {
	return &queue{signal: make(chan struct{}, 1)}
}

func (q *queue) push(it item) {
	q.mu.Lock()
	q.items = append(q.items, it)
	q.mu.Unlock()

	// Wake the consumer; a pending signal is enough
	select {
	case q.signal <- struct{}{}:
	default:
	}
}

// pop blocks until an item is available or ctx is done.
func (q *queue) pop(ctx context.Context) (item, bool) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			it := q.items[0]
			q.items[0] = item{}
			q.items = q.items[1:]
			q.mu.Unlock()
			return it, true
		}
		q.mu.Unlock()

		select {
		case <-q.signal:
		case <-ctx.Done():
			return item{}, false
		}
	}
}

func (q *queue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
