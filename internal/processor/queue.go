package processor

import (
	"context"
	"sync"

	"github.com/datallboy/gonzb-assembler/internal/domain"
)

// jobQueue is an unbounded FIFO of jobs with a single consumer. A nil job
// stops the consumer.
type jobQueue struct {
	mu     sync.Mutex
	jobs   []*domain.Job
	signal chan struct{}
}

func newJobQueue() *jobQueue {
	return &jobQueue{signal: make(chan struct{}, 1)}
}

func (q *jobQueue) push(job *domain.Job) {
	q.mu.Lock()
	q.jobs = append(q.jobs, job)
	q.mu.Unlock()

	select {
	case q.signal <- struct{}{}:
	default:
	}
}

// pop blocks until a job is queued or ctx is done.
func (q *jobQueue) pop(ctx context.Context) (*domain.Job, bool) {
	for {
		q.mu.Lock()
		if len(q.jobs) > 0 {
			job := q.jobs[0]
			q.jobs[0] = nil
			q.jobs = q.jobs[1:]
			q.mu.Unlock()
			return job, true
		}
		q.mu.Unlock()

		select {
		case <-q.signal:
		case <-ctx.Done():
			return nil, false
		}
	}
}

func (q *jobQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}
