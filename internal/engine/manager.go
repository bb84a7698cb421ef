package engine

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/datallboy/gonzb-assembler/internal/domain"
	"github.com/datallboy/gonzb-assembler/internal/infra/logger"
)

// JobStore persists job state for the queue.
type JobStore interface {
	CreateJob(ctx context.Context, job *domain.Job) error
	SaveJob(ctx context.Context, job *domain.Job) error
	GetJob(ctx context.Context, id string) (*domain.Job, error)
	DeleteJob(ctx context.Context, id string) error
}

// QueueManager owns the live jobs. Finished jobs move to the history list.
type QueueManager struct {
	mu      sync.RWMutex
	store   JobStore
	log     *logger.Logger
	queue   []*domain.Job
	history []*domain.Job

	// Timeout bounds each store call made on behalf of the assembler
	Timeout time.Duration
}

func NewQueueManager(store JobStore, log *logger.Logger) *QueueManager {
	return &QueueManager{
		store:   store,
		log:     log.Named("queue"),
		Timeout: 10 * time.Second,
	}
}

// Add persists job and appends it to the live queue.
func (m *QueueManager) Add(ctx context.Context, job *domain.Job) error {
	if err := m.store.CreateJob(ctx, job); err != nil {
		return fmt.Errorf("failed to save job to database: %w", err)
	}

	m.mu.Lock()
	m.queue = append(m.queue, job)
	m.mu.Unlock()

	m.log.Info("Queued %s (%d files)", job.Name, len(job.Files()))
	return nil
}

// Get searches the live queue, then the history, then the database.
func (m *QueueManager) Get(ctx context.Context, id string) (*domain.Job, bool) {
	m.mu.RLock()
	for _, list := range [][]*domain.Job{m.queue, m.history} {
		for _, job := range list {
			if job.ID == id {
				m.mu.RUnlock()
				return job, true
			}
		}
	}
	m.mu.RUnlock()

	job, err := m.store.GetJob(ctx, id)
	if err == nil && job != nil {
		return job, true
	}
	return nil, false
}

// All returns a copy of the live queue followed by the history.
func (m *QueueManager) All() []*domain.Job {
	m.mu.RLock()
	defer m.mu.RUnlock()

	jobs := make([]*domain.Job, 0, len(m.queue)+len(m.history))
	jobs = append(jobs, m.queue...)
	jobs = append(jobs, m.history...)
	return jobs
}

// EndJob moves a failed job to the history.
func (m *QueueManager) EndJob(job *domain.Job) {
	if job.Status() != domain.StatusFailed {
		job.Fail("Aborted")
	}
	m.Remove(job.ID, true, false)
}

// Remove drops id from the live queue. addToHistory keeps it visible and
// persisted; cleanup also deletes its database rows.
func (m *QueueManager) Remove(id string, addToHistory, cleanup bool) {
	m.mu.Lock()
	var job *domain.Job
	for i, itm := range m.queue {
		if itm.ID == id {
			job = itm
			m.queue = append(m.queue[:i], m.queue[i+1:]...)
			break
		}
	}
	if job != nil && addToHistory {
		m.history = append(m.history, job)
	}
	m.mu.Unlock()

	if job == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), m.Timeout)
	defer cancel()

	if addToHistory {
		if err := m.store.SaveJob(ctx, job); err != nil {
			m.log.Error("Could not save %s: %v", job.Name, err)
		}
	}
	if cleanup {
		if err := m.store.DeleteJob(ctx, id); err != nil {
			m.log.Error("Could not delete %s: %v", job.Name, err)
		}
	}
}

// Delete flags a live job as deleted so that writers stop, then drops it
// and its database rows. It reports whether the job was live.
func (m *QueueManager) Delete(id string) bool {
	m.mu.RLock()
	var job *domain.Job
	for _, itm := range m.queue {
		if itm.ID == id {
			job = itm
			break
		}
	}
	m.mu.RUnlock()

	if job == nil {
		return false
	}

	job.MarkDeleted()
	m.log.Info("Deleted %s", job.Name)
	m.Remove(id, false, true)
	return true
}

// Finish records a job that left post-processing in the history.
func (m *QueueManager) Finish(job *domain.Job) {
	m.mu.Lock()
	if !slices.Contains(m.history, job) {
		m.history = append(m.history, job)
	}
	m.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), m.Timeout)
	defer cancel()
	if err := m.store.SaveJob(ctx, job); err != nil {
		m.log.Error("Could not save %s: %v", job.Name, err)
	}
}

// Len returns the number of live jobs.
func (m *QueueManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.queue)
}
