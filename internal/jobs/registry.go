// Package jobs implements the in-process Job Registry (C8): a
// TTL-evicted map from job id to job record, using the same
// background sweep-goroutine idiom as this repo's other in-memory
// caches.
package jobs

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/msankrish92/userstory-rating-rag/internal/model"
)

// DefaultTTL is the age at which a job record becomes eligible for
// eviction.
const DefaultTTL = 60 * time.Minute

// sweepInterval is how often the background sweep runs.
const sweepInterval = 10 * time.Minute

// Registry is an in-memory, concurrency-safe store of Jobs. create,
// update, get and list_active are all safe under concurrent callers;
// update replaces the whole record atomically so partial visibility is
// never observed.
type Registry struct {
	mu     sync.RWMutex
	jobs   map[string]model.Job
	ttl    time.Duration
	stopCh chan struct{}
}

// NewRegistry creates a Registry with the given TTL and starts the
// background sweep goroutine.
func NewRegistry(ttl time.Duration) *Registry {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	r := &Registry{
		jobs:   make(map[string]model.Job),
		ttl:    ttl,
		stopCh: make(chan struct{}),
	}
	go r.sweep()
	return r
}

// Create starts a new job with an opaque id and returns the created
// record.
func (r *Registry) Create(total int) model.Job {
	job := model.Job{
		ID:        uuid.NewString(),
		Status:    model.JobInProgress,
		Total:     total,
		StartTime: time.Now().UTC(),
	}

	r.mu.Lock()
	r.jobs[job.ID] = job
	r.mu.Unlock()

	slog.Info("[JOBS] created", "job_id", job.ID, "total", total)
	return job
}

// Update replaces the job record for id using fn, which receives a copy
// of the current record and returns the updated copy. The write is a
// single map assignment, so readers never observe a torn record.
func (r *Registry) Update(id string, fn func(model.Job) model.Job) (model.Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok {
		return model.Job{}, false
	}
	job = fn(job)
	r.jobs[id] = job
	return job, true
}

// Get returns the job record for id.
func (r *Registry) Get(id string) (model.Job, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[id]
	return job, ok
}

// ListActive returns all jobs currently in the in-progress state, in no
// particular order.
func (r *Registry) ListActive() []model.Job {
	r.mu.RLock()
	defer r.mu.RUnlock()

	active := make([]model.Job, 0)
	for _, job := range r.jobs {
		if job.Status == model.JobInProgress {
			active = append(active, job)
		}
	}
	return active
}

// Stop halts the background sweep goroutine.
func (r *Registry) Stop() {
	close(r.stopCh)
}

// sweep evicts job records older than the registry's TTL every
// sweepInterval.
func (r *Registry) sweep() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			now := time.Now()
			r.mu.Lock()
			before := len(r.jobs)
			for id, job := range r.jobs {
				if now.Sub(job.StartTime) > r.ttl {
					delete(r.jobs, id)
				}
			}
			after := len(r.jobs)
			r.mu.Unlock()
			if before != after {
				slog.Info("[JOBS] sweep evicted stale jobs", "removed", before-after, "remaining", after)
			}
		case <-r.stopCh:
			return
		}
	}
}
