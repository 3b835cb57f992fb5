package jobs

import (
	"sync"
	"testing"
	"time"

	"github.com/msankrish92/userstory-rating-rag/internal/model"
)

func TestRegistry_CreateGet(t *testing.T) {
	r := NewRegistry(time.Minute)
	defer r.Stop()

	job := r.Create(10)
	if job.ID == "" {
		t.Fatal("expected non-empty job id")
	}
	if job.Status != model.JobInProgress {
		t.Errorf("Status = %q, want %q", job.Status, model.JobInProgress)
	}

	got, ok := r.Get(job.ID)
	if !ok {
		t.Fatal("expected job to be found")
	}
	if got.Total != 10 {
		t.Errorf("Total = %d, want 10", got.Total)
	}
}

func TestRegistry_Get_Missing(t *testing.T) {
	r := NewRegistry(time.Minute)
	defer r.Stop()

	_, ok := r.Get("does-not-exist")
	if ok {
		t.Fatal("expected miss for unknown id")
	}
}

func TestRegistry_Update(t *testing.T) {
	r := NewRegistry(time.Minute)
	defer r.Stop()

	job := r.Create(5)
	updated, ok := r.Update(job.ID, func(j model.Job) model.Job {
		j.Progress = 3
		j.Status = model.JobCompleted
		return j
	})
	if !ok {
		t.Fatal("expected update to succeed")
	}
	if updated.Progress != 3 || updated.Status != model.JobCompleted {
		t.Errorf("unexpected updated job: %+v", updated)
	}

	got, _ := r.Get(job.ID)
	if got.Progress != 3 {
		t.Errorf("Progress = %d, want 3", got.Progress)
	}
}

func TestRegistry_Update_Missing(t *testing.T) {
	r := NewRegistry(time.Minute)
	defer r.Stop()

	_, ok := r.Update("nope", func(j model.Job) model.Job { return j })
	if ok {
		t.Fatal("expected update on unknown id to fail")
	}
}

func TestRegistry_ListActive(t *testing.T) {
	r := NewRegistry(time.Minute)
	defer r.Stop()

	a := r.Create(1)
	b := r.Create(1)
	r.Update(b.ID, func(j model.Job) model.Job {
		j.Status = model.JobCompleted
		return j
	})

	active := r.ListActive()
	if len(active) != 1 || active[0].ID != a.ID {
		t.Errorf("ListActive() = %+v, want only job %s", active, a.ID)
	}
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	r := NewRegistry(time.Minute)
	defer r.Stop()

	job := r.Create(100)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			r.Update(job.ID, func(j model.Job) model.Job {
				j.Progress = n
				return j
			})
		}(i)
	}
	wg.Wait()

	got, ok := r.Get(job.ID)
	if !ok {
		t.Fatal("expected job to still exist")
	}
	if got.Progress < 0 || got.Progress >= 50 {
		t.Errorf("Progress out of expected range: %d", got.Progress)
	}
}
