package export

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rpattn/adminpanel/internal/domain"
	"github.com/rpattn/adminpanel/internal/repository"
)

type stubJobRepository struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]domain.ExportJob
	now  func() time.Time
	// staleActive makes HasActive miss jobs, as a concurrent insert would.
	staleActive bool
}

func newStubJobRepository() *stubJobRepository {
	return &stubJobRepository{jobs: map[uuid.UUID]domain.ExportJob{}, now: time.Now}
}

func (r *stubJobRepository) Create(_ context.Context, job domain.ExportJob) (domain.ExportJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.jobs {
		if existing.Owner == job.Owner && existing.JobClass == job.JobClass && existing.Status.Active() {
			return domain.ExportJob{}, fmt.Errorf("insert export job: %w", repository.ErrExportJobActive)
		}
	}
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	job.Status = domain.ExportJobStatusPending
	job.EnqueuedAt = r.now()
	job.UpdatedAt = job.EnqueuedAt
	r.jobs[job.ID] = job
	return job, nil
}

func (r *stubJobRepository) GetByID(_ context.Context, id uuid.UUID) (domain.ExportJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return domain.ExportJob{}, fmt.Errorf("get export job %s: %w", id, repository.ErrNotFound)
	}
	return job, nil
}

func (r *stubJobRepository) List(_ context.Context, owner *string, statuses []domain.ExportJobStatus, limit, offset int) ([]domain.ExportJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.ExportJob
	for _, job := range r.jobs {
		if owner != nil && job.Owner != *owner {
			continue
		}
		for _, s := range statuses {
			if job.Status == s {
				out = append(out, job)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EnqueuedAt.After(out[j].EnqueuedAt) })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *stubJobRepository) HasActive(_ context.Context, owner, jobClass string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.staleActive {
		return false, nil
	}
	for _, job := range r.jobs {
		if job.Owner == owner && job.JobClass == jobClass && job.Status.Active() {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubJobRepository) update(id uuid.UUID, allowed []domain.ExportJobStatus, fn func(*domain.ExportJob)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return repository.ErrExportJobStatusConflict
	}
	if len(allowed) > 0 {
		match := false
		for _, s := range allowed {
			if job.Status == s {
				match = true
			}
		}
		if !match {
			return repository.ErrExportJobStatusConflict
		}
	}
	fn(&job)
	job.UpdatedAt = r.now()
	r.jobs[id] = job
	return nil
}

func (r *stubJobRepository) MarkRunning(_ context.Context, id uuid.UUID) error {
	return r.update(id, []domain.ExportJobStatus{domain.ExportJobStatusPending}, func(j *domain.ExportJob) {
		now := r.now()
		j.Status = domain.ExportJobStatusRunning
		j.StartedAt = &now
	})
}

func (r *stubJobRepository) UpdateProgress(_ context.Context, id uuid.UUID, rows int, bytes int64) error {
	return r.update(id, nil, func(j *domain.ExportJob) {
		j.RowsExported = rows
		j.BytesWritten = bytes
	})
}

func (r *stubJobRepository) MarkCompleted(_ context.Context, id uuid.UUID, result repository.ExportResult) error {
	return r.update(id, []domain.ExportJobStatus{domain.ExportJobStatusRunning}, func(j *domain.ExportJob) {
		now := r.now()
		j.Status = domain.ExportJobStatusCompleted
		j.RowsExported = result.RowsExported
		j.BytesWritten = result.BytesWritten
		j.FilePath = result.FilePath
		j.FileMimeType = result.FileMimeType
		j.FileByteSize = result.FileByteSize
		j.CompletedAt = &now
	})
}

func (r *stubJobRepository) finish(id uuid.UUID, status domain.ExportJobStatus, msg string) error {
	return r.update(id, []domain.ExportJobStatus{domain.ExportJobStatusPending, domain.ExportJobStatusRunning}, func(j *domain.ExportJob) {
		now := r.now()
		j.Status = status
		j.ErrorMessage = &msg
		j.CompletedAt = &now
	})
}

func (r *stubJobRepository) MarkFailed(_ context.Context, id uuid.UUID, msg string) error {
	return r.finish(id, domain.ExportJobStatusFailed, msg)
}

func (r *stubJobRepository) MarkCancelled(_ context.Context, id uuid.UUID, reason string) error {
	return r.finish(id, domain.ExportJobStatusCancelled, reason)
}

func (r *stubJobRepository) ListFinishedBefore(_ context.Context, before time.Time) ([]domain.ExportJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.ExportJob
	for _, job := range r.jobs {
		if job.Status == domain.ExportJobStatusCompleted && job.FilePath != nil && job.CompletedAt != nil && job.CompletedAt.Before(before) {
			out = append(out, job)
		}
	}
	return out, nil
}

func (r *stubJobRepository) ClearFile(_ context.Context, id uuid.UUID) error {
	return r.update(id, nil, func(j *domain.ExportJob) {
		j.FilePath = nil
		j.FileByteSize = nil
	})
}

func (r *stubJobRepository) get(id uuid.UUID) domain.ExportJob {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.jobs[id]
}
