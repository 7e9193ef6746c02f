package export

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/rpattn/adminpanel/internal/events"
	"github.com/rpattn/adminpanel/internal/repository"
)

const (
	// ProgressComponent is the session component that shows export progress.
	ProgressComponent = "common-code"
	// ShowProgressEvent asks ProgressComponent to start tracking a job.
	ShowProgressEvent = "showExportProgressEvent"
)

// ProgressSource resolves the current progress of a job.
type ProgressSource interface {
	Progress(ctx context.Context, id uuid.UUID) (ProgressData, error)
}

// ProgressTracker remembers the jobs a session asked to watch. Finished jobs
// are reported once more and then forgotten.
type ProgressTracker struct {
	source ProgressSource

	mu   sync.Mutex
	jobs []uuid.UUID
}

func NewProgressTracker(source ProgressSource) *ProgressTracker {
	return &ProgressTracker{source: source}
}

// Attach listens for ShowProgressEvent on bus.
func (t *ProgressTracker) Attach(bus *events.Bus) func() {
	return bus.Listen(ProgressComponent, ShowProgressEvent, func(_ context.Context, evt events.Event) error {
		switch payload := evt.Payload.(type) {
		case ProgressData:
			t.Track(payload.JobID)
		case *ProgressData:
			if payload != nil {
				t.Track(payload.JobID)
			}
		default:
			return fmt.Errorf("unexpected %s payload %T", ShowProgressEvent, evt.Payload)
		}
		return nil
	})
}

// Track starts watching id.
func (t *ProgressTracker) Track(id uuid.UUID) {
	if id == uuid.Nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, existing := range t.jobs {
		if existing == id {
			return
		}
	}
	t.jobs = append(t.jobs, id)
}

// Tracked returns the watched job ids.
func (t *ProgressTracker) Tracked() []uuid.UUID {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]uuid.UUID(nil), t.jobs...)
}

// Snapshot reports every watched job.
func (t *ProgressTracker) Snapshot(ctx context.Context) ([]ProgressData, error) {
	ids := t.Tracked()
	out := make([]ProgressData, 0, len(ids))
	var done []uuid.UUID
	for _, id := range ids {
		data, err := t.source.Progress(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				done = append(done, id)
				continue
			}
			return nil, err
		}
		out = append(out, data)
		if !data.Status.Active() {
			done = append(done, id)
		}
	}
	t.forget(done)
	return out, nil
}

func (t *ProgressTracker) forget(ids []uuid.UUID) {
	if len(ids) == 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	kept := t.jobs[:0]
	for _, id := range t.jobs {
		drop := false
		for _, d := range ids {
			if d == id {
				drop = true
				break
			}
		}
		if !drop {
			kept = append(kept, id)
		}
	}
	t.jobs = kept
}
