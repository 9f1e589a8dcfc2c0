package trip

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

const subscriberBuffer = 16

type jobEntry struct {
	job       Job
	annotated bool
}

// Registry owns all job snapshots and their progress subscribers. Updates go
// through a mutate callback under the lock; monotonicity clamps and the
// terminal freeze are enforced here so no caller can regress a job.
type Registry struct {
	mu   sync.RWMutex
	jobs map[string]*jobEntry
	subs map[string]map[chan Job]struct{}

	retention time.Duration
	sweep     time.Duration
	maxJobs   int
	now       func() time.Time
	logger    *log.Logger
}

// NewRegistry builds a Registry. Terminal jobs older than retention are
// evicted by the janitor; maxJobs caps total retained jobs.
func NewRegistry(retention, sweep time.Duration, maxJobs int) *Registry {
	return &Registry{
		jobs:      make(map[string]*jobEntry),
		subs:      make(map[string]map[chan Job]struct{}),
		retention: retention,
		sweep:     sweep,
		maxJobs:   maxJobs,
		now:       time.Now,
		logger:    log.New(log.Writer(), "[REGISTRY] ", log.LstdFlags),
	}
}

// Create registers a new queued job for clientID and returns its snapshot.
func (r *Registry) Create(clientID string) Job {
	r.mu.Lock()
	defer r.mu.Unlock()

	job := Job{
		ID:         uuid.NewString(),
		ClientID:   clientID,
		Status:     StatusQueued,
		TotalSteps: len(Steps),
		Message:    "Trip request accepted",
		CreatedAt:  r.now(),
	}
	r.jobs[job.ID] = &jobEntry{job: job}
	return job
}

// Get returns the snapshot for id.
func (r *Registry) Get(id string) (Job, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.jobs[id]
	if !ok {
		return Job{}, false
	}
	return entry.job, true
}

// Update applies mutate to the job's snapshot and broadcasts the result.
// Terminal jobs are frozen. Whatever mutate writes, the stored snapshot keeps
// current_step and progress_percent monotonic, keeps percent within [0,100],
// never lets current_step exceed total_steps, and never moves status backward.
func (r *Registry) Update(id string, mutate func(*Job)) (Job, bool) {
	r.mu.Lock()
	entry, ok := r.jobs[id]
	if !ok {
		r.mu.Unlock()
		return Job{}, false
	}
	prev := entry.job
	if prev.Status.Terminal() {
		r.mu.Unlock()
		return prev, true
	}

	next := prev
	mutate(&next)
	clampProgress(&next, prev)

	if next.Status.Terminal() && next.CompletedAt == nil {
		done := r.now()
		next.CompletedAt = &done
	}
	entry.job = next
	r.mu.Unlock()

	r.broadcast(id, next)
	return next, true
}

// Annotate attaches advisory warnings to a job. It is the single permitted
// write to a terminal snapshot and only works once per job.
func (r *Registry) Annotate(id string, warnings []string) (Job, bool) {
	r.mu.Lock()
	entry, ok := r.jobs[id]
	if !ok {
		r.mu.Unlock()
		return Job{}, false
	}
	if entry.annotated {
		r.mu.Unlock()
		return entry.job, true
	}
	entry.annotated = true
	if len(warnings) > 0 {
		entry.job.Warnings = append([]string(nil), warnings...)
	}
	snapshot := entry.job
	r.mu.Unlock()

	if len(warnings) > 0 {
		r.logger.Printf("job %s: %d report warnings", id, len(warnings))
		r.broadcast(id, snapshot)
	}
	return snapshot, true
}

// Watch subscribes to progress updates for id. The returned channel receives
// every broadcast snapshot until cancel is called; slow consumers may miss
// intermediate snapshots but the caller can always re-read via Get.
func (r *Registry) Watch(id string) (<-chan Job, func(), bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.jobs[id]; !ok {
		return nil, nil, false
	}
	ch := make(chan Job, subscriberBuffer)
	set, ok := r.subs[id]
	if !ok {
		set = make(map[chan Job]struct{})
		r.subs[id] = set
	}
	set[ch] = struct{}{}

	cancel := func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if set, ok := r.subs[id]; ok {
			delete(set, ch)
			if len(set) == 0 {
				delete(r.subs, id)
			}
		}
	}
	return ch, cancel, true
}

// ListActive returns snapshots of all non-terminal jobs.
func (r *Registry) ListActive() []Job {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Job
	for _, entry := range r.jobs {
		if !entry.job.Status.Terminal() {
			out = append(out, entry.job)
		}
	}
	return out
}

// StartJanitor launches the eviction loop and returns when ctx is cancelled.
func (r *Registry) StartJanitor(ctx context.Context) {
	ticker := time.NewTicker(r.sweep)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.evict(); n > 0 {
				r.logger.Printf("evicted %d jobs", n)
			}
			metricActiveJobs.Set(float64(len(r.ListActive())))
		}
	}
}

// evict removes terminal jobs older than retention, then enforces maxJobs by
// dropping the oldest terminal jobs. Active jobs are never evicted.
func (r *Registry) evict() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-r.retention)
	removed := 0
	for id, entry := range r.jobs {
		if entry.job.Status.Terminal() && entry.job.CompletedAt != nil && entry.job.CompletedAt.Before(cutoff) {
			delete(r.jobs, id)
			delete(r.subs, id)
			removed++
		}
	}

	if len(r.jobs) > r.maxJobs {
		var terminal []Job
		for _, entry := range r.jobs {
			if entry.job.Status.Terminal() {
				terminal = append(terminal, entry.job)
			}
		}
		sort.Slice(terminal, func(i, j int) bool {
			return terminal[i].CreatedAt.Before(terminal[j].CreatedAt)
		})
		for _, job := range terminal {
			if len(r.jobs) <= r.maxJobs {
				break
			}
			delete(r.jobs, job.ID)
			delete(r.subs, job.ID)
			removed++
		}
	}
	return removed
}

func (r *Registry) broadcast(id string, snapshot Job) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for ch := range r.subs[id] {
		select {
		case ch <- snapshot:
		default:
			// Slow subscriber; it will catch up from the next snapshot or Get.
		}
	}
}

// clampProgress enforces forward-only progress relative to prev.
func clampProgress(next *Job, prev Job) {
	if next.CurrentStep < prev.CurrentStep {
		next.CurrentStep = prev.CurrentStep
	}
	if next.CurrentStep > next.TotalSteps {
		next.CurrentStep = next.TotalSteps
	}
	if next.ProgressPercent < prev.ProgressPercent {
		next.ProgressPercent = prev.ProgressPercent
	}
	if next.ProgressPercent > 100 {
		next.ProgressPercent = 100
	}
	if next.ETASeconds < 0 {
		next.ETASeconds = 0
	}
	if statusRank(next.Status) < statusRank(prev.Status) {
		next.Status = prev.Status
	}
}

func statusRank(s Status) int {
	switch s {
	case StatusQueued:
		return 0
	case StatusRunning:
		return 1
	case StatusCompleted, StatusError:
		return 2
	default:
		return 0
	}
}
