package trip

import (
	"context"
	"sync"
	"time"
)

// Artifact is the result of a completed job: the itinerary HTML plus the
// lazily rendered PDF. HTML is write-once; only the PDF may be added later.
type Artifact struct {
	JobID     string    `json:"job_id"`
	HTML      string    `json:"html"`
	PDF       []byte    `json:"pdf,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ArtifactStore persists job artifacts. Put must reject a second write for
// the same job id.
type ArtifactStore interface {
	Put(ctx context.Context, art Artifact) error
	Get(ctx context.Context, jobID string) (Artifact, bool, error)
	PutPDF(ctx context.Context, jobID string, pdf []byte) error
	Delete(ctx context.Context, jobID string) error
}

// MemoryArtifacts is the default in-process ArtifactStore.
type MemoryArtifacts struct {
	mu   sync.RWMutex
	arts map[string]Artifact
}

func NewMemoryArtifacts() *MemoryArtifacts {
	return &MemoryArtifacts{arts: make(map[string]Artifact)}
}

func (m *MemoryArtifacts) Put(_ context.Context, art Artifact) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.arts[art.JobID]; exists {
		return NewError(KindPipeline, "artifact for job %s already stored", art.JobID)
	}
	m.arts[art.JobID] = art
	return nil
}

func (m *MemoryArtifacts) Get(_ context.Context, jobID string) (Artifact, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	art, ok := m.arts[jobID]
	return art, ok, nil
}

func (m *MemoryArtifacts) PutPDF(_ context.Context, jobID string, pdf []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	art, ok := m.arts[jobID]
	if !ok {
		return NewError(KindNotFound, "no artifact for job %s", jobID)
	}
	art.PDF = pdf
	m.arts[jobID] = art
	return nil
}

func (m *MemoryArtifacts) Delete(_ context.Context, jobID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.arts, jobID)
	return nil
}
