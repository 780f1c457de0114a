package artifact

import (
	"context"
	"sync"
	"time"

	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/watermarker/internal/model"
)

// Memory is a process-local artifact store.
//
// Put hands the payload over to the store; callers must not modify it afterwards.
// With a positive ttl, entries older than ttl are invisible to Get and removed by Sweep.
type Memory struct {
	mu    sync.RWMutex
	items map[string]model.Artifact
	ttl   time.Duration
	now   func() time.Time
}

// NewMemory creates an empty store. ttl <= 0 keeps artifacts for the life of the process.
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{
		items: make(map[string]model.Artifact),
		ttl:   ttl,
		now:   time.Now,
	}
}

// Put stores payload under a new id and returns the stored artifact.
func (m *Memory) Put(_ context.Context, payload []byte, kind model.Kind, filename string) (model.Artifact, error) {
	a := newArtifact(payload, kind, filename, m.now())

	m.mu.Lock()
	m.items[a.ID] = a
	m.mu.Unlock()

	return a, nil
}

// Get returns the artifact stored under id. Reading does not remove it.
func (m *Memory) Get(_ context.Context, id string) (model.Artifact, error) {
	m.mu.RLock()
	a, ok := m.items[id]
	m.mu.RUnlock()

	if !ok || m.expired(a) {
		return model.Artifact{}, ErrNotFound
	}

	return a, nil
}

// Len returns the number of entries held, expired ones included until swept.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

// Sweep removes expired entries and returns how many were dropped.
func (m *Memory) Sweep() int {
	if m.ttl <= 0 {
		return 0
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for id, a := range m.items {
		if m.expired(a) {
			delete(m.items, id)
			n++
		}
	}

	return n
}

// Run sweeps the store every interval until ctx is canceled.
func (m *Memory) Run(ctx context.Context, interval time.Duration) {
	if m.ttl <= 0 || interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			zlog.Logger.Info().Msg("artifact janitor stopped")
			return
		case <-ticker.C:
			if n := m.Sweep(); n > 0 {
				zlog.Logger.Info().Int("evicted", n).Msg("expired artifacts removed")
			}
		}
	}
}

func (m *Memory) expired(a model.Artifact) bool {
	return m.ttl > 0 && m.now().Sub(a.CreatedAt) >= m.ttl
}
