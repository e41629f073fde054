package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/carelog/intake-go/internal/models"
)

// MemoryStore is an in-process ThreadStore. It backs tests and single-user
// CLI sessions where no database is configured.
type MemoryStore struct {
	mu      sync.RWMutex
	threads map[string]*models.Thread
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{threads: make(map[string]*models.Thread)}
}

// Load returns a deep copy of the stored thread, so callers can mutate the
// result without affecting the store.
func (s *MemoryStore) Load(ctx context.Context, threadID string) (*models.Thread, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.threads[threadID]
	if !ok {
		return nil, ErrNotFound
	}
	return t.Clone(), nil
}

// Save upserts the thread and bumps LastUpdated. The stored copy is detached
// from the caller's.
func (s *MemoryStore) Save(ctx context.Context, thread *models.Thread) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := thread.Clone()
	stored.LastUpdated = time.Now().UTC()
	thread.LastUpdated = stored.LastUpdated
	s.threads[thread.ThreadID] = stored
	return nil
}

// ListActive returns summaries for a user's threads, most recently updated
// first.
func (s *MemoryStore) ListActive(ctx context.Context, userID string) ([]models.ThreadSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.ThreadSummary
	for _, t := range s.threads {
		if t.UserID != userID {
			continue
		}
		out = append(out, models.ThreadSummary{
			ThreadID:     t.ThreadID,
			UserID:       t.UserID,
			CreatedAt:    t.CreatedAt,
			LastUpdated:  t.LastUpdated,
			MessageCount: len(t.Transcript),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastUpdated.After(out[j].LastUpdated)
	})
	return out, nil
}
