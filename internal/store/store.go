// Package store persists conversation threads: identity, transcript, ledger
// snapshot, and medication map, keyed by thread id.
package store

import (
	"context"
	"errors"

	"github.com/carelog/intake-go/internal/models"
)

// Sentinel errors for thread store operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrNotFound indicates the requested thread does not exist.
	ErrNotFound = errors.New("thread not found")

	// ErrUnavailable indicates the store could not be reached. The turn
	// that hit it failed without committing and may be retried.
	ErrUnavailable = errors.New("thread store unavailable")
)

// ThreadStore loads and saves threads. Save is an upsert that bumps
// LastUpdated; the message log is append-only while the ledger snapshot is
// overwritten on each save. Implementations must isolate threads from each
// other: a save never loses transcript entries written concurrently to a
// different thread id.
type ThreadStore interface {
	Load(ctx context.Context, threadID string) (*models.Thread, error)
	Save(ctx context.Context, thread *models.Thread) error
	ListActive(ctx context.Context, userID string) ([]models.ThreadSummary, error)
}
