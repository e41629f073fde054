package store

import (
	"context"
	"fmt"
	"time"

	"github.com/surrealdb/surrealdb.go"

	"github.com/carelog/intake-go/internal/models"
)

type threadRow struct {
	ThreadID      string                            `json:"thread_id"`
	UserID        string                            `json:"user_id"`
	CreatedAt     time.Time                         `json:"created_at"`
	LastUpdated   time.Time                         `json:"last_updated"`
	Ledger        *models.Ledger                    `json:"ledger"`
	Medications   map[string]models.MedicationLabel `json:"medications,omitempty"`
	PendingFields []string                          `json:"pending_fields"`
	PendingUpload bool                              `json:"pending_upload"`
	MessageCount  int                               `json:"message_count"`
}

type messageRow struct {
	ThreadID  string    `json:"thread_id"`
	Seq       int       `json:"seq"`
	Role      string    `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Load retrieves a thread and its full transcript.
// Returns ErrNotFound if no thread with the given ID exists.
func (s *SurrealStore) Load(ctx context.Context, threadID string) (*models.Thread, error) {
	rows, err := surrealdb.Query[[]threadRow](ctx, s.db, `
		SELECT thread_id, user_id, created_at, last_updated, ledger,
			medications, pending_fields, pending_upload, message_count
		FROM thread WHERE thread_id = $tid
	`, map[string]any{"tid": threadID})
	if err != nil {
		return nil, fmt.Errorf("load thread: %w: %w", ErrUnavailable, err)
	}
	if rows == nil || len(*rows) == 0 || len((*rows)[0].Result) == 0 {
		return nil, fmt.Errorf("load thread %q: %w", threadID, ErrNotFound)
	}
	row := (*rows)[0].Result[0]

	msgs, err := surrealdb.Query[[]messageRow](ctx, s.db, `
		SELECT thread_id, seq, role, text, timestamp
		FROM message WHERE thread_id = $tid ORDER BY seq ASC
	`, map[string]any{"tid": threadID})
	if err != nil {
		return nil, fmt.Errorf("load transcript: %w: %w", ErrUnavailable, err)
	}

	thread := &models.Thread{
		ThreadID:      row.ThreadID,
		UserID:        row.UserID,
		CreatedAt:     row.CreatedAt,
		LastUpdated:   row.LastUpdated,
		Ledger:        row.Ledger,
		Medications:   row.Medications,
		PendingFields: row.PendingFields,
		PendingUpload: row.PendingUpload,
	}
	if thread.Ledger == nil {
		thread.Ledger = models.NewLedger()
	}
	if msgs != nil && len(*msgs) > 0 {
		for _, m := range (*msgs)[0].Result {
			thread.Transcript = append(thread.Transcript, models.Message{
				Role:      models.Role(m.Role),
				Text:      m.Text,
				Timestamp: m.Timestamp,
			})
		}
	}
	return thread, nil
}

const saveThreadSQL = `
	UPSERT type::record("thread", $tid) SET
		thread_id = $tid,
		user_id = $user_id,
		created_at = $created_at,
		last_updated = $last_updated,
		ledger = $ledger,
		medications = $medications,
		pending_fields = $pending_fields,
		pending_upload = $pending_upload,
		message_count = $message_count;
`

// Save persists a thread. The thread row is overwritten whole; transcript
// messages are append-only, so only messages past the count already in the
// message table are inserted. Row and messages commit in one transaction,
// so a failed save leaves nothing behind. Updates t.LastUpdated.
func (s *SurrealStore) Save(ctx context.Context, t *models.Thread) error {
	stored, err := s.messageCount(ctx, t.ThreadID)
	if err != nil {
		return err
	}

	t.LastUpdated = time.Now().UTC()

	rows := make([]messageRow, 0, max(len(t.Transcript)-stored, 0))
	for i := stored; i < len(t.Transcript); i++ {
		m := t.Transcript[i]
		rows = append(rows, messageRow{
			ThreadID:  t.ThreadID,
			Seq:       i,
			Role:      string(m.Role),
			Text:      m.Text,
			Timestamp: m.Timestamp,
		})
	}

	sql := "BEGIN TRANSACTION;" + saveThreadSQL + "COMMIT TRANSACTION;"
	if len(rows) > 0 {
		sql = "BEGIN TRANSACTION;" + saveThreadSQL +
			"INSERT INTO message $messages;" +
			"COMMIT TRANSACTION;"
	}

	_, err = surrealdb.Query[any](ctx, s.db, sql, map[string]any{
		"tid":            t.ThreadID,
		"user_id":        t.UserID,
		"created_at":     t.CreatedAt,
		"last_updated":   t.LastUpdated,
		"ledger":         t.Ledger,
		"medications":    t.Medications,
		"pending_fields": pendingOrEmpty(t.PendingFields),
		"pending_upload": t.PendingUpload,
		"message_count":  len(t.Transcript),
		"messages":       rows,
	})
	if err != nil {
		return fmt.Errorf("save thread: %w: %w", ErrUnavailable, err)
	}
	return nil
}

// ListActive returns summaries of a user's threads, most recently
// updated first.
func (s *SurrealStore) ListActive(ctx context.Context, userID string) ([]models.ThreadSummary, error) {
	rows, err := surrealdb.Query[[]models.ThreadSummary](ctx, s.db, `
		SELECT thread_id, user_id, created_at, last_updated, message_count
		FROM thread WHERE user_id = $user_id ORDER BY last_updated DESC
	`, map[string]any{"user_id": userID})
	if err != nil {
		return nil, fmt.Errorf("list threads: %w: %w", ErrUnavailable, err)
	}
	if rows == nil || len(*rows) == 0 {
		return []models.ThreadSummary{}, nil
	}
	return (*rows)[0].Result, nil
}

// messageCount counts the transcript rows actually present, not the count
// cached on the thread row, so the append window always matches reality.
func (s *SurrealStore) messageCount(ctx context.Context, threadID string) (int, error) {
	rows, err := surrealdb.Query[[]struct {
		Count int `json:"count"`
	}](ctx, s.db, `
		SELECT count() AS count FROM message WHERE thread_id = $tid GROUP ALL
	`, map[string]any{"tid": threadID})
	if err != nil {
		return 0, fmt.Errorf("count messages: %w: %w", ErrUnavailable, err)
	}
	if rows == nil || len(*rows) == 0 || len((*rows)[0].Result) == 0 {
		return 0, nil
	}
	return (*rows)[0].Result[0].Count, nil
}

func pendingOrEmpty(fields []string) []string {
	if fields == nil {
		return []string{}
	}
	return fields
}
