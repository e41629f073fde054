package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Role identifies who authored a transcript message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one transcript entry.
type Message struct {
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Thread is a persisted, resumable conversation. Its identity never changes
// once created; everything else is rewritten on each saved turn.
type Thread struct {
	ThreadID    string    `json:"thread_id"`
	UserID      string    `json:"user_id"`
	CreatedAt   time.Time `json:"created_at"`
	LastUpdated time.Time `json:"last_updated"`

	Transcript  []Message                  `json:"transcript"`
	Ledger      *Ledger                    `json:"ledger"`
	Medications map[string]MedicationLabel `json:"medications,omitempty"`

	// PendingFields records which fields the previous turn's question asked
	// about, so the next turn knows what to extract from the answer.
	PendingFields []string `json:"pending_fields,omitempty"`
	// PendingUpload is set when the assistant has asked for a medication
	// label filename and the next utterance should be treated as one.
	PendingUpload bool `json:"pending_upload,omitempty"`
}

// NewThread creates a fresh thread for a user.
func NewThread(userID string) *Thread {
	now := time.Now().UTC()
	return &Thread{
		ThreadID:    NewThreadID(now),
		UserID:      userID,
		CreatedAt:   now,
		LastUpdated: now,
		Ledger:      NewLedger(),
		Medications: make(map[string]MedicationLabel),
	}
}

// NewThreadID builds a sortable thread identifier: a timestamp prefix plus a
// short random suffix.
func NewThreadID(now time.Time) string {
	return fmt.Sprintf("%s-%s", now.Format("20060102150405"), uuid.NewString()[:8])
}

// Append adds a transcript message stamped with the current time.
func (t *Thread) Append(role Role, text string) {
	t.Transcript = append(t.Transcript, Message{
		Role:      role,
		Text:      text,
		Timestamp: time.Now().UTC(),
	})
}

// RecentTranscript returns up to n most recent messages, oldest first.
func (t *Thread) RecentTranscript(n int) []Message {
	if len(t.Transcript) <= n {
		return t.Transcript
	}
	return t.Transcript[len(t.Transcript)-n:]
}

// RecentAssistantTexts returns up to n most recent assistant messages,
// newest first. Used as negative examples for question generation.
func (t *Thread) RecentAssistantTexts(n int) []string {
	var out []string
	for i := len(t.Transcript) - 1; i >= 0 && len(out) < n; i-- {
		if t.Transcript[i].Role == RoleAssistant {
			out = append(out, t.Transcript[i].Text)
		}
	}
	return out
}

// Clone deep-copies the thread so callers can mutate a working copy without
// touching the stored one.
func (t *Thread) Clone() *Thread {
	out := *t
	out.Transcript = make([]Message, len(t.Transcript))
	copy(out.Transcript, t.Transcript)
	if t.Ledger != nil {
		out.Ledger = t.Ledger.Clone()
	}
	if t.Medications != nil {
		out.Medications = make(map[string]MedicationLabel, len(t.Medications))
		for name, label := range t.Medications {
			out.Medications[name] = label
		}
	}
	out.PendingFields = cloneStrings(t.PendingFields)
	return &out
}

// ThreadSummary is the listing shape returned by the thread store.
type ThreadSummary struct {
	ThreadID     string    `json:"thread_id"`
	UserID       string    `json:"user_id"`
	CreatedAt    time.Time `json:"created_at"`
	LastUpdated  time.Time `json:"last_updated"`
	MessageCount int       `json:"message_count"`
}
