// Package orchestrator runs the per-turn dialogue state machine over a
// thread's symptom ledger.
package orchestrator

import (
	"context"

	"github.com/carelog/intake-go/internal/models"
)

// Extractor is the text-extraction port.
type Extractor interface {
	// ExtractSymptoms pulls candidate symptom names out of an utterance.
	ExtractSymptoms(ctx context.Context, text string) ([]string, error)
	// ExtractField extracts one detail field for a symptom; absent
	// information yields a zero FieldValue.
	ExtractField(ctx context.Context, symptom, field, text string) (models.FieldValue, error)
}

// Generator is the text-generation port.
type Generator interface {
	Greeting(ctx context.Context) (string, error)
	Question(ctx context.Context, symptom string, fields, hints []string, transcript []models.Message, avoid []string) (string, error)
	Reply(ctx context.Context, rc models.ReplyContext) (string, error)
	Closing(ctx context.Context, summary string) (string, error)
}

// MedicationPipeline processes an uploaded label image into a structured
// label record.
type MedicationPipeline interface {
	Process(ctx context.Context, filename string) (models.MedicationLabel, error)
}
