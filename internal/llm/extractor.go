package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/carelog/intake-go/internal/models"
)

const extractSymptomsSystem = `You are a medical assistant that identifies symptoms mentioned in patient statements.

Extract all clinical symptoms mentioned in the statement based solely on the facts provided, without making any assumptions.

Symptoms should:
1. Be specific medical conditions (like 'fever', 'cough', 'headache', 'nausea')
2. NOT include modifiers like 'mild', 'severe', 'worsening', etc. in the symptom name
3. NOT include contextual phrases like 'worsens at night' or 'after walking' as separate symptoms
4. NOT include common words or verbs like 'feel', 'pain', 'none' by themselves
5. NOT include temporal descriptions like 'daily', 'at night', 'after exercise'

Return only the base symptom names (e.g., "headache" not "severe headache") in a comma-separated list, with the primary symptom listed first.
If no symptoms are mentioned, return "None".`

const extractSeveritySystem = `You are a medical assistant that extracts severity information about symptoms from patient statements.

Extract the severity level (1-10) for the symptom being discussed.
Also extract any description of the severity.
If no severity is mentioned, return null for both level and description.

Return your answer in JSON format:
{
    "level": <integer between 1-10 or null>,
    "description": <string description or null>
}`

const extractDurationSystem = `You are a medical assistant that extracts duration information about symptoms from patient statements.

Extract the start date, end date (if any), and whether the symptom is ongoing.
Convert any relative time references (like "yesterday", "last week") to ISO format dates based on the current date you are given.
If the information is not present, return null for that field.

Return your answer in JSON format:
{
    "start_date": <ISO format date string or null>,
    "end_date": <ISO format date string or null>,
    "is_ongoing": <boolean or null>
}`

const extractListSystem = `You are a medical assistant with extensive knowledge from medical resources like Mayo Clinic and MedlinePlus.

Extract the requested detail for the symptom being discussed.

If extracting characteristics:
- Include descriptive qualities like sharp, dull, burning, throbbing, etc.

If extracting aggravating_factors:
- Include activities, positions, foods, or contexts that make the symptom worse

If extracting relieving_factors:
- Include activities, positions, medications, or contexts that make the symptom better

If extracting triggers:
- Include specific events, foods, activities, or contexts that seem to cause the symptom

If extracting associated_symptoms:
- Include any other symptoms that occur alongside this primary symptom

Return your findings as a JSON list of strings. If none are mentioned, return an empty list.`

const extractTextSystem = `You are a medical assistant that extracts specific details about symptoms from patient statements.

Extract the requested detail for the symptom being discussed.
If the information is not present, return "None".`

// Words the extraction model sometimes returns that are not symptoms.
var nonSymptomWords = map[string]bool{
	"none": true, "feel": true, "feels": true, "feeling": true, "felt": true,
	"worsens": true, "worsening": true, "improves": true, "improving": true,
	"after": true, "before": true, "during": true, "at": true,
	"night": true, "day": true, "morning": true,
}

// Patterns that indicate a characteristic slipped in as a symptom name.
var characteristicPatterns = []string{
	"worsens", "worsen", "worse", "better", "improves",
	"after", "before", "during", "at night", "at day", "in the morning",
}

// Extractor implements symptom and detail extraction over a chat model.
type Extractor struct {
	model *Model
	now   func() time.Time
}

// NewExtractor returns an extractor backed by the given model.
func NewExtractor(model *Model) *Extractor {
	return &Extractor{model: model, now: time.Now}
}

// ExtractSymptoms pulls candidate symptom names out of a patient statement.
// Returns an empty slice when the statement mentions no symptoms.
func (e *Extractor) ExtractSymptoms(ctx context.Context, text string) ([]string, error) {
	prompt := fmt.Sprintf("Patient statement: %s\n\nSymptoms:", text)
	response, err := e.model.GenerateWithSystem(ctx, extractSymptomsSystem, prompt)
	if err != nil {
		return nil, fmt.Errorf("extract symptoms: %w", err)
	}

	response = strings.TrimSpace(response)
	if strings.Contains(strings.ToLower(response), "none") {
		return []string{}, nil
	}

	var symptoms []string
	for _, raw := range strings.Split(response, ",") {
		name := strings.ToLower(strings.TrimSpace(raw))
		if name == "" || !validSymptomName(name) {
			continue
		}
		symptoms = append(symptoms, name)
	}
	slog.Debug("extracted symptoms", "count", len(symptoms))
	return symptoms, nil
}

// ExtractField extracts one detail field for a symptom from a patient
// statement. Absent information yields a zero FieldValue, not an error.
func (e *Extractor) ExtractField(ctx context.Context, symptom, field, text string) (models.FieldValue, error) {
	switch field {
	case models.FieldSeverity:
		return e.extractSeverity(ctx, symptom, text)
	case models.FieldStartDate, models.FieldIsOngoing:
		return e.extractDuration(ctx, symptom, text)
	case models.FieldCharacteristics, models.FieldAggravatingFactors,
		models.FieldRelievingFactors, models.FieldTriggers,
		models.FieldAssociatedSymptoms:
		return e.extractList(ctx, symptom, field, text)
	default:
		return e.extractText(ctx, symptom, field, text)
	}
}

func (e *Extractor) extractSeverity(ctx context.Context, symptom, text string) (models.FieldValue, error) {
	prompt := fmt.Sprintf("Symptom: %s\n\nPatient statement: %s", symptom, text)
	response, err := e.model.GenerateWithSystem(ctx, extractSeveritySystem, prompt)
	if err != nil {
		return models.NoValue(), fmt.Errorf("extract severity: %w", err)
	}

	var parsed struct {
		Level       *int    `json:"level"`
		Description *string `json:"description"`
	}
	if err := json.Unmarshal([]byte(stripCodeFence(response)), &parsed); err != nil {
		slog.Warn("severity response not parseable", "symptom", symptom, "error", err)
		return models.NoValue(), nil
	}
	if parsed.Level == nil || *parsed.Level == 0 {
		return models.NoValue(), nil
	}
	sev := models.Severity{Level: *parsed.Level}
	if parsed.Description != nil {
		sev.Description = *parsed.Description
	}
	return models.SeverityValue(sev), nil
}

func (e *Extractor) extractDuration(ctx context.Context, symptom, text string) (models.FieldValue, error) {
	currentDate := e.now().Format("2006-01-02")
	prompt := fmt.Sprintf("Symptom: %s\nCurrent date: %s\n\nPatient statement: %s", symptom, currentDate, text)
	response, err := e.model.GenerateWithSystem(ctx, extractDurationSystem, prompt)
	if err != nil {
		return models.NoValue(), fmt.Errorf("extract duration: %w", err)
	}

	var parsed struct {
		StartDate *string `json:"start_date"`
		EndDate   *string `json:"end_date"`
		IsOngoing *bool   `json:"is_ongoing"`
	}
	if err := json.Unmarshal([]byte(stripCodeFence(response)), &parsed); err != nil {
		slog.Warn("duration response not parseable", "symptom", symptom, "error", err)
		return models.NoValue(), nil
	}
	if parsed.StartDate == nil && parsed.EndDate == nil && parsed.IsOngoing == nil {
		return models.NoValue(), nil
	}
	dur := models.Duration{IsOngoing: parsed.IsOngoing}
	if parsed.StartDate != nil {
		dur.StartDate = *parsed.StartDate
	}
	if parsed.EndDate != nil {
		dur.EndDate = *parsed.EndDate
	}
	return models.DurationValue(dur), nil
}

func (e *Extractor) extractList(ctx context.Context, symptom, field, text string) (models.FieldValue, error) {
	prompt := fmt.Sprintf("Symptom: %s\nDetail to extract: %s\n\nPatient statement: %s\n\n%s for %s (as JSON list):",
		symptom, field, text, field, symptom)
	response, err := e.model.GenerateWithSystem(ctx, extractListSystem, prompt)
	if err != nil {
		return models.NoValue(), fmt.Errorf("extract %s: %w", field, err)
	}

	var items []string
	if err := json.Unmarshal([]byte(stripCodeFence(response)), &items); err != nil {
		slog.Warn("list response not parseable", "symptom", symptom, "field", field, "error", err)
		return models.NoValue(), nil
	}
	if len(items) == 0 {
		return models.NoValue(), nil
	}
	return models.ListValue(items), nil
}

func (e *Extractor) extractText(ctx context.Context, symptom, field, text string) (models.FieldValue, error) {
	prompt := fmt.Sprintf("Symptom: %s\nDetail to extract: %s\n\nPatient statement: %s\n\n%s for %s:",
		symptom, field, text, field, symptom)
	response, err := e.model.GenerateWithSystem(ctx, extractTextSystem, prompt)
	if err != nil {
		return models.NoValue(), fmt.Errorf("extract %s: %w", field, err)
	}

	response = strings.TrimSpace(response)
	if response == "" || strings.EqualFold(response, "none") {
		return models.NoValue(), nil
	}
	return models.TextValue(response), nil
}

func validSymptomName(name string) bool {
	if nonSymptomWords[name] {
		return false
	}
	for _, pattern := range characteristicPatterns {
		if strings.Contains(name, pattern) {
			return false
		}
	}
	return true
}

// stripCodeFence removes a surrounding markdown code fence, which some
// models wrap around JSON output.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
