// Package models defines the data structures for the symptom intake ledger.
package models

// Detail field names, in the fixed order used for follow-up probing.
const (
	FieldSeverity           = "severity"
	FieldStartDate          = "start_date"
	FieldIsOngoing          = "is_ongoing"
	FieldCharacteristics    = "characteristics"
	FieldAggravatingFactors = "aggravating_factors"
	FieldRelievingFactors   = "relieving_factors"
	FieldFrequency          = "frequency"
	FieldIntensity          = "intensity"
	FieldTriggers           = "triggers"
	FieldAssociatedSymptoms = "associated_symptoms"
)

// DetailFields is the deterministic check order for missing-field computation.
var DetailFields = []string{
	FieldSeverity,
	FieldStartDate,
	FieldIsOngoing,
	FieldCharacteristics,
	FieldAggravatingFactors,
	FieldRelievingFactors,
	FieldFrequency,
	FieldIntensity,
	FieldTriggers,
	FieldAssociatedSymptoms,
}

// Severity is a 1-10 rating with an optional free-text description.
type Severity struct {
	Level       int    `json:"level"`
	Description string `json:"description,omitempty"`
}

// Duration tracks when a symptom started and whether it is still active.
// Dates are ISO-8601 strings as reported by the extraction port.
type Duration struct {
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
	IsOngoing *bool  `json:"is_ongoing,omitempty"`
}

// SymptomRecord holds the structured details collected for one deduplicated
// symptom. Records are append-only for the lifetime of a thread: they are
// created on first mention, mutated by detail extraction, and merged into
// rather than duplicated, but never deleted.
type SymptomRecord struct {
	Name               string    `json:"name"`
	Severity           *Severity `json:"severity,omitempty"`
	Duration           *Duration `json:"duration,omitempty"`
	Characteristics    []string  `json:"characteristics,omitempty"`
	Location           string    `json:"location,omitempty"`
	Quality            string    `json:"quality,omitempty"`
	Timing             string    `json:"timing,omitempty"`
	Context            string    `json:"context,omitempty"`
	Onset              string    `json:"onset,omitempty"`
	Frequency          string    `json:"frequency,omitempty"`
	Intensity          string    `json:"intensity,omitempty"`
	Triggers           []string  `json:"triggers,omitempty"`
	AggravatingFactors []string  `json:"aggravating_factors,omitempty"`
	RelievingFactors   []string  `json:"relieving_factors,omitempty"`
	AssociatedSymptoms []string  `json:"associated_symptoms,omitempty"`

	// ReportedAliases retains the surface forms that were merged into this
	// record, so the original wording is not lost for auditing.
	ReportedAliases []string `json:"reported_aliases,omitempty"`
}

// NewSymptomRecord creates an empty record for a canonical symptom name.
func NewSymptomRecord(name string) *SymptomRecord {
	return &SymptomRecord{Name: name}
}

// MissingFields returns the detail fields not yet filled in, preserving the
// fixed DetailFields order. List fields count as missing while empty, and
// is_ongoing is checked independently of start_date.
func (r *SymptomRecord) MissingFields() []string {
	var missing []string
	if r.Severity == nil || r.Severity.Level == 0 {
		missing = append(missing, FieldSeverity)
	}
	if r.Duration == nil || r.Duration.StartDate == "" {
		missing = append(missing, FieldStartDate)
	}
	if r.Duration == nil || r.Duration.IsOngoing == nil {
		missing = append(missing, FieldIsOngoing)
	}
	if len(r.Characteristics) == 0 {
		missing = append(missing, FieldCharacteristics)
	}
	if len(r.AggravatingFactors) == 0 {
		missing = append(missing, FieldAggravatingFactors)
	}
	if len(r.RelievingFactors) == 0 {
		missing = append(missing, FieldRelievingFactors)
	}
	if r.Frequency == "" {
		missing = append(missing, FieldFrequency)
	}
	if r.Intensity == "" {
		missing = append(missing, FieldIntensity)
	}
	if len(r.Triggers) == 0 {
		missing = append(missing, FieldTriggers)
	}
	if len(r.AssociatedSymptoms) == 0 {
		missing = append(missing, FieldAssociatedSymptoms)
	}
	return missing
}

// CompletionRatio reports how much of the record is filled, in [0,1].
func (r *SymptomRecord) CompletionRatio() float64 {
	return 1 - float64(len(r.MissingFields()))/float64(len(DetailFields))
}

// Apply writes an extracted field value into the record. Empty values are
// ignored so a failed extraction never clears previously collected details.
func (r *SymptomRecord) Apply(field string, v FieldValue) {
	switch field {
	case FieldSeverity:
		if v.Severity != nil && v.Severity.Level != 0 {
			r.Severity = v.Severity
		}
	case FieldStartDate, FieldIsOngoing:
		if v.Duration == nil {
			return
		}
		if r.Duration == nil {
			r.Duration = &Duration{}
		}
		if v.Duration.StartDate != "" {
			r.Duration.StartDate = v.Duration.StartDate
		}
		if v.Duration.EndDate != "" {
			r.Duration.EndDate = v.Duration.EndDate
		}
		if v.Duration.IsOngoing != nil {
			r.Duration.IsOngoing = v.Duration.IsOngoing
		}
	case FieldCharacteristics:
		if len(v.List) > 0 {
			r.Characteristics = v.List
		}
	case FieldAggravatingFactors:
		if len(v.List) > 0 {
			r.AggravatingFactors = v.List
		}
	case FieldRelievingFactors:
		if len(v.List) > 0 {
			r.RelievingFactors = v.List
		}
	case FieldTriggers:
		if len(v.List) > 0 {
			r.Triggers = v.List
		}
	case FieldAssociatedSymptoms:
		if len(v.List) > 0 {
			r.AssociatedSymptoms = v.List
		}
	case FieldFrequency:
		if v.Text != "" {
			r.Frequency = v.Text
		}
	case FieldIntensity:
		if v.Text != "" {
			r.Intensity = v.Text
		}
	case "location":
		if v.Text != "" {
			r.Location = v.Text
		}
	case "quality":
		if v.Text != "" {
			r.Quality = v.Text
		}
	case "timing":
		if v.Text != "" {
			r.Timing = v.Text
		}
	case "context":
		if v.Text != "" {
			r.Context = v.Text
		}
	case "onset":
		if v.Text != "" {
			r.Onset = v.Text
		}
	}
}

// Clone returns a deep copy of the record.
func (r *SymptomRecord) Clone() *SymptomRecord {
	if r == nil {
		return nil
	}
	out := *r
	if r.Severity != nil {
		sev := *r.Severity
		out.Severity = &sev
	}
	if r.Duration != nil {
		dur := *r.Duration
		if r.Duration.IsOngoing != nil {
			ongoing := *r.Duration.IsOngoing
			dur.IsOngoing = &ongoing
		}
		out.Duration = &dur
	}
	out.Characteristics = cloneStrings(r.Characteristics)
	out.Triggers = cloneStrings(r.Triggers)
	out.AggravatingFactors = cloneStrings(r.AggravatingFactors)
	out.RelievingFactors = cloneStrings(r.RelievingFactors)
	out.AssociatedSymptoms = cloneStrings(r.AssociatedSymptoms)
	out.ReportedAliases = cloneStrings(r.ReportedAliases)
	return &out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
