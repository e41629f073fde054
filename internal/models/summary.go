package models

import (
	"fmt"
	"strings"
)

// Summary renders a deterministic textual summary of one record, listing
// only the fields that have been collected.
func (r *SymptomRecord) Summary() string {
	lines := []string{fmt.Sprintf("Symptom: %s", r.Name)}

	if r.Severity != nil && r.Severity.Level != 0 {
		lines = append(lines, fmt.Sprintf("Severity: %d/10", r.Severity.Level))
		if r.Severity.Description != "" {
			lines = append(lines, fmt.Sprintf("Description: %s", r.Severity.Description))
		}
	}

	if r.Duration != nil {
		var parts []string
		if r.Duration.StartDate != "" {
			parts = append(parts, fmt.Sprintf("Started: %s", r.Duration.StartDate))
		}
		if r.Duration.IsOngoing != nil {
			status := "Resolved"
			if *r.Duration.IsOngoing {
				status = "Ongoing"
			}
			parts = append(parts, fmt.Sprintf("Status: %s", status))
		}
		if r.Duration.EndDate != "" && (r.Duration.IsOngoing == nil || !*r.Duration.IsOngoing) {
			parts = append(parts, fmt.Sprintf("Ended: %s", r.Duration.EndDate))
		}
		if len(parts) > 0 {
			lines = append(lines, "Duration: "+strings.Join(parts, ", "))
		}
	}

	if len(r.Characteristics) > 0 {
		lines = append(lines, "Characteristics: "+strings.Join(r.Characteristics, ", "))
	}
	if r.Location != "" {
		lines = append(lines, "Location: "+r.Location)
	}
	if r.Quality != "" {
		lines = append(lines, "Quality: "+r.Quality)
	}
	if r.Frequency != "" {
		lines = append(lines, "Frequency: "+r.Frequency)
	}
	if r.Intensity != "" {
		lines = append(lines, "Intensity: "+r.Intensity)
	}
	if len(r.Triggers) > 0 {
		lines = append(lines, "Triggers: "+strings.Join(r.Triggers, ", "))
	}
	if len(r.AggravatingFactors) > 0 {
		lines = append(lines, "Aggravating factors: "+strings.Join(r.AggravatingFactors, ", "))
	}
	if len(r.RelievingFactors) > 0 {
		lines = append(lines, "Relieving factors: "+strings.Join(r.RelievingFactors, ", "))
	}
	if len(r.AssociatedSymptoms) > 0 {
		lines = append(lines, "Associated symptoms: "+strings.Join(r.AssociatedSymptoms, ", "))
	}

	return strings.Join(lines, "\n")
}

// SessionSummary renders all records in first-mention order.
func (l *Ledger) SessionSummary() string {
	if len(l.Order) == 0 {
		return "No symptoms have been recorded."
	}
	summaries := make([]string, 0, len(l.Order))
	for _, name := range l.Order {
		if rec := l.Records[name]; rec != nil {
			summaries = append(summaries, rec.Summary())
		}
	}
	return strings.Join(summaries, "\n\n")
}
