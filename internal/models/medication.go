package models

import (
	"fmt"
	"sort"
	"strings"
)

// MedicationLabel is the structured form of one prescription label, as
// produced by the medication pipeline. DrugName is the only required field;
// everything else stays empty when not present on the label.
type MedicationLabel struct {
	DrugName         string `json:"drug_name"`
	DrugStrength     string `json:"drug_strength,omitempty"`
	DrugInstructions string `json:"drug_instructions,omitempty"`
	PharmacyName     string `json:"pharmacy_name,omitempty"`
	PharmacyAddress  string `json:"pharmacy_address,omitempty"`
	PharmacyPhone    string `json:"pharmacy_phone,omitempty"`
	PatientName      string `json:"patient_name,omitempty"`
	PrescriberName   string `json:"prescriber_name,omitempty"`
	RxNumber         string `json:"rx_number,omitempty"`
	RxWrittenDate    string `json:"rx_written_date,omitempty"`
	FilledDate       string `json:"filled_date,omitempty"`
	DiscardAfter     string `json:"discard_after,omitempty"`
	RefillCount      int    `json:"refill_count,omitempty"`
	QtyFilled        int    `json:"qty_filled,omitempty"`
	Manufacturer     string `json:"manufacturer,omitempty"`
	PillMarkings     string `json:"pill_markings,omitempty"`
	FederalCaution   string `json:"federal_caution,omitempty"`
	Pharmacist       string `json:"pharmacist,omitempty"`
}

// Summary renders the collected label fields, skipping empty ones.
func (m MedicationLabel) Summary() string {
	lines := []string{fmt.Sprintf("Medication: %s", m.DrugName)}
	if m.DrugStrength != "" {
		lines = append(lines, "Strength: "+m.DrugStrength)
	}
	if m.DrugInstructions != "" {
		lines = append(lines, "Instructions: "+m.DrugInstructions)
	}
	if m.PharmacyName != "" {
		lines = append(lines, "Pharmacy: "+m.PharmacyName)
	}
	if m.PharmacyPhone != "" {
		lines = append(lines, "Pharmacy Phone: "+m.PharmacyPhone)
	}
	if m.PrescriberName != "" {
		lines = append(lines, "Prescribed by: "+m.PrescriberName)
	}
	if m.RxNumber != "" {
		lines = append(lines, "Rx Number: "+m.RxNumber)
	}
	if m.FilledDate != "" {
		lines = append(lines, "Filled Date: "+m.FilledDate)
	}
	if m.DiscardAfter != "" {
		lines = append(lines, "Discard After: "+m.DiscardAfter)
	}
	if m.RefillCount != 0 {
		lines = append(lines, fmt.Sprintf("Refills Remaining: %d", m.RefillCount))
	}
	if m.QtyFilled != 0 {
		lines = append(lines, fmt.Sprintf("Quantity: %d", m.QtyFilled))
	}
	if m.FederalCaution != "" {
		lines = append(lines, "Warning: "+m.FederalCaution)
	}
	if m.PatientName != "" {
		lines = append(lines, "Patient: "+m.PatientName)
	}
	return strings.Join(lines, "\n")
}

// MedicationSummary renders every recorded medication on a thread.
func (t *Thread) MedicationSummary() string {
	if len(t.Medications) == 0 {
		return "No medications have been recorded yet."
	}
	var summaries []string
	for _, name := range sortedKeys(t.Medications) {
		summaries = append(summaries, t.Medications[name].Summary())
	}
	return strings.Join(summaries, "\n\n")
}

func sortedKeys(m map[string]MedicationLabel) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
