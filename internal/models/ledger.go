package models

import "strings"

// Ledger is the per-thread collection of symptom records plus the rotation
// cursor. Record order is first-mention order and drives deterministic
// rotation. The zero value is ready to use after a Records map is allocated
// via NewLedger or deserialization.
type Ledger struct {
	// Order lists canonical names in first-mention order.
	Order []string `json:"primary_symptoms"`
	// Records maps canonical name to the record's details.
	Records map[string]*SymptomRecord `json:"symptom_details"`
	// CurrentSymptom is the record currently being probed, or "".
	CurrentSymptom string `json:"current_symptom,omitempty"`
	// FollowUpCount counts turns spent probing CurrentSymptom since it was
	// last selected.
	FollowUpCount int `json:"follow_up_count"`
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{Records: make(map[string]*SymptomRecord)}
}

// Add resolves a reported symptom name against the ledger. A near-duplicate
// merges into the existing record (keeping the reported wording as an alias);
// a novel name creates a new record. Either way the current symptom is set if
// it was unset. Returns the canonical name the report resolved to.
func (l *Ledger) Add(name string, m Matcher) string {
	normalized := m.Normalize(name)
	if normalized == "" {
		return ""
	}
	if l.Records == nil {
		l.Records = make(map[string]*SymptomRecord)
	}

	canonical, found := m.FindSimilar(name, l.Order)
	if found {
		if rec := l.Records[canonical]; rec != nil && normalized != strings.ToLower(canonical) {
			rec.ReportedAliases = appendUnique(rec.ReportedAliases, normalized)
		}
	} else {
		canonical = normalized
		l.Order = append(l.Order, canonical)
		l.Records[canonical] = NewSymptomRecord(canonical)
	}

	if l.CurrentSymptom == "" {
		l.CurrentSymptom = canonical
	}
	return canonical
}

// Current returns the record under the rotation cursor. A dangling cursor
// (not a key of Records) is self-healed by re-selecting the first record.
func (l *Ledger) Current() *SymptomRecord {
	if len(l.Order) == 0 {
		return nil
	}
	if l.CurrentSymptom == "" || l.Records[l.CurrentSymptom] == nil {
		l.CurrentSymptom = l.Order[0]
		l.FollowUpCount = 0
	}
	return l.Records[l.CurrentSymptom]
}

// Rotate advances the cursor to the next record in first-mention order,
// wrapping around, and resets the follow-up counter. With no cursor set it
// selects the first record instead.
func (l *Ledger) Rotate() {
	if len(l.Order) == 0 {
		return
	}
	if l.CurrentSymptom == "" {
		l.CurrentSymptom = l.Order[0]
		l.FollowUpCount = 0
		return
	}
	idx := 0
	for i, name := range l.Order {
		if name == l.CurrentSymptom {
			idx = i
			break
		}
	}
	l.CurrentSymptom = l.Order[(idx+1)%len(l.Order)]
	l.FollowUpCount = 0
}

// IsTrackingComplete reports whether every record has reached the completion
// threshold. An empty ledger is never complete.
func (l *Ledger) IsTrackingComplete(threshold float64) bool {
	if len(l.Order) == 0 {
		return false
	}
	for _, name := range l.Order {
		if rec := l.Records[name]; rec == nil || rec.CompletionRatio() < threshold {
			return false
		}
	}
	return true
}

// NextFieldsToAsk returns up to maxFields missing fields of the current
// record, in the fixed probing order.
func (l *Ledger) NextFieldsToAsk(maxFields int) []string {
	cur := l.Current()
	if cur == nil {
		return nil
	}
	missing := cur.MissingFields()
	if len(missing) > maxFields {
		missing = missing[:maxFields]
	}
	return missing
}

// Clone returns a deep copy, used to snapshot the ledger before a turn so a
// failed turn can roll back.
func (l *Ledger) Clone() *Ledger {
	out := &Ledger{
		Order:          cloneStrings(l.Order),
		Records:        make(map[string]*SymptomRecord, len(l.Records)),
		CurrentSymptom: l.CurrentSymptom,
		FollowUpCount:  l.FollowUpCount,
	}
	for name, rec := range l.Records {
		out.Records[name] = rec.Clone()
	}
	return out
}

func appendUnique(list []string, s string) []string {
	for _, existing := range list {
		if existing == s {
			return list
		}
	}
	return append(list, s)
}
