package models

// FieldKind discriminates the shapes an extracted field value can take.
type FieldKind int

const (
	// KindNone means the extraction port found nothing for the field.
	KindNone FieldKind = iota
	KindSeverity
	KindDuration
	KindList
	KindText
)

// FieldValue is the tagged union carried from the extraction port to the
// ledger. Exactly one of the payload members is set, matching Kind.
type FieldValue struct {
	Kind     FieldKind
	Severity *Severity
	Duration *Duration
	List     []string
	Text     string
}

// NoValue reports an extraction that produced nothing usable.
func NoValue() FieldValue { return FieldValue{Kind: KindNone} }

// SeverityValue wraps a severity rating.
func SeverityValue(s Severity) FieldValue {
	return FieldValue{Kind: KindSeverity, Severity: &s}
}

// DurationValue wraps duration information.
func DurationValue(d Duration) FieldValue {
	return FieldValue{Kind: KindDuration, Duration: &d}
}

// ListValue wraps a list-shaped detail such as triggers or characteristics.
func ListValue(items []string) FieldValue {
	return FieldValue{Kind: KindList, List: items}
}

// TextValue wraps a plain string detail such as frequency or location.
func TextValue(s string) FieldValue {
	return FieldValue{Kind: KindText, Text: s}
}

// IsZero reports whether the value carries no usable payload.
func (v FieldValue) IsZero() bool {
	switch v.Kind {
	case KindSeverity:
		return v.Severity == nil || v.Severity.Level == 0
	case KindDuration:
		return v.Duration == nil ||
			(v.Duration.StartDate == "" && v.Duration.EndDate == "" && v.Duration.IsOngoing == nil)
	case KindList:
		return len(v.List) == 0
	case KindText:
		return v.Text == ""
	default:
		return true
	}
}
