package models

import "strings"

// DefaultModifiers are the severity/chronicity qualifiers stripped during
// fuzzy matching. The list is configuration, not a fixed constant: compound
// symptom names that legitimately contain one of these words can be protected
// by overriding it.
var DefaultModifiers = []string{
	"mild", "severe", "slight", "extreme", "moderate", "chronic", "acute",
}

// Matcher decides whether a newly reported symptom name refers to a record
// that already exists in a ledger.
type Matcher struct {
	// Modifiers stripped from either side of a name before comparing.
	Modifiers []string
	// Synonyms maps layman phrasings to standard terms, applied to the
	// reported name before any matching rule runs.
	Synonyms map[string]string
}

// NewMatcher builds a matcher with the default modifier list and the given
// synonym table (nil is fine).
func NewMatcher(synonyms map[string]string) Matcher {
	return Matcher{Modifiers: DefaultModifiers, Synonyms: synonyms}
}

// Normalize lowercases, trims, and resolves synonyms for a reported name.
func (m Matcher) Normalize(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.Trim(n, ".,!?;:")
	if std, ok := m.Synonyms[n]; ok {
		return std
	}
	return n
}

// FindSimilar checks a reported name against the existing canonical names
// and returns the matching one, if any. Rules apply in order, first match
// wins: case-insensitive exact match, substring containment in either
// direction, then modifier stripping on either side.
func (m Matcher) FindSimilar(name string, existing []string) (string, bool) {
	normalized := m.Normalize(name)
	if normalized == "" {
		return "", false
	}

	for _, e := range existing {
		if strings.ToLower(e) == normalized {
			return e, true
		}
	}

	for _, e := range existing {
		el := strings.ToLower(e)
		if strings.Contains(el, normalized) || strings.Contains(normalized, el) {
			return e, true
		}
		for _, mod := range m.Modifiers {
			if mod+" "+el == normalized || el+" "+mod == normalized {
				return e, true
			}
			if mod+" "+normalized == el || normalized+" "+mod == el {
				return e, true
			}
		}
	}

	return "", false
}
