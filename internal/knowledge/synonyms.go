// Package knowledge holds the static medical vocabulary used by symptom
// matching and question generation: a layman-to-standard synonym table and
// per-symptom follow-up question hints.
package knowledge

// Synonyms maps common layman phrasings to standardized symptom names.
// Applied before deduplication so "tummy ache" and "abdominal pain" land in
// the same record.
var Synonyms = map[string]string{
	// Digestive / abdominal
	"tummy ache":       "abdominal pain",
	"stomach ache":     "abdominal pain",
	"belly pain":       "abdominal pain",
	"gut pain":         "abdominal pain",
	"stomach cramps":   "abdominal cramps",
	"upset stomach":    "dyspepsia",
	"heartburn":        "acid reflux",
	"acid indigestion": "acid reflux",
	"throwing up":      "vomiting",
	"puke":             "vomiting",
	"being sick":       "vomiting",
	"loose stool":      "diarrhea",
	"runny stool":      "diarrhea",
	"constipated":      "constipation",
	"gas":              "flatulence",

	// Respiratory
	"short of breath":   "shortness of breath",
	"breathlessness":    "shortness of breath",
	"trouble breathing": "breathing difficulty",
	"stuffy nose":       "nasal congestion",
	"blocked nose":      "nasal congestion",
	"runny nose":        "rhinorrhea",
	"phlegm":            "mucus production",

	// Head / neurological
	"head hurts":    "headache",
	"head pain":     "headache",
	"bad headache":  "migraine",
	"dizzy":         "dizziness",
	"lightheaded":   "lightheadedness",
	"spinning":      "vertigo",
	"room spinning": "vertigo",
	"brain fog":     "confusion",
	"forgetful":     "memory problems",
	"passing out":   "syncope",
	"blacked out":   "syncope",

	// Pain
	"joint pain":  "arthralgia",
	"achy joints": "arthralgia",
	"muscle pain": "myalgia",

	// General
	"worn out":         "fatigue",
	"exhausted":        "fatigue",
	"no energy":        "fatigue",
	"feverish":         "fever",
	"high temperature": "fever",
	"the chills":       "chills",
	"cannot sleep":     "insomnia",
	"trouble sleeping": "insomnia",
}
