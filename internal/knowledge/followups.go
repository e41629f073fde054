package knowledge

import "strings"

// followUpHints maps a standardized symptom name to example follow-up
// questions per detail field. The hints are handed to the question generator
// as guidance; they are never shown to the patient verbatim.
var followUpHints = map[string]map[string][]string{
	"headache": {
		"characteristics": {
			"Is your headache sharp, dull, throbbing, or pressure-like?",
			"Is the headache on one side or both sides of your head?",
		},
		"severity": {
			"On a scale of 1-10, how would you rate the intensity of your headache?",
		},
		"triggers": {
			"Do you notice anything that triggers your headaches?",
			"Are your headaches related to stress, certain foods, or physical activity?",
		},
		"aggravating_factors": {
			"What makes your headache worse? For example: light, noise, movement?",
		},
		"relieving_factors": {
			"What helps relieve your headache? Rest, medication, darkness, cold/hot compress?",
		},
		"associated_symptoms": {
			"Do you experience any other symptoms with your headaches, like nausea, sensitivity to light or sound, or dizziness?",
		},
	},
	"abdominal pain": {
		"characteristics": {
			"How would you describe the pain? Sharp, cramping, burning, or dull?",
			"Is the pain constant or does it come and go?",
		},
		"severity": {
			"On a scale of 1-10, how would you rate your abdominal pain?",
		},
		"triggers": {
			"Does eating certain foods trigger or worsen the pain?",
		},
		"associated_symptoms": {
			"Do you have any other symptoms like nausea, vomiting, diarrhea, constipation, or bloating?",
		},
		"relieving_factors": {
			"What helps relieve the pain? Medication, certain positions, eating, or not eating?",
		},
	},
	"cough": {
		"characteristics": {
			"Is your cough dry or productive (bringing up phlegm or mucus)?",
			"If productive, what color is the phlegm?",
		},
		"triggers": {
			"Does anything trigger or worsen your cough? Cold air, exercise, talking, or lying down?",
		},
		"associated_symptoms": {
			"Do you have any other symptoms with the cough, like fever, shortness of breath, or chest pain?",
		},
	},
	"fever": {
		"severity": {
			"Have you measured your temperature? How high has it been?",
		},
		"associated_symptoms": {
			"Do you have chills, sweating, body aches, or any other symptoms with the fever?",
		},
	},
	"dizziness": {
		"characteristics": {
			"Does it feel like the room is spinning, or more like you might faint?",
		},
		"triggers": {
			"Does the dizziness come on when you stand up, move your head, or at random?",
		},
		"associated_symptoms": {
			"Do you have nausea, hearing changes, or vision changes with the dizziness?",
		},
	},
	"fatigue": {
		"characteristics": {
			"Is the tiredness physical, mental, or both?",
		},
		"relieving_factors": {
			"Does rest or sleep improve how you feel?",
		},
	},
}

// Hints returns example follow-up questions for a symptom and the fields
// about to be asked. Unknown symptoms and fields yield nothing.
func Hints(symptom string, fields []string) []string {
	byField, ok := followUpHints[strings.ToLower(strings.TrimSpace(symptom))]
	if !ok {
		return nil
	}
	var hints []string
	for _, field := range fields {
		hints = append(hints, byField[field]...)
	}
	return hints
}
