package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/carelog/intake-go/internal/models"
)

const greetingSystem = `You are a medical assistant designed to document symptoms.

Generate a friendly, empathetic greeting that:
1. Introduces yourself as a symptom documentation assistant
2. Explains that you'll help document their symptoms in detail
3. Asks what symptoms they're experiencing

Keep it concise and conversational.`

const questionSystem = `You are a medical assistant conducting a symptom assessment.

Ask a clear, specific question in a natural, empathetic tone about the requested fields for the symptom being discussed.
Keep your question concise and focused only on those fields, so that the patient understands what information you need.
Do not repeat a question you have recently asked; earlier phrasings to avoid are listed when present.`

const replySystem = `You are a medical assistant conducting a symptom assessment.

Respond in a natural, empathetic tone. If the patient has mentioned symptoms, acknowledge them.
If symptoms and medications are both present, discuss potential connections between them.
If medications are present without symptoms, ask if they're taking the medication for specific symptoms.
If no symptoms or medications have been mentioned yet, ask the patient what symptoms they're experiencing.

After gathering symptom details and medications have not been mentioned yet:
- Suggest they upload a photo of their medication label
- Or ask if they could tell you about any medications they're currently taking

Keep your response concise and focused.`

const closingSystem = `You are a medical assistant wrapping up a symptom assessment.

Given the session summary, write a short closing message that:
1. Thanks the patient for the information
2. Recaps the documented symptoms in one or two sentences
3. Recommends they share this record with their healthcare provider

Do not diagnose or suggest treatment. Keep it warm and brief.`

// transcriptWindow is how many recent messages are included in prompts.
const transcriptWindow = 5

// Generator implements the text-generation port over a chat model.
type Generator struct {
	model *Model
}

// NewGenerator returns a generator backed by the given model.
func NewGenerator(model *Model) *Generator {
	return &Generator{model: model}
}

// Greeting produces the opening message for a new session.
func (g *Generator) Greeting(ctx context.Context) (string, error) {
	response, err := g.model.GenerateWithSystem(ctx, greetingSystem, "Your greeting:")
	if err != nil {
		return "", fmt.Errorf("generate greeting: %w", err)
	}
	return strings.TrimSpace(response), nil
}

// Question asks about the given missing fields for a symptom. Optional
// hints suggest phrasings for the fields, and avoid lists recent assistant
// messages the question must not echo.
func (g *Generator) Question(ctx context.Context, symptom string, fields []string, hints []string, transcript []models.Message, avoid []string) (string, error) {
	fieldsStr := strings.Join(fields, ", ")

	var b strings.Builder
	fmt.Fprintf(&b, "Symptom: %s\nFields to ask about: %s\n", symptom, fieldsStr)
	if len(hints) > 0 {
		fmt.Fprintf(&b, "\nSuggested phrasings you may adapt:\n")
		for _, h := range hints {
			fmt.Fprintf(&b, "- %s\n", h)
		}
	}
	if len(avoid) > 0 {
		fmt.Fprintf(&b, "\nYou recently asked the following; do not repeat them:\n")
		for _, a := range avoid {
			fmt.Fprintf(&b, "- %s\n", a)
		}
	}
	fmt.Fprintf(&b, "\nPrevious conversation:\n%s\n", formatTranscript(transcript))
	fmt.Fprintf(&b, "\nYour question about the %s for %s:", fieldsStr, symptom)

	response, err := g.model.GenerateWithSystem(ctx, questionSystem, b.String())
	if err != nil {
		return "", fmt.Errorf("generate question: %w", err)
	}
	return strings.TrimSpace(response), nil
}

// Reply produces a free-text response when no follow-up question is due.
func (g *Generator) Reply(ctx context.Context, rc models.ReplyContext) (string, error) {
	symptoms := "None"
	if len(rc.Symptoms) > 0 {
		symptoms = strings.Join(rc.Symptoms, ", ")
	}
	medications := "None"
	if len(rc.Medications) > 0 {
		medications = strings.Join(rc.Medications, ", ")
	}

	prompt := fmt.Sprintf(`Current symptoms being tracked: %s

Medications mentioned or uploaded: %s

Previous conversation:
%s

Patient's latest message: %s

Your response:`, symptoms, medications, formatTranscript(rc.Transcript), rc.Utterance)

	response, err := g.model.GenerateWithSystem(ctx, replySystem, prompt)
	if err != nil {
		return "", fmt.Errorf("generate reply: %w", err)
	}
	return strings.TrimSpace(response), nil
}

// Closing produces the wrap-up message from a session summary.
func (g *Generator) Closing(ctx context.Context, summary string) (string, error) {
	prompt := fmt.Sprintf("Session summary:\n%s\n\nYour closing message:", summary)
	response, err := g.model.GenerateWithSystem(ctx, closingSystem, prompt)
	if err != nil {
		return "", fmt.Errorf("generate closing: %w", err)
	}
	return strings.TrimSpace(response), nil
}

func formatTranscript(transcript []models.Message) string {
	if len(transcript) > transcriptWindow {
		transcript = transcript[len(transcript)-transcriptWindow:]
	}
	if len(transcript) == 0 {
		return "(no prior messages)"
	}
	lines := make([]string, 0, len(transcript))
	for _, m := range transcript {
		role := "User"
		if m.Role == models.RoleAssistant {
			role = "Assistant"
		}
		lines = append(lines, fmt.Sprintf("%s: %s", role, m.Text))
	}
	return strings.Join(lines, "\n")
}
