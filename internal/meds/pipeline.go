package meds

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/carelog/intake-go/internal/llm"
	"github.com/carelog/intake-go/internal/metrics"
	"github.com/carelog/intake-go/internal/models"
)

const structureLabelSystem = `You are an expert pharmacist with extensive experience in reading and interpreting medication labels.
Your primary task is to:
- Extract the brand name(s) if available from drug labels, if not drug or medication name(s).
- Carefully extract medication details from prescription labels and pharmacy documentation.

Important Guidelines:
- Pay special attention to brand names or drug names, including both brand and generic names
- Extract precise drug facts such as ingredient names, strength and purpose information
- Extract precise dosage instructions and frequency
- Note any special instructions or warnings
- Identify key dates (prescription written, filled, expiry)
- Look for refill information and quantity details
- Capture all safety information and federal cautions
- Use medical domain knowledge only to assist with disambiguation, not to assume missing content.

Return a single JSON object with exactly these keys, using empty strings or 0 for fields not present on the label:
{
    "drug_name": string,
    "drug_strength": string,
    "drug_instructions": string,
    "pharmacy_name": string,
    "pharmacy_address": string,
    "pharmacy_phone": string,
    "patient_name": string,
    "prescriber_name": string,
    "rx_number": string,
    "rx_written_date": string,
    "filled_date": string,
    "discard_after": string,
    "refill_count": integer,
    "qty_filled": integer,
    "manufacturer": string,
    "pill_markings": string,
    "federal_caution": string,
    "pharmacist": string
}`

// Pipeline turns an uploaded label image into a structured MedicationLabel:
// OCR, then LLM structuring, then validation of the result.
type Pipeline struct {
	ocr       OCR
	model     *llm.Model
	labelDir  string
	logger    *slog.Logger
	collector *metrics.Collector
}

// NewPipeline assembles the label-processing pipeline.
func NewPipeline(ocr OCR, model *llm.Model, labelDir string, logger *slog.Logger, collector *metrics.Collector) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		ocr:       ocr,
		model:     model,
		labelDir:  labelDir,
		logger:    logger,
		collector: collector,
	}
}

// Process runs the full pipeline for one uploaded filename.
func (p *Pipeline) Process(ctx context.Context, filename string) (models.MedicationLabel, error) {
	var zero models.MedicationLabel

	path, err := ResolveLabelPath(p.labelDir, filename)
	if err != nil {
		return zero, err
	}

	start := time.Now()
	rawText, err := p.ocr.ImageToText(ctx, path)
	if p.collector != nil {
		if err != nil {
			p.collector.RecordFailure(metrics.OpOCR)
		} else {
			p.collector.RecordTiming(metrics.OpOCR, time.Since(start))
		}
	}
	if err != nil {
		return zero, fmt.Errorf("ocr: %w", err)
	}
	if strings.TrimSpace(rawText) == "" {
		return zero, fmt.Errorf("ocr: no text recognized in %q", filename)
	}
	p.logger.Debug("label OCR complete", "file", filename, "chars", len(rawText))

	label, err := p.structure(ctx, rawText)
	if err != nil {
		return zero, err
	}
	if err := Validate(label); err != nil {
		return zero, err
	}

	p.logger.Info("medication label processed", "file", filename, "drug", label.DrugName)
	return label, nil
}

func (p *Pipeline) structure(ctx context.Context, rawText string) (models.MedicationLabel, error) {
	var zero models.MedicationLabel

	prompt := fmt.Sprintf(`Analyze the following medication label text and extract the relevant information:

%s

Make sure to standardize drug names and include all available safety information. If certain fields are not present in the text, leave them empty rather than making assumptions.`, strings.TrimSpace(rawText))

	response, err := p.model.GenerateWithSystem(ctx, structureLabelSystem, prompt)
	if err != nil {
		return zero, fmt.Errorf("structure label: %w", err)
	}

	var label models.MedicationLabel
	if err := json.Unmarshal([]byte(stripCodeFence(response)), &label); err != nil {
		return zero, fmt.Errorf("structure label: parse response: %w", err)
	}
	return label, nil
}

// Validate rejects labels that lack the one field every prescription label
// must carry.
func Validate(label models.MedicationLabel) error {
	if strings.TrimSpace(label.DrugName) == "" {
		return fmt.Errorf("label has no drug name")
	}
	return nil
}

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
