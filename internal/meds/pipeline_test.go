package meds

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/carelog/intake-go/internal/llm"
)

type fakeChatModel struct {
	response string
	err      error
}

func (f *fakeChatModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: f.response}},
	}, nil
}

func (f *fakeChatModel) Call(ctx context.Context, prompt string, _ ...llms.CallOption) (string, error) {
	return f.response, f.err
}

type fakeOCR struct {
	text string
	err  error
	path string
}

func (f *fakeOCR) ImageToText(ctx context.Context, path string) (string, error) {
	f.path = path
	return f.text, f.err
}

func writeLabelFile(t *testing.T) (dir, name string) {
	t.Helper()
	dir = t.TempDir()
	name = "label.png"
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("png"), 0o644))
	return dir, name
}

const labelJSON = `{
	"drug_name": "Amoxicillin",
	"drug_strength": "500 mg",
	"drug_instructions": "Take one capsule three times daily",
	"pharmacy_name": "Main St Pharmacy",
	"rx_number": "RX-102938",
	"refill_count": 2,
	"qty_filled": 30
}`

func TestPipelineProcess(t *testing.T) {
	dir, name := writeLabelFile(t)
	ocr := &fakeOCR{text: "AMOXICILLIN 500MG CAP ..."}
	model := llm.NewModelWithLLM(&fakeChatModel{response: labelJSON}, "fake")

	p := NewPipeline(ocr, model, dir, nil, nil)
	label, err := p.Process(context.Background(), name)
	require.NoError(t, err)

	assert.Equal(t, "Amoxicillin", label.DrugName)
	assert.Equal(t, "500 mg", label.DrugStrength)
	assert.Equal(t, 2, label.RefillCount)
	assert.Equal(t, filepath.Join(dir, name), ocr.path)
}

func TestPipelineMissingFile(t *testing.T) {
	p := NewPipeline(&fakeOCR{}, llm.NewModelWithLLM(&fakeChatModel{}, "fake"), t.TempDir(), nil, nil)

	_, err := p.Process(context.Background(), "does-not-exist.png")
	assert.Error(t, err)
}

func TestPipelineOCRFailure(t *testing.T) {
	dir, name := writeLabelFile(t)
	ocr := &fakeOCR{err: errors.New("binary not found")}
	p := NewPipeline(ocr, llm.NewModelWithLLM(&fakeChatModel{}, "fake"), dir, nil, nil)

	_, err := p.Process(context.Background(), name)
	assert.ErrorContains(t, err, "ocr")
}

func TestPipelineEmptyOCRText(t *testing.T) {
	dir, name := writeLabelFile(t)
	ocr := &fakeOCR{text: "   "}
	p := NewPipeline(ocr, llm.NewModelWithLLM(&fakeChatModel{}, "fake"), dir, nil, nil)

	_, err := p.Process(context.Background(), name)
	assert.ErrorContains(t, err, "no text recognized")
}

func TestPipelineRejectsLabelWithoutDrugName(t *testing.T) {
	dir, name := writeLabelFile(t)
	ocr := &fakeOCR{text: "some text"}
	model := llm.NewModelWithLLM(&fakeChatModel{response: `{"drug_name": ""}`}, "fake")
	p := NewPipeline(ocr, model, dir, nil, nil)

	_, err := p.Process(context.Background(), name)
	assert.ErrorContains(t, err, "no drug name")
}

func TestPipelineUnparseableResponse(t *testing.T) {
	dir, name := writeLabelFile(t)
	ocr := &fakeOCR{text: "some text"}
	model := llm.NewModelWithLLM(&fakeChatModel{response: "I can't read this label"}, "fake")
	p := NewPipeline(ocr, model, dir, nil, nil)

	_, err := p.Process(context.Background(), name)
	assert.ErrorContains(t, err, "parse response")
}

func TestPipelineFencedResponse(t *testing.T) {
	dir, name := writeLabelFile(t)
	ocr := &fakeOCR{text: "some text"}
	model := llm.NewModelWithLLM(&fakeChatModel{response: "```json\n" + labelJSON + "\n```"}, "fake")
	p := NewPipeline(ocr, model, dir, nil, nil)

	label, err := p.Process(context.Background(), name)
	require.NoError(t, err)
	assert.Equal(t, "Amoxicillin", label.DrugName)
}

func TestResolveLabelPathAbsolute(t *testing.T) {
	dir, name := writeLabelFile(t)
	abs := filepath.Join(dir, name)

	got, err := ResolveLabelPath("/elsewhere", abs)
	require.NoError(t, err)
	assert.Equal(t, abs, got)
}
