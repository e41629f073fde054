package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carelog/intake-go/internal/knowledge"
	"github.com/carelog/intake-go/internal/models"
	"github.com/carelog/intake-go/internal/store"
)

type fakeExtractor struct {
	symptoms    []string
	symptomsErr error
	fields      map[string]models.FieldValue
	fieldErr    error
	fieldCalls  []string
}

func (f *fakeExtractor) ExtractSymptoms(ctx context.Context, text string) ([]string, error) {
	if f.symptomsErr != nil {
		return nil, f.symptomsErr
	}
	return f.symptoms, nil
}

func (f *fakeExtractor) ExtractField(ctx context.Context, symptom, field, text string) (models.FieldValue, error) {
	f.fieldCalls = append(f.fieldCalls, field)
	if f.fieldErr != nil {
		return models.NoValue(), f.fieldErr
	}
	if v, ok := f.fields[field]; ok {
		return v, nil
	}
	return models.NoValue(), nil
}

type fakeGenerator struct {
	greeting string
	question string
	reply    string
	closing  string

	questionErr error
	replyErr    error
	closingErr  error
	greetingErr error

	lastSymptom  string
	lastFields   []string
	lastHints    []string
	lastAvoid    []string
	lastReplyCtx models.ReplyContext
	closingCalls int
}

func (f *fakeGenerator) Greeting(ctx context.Context) (string, error) {
	return f.greeting, f.greetingErr
}

func (f *fakeGenerator) Question(ctx context.Context, symptom string, fields, hints []string, transcript []models.Message, avoid []string) (string, error) {
	f.lastSymptom = symptom
	f.lastFields = fields
	f.lastHints = hints
	f.lastAvoid = avoid
	return f.question, f.questionErr
}

func (f *fakeGenerator) Reply(ctx context.Context, rc models.ReplyContext) (string, error) {
	f.lastReplyCtx = rc
	return f.reply, f.replyErr
}

func (f *fakeGenerator) Closing(ctx context.Context, summary string) (string, error) {
	f.closingCalls++
	return f.closing, f.closingErr
}

type fakeMeds struct {
	label    models.MedicationLabel
	err      error
	lastFile string
}

func (f *fakeMeds) Process(ctx context.Context, filename string) (models.MedicationLabel, error) {
	f.lastFile = filename
	return f.label, f.err
}

// failingSaveStore wraps a MemoryStore and fails every Save.
type failingSaveStore struct {
	*store.MemoryStore
}

func (s *failingSaveStore) Save(ctx context.Context, t *models.Thread) error {
	return fmt.Errorf("connection refused: %w", store.ErrUnavailable)
}

func newTestOrchestrator(st store.ThreadStore, ex Extractor, gen Generator, meds MedicationPipeline) *Orchestrator {
	return New(st, ex, gen, meds, models.NewMatcher(knowledge.Synonyms), DefaultOptions(), nil, nil)
}

func TestEmptyUtteranceGreets(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	gen := &fakeGenerator{greeting: "Hello! What symptoms are you experiencing?"}
	o := newTestOrchestrator(st, &fakeExtractor{}, gen, nil)

	reply, err := o.HandleTurn(ctx, "t1", "u1", "")
	require.NoError(t, err)
	assert.Equal(t, gen.greeting, reply)

	thread, err := st.Load(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, thread.Transcript, 1)
	assert.Equal(t, models.RoleAssistant, thread.Transcript[0].Role)
}

func TestFirstSymptomMentionAsksQuestion(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	ex := &fakeExtractor{symptoms: []string{"dizziness"}}
	gen := &fakeGenerator{question: "How severe is the dizziness, and when did it start?"}
	o := newTestOrchestrator(st, ex, gen, nil)

	reply, err := o.HandleTurn(ctx, "t1", "u1", "I've been feeling really off lately, kinda dizzy.")
	require.NoError(t, err)
	assert.Equal(t, gen.question, reply)

	thread, err := st.Load(ctx, "t1")
	require.NoError(t, err)
	require.Equal(t, []string{"dizziness"}, thread.Ledger.Order)
	assert.Equal(t, "dizziness", thread.Ledger.CurrentSymptom)

	// The question targets the first two missing fields.
	assert.Equal(t, []string{models.FieldSeverity, models.FieldStartDate}, gen.lastFields)
	assert.Equal(t, []string{models.FieldSeverity, models.FieldStartDate}, thread.PendingFields)

	require.Len(t, thread.Transcript, 2)
	assert.Equal(t, models.RoleUser, thread.Transcript[0].Role)
	assert.Equal(t, models.RoleAssistant, thread.Transcript[1].Role)
}

func TestPendingFieldsCommitOnNextTurn(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	ex := &fakeExtractor{symptoms: []string{"dizziness"}}
	gen := &fakeGenerator{question: "q1"}
	o := newTestOrchestrator(st, ex, gen, nil)

	_, err := o.HandleTurn(ctx, "t1", "u1", "I feel dizzy")
	require.NoError(t, err)

	ongoing := true
	ex.symptoms = nil
	ex.fields = map[string]models.FieldValue{
		models.FieldSeverity:  models.SeverityValue(models.Severity{Level: 6}),
		models.FieldStartDate: models.DurationValue(models.Duration{StartDate: "2026-08-28", IsOngoing: &ongoing}),
	}
	gen.question = "q2"

	_, err = o.HandleTurn(ctx, "t1", "u1", "about a 6, since three days ago")
	require.NoError(t, err)

	thread, err := st.Load(ctx, "t1")
	require.NoError(t, err)
	rec := thread.Ledger.Records["dizziness"]
	require.NotNil(t, rec)
	require.NotNil(t, rec.Severity)
	assert.Equal(t, 6, rec.Severity.Level)
	require.NotNil(t, rec.Duration)
	assert.Equal(t, "2026-08-28", rec.Duration.StartDate)
	assert.Equal(t, 2, thread.Ledger.FollowUpCount)

	// Only the fields asked last turn were extracted.
	assert.Equal(t, []string{models.FieldSeverity, models.FieldStartDate}, ex.fieldCalls)
}

func TestNoSymptomsFallsThroughToReply(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	gen := &fakeGenerator{reply: "What symptoms are you experiencing?"}
	o := newTestOrchestrator(st, &fakeExtractor{}, gen, nil)

	reply, err := o.HandleTurn(ctx, "t1", "u1", "hello there")
	require.NoError(t, err)
	assert.Equal(t, gen.reply, reply)
	assert.Equal(t, "hello there", gen.lastReplyCtx.Utterance)
	assert.Empty(t, gen.lastReplyCtx.Symptoms)
}

func TestRotationAfterFollowUpBudget(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	ex := &fakeExtractor{symptoms: []string{"headache", "nausea"}}
	gen := &fakeGenerator{question: "q"}
	o := newTestOrchestrator(st, ex, gen, nil)

	_, err := o.HandleTurn(ctx, "t1", "u1", "my head hurts and I feel sick")
	require.NoError(t, err)
	ex.symptoms = nil

	// Burn through the follow-up budget without answering anything.
	for i := 0; i < 3; i++ {
		_, err = o.HandleTurn(ctx, "t1", "u1", "mumble")
		require.NoError(t, err)
	}

	thread, err := st.Load(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "nausea", thread.Ledger.CurrentSymptom)
	assert.Equal(t, "nausea", gen.lastSymptom)
}

func TestGenerationFailureRollsBackLedger(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	ex := &fakeExtractor{symptoms: []string{"headache"}}
	gen := &fakeGenerator{questionErr: errors.New("provider down")}
	o := newTestOrchestrator(st, ex, gen, nil)

	reply, err := o.HandleTurn(ctx, "t1", "u1", "my head hurts")
	require.NoError(t, err)
	assert.Equal(t, apologyReply, reply)

	// Ledger is the pre-turn ledger; transcript still has both messages.
	thread, err := st.Load(ctx, "t1")
	require.NoError(t, err)
	assert.Empty(t, thread.Ledger.Order)
	assert.Empty(t, thread.PendingFields)
	require.Len(t, thread.Transcript, 2)
	assert.Equal(t, "my head hurts", thread.Transcript[0].Text)
	assert.Equal(t, apologyReply, thread.Transcript[1].Text)
}

func TestExtractionFailureRollsBackLedger(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	ex := &fakeExtractor{symptoms: []string{"headache"}}
	gen := &fakeGenerator{question: "q"}
	o := newTestOrchestrator(st, ex, gen, nil)

	_, err := o.HandleTurn(ctx, "t1", "u1", "my head hurts")
	require.NoError(t, err)

	ex.symptoms = nil
	ex.fieldErr = errors.New("timeout")
	reply, err := o.HandleTurn(ctx, "t1", "u1", "it's a 7")
	require.NoError(t, err)
	assert.Equal(t, apologyReply, reply)

	thread, err := st.Load(ctx, "t1")
	require.NoError(t, err)
	rec := thread.Ledger.Records["headache"]
	require.NotNil(t, rec)
	assert.Nil(t, rec.Severity)
	assert.Equal(t, 1, thread.Ledger.FollowUpCount)
}

func TestStoreUnavailableSurfaces(t *testing.T) {
	ctx := context.Background()
	st := &failingSaveStore{store.NewMemoryStore()}
	gen := &fakeGenerator{reply: "r"}
	o := newTestOrchestrator(st, &fakeExtractor{}, gen, nil)

	_, err := o.HandleTurn(ctx, "t1", "u1", "hello")
	assert.ErrorIs(t, err, store.ErrUnavailable)
}

func TestTrackingCompleteRecommends(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()

	// Seed a thread whose only record clears the 0.4 threshold.
	thread := models.NewThread("u1")
	thread.ThreadID = "t1"
	ongoing := true
	m := models.NewMatcher(nil)
	thread.Ledger.Add("headache", m)
	rec := thread.Ledger.Current()
	rec.Severity = &models.Severity{Level: 7}
	rec.Duration = &models.Duration{StartDate: "2026-08-20", IsOngoing: &ongoing}
	rec.Characteristics = []string{"throbbing"}
	rec.Triggers = []string{"stress"}
	require.NoError(t, st.Save(ctx, thread))

	gen := &fakeGenerator{closing: "Thanks, please share this with your provider."}
	o := newTestOrchestrator(st, &fakeExtractor{}, gen, nil)

	reply, err := o.HandleTurn(ctx, "t1", "u1", "that's everything I think")
	require.NoError(t, err)
	assert.Equal(t, gen.closing, reply)
	assert.Equal(t, 1, gen.closingCalls)
}

func TestSummaryKeywordRendersDeterministicSummary(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	ex := &fakeExtractor{symptoms: []string{"headache"}}
	gen := &fakeGenerator{question: "q"}
	o := newTestOrchestrator(st, ex, gen, nil)

	_, err := o.HandleTurn(ctx, "t1", "u1", "my head hurts")
	require.NoError(t, err)

	reply, err := o.HandleTurn(ctx, "t1", "u1", "can you give me a summary?")
	require.NoError(t, err)
	assert.Contains(t, reply, "headache")
	assert.Contains(t, reply, "No medications have been recorded yet.")
}

func TestAntiRepetitionPassesRecentAssistantMessages(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	ex := &fakeExtractor{symptoms: []string{"headache"}}
	gen := &fakeGenerator{question: "first question"}
	o := newTestOrchestrator(st, ex, gen, nil)

	_, err := o.HandleTurn(ctx, "t1", "u1", "my head hurts")
	require.NoError(t, err)
	assert.Empty(t, gen.lastAvoid)

	ex.symptoms = nil
	gen.question = "second question"
	_, err = o.HandleTurn(ctx, "t1", "u1", "not sure")
	require.NoError(t, err)
	assert.Equal(t, []string{"first question"}, gen.lastAvoid)
}

func TestMedicationUploadFlow(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	meds := &fakeMeds{label: models.MedicationLabel{DrugName: "Amoxicillin", DrugStrength: "500 mg"}}
	gen := &fakeGenerator{reply: "r"}
	o := newTestOrchestrator(st, &fakeExtractor{}, gen, meds)

	reply, err := o.HandleTurn(ctx, "t1", "u1", "I want to upload a photo of my medication")
	require.NoError(t, err)
	assert.Equal(t, uploadPromptReply, reply)

	thread, err := st.Load(ctx, "t1")
	require.NoError(t, err)
	assert.True(t, thread.PendingUpload)

	// The next utterance is treated as the staged filename.
	reply, err = o.HandleTurn(ctx, "t1", "u1", "label.png")
	require.NoError(t, err)
	assert.Contains(t, reply, "label.png")
	assert.Equal(t, "label.png", meds.lastFile)

	thread, err = st.Load(ctx, "t1")
	require.NoError(t, err)
	assert.False(t, thread.PendingUpload)
	require.Contains(t, thread.Medications, "Amoxicillin")
	assert.Equal(t, "500 mg", thread.Medications["Amoxicillin"].DrugStrength)
}

func TestMedicationUploadFailure(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	meds := &fakeMeds{err: errors.New("no such file")}
	o := newTestOrchestrator(st, &fakeExtractor{}, &fakeGenerator{}, meds)

	_, err := o.HandleTurn(ctx, "t1", "u1", "upload my medication label")
	require.NoError(t, err)

	reply, err := o.HandleTurn(ctx, "t1", "u1", "nope.png")
	require.NoError(t, err)
	assert.Equal(t, uploadFailedReply, reply)

	thread, err := st.Load(ctx, "t1")
	require.NoError(t, err)
	assert.False(t, thread.PendingUpload)
	assert.Empty(t, thread.Medications)
}

func TestUploadWithoutPipelineConfigured(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	o := newTestOrchestrator(st, &fakeExtractor{}, &fakeGenerator{}, nil)

	reply, err := o.HandleTurn(ctx, "t1", "u1", "can I upload a photo?")
	require.NoError(t, err)
	assert.Equal(t, uploadsUnavailableReply, reply)
}

func TestResumptionMatchesContinuousSession(t *testing.T) {
	ctx := context.Background()

	run := func(st store.ThreadStore, reload bool) *models.Ledger {
		ex := &fakeExtractor{symptoms: []string{"cough"}}
		gen := &fakeGenerator{question: "q"}
		o := newTestOrchestrator(st, ex, gen, nil)

		_, err := o.HandleTurn(ctx, "t1", "u1", "I have a cough")
		require.NoError(t, err)

		if reload {
			// Simulate a process restart between turns.
			o = newTestOrchestrator(st, ex, gen, nil)
		}

		ex.symptoms = nil
		ex.fields = map[string]models.FieldValue{
			models.FieldSeverity: models.SeverityValue(models.Severity{Level: 4}),
		}
		_, err = o.HandleTurn(ctx, "t1", "u1", "maybe a 4")
		require.NoError(t, err)

		thread, err := st.Load(ctx, "t1")
		require.NoError(t, err)
		return thread.Ledger
	}

	continuous := run(store.NewMemoryStore(), false)
	resumed := run(store.NewMemoryStore(), true)
	assert.Equal(t, continuous, resumed)
}

func TestSynonymNormalizationOnMerge(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	ex := &fakeExtractor{symptoms: []string{"tummy ache"}}
	gen := &fakeGenerator{question: "q"}
	o := newTestOrchestrator(st, ex, gen, nil)

	_, err := o.HandleTurn(ctx, "t1", "u1", "my tummy aches")
	require.NoError(t, err)

	thread, err := st.Load(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, []string{"abdominal pain"}, thread.Ledger.Order)
}

func TestQuestionIncludesKnowledgeHints(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	ex := &fakeExtractor{symptoms: []string{"headache"}}
	gen := &fakeGenerator{question: "q"}
	o := newTestOrchestrator(st, ex, gen, nil)

	_, err := o.HandleTurn(ctx, "t1", "u1", "my head hurts")
	require.NoError(t, err)
	assert.NotEmpty(t, gen.lastHints)
}

func TestConcurrentTurnsOnDistinctThreads(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	gen := &fakeGenerator{reply: "r", greeting: "g"}
	o := newTestOrchestrator(st, &fakeExtractor{}, gen, nil)

	done := make(chan error, 10)
	for i := 0; i < 10; i++ {
		threadID := fmt.Sprintf("t%d", i)
		go func() {
			_, err := o.HandleTurn(ctx, threadID, "u1", "hello")
			done <- err
		}()
	}
	for i := 0; i < 10; i++ {
		require.NoError(t, <-done)
	}

	summaries, err := st.ListActive(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, summaries, 10)

	// With no turn in flight, every per-thread lock has been evicted.
	o.mu.Lock()
	assert.Empty(t, o.locks)
	o.mu.Unlock()
}
