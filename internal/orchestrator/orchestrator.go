package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/carelog/intake-go/internal/knowledge"
	"github.com/carelog/intake-go/internal/metrics"
	"github.com/carelog/intake-go/internal/models"
	"github.com/carelog/intake-go/internal/store"
)

// Canned replies that never go through the generation port.
const (
	apologyReply = "I'm sorry, I had trouble processing that. Could you tell me again how you're feeling?"

	uploadPromptReply       = "Please tell me the filename of the medication label image you'd like me to process."
	uploadFailedReply       = "I couldn't process the medication label. Please try again with a valid image file."
	uploadsUnavailableReply = "Medication label uploads aren't available in this session, but I can keep documenting your symptoms."
)

// avoidWindow is how many recent assistant messages are passed to the
// generation port as negative examples.
const avoidWindow = 3

// Options tunes the decision thresholds of the state machine.
type Options struct {
	// CompletionThreshold is the per-record completion ratio above which
	// tracking counts as done.
	CompletionThreshold float64
	// MaxFollowUps is how many consecutive turns one symptom is probed
	// before rotating to the next.
	MaxFollowUps int
	// MaxFieldsPerQuestion caps how many missing fields one question
	// covers.
	MaxFieldsPerQuestion int
}

// DefaultOptions match the tuning the assessment flow was designed around.
func DefaultOptions() Options {
	return Options{
		CompletionThreshold:  0.4,
		MaxFollowUps:         3,
		MaxFieldsPerQuestion: 2,
	}
}

// Orchestrator processes dialogue turns: it loads the thread, runs the
// state machine to one outgoing message, and persists the result. Turns for
// the same thread are serialized; different threads proceed independently.
type Orchestrator struct {
	store     store.ThreadStore
	extractor Extractor
	generator Generator
	meds      MedicationPipeline
	matcher   models.Matcher
	opts      Options
	logger    *slog.Logger
	collector *metrics.Collector

	mu    sync.Mutex
	locks map[string]*threadLock
}

// threadLock serializes turns for one thread. The refs counter tracks
// holders and waiters so the entry can be evicted once nobody needs it,
// keeping the lock map bounded by the number of in-flight turns.
type threadLock struct {
	mu   sync.Mutex
	refs int
}

// New assembles an orchestrator. The medication pipeline and collector may
// be nil; upload requests are then answered with a canned notice and no
// metrics are recorded.
func New(st store.ThreadStore, ex Extractor, gen Generator, meds MedicationPipeline, matcher models.Matcher, opts Options, logger *slog.Logger, collector *metrics.Collector) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		store:     st,
		extractor: ex,
		generator: gen,
		meds:      meds,
		matcher:   matcher,
		opts:      opts,
		logger:    logger,
		collector: collector,
		locks:     make(map[string]*threadLock),
	}
}

// scratch is the per-turn working state. Nothing in it survives the turn
// except through the thread.
type scratch struct {
	utterance   string
	reply       string
	candidates  []string
	extracted   map[string]models.FieldValue
	pendingNext []string
	rotated     bool
}

// HandleTurn runs one dialogue turn and returns the assistant's reply. An
// unknown threadID starts a fresh thread under that ID. A store failure is
// returned to the caller with nothing persisted; port failures are absorbed
// into an apology reply with the ledger unchanged.
func (o *Orchestrator) HandleTurn(ctx context.Context, threadID, userID, utterance string) (string, error) {
	if threadID == "" {
		return "", fmt.Errorf("thread id required")
	}

	unlock := o.lockThread(threadID)
	defer unlock()

	turnStart := time.Now()
	defer func() {
		o.observe(metrics.OpTurn, turnStart, nil)
	}()

	loadStart := time.Now()
	thread, err := o.store.Load(ctx, threadID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		thread = models.NewThread(userID)
		thread.ThreadID = threadID
		o.logger.Info("starting new thread", "thread_id", threadID, "user_id", userID)
	case err != nil:
		o.observe(metrics.OpStoreLoad, loadStart, err)
		return "", fmt.Errorf("load thread: %w", err)
	default:
		o.observe(metrics.OpStoreLoad, loadStart, nil)
	}

	snapshot := thread.Ledger.Clone()
	sc := &scratch{
		utterance: strings.TrimSpace(utterance),
		extracted: make(map[string]models.FieldValue),
	}

	for st := stateStart; st != stateFinalize; {
		next, err := o.step(ctx, st, sc, thread)
		if err != nil {
			// Port failure: the turn becomes a no-op on the ledger,
			// answered with an apology.
			o.logger.Warn("turn degraded to apology",
				"thread_id", threadID, "state", st.String(), "error", err)
			thread.Ledger = snapshot
			sc.reply = apologyReply
			sc.pendingNext = nil
			break
		}
		o.logger.Debug("state transition",
			"thread_id", threadID, "from", st.String(), "to", next.String())
		st = next
	}

	if sc.utterance != "" {
		thread.Append(models.RoleUser, sc.utterance)
	}
	thread.Append(models.RoleAssistant, sc.reply)
	thread.PendingFields = sc.pendingNext

	saveStart := time.Now()
	if err := o.store.Save(ctx, thread); err != nil {
		o.observe(metrics.OpStoreSave, saveStart, err)
		return "", fmt.Errorf("save thread: %w", err)
	}
	o.observe(metrics.OpStoreSave, saveStart, nil)

	return sc.reply, nil
}

// step executes one state and returns the next. A returned error means an
// extraction or generation port failed and the turn must degrade.
func (o *Orchestrator) step(ctx context.Context, st state, sc *scratch, thread *models.Thread) (state, error) {
	led := thread.Ledger

	switch st {
	case stateStart:
		if sc.utterance == "" {
			return stateGreet, nil
		}
		return stateClassify, nil

	case stateGreet:
		start := time.Now()
		reply, err := o.generator.Greeting(ctx)
		o.observe(metrics.OpGenerate, start, err)
		if err != nil {
			return stateFinalize, err
		}
		sc.reply = reply
		return stateFinalize, nil

	case stateClassify:
		lower := strings.ToLower(sc.utterance)
		switch {
		case strings.Contains(lower, "summary") || strings.Contains(lower, "summarize"):
			return stateSummarize, nil
		case thread.PendingUpload,
			strings.Contains(lower, "upload"),
			strings.Contains(lower, "photo"),
			strings.Contains(lower, "medication label"):
			return statePrepareMedicationUpload, nil
		default:
			return stateExtractSymptoms, nil
		}

	case stateExtractSymptoms:
		start := time.Now()
		candidates, err := o.extractor.ExtractSymptoms(ctx, sc.utterance)
		o.observe(metrics.OpExtract, start, err)
		if err != nil {
			return stateFinalize, err
		}
		sc.candidates = candidates
		if len(candidates) == 0 && len(led.Order) == 0 {
			return stateRespond, nil
		}
		return stateMergeSymptoms, nil

	case stateMergeSymptoms:
		for _, name := range sc.candidates {
			led.Add(name, o.matcher)
		}
		return stateExtractDetails, nil

	case stateExtractDetails:
		for _, field := range led.NextFieldsToAsk(o.opts.MaxFieldsPerQuestion) {
			if !containsString(thread.PendingFields, field) {
				continue
			}
			start := time.Now()
			v, err := o.extractor.ExtractField(ctx, led.CurrentSymptom, field, sc.utterance)
			o.observe(metrics.OpExtract, start, err)
			if err != nil {
				return stateFinalize, err
			}
			if !v.IsZero() {
				sc.extracted[field] = v
			}
		}
		return stateCommitDetails, nil

	case stateCommitDetails:
		if cur := led.Current(); cur != nil {
			for field, v := range sc.extracted {
				cur.Apply(field, v)
			}
			led.FollowUpCount++
		}
		return stateDecide, nil

	case stateDecide:
		return o.decide(sc, led), nil

	case stateAskQuestion:
		fields := led.NextFieldsToAsk(o.opts.MaxFieldsPerQuestion)
		hints := knowledge.Hints(led.CurrentSymptom, fields)
		avoid := thread.RecentAssistantTexts(avoidWindow)

		start := time.Now()
		question, err := o.generator.Question(ctx, led.CurrentSymptom, fields, hints, thread.Transcript, avoid)
		o.observe(metrics.OpGenerate, start, err)
		if err != nil {
			return stateFinalize, err
		}
		sc.reply = question
		sc.pendingNext = fields
		return stateFinalize, nil

	case stateRespond:
		start := time.Now()
		reply, err := o.generator.Reply(ctx, models.ReplyContext{
			Symptoms:    led.Order,
			Medications: medicationNames(thread),
			Transcript:  thread.Transcript,
			Utterance:   sc.utterance,
		})
		o.observe(metrics.OpGenerate, start, err)
		if err != nil {
			return stateFinalize, err
		}
		sc.reply = reply
		return stateFinalize, nil

	case stateSummarize:
		sc.reply = led.SessionSummary() + "\n\n" + thread.MedicationSummary()
		return stateFinalize, nil

	case stateRecommend:
		start := time.Now()
		closing, err := o.generator.Closing(ctx, led.SessionSummary())
		o.observe(metrics.OpGenerate, start, err)
		if err != nil {
			return stateFinalize, err
		}
		sc.reply = closing
		return stateFinalize, nil

	case statePrepareMedicationUpload:
		o.prepareMedicationUpload(ctx, sc, thread)
		return stateFinalize, nil
	}

	return stateFinalize, fmt.Errorf("unhandled state %s", st)
}

// decide picks the next action after details are committed. Rotation resets
// the follow-up counter, so each branch can re-enter decide at most once.
func (o *Orchestrator) decide(sc *scratch, led *models.Ledger) state {
	if led.IsTrackingComplete(o.opts.CompletionThreshold) {
		return stateRecommend
	}
	cur := led.Current()
	if cur == nil {
		return stateRespond
	}
	if led.FollowUpCount >= o.opts.MaxFollowUps {
		led.Rotate()
		return stateDecide
	}
	if len(cur.MissingFields()) > 0 {
		return stateAskQuestion
	}
	if !sc.rotated {
		sc.rotated = true
		led.Rotate()
		return stateDecide
	}
	return stateRespond
}

func (o *Orchestrator) prepareMedicationUpload(ctx context.Context, sc *scratch, thread *models.Thread) {
	if o.meds == nil {
		thread.PendingUpload = false
		sc.reply = uploadsUnavailableReply
		return
	}

	if !thread.PendingUpload {
		thread.PendingUpload = true
		sc.reply = uploadPromptReply
		return
	}

	filename := sc.utterance
	thread.PendingUpload = false

	label, err := o.meds.Process(ctx, filename)
	if err != nil {
		o.logger.Warn("medication label processing failed",
			"thread_id", thread.ThreadID, "file", filename, "error", err)
		sc.reply = uploadFailedReply
		return
	}

	if thread.Medications == nil {
		thread.Medications = make(map[string]models.MedicationLabel)
	}
	thread.Medications[label.DrugName] = label
	sc.reply = fmt.Sprintf("I've successfully processed your medication label from the file: %s. Any other things you want to share with me?", filename)
}

func (o *Orchestrator) lockThread(threadID string) func() {
	o.mu.Lock()
	l, ok := o.locks[threadID]
	if !ok {
		l = &threadLock{}
		o.locks[threadID] = l
	}
	l.refs++
	o.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		o.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(o.locks, threadID)
		}
		o.mu.Unlock()
	}
}

func (o *Orchestrator) observe(op string, start time.Time, err error) {
	if o.collector == nil {
		return
	}
	if err != nil {
		o.collector.RecordFailure(op)
		return
	}
	o.collector.RecordTiming(op, time.Since(start))
}

func medicationNames(thread *models.Thread) []string {
	if len(thread.Medications) == 0 {
		return nil
	}
	names := make([]string, 0, len(thread.Medications))
	for name := range thread.Medications {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
