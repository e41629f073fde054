package orchestrator

// state enumerates the per-turn dialogue states. Each turn starts at
// stateStart and terminates at stateFinalize.
type state int

const (
	stateStart state = iota
	stateGreet
	stateClassify
	stateExtractSymptoms
	stateMergeSymptoms
	stateExtractDetails
	stateCommitDetails
	stateDecide
	stateAskQuestion
	stateRespond
	stateSummarize
	stateRecommend
	statePrepareMedicationUpload
	stateFinalize
)

func (s state) String() string {
	switch s {
	case stateStart:
		return "start"
	case stateGreet:
		return "greet"
	case stateClassify:
		return "classify"
	case stateExtractSymptoms:
		return "extract_symptoms"
	case stateMergeSymptoms:
		return "merge_symptoms"
	case stateExtractDetails:
		return "extract_details"
	case stateCommitDetails:
		return "commit_details"
	case stateDecide:
		return "decide"
	case stateAskQuestion:
		return "ask_question"
	case stateRespond:
		return "respond"
	case stateSummarize:
		return "summarize"
	case stateRecommend:
		return "recommend"
	case statePrepareMedicationUpload:
		return "prepare_medication_upload"
	case stateFinalize:
		return "finalize"
	}
	return "unknown"
}
