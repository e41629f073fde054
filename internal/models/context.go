package models

// ReplyContext carries the conversational context handed to the generation
// port for a free-text reply.
type ReplyContext struct {
	Symptoms    []string
	Medications []string
	Transcript  []Message
	Utterance   string
}
