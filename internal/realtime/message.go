package realtime

import "time"

const (
	EventJobCreated           = "job_created"
	EventJobProgress          = "job_progress"
	EventJobFailed            = "job_failed"
	EventJobDone              = "job_done"
	EventSuggestionsGenerated = "suggestions_generated"
	EventSuggestionExecuted   = "suggestion_executed"
	EventSuggestionDismissed  = "suggestion_dismissed"
)

// Message is one lifecycle event addressed to a channel (the user id).
type Message struct {
	Channel string         `json:"channel"`
	Event   string         `json:"event"`
	Data    map[string]any `json:"data,omitempty"`
	SentAt  time.Time      `json:"sent_at"`
}
