package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	types "github.com/yungbote/suggestion-engine/internal/domain"
	"github.com/yungbote/suggestion-engine/internal/platform/logger"
	"github.com/yungbote/suggestion-engine/internal/realtime"
	"github.com/yungbote/suggestion-engine/internal/realtime/bus"
)

// =========================
// Job notifier
// =========================

type JobNotifier interface {
	JobCreated(userID uuid.UUID, job *types.JobRun)
	JobProgress(userID uuid.UUID, job *types.JobRun, stage string, progress int, message string)
	JobFailed(userID uuid.UUID, job *types.JobRun, stage string, errorMessage string)
	JobDone(userID uuid.UUID, job *types.JobRun)
}

// =========================
// Suggestion notifier
// =========================

type SuggestionNotifier interface {
	SuggestionsGenerated(userID uuid.UUID, suggestions []*types.Suggestion)
	SuggestionExecuted(userID uuid.UUID, s *types.Suggestion)
	SuggestionDismissed(userID uuid.UUID, s *types.Suggestion)
}

type Notifier interface {
	JobNotifier
	SuggestionNotifier
}

// busNotifier publishes best-effort: a failed publish is logged and dropped.
type busNotifier struct {
	bus     bus.Bus
	log     *logger.Logger
	timeout time.Duration
}

func NewNotifier(b bus.Bus, baseLog *logger.Logger) Notifier {
	if baseLog == nil {
		baseLog = logger.Nop()
	}
	return &busNotifier{bus: b, log: baseLog.With("service", "Notifier"), timeout: 2 * time.Second}
}

func (n *busNotifier) emit(userID uuid.UUID, event string, data map[string]any) {
	if n == nil || n.bus == nil || userID == uuid.Nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
	defer cancel()
	err := n.bus.Publish(ctx, realtime.Message{
		Channel: userID.String(),
		Event:   event,
		Data:    data,
		SentAt:  time.Now().UTC(),
	})
	if err != nil {
		n.log.Warn("realtime publish failed", "event", event, "user_id", userID, "error", err)
	}
}

func (n *busNotifier) JobCreated(userID uuid.UUID, job *types.JobRun) {
	n.emit(userID, realtime.EventJobCreated, map[string]any{"job": job})
}

func (n *busNotifier) JobProgress(userID uuid.UUID, job *types.JobRun, stage string, progress int, message string) {
	n.emit(userID, realtime.EventJobProgress, map[string]any{
		"job_id":   safeJobID(job),
		"job_type": safeJobType(job),
		"stage":    stage,
		"progress": progress,
		"message":  message,
	})
}

func (n *busNotifier) JobFailed(userID uuid.UUID, job *types.JobRun, stage string, errorMessage string) {
	n.emit(userID, realtime.EventJobFailed, map[string]any{
		"job_id":   safeJobID(job),
		"job_type": safeJobType(job),
		"stage":    stage,
		"error":    errorMessage,
	})
}

func (n *busNotifier) JobDone(userID uuid.UUID, job *types.JobRun) {
	n.emit(userID, realtime.EventJobDone, map[string]any{
		"job_id":   safeJobID(job),
		"job_type": safeJobType(job),
		"job":      job,
	})
}

func (n *busNotifier) SuggestionsGenerated(userID uuid.UUID, suggestions []*types.Suggestion) {
	if len(suggestions) == 0 {
		return
	}
	ids := make([]uuid.UUID, 0, len(suggestions))
	for _, s := range suggestions {
		ids = append(ids, s.ID)
	}
	n.emit(userID, realtime.EventSuggestionsGenerated, map[string]any{"suggestion_ids": ids, "count": len(ids)})
}

func (n *busNotifier) SuggestionExecuted(userID uuid.UUID, s *types.Suggestion) {
	n.emit(userID, realtime.EventSuggestionExecuted, map[string]any{"suggestion": s})
}

func (n *busNotifier) SuggestionDismissed(userID uuid.UUID, s *types.Suggestion) {
	n.emit(userID, realtime.EventSuggestionDismissed, map[string]any{"suggestion": s})
}

func safeJobID(job *types.JobRun) uuid.UUID {
	if job == nil {
		return uuid.Nil
	}
	return job.ID
}

func safeJobType(job *types.JobRun) string {
	if job == nil {
		return ""
	}
	return job.JobType
}
