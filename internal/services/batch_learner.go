package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/yungbote/suggestion-engine/internal/data/repos"
	"github.com/yungbote/suggestion-engine/internal/learning/tuning"
	"github.com/yungbote/suggestion-engine/internal/observability"
	apperr "github.com/yungbote/suggestion-engine/internal/pkg/errors"
	"github.com/yungbote/suggestion-engine/internal/platform/ctxutil"
	"github.com/yungbote/suggestion-engine/internal/platform/dbctx"
	"github.com/yungbote/suggestion-engine/internal/platform/logger"
)

type BatchOptions struct {
	// Limit overrides the batch window size.
	Limit int
	// Generate regenerates suggestions once learning finishes.
	Generate bool
}

type BatchResult struct {
	Success              bool   `json:"success"`
	PatternsDetected     int    `json:"patterns_detected"`
	PreferencesUpdated   int    `json:"preferences_updated"`
	TotalFeedback        int    `json:"total_feedback"`
	CorrectionsProcessed int    `json:"corrections_processed"`
	ExtractionFailures   int    `json:"extraction_failures"`
	SuggestionsCreated   int    `json:"suggestions_created,omitempty"`
	Error                string `json:"error,omitempty"`
}

type BatchLearner interface {
	// LearnFromBatch never returns an error for partial failures; they are
	// counted in the result. Success is false only when the window cannot be read.
	LearnFromBatch(ctx context.Context, userID uuid.UUID, opts BatchOptions) BatchResult
}

type batchLearner struct {
	log         *logger.Logger
	feedback    repos.FeedbackEventRepo
	recognizer  PatternRecognizer
	preferences PreferenceService
	generator   SuggestionGenerator
	cfg         tuning.WindowConfig
}

func NewBatchLearner(
	baseLog *logger.Logger,
	feedback repos.FeedbackEventRepo,
	recognizer PatternRecognizer,
	preferences PreferenceService,
	generator SuggestionGenerator,
	cfg tuning.WindowConfig,
) BatchLearner {
	return &batchLearner{
		log:         baseLog.With("service", "BatchLearner"),
		feedback:    feedback,
		recognizer:  recognizer,
		preferences: preferences,
		generator:   generator,
		cfg:         cfg,
	}
}

func (s *batchLearner) LearnFromBatch(ctx context.Context, userID uuid.UUID, opts BatchOptions) BatchResult {
	ctx = ctxutil.Default(ctx)
	if userID == uuid.Nil {
		return BatchResult{Error: apperr.Invalid("user_id", "required").Error()}
	}
	ctx, span := observability.StartSpan(ctx, "learning.batch")
	defer span.End()

	limit := opts.Limit
	if limit <= 0 {
		limit = s.cfg.BatchLimit
	}
	events, err := s.feedback.ListRecentByUser(dbctx.Context{Ctx: ctx}, userID, limit, time.Time{})
	if err != nil {
		span.RecordError(err)
		s.log.Error("batch learning: load window failed", "user_id", userID, "error", err)
		return BatchResult{Error: err.Error()}
	}

	res := BatchResult{Success: true, TotalFeedback: len(events)}
	res.PatternsDetected = len(s.recognizer.RecognizeFromEvents(ctx, userID, events))

	// Oldest first so the newest correction for a key is written last.
	for i := len(events) - 1; i >= 0; i-- {
		ev := events[i]
		if !ev.IsCorrection() || strings.TrimSpace(ev.OriginalMessage) == "" || strings.TrimSpace(ev.CorrectedResponse) == "" {
			continue
		}
		if ctx.Err() != nil {
			break
		}
		res.CorrectionsProcessed++
		id := ev.ID
		prefs, err := s.preferences.UpdatePreferencesFromCorrection(ctx, userID, Correction{
			FeedbackID:        &id,
			OriginalMessage:   ev.OriginalMessage,
			AIResponse:        ev.AIResponse,
			CorrectedResponse: ev.CorrectedResponse,
			Context:           ev.Context,
			ObservedAt:        ev.CreatedAt,
		})
		if err != nil {
			res.ExtractionFailures++
			if !errors.Is(err, ErrExtractionFailed) {
				s.log.Warn("batch learning: preference update failed", "feedback_id", ev.ID, "error", err)
			}
			continue
		}
		res.PreferencesUpdated += len(prefs)
	}

	if opts.Generate && s.generator != nil {
		created, err := s.generator.GenerateSuggestions(ctx, userID, GenerateOptions{})
		if err != nil {
			s.log.Warn("batch learning: suggestion generation failed", "user_id", userID, "error", err)
		}
		res.SuggestionsCreated = len(created)
	}

	span.SetAttributes(
		attribute.Int("total_feedback", res.TotalFeedback),
		attribute.Int("patterns_detected", res.PatternsDetected),
		attribute.Int("extraction_failures", res.ExtractionFailures),
	)
	s.log.Info("batch learning finished",
		"user_id", userID,
		"total_feedback", res.TotalFeedback,
		"patterns_detected", res.PatternsDetected,
		"preferences_updated", res.PreferencesUpdated,
		"corrections_processed", res.CorrectionsProcessed,
		"extraction_failures", res.ExtractionFailures,
	)
	return res
}
