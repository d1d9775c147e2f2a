package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/datatypes"

	"github.com/yungbote/suggestion-engine/internal/data/repos"
	types "github.com/yungbote/suggestion-engine/internal/domain"
	"github.com/yungbote/suggestion-engine/internal/domain/learning"
	"github.com/yungbote/suggestion-engine/internal/observability"
	apperr "github.com/yungbote/suggestion-engine/internal/pkg/errors"
	"github.com/yungbote/suggestion-engine/internal/platform/ctxutil"
	"github.com/yungbote/suggestion-engine/internal/platform/dbctx"
	"github.com/yungbote/suggestion-engine/internal/platform/logger"
)

const (
	defaultFeedbackListLimit = 50
	maxFeedbackListLimit     = 200
)

type FeedbackInput struct {
	UserID            uuid.UUID      `json:"-"`
	FeedbackType      string         `json:"feedback_type"`
	InteractionType   string         `json:"interaction_type"`
	ReferenceID       string         `json:"reference_id,omitempty"`
	ReferenceType     string         `json:"reference_type,omitempty"`
	Rating            *int           `json:"rating,omitempty"`
	Comment           string         `json:"comment,omitempty"`
	OriginalMessage   string         `json:"original_message,omitempty"`
	AIResponse        string         `json:"ai_response,omitempty"`
	CorrectedResponse string         `json:"corrected_response,omitempty"`
	Context           map[string]any `json:"context,omitempty"`
}

func (in FeedbackInput) Validate() error {
	if in.UserID == uuid.Nil {
		return apperr.Invalid("user_id", "required")
	}
	if in.FeedbackType == "" {
		return apperr.Invalid("feedback_type", "required")
	}
	if !learning.IsFeedbackType(in.FeedbackType) {
		return apperr.Invalid("feedback_type", fmt.Sprintf("unknown value %q", in.FeedbackType))
	}
	if in.InteractionType == "" {
		return apperr.Invalid("interaction_type", "required")
	}
	if !learning.IsInteractionType(in.InteractionType) {
		return apperr.Invalid("interaction_type", fmt.Sprintf("unknown value %q", in.InteractionType))
	}
	if in.Rating != nil && (*in.Rating < 1 || *in.Rating > 5) {
		return apperr.Invalid("rating", "must be between 1 and 5")
	}
	if in.FeedbackType == types.FeedbackCorrection && strings.TrimSpace(in.CorrectedResponse) == "" {
		return apperr.Invalid("corrected_response", "required for correction feedback")
	}
	return nil
}

type FeedbackService interface {
	CollectFeedback(ctx context.Context, in FeedbackInput) (*types.FeedbackEvent, error)
	ListFeedback(ctx context.Context, userID uuid.UUID, limit int) ([]*types.FeedbackEvent, error)
}

type feedbackService struct {
	log      *logger.Logger
	feedback repos.FeedbackEventRepo
	jobs     JobService
}

func NewFeedbackService(baseLog *logger.Logger, feedback repos.FeedbackEventRepo, jobs JobService) FeedbackService {
	return &feedbackService{
		log:      baseLog.With("service", "FeedbackService"),
		feedback: feedback,
		jobs:     jobs,
	}
}

func (s *feedbackService) CollectFeedback(ctx context.Context, in FeedbackInput) (*types.FeedbackEvent, error) {
	ctx = ctxutil.Default(ctx)
	in.FeedbackType = strings.ToLower(strings.TrimSpace(in.FeedbackType))
	in.InteractionType = strings.ToLower(strings.TrimSpace(in.InteractionType))
	if err := in.Validate(); err != nil {
		return nil, err
	}

	ctx, span := observability.StartSpan(ctx, "feedback.collect",
		attribute.String("feedback_type", in.FeedbackType),
		attribute.String("interaction_type", in.InteractionType),
	)
	defer span.End()

	var ctxJSON datatypes.JSON
	if len(in.Context) > 0 {
		b, err := json.Marshal(in.Context)
		if err != nil {
			return nil, apperr.Invalid("context", "not serializable")
		}
		ctxJSON = datatypes.JSON(b)
	}

	ev, err := s.feedback.Create(dbctx.Context{Ctx: ctx}, &types.FeedbackEvent{
		UserID:            in.UserID,
		FeedbackType:      in.FeedbackType,
		InteractionType:   in.InteractionType,
		ReferenceID:       strings.TrimSpace(in.ReferenceID),
		ReferenceType:     strings.TrimSpace(in.ReferenceType),
		Rating:            in.Rating,
		Comment:           in.Comment,
		OriginalMessage:   in.OriginalMessage,
		AIResponse:        in.AIResponse,
		CorrectedResponse: in.CorrectedResponse,
		Context:           ctxJSON,
	})
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("store feedback: %w", err)
	}
	observability.Current().IncFeedback(ev.FeedbackType)

	s.scheduleLearning(ctx, ev)
	return ev, nil
}

// scheduleLearning never fails the write; the learning jobs are best-effort.
func (s *feedbackService) scheduleLearning(ctx context.Context, ev *types.FeedbackEvent) {
	if s.jobs == nil {
		return
	}
	dbc := dbctx.Context{Ctx: ctx}
	if _, created, err := s.jobs.EnqueueUnlessQueued(dbc, ev.UserID, types.JobPatternRecognize, "", nil, map[string]any{
		"user_id": ev.UserID.String(),
	}); err != nil {
		s.log.Warn("schedule pattern recognition failed", append(ctxutil.TraceFields(ctx), "user_id", ev.UserID, "error", err)...)
	} else if !created {
		s.log.Debug("pattern recognition already queued", "user_id", ev.UserID)
	}

	if !ev.IsCorrection() || strings.TrimSpace(ev.OriginalMessage) == "" || strings.TrimSpace(ev.CorrectedResponse) == "" {
		return
	}
	feedbackID := ev.ID
	if _, err := s.jobs.Enqueue(dbc, ev.UserID, types.JobPreferenceExtract, "feedback", &feedbackID, map[string]any{
		"feedback_id": ev.ID.String(),
	}); err != nil {
		s.log.Warn("schedule preference extraction failed", append(ctxutil.TraceFields(ctx), "feedback_id", ev.ID, "error", err)...)
	}
}

func (s *feedbackService) ListFeedback(ctx context.Context, userID uuid.UUID, limit int) ([]*types.FeedbackEvent, error) {
	if userID == uuid.Nil {
		return nil, apperr.Invalid("user_id", "required")
	}
	if limit <= 0 {
		limit = defaultFeedbackListLimit
	}
	if limit > maxFeedbackListLimit {
		limit = maxFeedbackListLimit
	}
	return s.feedback.ListRecentByUser(dbctx.Context{Ctx: ctxutil.Default(ctx)}, userID, limit, time.Time{})
}
