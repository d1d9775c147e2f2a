package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/datatypes"

	"github.com/yungbote/suggestion-engine/internal/data/repos"
	types "github.com/yungbote/suggestion-engine/internal/domain"
	"github.com/yungbote/suggestion-engine/internal/domain/learning"
	"github.com/yungbote/suggestion-engine/internal/learning/prompts"
	"github.com/yungbote/suggestion-engine/internal/learning/tuning"
	"github.com/yungbote/suggestion-engine/internal/normalization"
	"github.com/yungbote/suggestion-engine/internal/observability"
	apperr "github.com/yungbote/suggestion-engine/internal/pkg/errors"
	"github.com/yungbote/suggestion-engine/internal/platform/ctxutil"
	"github.com/yungbote/suggestion-engine/internal/platform/dbctx"
	"github.com/yungbote/suggestion-engine/internal/platform/logger"
	"github.com/yungbote/suggestion-engine/internal/platform/openai"
)

// ErrExtractionFailed marks an LLM call that produced no usable output:
// transport failure, timeout, or a response that does not match the schema.
var ErrExtractionFailed = errors.New("preference extraction failed")

// Correction is the input of one extraction.
type Correction struct {
	FeedbackID        *uuid.UUID
	OriginalMessage   string
	AIResponse        string
	CorrectedResponse string
	Context           datatypes.JSON
	// ObservedAt orders corrections for the same key; zero means now.
	ObservedAt time.Time
}

type PreferenceService interface {
	GetUserPreferences(ctx context.Context, userID uuid.UUID, prefType string) (map[string]map[string]any, error)
	UpdatePreferencesFromCorrection(ctx context.Context, userID uuid.UUID, c Correction) ([]*types.Preference, error)
	SetPreference(ctx context.Context, userID uuid.UUID, prefType, key string, value any, confidence float64) (*types.Preference, error)
	ExtractFromFeedback(ctx context.Context, feedbackID uuid.UUID) ([]*types.Preference, error)
}

type preferenceService struct {
	log        *logger.Logger
	prefs      repos.PreferenceRepo
	feedback   repos.FeedbackEventRepo
	llm        openai.Client
	cfg        tuning.PreferenceConfig
	llmTimeout time.Duration
}

// NewPreferenceService accepts a nil llm; extraction then fails with ErrUnavailable.
func NewPreferenceService(
	baseLog *logger.Logger,
	prefs repos.PreferenceRepo,
	feedback repos.FeedbackEventRepo,
	llm openai.Client,
	cfg tuning.PreferenceConfig,
	llmTimeout time.Duration,
) PreferenceService {
	if llmTimeout <= 0 {
		llmTimeout = 30 * time.Second
	}
	return &preferenceService{
		log:        baseLog.With("service", "PreferenceService"),
		prefs:      prefs,
		feedback:   feedback,
		llm:        llm,
		cfg:        cfg,
		llmTimeout: llmTimeout,
	}
}

func (s *preferenceService) GetUserPreferences(ctx context.Context, userID uuid.UUID, prefType string) (map[string]map[string]any, error) {
	if userID == uuid.Nil {
		return nil, apperr.Invalid("user_id", "required")
	}
	rows, err := s.prefs.ListByUser(dbctx.Context{Ctx: ctxutil.Default(ctx)}, userID, normalization.SnakeKey(prefType))
	if err != nil {
		return nil, err
	}
	return groupPreferences(rows), nil
}

// groupPreferences keeps the first value seen per key; rows arrive ordered
// by confidence desc.
func groupPreferences(rows []*types.Preference) map[string]map[string]any {
	out := map[string]map[string]any{}
	for _, p := range rows {
		group, ok := out[p.PreferenceType]
		if !ok {
			group = map[string]any{}
			out[p.PreferenceType] = group
		}
		if _, seen := group[p.PreferenceKey]; seen {
			continue
		}
		group[p.PreferenceKey] = decodePreferenceValue(p.PreferenceValue)
	}
	return out
}

func decodePreferenceValue(raw datatypes.JSON) any {
	if len(raw) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(raw)
	}
	return v
}

func (s *preferenceService) SetPreference(ctx context.Context, userID uuid.UUID, prefType, key string, value any, confidence float64) (*types.Preference, error) {
	if userID == uuid.Nil {
		return nil, apperr.Invalid("user_id", "required")
	}
	prefType = normalization.SnakeKey(prefType)
	key = normalization.SnakeKey(key)
	if prefType == "" {
		return nil, apperr.Invalid("preference_type", "required")
	}
	if key == "" {
		return nil, apperr.Invalid("preference_key", "required")
	}
	if value == nil {
		return nil, apperr.Invalid("preference_value", "required")
	}
	if confidence < 0 || confidence > 1 {
		return nil, apperr.Invalid("confidence", "must be within [0,1]")
	}
	b, err := json.Marshal(value)
	if err != nil {
		return nil, apperr.Invalid("preference_value", "not serializable")
	}
	stored, _, err := s.prefs.Upsert(dbctx.Context{Ctx: ctxutil.Default(ctx)}, &types.Preference{
		UserID:          userID,
		PreferenceType:  prefType,
		PreferenceKey:   key,
		PreferenceValue: datatypes.JSON(b),
		Confidence:      confidence,
		Source:          learning.PreferenceSourceExplicit,
	})
	return stored, err
}

func (s *preferenceService) ExtractFromFeedback(ctx context.Context, feedbackID uuid.UUID) ([]*types.Preference, error) {
	ctx = ctxutil.Default(ctx)
	ev, err := s.feedback.GetByID(dbctx.Context{Ctx: ctx}, feedbackID)
	if err != nil {
		return nil, err
	}
	if !ev.IsCorrection() {
		return nil, apperr.Invalid("feedback_id", "not a correction")
	}
	id := ev.ID
	return s.UpdatePreferencesFromCorrection(ctx, ev.UserID, Correction{
		FeedbackID:        &id,
		OriginalMessage:   ev.OriginalMessage,
		AIResponse:        ev.AIResponse,
		CorrectedResponse: ev.CorrectedResponse,
		Context:           ev.Context,
		ObservedAt:        ev.CreatedAt,
	})
}

// UpdatePreferencesFromCorrection extracts preferences with the LLM and
// upserts each valid item. Invalid items are dropped one by one; an unusable
// response returns zero preferences with an ErrExtractionFailed error. Items
// superseded by a newer stored signal are not returned.
func (s *preferenceService) UpdatePreferencesFromCorrection(ctx context.Context, userID uuid.UUID, c Correction) ([]*types.Preference, error) {
	ctx = ctxutil.Default(ctx)
	if userID == uuid.Nil {
		return nil, apperr.Invalid("user_id", "required")
	}
	p, err := prompts.Build(prompts.PromptPreferenceExtraction, prompts.Input{
		OriginalMessage:   c.OriginalMessage,
		AIResponse:        c.AIResponse,
		CorrectedResponse: c.CorrectedResponse,
		ContextJSON:       contextJSON(c.Context),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrInvalidArgument, err)
	}
	if s.llm == nil {
		return nil, fmt.Errorf("llm client: %w", apperr.ErrUnavailable)
	}

	ctx, span := observability.StartSpan(ctx, "preferences.extract", attribute.String("prompt", p.Fingerprint()))
	defer span.End()
	metrics := observability.Current()

	llmCtx, cancel := context.WithTimeout(ctx, s.llmTimeout)
	obj, err := s.llm.GenerateJSON(llmCtx, p.System, p.User, p.SchemaName, p.Schema)
	cancel()
	if err != nil {
		metrics.AddPreferences(upsertFailed, 1)
		span.RecordError(err)
		s.log.Warn("preference extraction call failed", "user_id", userID, "prompt", p.Fingerprint(), "error", err)
		return []*types.Preference{}, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	items, ok := obj["preferences"].([]any)
	if !ok {
		metrics.AddPreferences(upsertFailed, 1)
		s.log.Warn("preference extraction returned no preferences array", "user_id", userID, "prompt", p.Fingerprint())
		return []*types.Preference{}, fmt.Errorf("%w: missing preferences array", ErrExtractionFailed)
	}

	dbc := dbctx.Context{Ctx: ctx}
	out := make([]*types.Preference, 0, len(items))
	invalid, stale := 0, 0
	observedAt := c.ObservedAt.UTC()
	if c.ObservedAt.IsZero() {
		observedAt = time.Now().UTC()
	}
	for _, raw := range items {
		pref, ok := s.validateItem(userID, raw, c.FeedbackID, observedAt)
		if !ok {
			invalid++
			continue
		}
		stored, applied, err := s.prefs.Upsert(dbc, pref)
		if err != nil {
			invalid++
			s.log.Warn("preference upsert failed", "user_id", userID, "preference_type", pref.PreferenceType, "error", err)
			continue
		}
		if !applied {
			stale++
			continue
		}
		out = append(out, stored)
	}
	metrics.AddPreferences("stored", len(out))
	metrics.AddPreferences("invalid", invalid)
	metrics.AddPreferences("stale", stale)
	s.log.Debug("preferences extracted", "user_id", userID, "stored", len(out), "invalid", invalid, "stale", stale, "prompt", p.Fingerprint())
	return out, nil
}

func (s *preferenceService) validateItem(userID uuid.UUID, raw any, feedbackID *uuid.UUID, observedAt time.Time) (*types.Preference, bool) {
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, false
	}
	prefType := normalization.SnakeKey(stringField(m, "type"))
	key := normalization.SnakeKey(stringField(m, "key"))
	if prefType == "" || key == "" {
		return nil, false
	}
	value, present := m["value"]
	if !present || value == nil {
		return nil, false
	}
	if str, isStr := value.(string); isStr {
		value = strings.TrimSpace(str)
		if value == "" {
			return nil, false
		}
	}
	confidence := s.cfg.DefaultConfidence
	if rawConf, present := m["confidence"]; present && rawConf != nil {
		f, isNum := rawConf.(float64)
		if !isNum || f < 0 || f > 1 {
			return nil, false
		}
		confidence = f
	}
	b, err := json.Marshal(value)
	if err != nil {
		return nil, false
	}
	return &types.Preference{
		UserID:           userID,
		PreferenceType:   prefType,
		PreferenceKey:    key,
		PreferenceValue:  datatypes.JSON(b),
		Confidence:       confidence,
		Source:           learning.PreferenceSourceCorrection,
		SourceFeedbackID: feedbackID,
		SourceAt:         &observedAt,
	}, true
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return strings.TrimSpace(s)
}

func contextJSON(raw datatypes.JSON) string {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" || s == "{}" {
		return ""
	}
	return s
}
