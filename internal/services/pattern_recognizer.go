package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/datatypes"

	"github.com/yungbote/suggestion-engine/internal/data/db"
	"github.com/yungbote/suggestion-engine/internal/data/repos"
	types "github.com/yungbote/suggestion-engine/internal/domain"
	"github.com/yungbote/suggestion-engine/internal/learning/patterns"
	"github.com/yungbote/suggestion-engine/internal/learning/tuning"
	"github.com/yungbote/suggestion-engine/internal/observability"
	apperr "github.com/yungbote/suggestion-engine/internal/pkg/errors"
	"github.com/yungbote/suggestion-engine/internal/platform/ctxutil"
	"github.com/yungbote/suggestion-engine/internal/platform/dbctx"
	"github.com/yungbote/suggestion-engine/internal/platform/logger"
)

const (
	upsertCreated   = "created"
	upsertAdvanced  = "advanced"
	upsertUnchanged = "unchanged"
	upsertFailed    = "failed"
)

var errUpsertContention = errors.New("pattern upsert: too much contention")

// Window selects the most recent feedback events; zero values use the tuning defaults.
type Window struct {
	Limit int
	Since time.Duration
}

type PatternRecognizer interface {
	RecognizePatterns(ctx context.Context, userID uuid.UUID, w Window) ([]*types.Pattern, error)
	RecognizeFromEvents(ctx context.Context, userID uuid.UUID, events []*types.FeedbackEvent) []*types.Pattern
	ListPatterns(ctx context.Context, userID uuid.UUID, patternType string) ([]*types.Pattern, error)
}

type patternRecognizer struct {
	log       *logger.Logger
	feedback  repos.FeedbackEventRepo
	patterns  repos.PatternRepo
	cfg       tuning.Config
	detectors []patterns.Detector
	now       func() time.Time
}

func NewPatternRecognizer(baseLog *logger.Logger, feedback repos.FeedbackEventRepo, patternRepo repos.PatternRepo, cfg tuning.Config) PatternRecognizer {
	return &patternRecognizer{
		log:       baseLog.With("service", "PatternRecognizer"),
		feedback:  feedback,
		patterns:  patternRepo,
		cfg:       cfg,
		detectors: patterns.Detectors(cfg),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *patternRecognizer) RecognizePatterns(ctx context.Context, userID uuid.UUID, w Window) ([]*types.Pattern, error) {
	if userID == uuid.Nil {
		return nil, apperr.Invalid("user_id", "required")
	}
	ctx = ctxutil.Default(ctx)
	if w.Limit <= 0 {
		w.Limit = s.cfg.Window.RecognizeLimit
	}
	if w.Since <= 0 {
		w.Since = s.cfg.RecognizeSince()
	}
	var since time.Time
	if w.Since > 0 {
		since = s.now().Add(-w.Since)
	}

	events, err := s.feedback.ListRecentByUser(dbctx.Context{Ctx: ctx}, userID, w.Limit, since)
	if err != nil {
		return nil, fmt.Errorf("load feedback window: %w", err)
	}
	return s.RecognizeFromEvents(ctx, userID, events), nil
}

// RecognizeFromEvents runs every detector on an already loaded window. Each
// type fails on its own; the patterns of the other types are still returned.
func (s *patternRecognizer) RecognizeFromEvents(ctx context.Context, userID uuid.UUID, events []*types.FeedbackEvent) []*types.Pattern {
	ctx = ctxutil.Default(ctx)
	out := []*types.Pattern{}
	if len(events) == 0 {
		return out
	}
	ctx, span := observability.StartSpan(ctx, "patterns.recognize", attribute.Int("events", len(events)))
	defer span.End()

	metrics := observability.Current()
	for _, d := range s.detectors {
		cands, err := d.Detect(events)
		if err != nil {
			s.log.Warn("pattern detector failed", "pattern_type", d.Type(), "user_id", userID, "error", err)
			continue
		}
		for _, c := range cands {
			p, outcome, err := s.upsert(ctx, userID, c)
			metrics.IncPatternUpsert(c.PatternType, outcome)
			if err != nil {
				s.log.Warn("pattern upsert failed",
					"pattern_type", c.PatternType,
					"signature", c.Signature,
					"user_id", userID,
					"error", err,
				)
				continue
			}
			out = append(out, p)
		}
	}
	return out
}

func (s *patternRecognizer) upsert(ctx context.Context, userID uuid.UUID, c patterns.Candidate) (*types.Pattern, string, error) {
	dbc := dbctx.Context{Ctx: ctx}
	th := s.cfg.Patterns.ThresholdFor(c.PatternType)
	data, err := json.Marshal(c.Data)
	if err != nil {
		return nil, upsertFailed, fmt.Errorf("encode pattern data: %w", err)
	}

	retries := s.cfg.Patterns.UpsertRetries
	if retries < 1 {
		retries = 1
	}
	for attempt := 0; attempt < retries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, upsertFailed, err
		}
		existing, err := s.patterns.GetBySignature(dbc, userID, c.PatternType, c.Signature)
		if err != nil {
			if db.IsRetryable(err) {
				continue
			}
			return nil, upsertFailed, err
		}

		if existing == nil {
			p := &types.Pattern{
				UserID:       userID,
				PatternType:  c.PatternType,
				Signature:    c.Signature,
				Description:  c.Description,
				PatternData:  datatypes.JSON(data),
				SupportCount: c.Count(),
				Confidence:   th.Confidence(c.Count()),
				FirstSeenAt:  c.Oldest(),
				LastSeenAt:   c.Newest(),
			}
			inserted, err := s.patterns.InsertIgnore(dbc, p)
			if err != nil {
				if db.IsRetryable(err) {
					continue
				}
				return nil, upsertFailed, err
			}
			if inserted {
				return p, upsertCreated, nil
			}
			// A concurrent run inserted first; take the update path.
			continue
		}

		delta := c.NewerThan(existing.LastSeenAt)
		if delta == 0 {
			return existing, upsertUnchanged, nil
		}
		support := existing.SupportCount + delta
		lastSeen := existing.LastSeenAt
		if c.Newest().After(lastSeen) {
			lastSeen = c.Newest()
		}
		confidence := th.Confidence(support)
		ok, err := s.patterns.UpdateIfVersion(dbc, existing.ID, existing.Version, map[string]interface{}{
			"support_count": support,
			"confidence":    confidence,
			"last_seen_at":  lastSeen,
			"description":   c.Description,
			"pattern_data":  datatypes.JSON(data),
			"is_active":     true,
		})
		if err != nil {
			if db.IsRetryable(err) {
				continue
			}
			return nil, upsertFailed, err
		}
		if !ok {
			continue
		}
		existing.SupportCount = support
		existing.Confidence = confidence
		existing.LastSeenAt = lastSeen
		existing.Description = c.Description
		existing.PatternData = datatypes.JSON(data)
		existing.IsActive = true
		existing.Version++
		return existing, upsertAdvanced, nil
	}
	return nil, upsertFailed, errUpsertContention
}

func (s *patternRecognizer) ListPatterns(ctx context.Context, userID uuid.UUID, patternType string) ([]*types.Pattern, error) {
	if userID == uuid.Nil {
		return nil, apperr.Invalid("user_id", "required")
	}
	if patternType != "" && !isPatternType(patternType) {
		return nil, apperr.Invalid("type", fmt.Sprintf("unknown pattern type %q", patternType))
	}
	return s.patterns.ListByUser(dbctx.Context{Ctx: ctxutil.Default(ctx)}, userID, patternType, true)
}

func isPatternType(t string) bool {
	for _, known := range types.PatternTypes {
		if t == known {
			return true
		}
	}
	return false
}
