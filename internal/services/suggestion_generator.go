package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"

	"github.com/yungbote/suggestion-engine/internal/data/repos"
	types "github.com/yungbote/suggestion-engine/internal/domain"
	"github.com/yungbote/suggestion-engine/internal/domain/learning"
	"github.com/yungbote/suggestion-engine/internal/learning/prompts"
	"github.com/yungbote/suggestion-engine/internal/learning/suggest"
	"github.com/yungbote/suggestion-engine/internal/learning/tuning"
	"github.com/yungbote/suggestion-engine/internal/observability"
	apperr "github.com/yungbote/suggestion-engine/internal/pkg/errors"
	"github.com/yungbote/suggestion-engine/internal/platform/ctxutil"
	"github.com/yungbote/suggestion-engine/internal/platform/dbctx"
	"github.com/yungbote/suggestion-engine/internal/platform/logger"
	"github.com/yungbote/suggestion-engine/internal/platform/openai"
)

const (
	defaultSuggestionListLimit = 50
	maxSuggestionListLimit     = 200
)

type GenerateOptions struct {
	ProjectID *string
	Limit     int
}

type ListFilter = repos.SuggestionFilter

type SuggestionGenerator interface {
	GenerateSuggestions(ctx context.Context, userID uuid.UUID, opts GenerateOptions) ([]*types.Suggestion, error)
	ListSuggestions(ctx context.Context, userID uuid.UUID, f ListFilter) ([]*types.Suggestion, error)
}

type suggestionGenerator struct {
	log            *logger.Logger
	suggestions    repos.SuggestionRepo
	prefs          repos.PreferenceRepo
	patterns       repos.PatternRepo
	contexts       ContextProvider
	llm            openai.Client
	notify         SuggestionNotifier
	synth          *suggest.Synthesizer
	cfg            tuning.Config
	contextTimeout time.Duration
	llmTimeout     time.Duration
	now            func() time.Time
}

func NewSuggestionGenerator(
	baseLog *logger.Logger,
	suggestions repos.SuggestionRepo,
	prefs repos.PreferenceRepo,
	patterns repos.PatternRepo,
	contexts ContextProvider,
	llm openai.Client,
	notify SuggestionNotifier,
	cfg tuning.Config,
	contextTimeout time.Duration,
	llmTimeout time.Duration,
) SuggestionGenerator {
	if contexts == nil {
		contexts = NewNoopContextProvider()
	}
	if contextTimeout <= 0 {
		contextTimeout = 10 * time.Second
	}
	if llmTimeout <= 0 {
		llmTimeout = 30 * time.Second
	}
	return &suggestionGenerator{
		log:            baseLog.With("service", "SuggestionGenerator"),
		suggestions:    suggestions,
		prefs:          prefs,
		patterns:       patterns,
		contexts:       contexts,
		llm:            llm,
		notify:         notify,
		synth:          suggest.NewSynthesizer(cfg.Suggestions),
		cfg:            cfg,
		contextTimeout: contextTimeout,
		llmTimeout:     llmTimeout,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

func (s *suggestionGenerator) limit(n int) int {
	if n <= 0 {
		return s.cfg.Suggestions.DefaultLimit
	}
	if n > s.cfg.Suggestions.MaxLimit {
		return s.cfg.Suggestions.MaxLimit
	}
	return n
}

func (s *suggestionGenerator) GenerateSuggestions(ctx context.Context, userID uuid.UUID, opts GenerateOptions) ([]*types.Suggestion, error) {
	if userID == uuid.Nil {
		return nil, apperr.Invalid("user_id", "required")
	}
	ctx = ctxutil.Default(ctx)
	ctx, span := observability.StartSpan(ctx, "suggestions.generate")
	defer span.End()

	projectID := trimmedPtr(opts.ProjectID)
	limit := s.limit(opts.Limit)

	var (
		bizCtx   *types.BusinessContext
		prefRows []*types.Preference
		patRows  []*types.Pattern
		active   map[string]bool
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		bizCtx = s.fetchContext(gctx, userID, projectID)
		return nil
	})
	g.Go(func() error {
		rows, err := s.prefs.ListByUser(dbctx.Context{Ctx: gctx}, userID, "")
		if err != nil {
			return fmt.Errorf("load preferences: %w", err)
		}
		prefRows = rows
		return nil
	})
	g.Go(func() error {
		rows, err := s.patterns.ListByUser(dbctx.Context{Ctx: gctx}, userID, "", true)
		if err != nil {
			return fmt.Errorf("load patterns: %w", err)
		}
		patRows = rows
		return nil
	})
	g.Go(func() error {
		titles, err := s.suggestions.ActiveTitles(dbctx.Context{Ctx: gctx}, userID)
		if err != nil {
			return fmt.Errorf("load active titles: %w", err)
		}
		active = titles
		return nil
	})
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return nil, err
	}

	in := suggest.Inputs{
		Now:         s.now(),
		ProjectID:   projectID,
		Context:     bizCtx,
		Preferences: groupPreferences(prefRows),
		Patterns:    patRows,
		Location:    s.cfg.Location(),
		OnInvalidPattern: func(p *types.Pattern, err error) {
			s.log.Warn("skipping pattern with unreadable data", "user_id", userID, "pattern_id", p.ID, "pattern_type", p.PatternType, "error", err)
		},
	}
	cands := s.synth.Candidates(in)
	cands = append(cands, s.aiCandidates(ctx, userID, in, active, limit)...)
	selected := suggest.Select(cands, active, limit)
	metrics := observability.Current()
	metrics.AddSuggestionsDropped("filtered", len(cands)-len(selected))

	out := make([]*types.Suggestion, 0, len(selected))
	dbc := dbctx.Context{Ctx: ctx}
	for _, c := range selected {
		row := suggest.ToSuggestion(c)
		row.UserID = userID
		b, err := json.Marshal(c.SuggestedAction())
		if err != nil {
			return out, fmt.Errorf("encode suggested action: %w", err)
		}
		row.SuggestedAction = datatypes.JSON(b)

		inserted, err := s.suggestions.InsertIfNoActiveTitle(dbc, row)
		if err != nil {
			span.RecordError(err)
			return out, fmt.Errorf("store suggestion: %w", err)
		}
		if !inserted {
			// Lost to a concurrent generation with the same title.
			metrics.AddSuggestionsDropped("conflict", 1)
			continue
		}
		metrics.IncSuggestionCreated(row.Source)
		out = append(out, row)
	}
	span.SetAttributes(attribute.Int("candidates", len(cands)), attribute.Int("created", len(out)))

	if s.notify != nil {
		s.notify.SuggestionsGenerated(userID, out)
	}
	return out, nil
}

// aiCandidates asks the LLM for extra suggestions. Any failure yields none.
func (s *suggestionGenerator) aiCandidates(ctx context.Context, userID uuid.UUID, in suggest.Inputs, active map[string]bool, limit int) []suggest.Candidate {
	ai := s.cfg.Suggestions.AI
	if s.llm == nil || !ai.Enabled {
		return nil
	}
	if ai.Limit > 0 && ai.Limit < limit {
		limit = ai.Limit
	}
	desc := suggest.DescribeInputs(in)
	titles := make([]string, 0, len(active))
	for t := range active {
		titles = append(titles, t)
	}
	sort.Strings(titles)
	p, err := prompts.Build(prompts.PromptSuggestionGeneration, prompts.Input{
		Limit:           limit,
		ProjectsJSON:    desc.ProjectsJSON,
		PreferencesJSON: desc.PreferencesJSON,
		PatternsJSON:    desc.PatternsJSON,
		ActiveTitles:    titles,
	})
	if err != nil {
		s.log.Warn("build suggestion prompt failed", "user_id", userID, "error", err)
		return nil
	}

	ctx, span := observability.StartSpan(ctx, "suggestions.ai", attribute.String("prompt", p.Fingerprint()))
	defer span.End()
	metrics := observability.Current()

	llmCtx, cancel := context.WithTimeout(ctx, s.llmTimeout)
	obj, err := s.llm.GenerateJSON(llmCtx, p.System, p.User, p.SchemaName, p.Schema)
	cancel()
	if err != nil {
		span.RecordError(err)
		metrics.AddSuggestionsDropped("ai_failed", 1)
		s.log.Warn("ai suggestions unavailable; continuing without them", append(ctxutil.TraceFields(ctx), "user_id", userID, "prompt", p.Fingerprint(), "error", err)...)
		return nil
	}
	items, ok := obj["suggestions"].([]any)
	if !ok {
		metrics.AddSuggestionsDropped("ai_failed", 1)
		s.log.Warn("ai suggestions response has no suggestions array", "user_id", userID, "prompt", p.Fingerprint())
		return nil
	}
	cands, invalid := s.synth.AICandidates(in, items)
	metrics.AddSuggestionsDropped("ai_invalid", invalid)
	span.SetAttributes(attribute.Int("items", len(items)), attribute.Int("valid", len(cands)))
	return cands
}

// fetchContext returns nil on failure so context rules emit nothing.
func (s *suggestionGenerator) fetchContext(ctx context.Context, userID uuid.UUID, projectID *string) *types.BusinessContext {
	cctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	bc, err := s.contexts.GetContext(cctx, userID, projectID)
	if err != nil {
		s.log.Warn("business context unavailable; continuing without it", append(ctxutil.TraceFields(ctx), "user_id", userID, "error", err)...)
		return nil
	}
	return bc
}

func (s *suggestionGenerator) ListSuggestions(ctx context.Context, userID uuid.UUID, f ListFilter) ([]*types.Suggestion, error) {
	if userID == uuid.Nil {
		return nil, apperr.Invalid("user_id", "required")
	}
	f.MinPriority = strings.ToLower(strings.TrimSpace(f.MinPriority))
	if f.MinPriority != "" && !learning.IsPriority(f.MinPriority) {
		return nil, apperr.Invalid("min_priority", fmt.Sprintf("unknown priority %q", f.MinPriority))
	}
	f.ProjectID = trimmedPtr(f.ProjectID)
	if f.Limit <= 0 {
		f.Limit = defaultSuggestionListLimit
	}
	if f.Limit > maxSuggestionListLimit {
		f.Limit = maxSuggestionListLimit
	}
	return s.suggestions.List(dbctx.Context{Ctx: ctxutil.Default(ctx)}, userID, f)
}

func trimmedPtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	if v == "" {
		return nil
	}
	return &v
}
