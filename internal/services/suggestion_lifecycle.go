package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/suggestion-engine/internal/data/repos"
	types "github.com/yungbote/suggestion-engine/internal/domain"
	"github.com/yungbote/suggestion-engine/internal/observability"
	apperr "github.com/yungbote/suggestion-engine/internal/pkg/errors"
	"github.com/yungbote/suggestion-engine/internal/platform/ctxutil"
	"github.com/yungbote/suggestion-engine/internal/platform/dbctx"
	"github.com/yungbote/suggestion-engine/internal/platform/logger"
)

// SuggestionLifecycle moves a proposed suggestion to executed or dismissed.
// The returned bool is false when the suggestion was already terminal; the
// current row is returned unchanged in that case.
type SuggestionLifecycle interface {
	ExecuteSuggestion(ctx context.Context, userID, id uuid.UUID, result any) (*types.Suggestion, bool, error)
	DismissSuggestion(ctx context.Context, userID, id uuid.UUID) (*types.Suggestion, bool, error)
}

type suggestionLifecycle struct {
	log         *logger.Logger
	suggestions repos.SuggestionRepo
	notify      SuggestionNotifier
	now         func() time.Time
}

func NewSuggestionLifecycle(baseLog *logger.Logger, suggestions repos.SuggestionRepo, notify SuggestionNotifier) SuggestionLifecycle {
	return &suggestionLifecycle{
		log:         baseLog.With("service", "SuggestionLifecycle"),
		suggestions: suggestions,
		notify:      notify,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (s *suggestionLifecycle) ExecuteSuggestion(ctx context.Context, userID, id uuid.UUID, result any) (*types.Suggestion, bool, error) {
	var raw datatypes.JSON
	if result != nil {
		b, err := json.Marshal(result)
		if err != nil {
			return nil, false, apperr.Invalid("result", "not serializable")
		}
		raw = datatypes.JSON(b)
	}
	return s.transition(ctx, userID, id, "execute", func(dbc dbctx.Context, at time.Time) (bool, error) {
		return s.suggestions.MarkExecuted(dbc, userID, id, at, raw)
	})
}

func (s *suggestionLifecycle) DismissSuggestion(ctx context.Context, userID, id uuid.UUID) (*types.Suggestion, bool, error) {
	return s.transition(ctx, userID, id, "dismiss", func(dbc dbctx.Context, at time.Time) (bool, error) {
		return s.suggestions.MarkDismissed(dbc, userID, id, at)
	})
}

func (s *suggestionLifecycle) transition(
	ctx context.Context,
	userID, id uuid.UUID,
	name string,
	mark func(dbc dbctx.Context, at time.Time) (bool, error),
) (*types.Suggestion, bool, error) {
	if userID == uuid.Nil {
		return nil, false, apperr.Invalid("user_id", "required")
	}
	if id == uuid.Nil {
		return nil, false, apperr.Invalid("suggestion_id", "required")
	}
	dbc := dbctx.Context{Ctx: ctxutil.Default(ctx)}

	changed, err := mark(dbc, s.now())
	if err != nil {
		return nil, false, fmt.Errorf("%s suggestion: %w", name, err)
	}
	// GetForUser also tells a missing row apart from a terminal one.
	row, err := s.suggestions.GetForUser(dbc, userID, id)
	if err != nil {
		return nil, false, err
	}
	observability.Current().IncSuggestionTransition(name, changed)
	if !changed {
		s.log.Debug("suggestion already terminal", "suggestion_id", id, "state", row.State())
		return row, false, nil
	}
	if s.notify != nil {
		switch name {
		case "execute":
			s.notify.SuggestionExecuted(userID, row)
		case "dismiss":
			s.notify.SuggestionDismissed(userID, row)
		}
	}
	return row, true, nil
}
