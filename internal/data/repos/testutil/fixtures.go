package testutil

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/yungbote/suggestion-engine/internal/domain"
)

// FeedbackSeed describes one event for SeedFeedback; zero values get defaults.
type FeedbackSeed struct {
	FeedbackType      string
	InteractionType   string
	OriginalMessage   string
	AIResponse        string
	CorrectedResponse string
	Context           map[string]any
	CreatedAt         time.Time
}

func SeedFeedback(tb testing.TB, conn *gorm.DB, userID uuid.UUID, seeds ...FeedbackSeed) []*types.FeedbackEvent {
	tb.Helper()
	out := make([]*types.FeedbackEvent, 0, len(seeds))
	base := time.Now().UTC().Add(-time.Duration(len(seeds)) * time.Minute)
	for i, s := range seeds {
		ev := &types.FeedbackEvent{
			ID:                uuid.New(),
			UserID:            userID,
			FeedbackType:      s.FeedbackType,
			InteractionType:   s.InteractionType,
			OriginalMessage:   s.OriginalMessage,
			AIResponse:        s.AIResponse,
			CorrectedResponse: s.CorrectedResponse,
			Context:           JSON(tb, s.Context),
			CreatedAt:         s.CreatedAt,
		}
		if ev.FeedbackType == "" {
			ev.FeedbackType = types.FeedbackPositive
		}
		if ev.InteractionType == "" {
			ev.InteractionType = "chat"
		}
		if ev.CreatedAt.IsZero() {
			ev.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		}
		if err := conn.Create(ev).Error; err != nil {
			tb.Fatalf("seed feedback: %v", err)
		}
		out = append(out, ev)
	}
	return out
}

func SeedSuggestion(tb testing.TB, conn *gorm.DB, userID uuid.UUID, title string) *types.Suggestion {
	tb.Helper()
	now := time.Now().UTC()
	s := &types.Suggestion{
		ID:         uuid.New(),
		UserID:     userID,
		Type:       "action",
		Priority:   "medium",
		Title:      title,
		Confidence: 0.85,
		Source:     "context",
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := conn.Create(s).Error; err != nil {
		tb.Fatalf("seed suggestion: %v", err)
	}
	return s
}

func JSON(tb testing.TB, v any) datatypes.JSON {
	tb.Helper()
	if v == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		tb.Fatalf("marshal fixture: %v", err)
	}
	return datatypes.JSON(b)
}
