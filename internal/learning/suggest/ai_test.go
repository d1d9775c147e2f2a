package suggest

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	types "github.com/yungbote/suggestion-engine/internal/domain"
	"github.com/yungbote/suggestion-engine/internal/learning/tuning"
)

func TestAICandidatesValidation(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	in := fixture(now)
	in.Preferences = map[string]map[string]any{"preferred_actions": {"create_post": true}}
	s := NewSynthesizer(tuning.Default().Suggestions)

	items := []any{
		map[string]any{"type": "action", "priority": "high", "title": "Viết bài về menu mới", "action": "Create Post", "project_id": "p1", "confidence": 0.9},
		map[string]any{"type": "insight", "title": "Xem lại số liệu tuần", "confidence": 0.4},
		map[string]any{"type": "action", "title": "Không có hành động"},
		map[string]any{"type": "action", "title": "Dự án lạ", "action": "create_post", "project_id": "ghost"},
		map[string]any{"type": "poll", "title": "Sai loại", "action": "x"},
		map[string]any{"type": "action", "priority": "urgent", "title": "Sai ưu tiên", "action": "x"},
		map[string]any{"type": "action", "title": "Sai độ tin cậy", "action": "x", "confidence": 1.4},
		map[string]any{"type": "action", "title": "  ", "action": "x"},
		"not an object",
	}
	got, invalid := s.AICandidates(in, items)
	if len(got) != 2 || invalid != 7 {
		t.Fatalf("AICandidates: want=2 valid 7 invalid got=%d valid %d invalid (%+v)", len(got), invalid, got)
	}

	post := got[0]
	if post.Action != ActionCreatePost || post.Source != "ai" || post.ProjectName == nil || *post.ProjectName != "Cà phê" {
		t.Fatalf("ai post: got=%+v", post)
	}
	if post.Confidence != 0.6 {
		t.Fatalf("ai confidence cap: want=0.6 got=%v", post.Confidence)
	}
	if !strings.Contains(post.Reasoning, "preferred action") {
		t.Fatalf("preferences apply to ai candidates: got=%q", post.Reasoning)
	}

	info := got[1]
	if info.Type != "informational" || info.Action != ActionRemind || info.Priority != "medium" || info.Confidence != 0.4 {
		t.Fatalf("ai informational: got=%+v", info)
	}
}

func TestAICandidatesLimitAndScope(t *testing.T) {
	cfg := tuning.Default().Suggestions
	cfg.AI.Limit = 1
	s := NewSynthesizer(cfg)
	in := fixture(time.Now().UTC())
	only := "p2"
	in.ProjectID = &only

	items := []any{
		map[string]any{"type": "action", "title": "Cho p1", "action": "create_post", "project_id": "p1"},
		map[string]any{"type": "action", "title": "Cho p2", "action": "create_post", "project_id": "p2"},
		map[string]any{"type": "action", "title": "Thêm", "action": "create_backup"},
	}
	got, invalid := s.AICandidates(in, items)
	if len(got) != 1 || got[0].Title != "Cho p2" || invalid != 1 {
		t.Fatalf("limit and scope: got=%+v invalid=%d", got, invalid)
	}
}

func TestDescribeInputs(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	in := fixture(now)
	d := DescribeInputs(in)
	if !strings.Contains(d.ProjectsJSON, `"name":"Cà phê"`) || !strings.Contains(d.ProjectsJSON, `"last_post_at":"2026-02-25"`) {
		t.Fatalf("projects: got=%s", d.ProjectsJSON)
	}
	if d.PreferencesJSON != "" {
		t.Fatalf("no preferences: want empty got=%s", d.PreferencesJSON)
	}
	if !strings.Contains(d.PatternsJSON, `"signature":"xuất báo cáo"`) {
		t.Fatalf("patterns: got=%s", d.PatternsJSON)
	}
	if got := DescribeInputs(Inputs{}); got != (AIPromptData{}) {
		t.Fatalf("empty inputs: got=%+v", got)
	}
}

func TestInvalidPatternDataIsReported(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	bad := &types.Pattern{ID: uuid.New(), PatternType: types.PatternCommand, Signature: "hỏng", PatternData: datatypes.JSON(`{"sample":`), SupportCount: 5, Confidence: 0.8, IsActive: true}
	var reported []uuid.UUID
	in := Inputs{
		Now:      now,
		Patterns: []*types.Pattern{bad},
		OnInvalidPattern: func(p *types.Pattern, err error) {
			if err == nil {
				t.Fatalf("OnInvalidPattern: want error")
			}
			reported = append(reported, p.ID)
		},
	}
	cands := NewSynthesizer(tuning.Default().Suggestions).Candidates(in)
	if len(cands) != 0 {
		t.Fatalf("undecodable pattern: want no candidate got=%+v", cands)
	}
	if len(reported) != 1 || reported[0] != bad.ID {
		t.Fatalf("reported: got=%v", reported)
	}
}
