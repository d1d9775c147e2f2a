package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/suggestion-engine/internal/data/repos/testutil"
	types "github.com/yungbote/suggestion-engine/internal/domain"
	"github.com/yungbote/suggestion-engine/internal/learning/suggest"
	apperr "github.com/yungbote/suggestion-engine/internal/pkg/errors"
)

func staleProjectContext(now time.Time) *types.BusinessContext {
	return &types.BusinessContext{
		Projects: []types.ProjectContext{
			{ID: "p1", Name: "Cà phê", LastActivityAt: tp(now.Add(-time.Hour)), LastPostAt: tp(now.Add(-5 * 24 * time.Hour))},
		},
		LastBackupAt: tp(now.Add(-24 * time.Hour)),
	}
}

func titles(rows []*types.Suggestion) map[string]*types.Suggestion {
	out := map[string]*types.Suggestion{}
	for _, r := range rows {
		out[r.Title] = r
	}
	return out
}

func TestGenerateSkipsActiveDuplicateTitle(t *testing.T) {
	e := newTestEnv(t)
	user := uuid.New()
	e.ctxProvider.bc = staleProjectContext(time.Now().UTC())
	existing := testutil.SeedSuggestion(t, e.db, user, suggest.TitleNewProjectPost)

	first, err := e.generator.GenerateSuggestions(context.Background(), user, GenerateOptions{})
	if err != nil {
		t.Fatalf("GenerateSuggestions #1: %v", err)
	}
	if _, dup := titles(first)[suggest.TitleNewProjectPost]; dup {
		t.Fatalf("active title must not be proposed again: got=%+v", first)
	}
	if _, ok := titles(first)["Tạo workflow cho Cà phê"]; !ok {
		t.Fatalf("workflow suggestion missing: got=%+v", first)
	}

	if _, changed, err := e.lifecycle.DismissSuggestion(context.Background(), user, existing.ID); err != nil || !changed {
		t.Fatalf("DismissSuggestion: changed=%v err=%v", changed, err)
	}

	second, err := e.generator.GenerateSuggestions(context.Background(), user, GenerateOptions{})
	if err != nil {
		t.Fatalf("GenerateSuggestions #2: %v", err)
	}
	post, ok := titles(second)[suggest.TitleNewProjectPost]
	if !ok {
		t.Fatalf("dismissed title should be proposable again: got=%+v", second)
	}
	if post.ID == existing.ID || post.ProjectID == nil || *post.ProjectID != "p1" {
		t.Fatalf("new post suggestion: got=%+v", post)
	}
	if !strings.Contains(string(post.SuggestedAction), suggest.ActionCreatePost) {
		t.Fatalf("suggested action: got=%s", post.SuggestedAction)
	}
	if _, again := titles(second)["Tạo workflow cho Cà phê"]; again {
		t.Fatalf("workflow suggestion from run #1 is still active and must be skipped")
	}

	active, err := e.suggestionRepo.ActiveTitles(e.dbc(), user)
	if err != nil {
		t.Fatalf("ActiveTitles: %v", err)
	}
	if !active[suggest.TitleNewProjectPost] {
		t.Fatalf("new post suggestion should be active")
	}
	if e.notify.generated[user] != len(first)+len(second) {
		t.Fatalf("generated notifications: want=%d got=%d", len(first)+len(second), e.notify.generated[user])
	}
}

func TestGenerateWithoutContextUsesPatterns(t *testing.T) {
	e := newTestEnv(t)
	user := uuid.New()
	e.ctxProvider.err = errors.New("context api down")

	now := time.Now().UTC()
	if _, err := e.patternRepo.InsertIgnore(e.dbc(), &types.Pattern{
		UserID:       user,
		PatternType:  types.PatternCommand,
		Signature:    "xuất báo cáo",
		PatternData:  datatypes.JSON(`{"template":"xuất báo cáo","sample":"Xuất báo cáo"}`),
		SupportCount: 5,
		Confidence:   0.5,
		FirstSeenAt:  now.Add(-time.Hour),
		LastSeenAt:   now,
	}); err != nil {
		t.Fatalf("seed pattern: %v", err)
	}

	got, err := e.generator.GenerateSuggestions(context.Background(), user, GenerateOptions{})
	if err != nil {
		t.Fatalf("GenerateSuggestions: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("suggestions: want=1 got=%d (%+v)", len(got), got)
	}
	if got[0].Source != "pattern" || got[0].Title != "Chạy lại: Xuất báo cáo" {
		t.Fatalf("pattern suggestion: got=%+v", got[0])
	}
}

func TestGenerateNothingKnown(t *testing.T) {
	e := newTestEnv(t)
	got, err := e.generator.GenerateSuggestions(context.Background(), uuid.New(), GenerateOptions{})
	if err != nil {
		t.Fatalf("GenerateSuggestions: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("want empty non-nil slice got=%v", got)
	}
}

func TestGenerateRespectsLimit(t *testing.T) {
	e := newTestEnv(t)
	user := uuid.New()
	now := time.Now().UTC()
	e.ctxProvider.bc = &types.BusinessContext{
		Projects: []types.ProjectContext{
			{ID: "p1", Name: "A", LastActivityAt: tp(now.Add(-time.Hour))},
			{ID: "p2", Name: "B", LastActivityAt: tp(now.Add(-2 * time.Hour))},
		},
	}
	got, err := e.generator.GenerateSuggestions(context.Background(), user, GenerateOptions{Limit: 2})
	if err != nil {
		t.Fatalf("GenerateSuggestions: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("limit: want=2 got=%d", len(got))
	}
	if got[0].Confidence < got[1].Confidence {
		t.Fatalf("order: want confidence desc got=%v,%v", got[0].Confidence, got[1].Confidence)
	}
}

func TestListSuggestionsFilters(t *testing.T) {
	e := newTestEnv(t)
	user := uuid.New()
	a := testutil.SeedSuggestion(t, e.db, user, "A")
	testutil.SeedSuggestion(t, e.db, user, "B")
	if _, _, err := e.lifecycle.DismissSuggestion(context.Background(), user, a.ID); err != nil {
		t.Fatalf("DismissSuggestion: %v", err)
	}

	got, err := e.generator.ListSuggestions(context.Background(), user, ListFilter{})
	if err != nil {
		t.Fatalf("ListSuggestions: %v", err)
	}
	if len(got) != 1 || got[0].Title != "B" {
		t.Fatalf("active only: got=%+v", got)
	}

	all, err := e.generator.ListSuggestions(context.Background(), user, ListFilter{IncludeDismissed: true})
	if err != nil || len(all) != 2 {
		t.Fatalf("include dismissed: len=%d err=%v", len(all), err)
	}

	high, err := e.generator.ListSuggestions(context.Background(), user, ListFilter{MinPriority: "HIGH"})
	if err != nil || len(high) != 0 {
		t.Fatalf("min priority high: len=%d err=%v", len(high), err)
	}

	if _, err := e.generator.ListSuggestions(context.Background(), user, ListFilter{MinPriority: "urgent"}); !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Fatalf("bad priority: want ErrInvalidArgument got=%v", err)
	}
}

func TestLifecycleTerminalIsNoop(t *testing.T) {
	e := newTestEnv(t)
	user := uuid.New()
	s := testutil.SeedSuggestion(t, e.db, user, "Sao lưu database")

	row, changed, err := e.lifecycle.ExecuteSuggestion(context.Background(), user, s.ID, map[string]any{"backup_id": "b1"})
	if err != nil || !changed {
		t.Fatalf("ExecuteSuggestion: changed=%v err=%v", changed, err)
	}
	if row.ExecutedAt == nil || !strings.Contains(string(row.ExecutionResult), "b1") {
		t.Fatalf("executed row: got=%+v", row)
	}

	again, changed, err := e.lifecycle.ExecuteSuggestion(context.Background(), user, s.ID, nil)
	if err != nil || changed {
		t.Fatalf("re-execute: want unchanged got changed=%v err=%v", changed, err)
	}
	if !again.ExecutedAt.Equal(*row.ExecutedAt) {
		t.Fatalf("executed_at moved: %v -> %v", row.ExecutedAt, again.ExecutedAt)
	}

	dis, changed, err := e.lifecycle.DismissSuggestion(context.Background(), user, s.ID)
	if err != nil || changed {
		t.Fatalf("dismiss executed: want unchanged got changed=%v err=%v", changed, err)
	}
	if dis.DismissedAt != nil || dis.State() != "executed" {
		t.Fatalf("executed row must stay executed: got=%+v", dis)
	}
	if len(e.notify.executed) != 1 || len(e.notify.dismissed) != 0 {
		t.Fatalf("notifications: executed=%d dismissed=%d", len(e.notify.executed), len(e.notify.dismissed))
	}
}

func TestLifecycleOtherUserNotFound(t *testing.T) {
	e := newTestEnv(t)
	owner := uuid.New()
	s := testutil.SeedSuggestion(t, e.db, owner, "A")

	if _, _, err := e.lifecycle.DismissSuggestion(context.Background(), uuid.New(), s.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("other user: want ErrNotFound got=%v", err)
	}
	if _, _, err := e.lifecycle.ExecuteSuggestion(context.Background(), owner, uuid.New(), nil); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("missing id: want ErrNotFound got=%v", err)
	}
	row, err := e.suggestionRepo.GetForUser(e.dbc(), owner, s.ID)
	if err != nil || !row.Active() {
		t.Fatalf("untouched row: want active got=%+v err=%v", row, err)
	}
}

func TestGenerateMergesAISuggestions(t *testing.T) {
	e := newTestEnv(t)
	user := uuid.New()
	e.ctxProvider.bc = staleProjectContext(time.Now().UTC())
	e.suggestLLM.out = aiItems(
		map[string]any{"type": "action", "priority": "medium", "title": "Lên lịch đăng bài tuần này", "action": "schedule_posts", "project_id": "p1", "confidence": 0.9},
		map[string]any{"type": "action", "priority": "medium", "title": suggest.TitleNewProjectPost, "action": "create_post", "project_id": "p1", "confidence": 0.2},
		map[string]any{"type": "action", "title": "Dự án không tồn tại", "action": "create_post", "project_id": "nope"},
	)

	got, err := e.generator.GenerateSuggestions(context.Background(), user, GenerateOptions{})
	if err != nil {
		t.Fatalf("GenerateSuggestions: %v", err)
	}
	byTitle := titles(got)
	ai, ok := byTitle["Lên lịch đăng bài tuần này"]
	if !ok {
		t.Fatalf("ai suggestion missing: got=%+v", got)
	}
	if ai.Source != "ai" || ai.Confidence != e.cfg.Suggestions.AI.MaxConfidence || ai.ProjectName == nil || *ai.ProjectName != "Cà phê" {
		t.Fatalf("ai suggestion: got=%+v", ai)
	}
	if post := byTitle[suggest.TitleNewProjectPost]; post == nil || post.Source != "context" {
		t.Fatalf("context candidate should win the shared title: got=%+v", post)
	}
	if _, bad := byTitle["Dự án không tồn tại"]; bad {
		t.Fatalf("unknown project must be dropped")
	}
	if len(got) != 3 {
		t.Fatalf("suggestions: want=3 got=%d (%+v)", len(got), got)
	}
	if e.suggestLLM.calls != 1 || !strings.Contains(e.suggestLLM.users[0], "Cà phê") {
		t.Fatalf("prompt: calls=%d users=%q", e.suggestLLM.calls, e.suggestLLM.users)
	}
}

func TestGenerateSurvivesAIFailure(t *testing.T) {
	e := newTestEnv(t)
	user := uuid.New()
	e.ctxProvider.bc = staleProjectContext(time.Now().UTC())
	e.suggestLLM.err = context.DeadlineExceeded

	got, err := e.generator.GenerateSuggestions(context.Background(), user, GenerateOptions{})
	if err != nil {
		t.Fatalf("GenerateSuggestions: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("rule-based suggestions: want=2 got=%d", len(got))
	}
	for _, s := range got {
		if s.Source == "ai" {
			t.Fatalf("ai suggestion after failure: got=%+v", s)
		}
	}

	e.suggestLLM.err = nil
	e.suggestLLM.out = map[string]any{"answer": "none"}
	if _, err := e.generator.GenerateSuggestions(context.Background(), uuid.New(), GenerateOptions{}); err != nil {
		t.Fatalf("malformed ai output must not fail generation: %v", err)
	}
}
