package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/suggestion-engine/internal/data/repos/testutil"
	types "github.com/yungbote/suggestion-engine/internal/domain"
	apperr "github.com/yungbote/suggestion-engine/internal/pkg/errors"
)

func TestCorrectionLearnsResponseStyle(t *testing.T) {
	e := newTestEnv(t)
	e.llm.out = prefItems(map[string]any{"type": "response_style", "key": "tone", "value": "professional", "confidence": 0.8})
	user := uuid.New()

	ev, err := e.feedback.CollectFeedback(context.Background(), FeedbackInput{
		UserID:            user,
		FeedbackType:      "correction",
		InteractionType:   "chat",
		OriginalMessage:   "Tạo bài post",
		AIResponse:        "Casual reply",
		CorrectedResponse: "Professional reply",
	})
	if err != nil {
		t.Fatalf("CollectFeedback: %v", err)
	}
	prefs, err := e.preferences.ExtractFromFeedback(context.Background(), ev.ID)
	if err != nil {
		t.Fatalf("ExtractFromFeedback: %v", err)
	}
	if len(prefs) != 1 {
		t.Fatalf("preferences: want=1 got=%d", len(prefs))
	}
	p := prefs[0]
	if p.PreferenceType != "response_style" || p.PreferenceKey != "tone" || p.Source != "correction" {
		t.Fatalf("preference: got=%+v", p)
	}
	if p.SourceFeedbackID == nil || *p.SourceFeedbackID != ev.ID {
		t.Fatalf("source feedback: want=%s got=%v", ev.ID, p.SourceFeedbackID)
	}
	if len(e.llm.users) != 1 || !strings.Contains(e.llm.users[0], "Professional reply") || !strings.Contains(e.llm.users[0], "Casual reply") {
		t.Fatalf("prompt must carry both replies: got=%q", e.llm.users)
	}

	grouped, err := e.preferences.GetUserPreferences(context.Background(), user, "")
	if err != nil {
		t.Fatalf("GetUserPreferences: %v", err)
	}
	if grouped["response_style"]["tone"] != "professional" {
		t.Fatalf("grouped: got=%v", grouped)
	}
}

func TestCorrectionLastWriteWins(t *testing.T) {
	e := newTestEnv(t)
	user := uuid.New()
	c := Correction{OriginalMessage: "Viết caption", CorrectedResponse: "Ngắn gọn"}

	e.llm.out = prefItems(map[string]any{"type": "format", "key": "length", "value": "long", "confidence": 0.6})
	if _, err := e.preferences.UpdatePreferencesFromCorrection(context.Background(), user, c); err != nil {
		t.Fatalf("first update: %v", err)
	}
	e.llm.out = prefItems(map[string]any{"type": "format", "key": "length", "value": "short", "confidence": 0.9})
	if _, err := e.preferences.UpdatePreferencesFromCorrection(context.Background(), user, c); err != nil {
		t.Fatalf("second update: %v", err)
	}

	rows, err := e.prefRepo.ListByUser(e.dbc(), user, "format")
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows per key: want=1 got=%d", len(rows))
	}
	if string(rows[0].PreferenceValue) != `"short"` || rows[0].Confidence != 0.9 {
		t.Fatalf("last write: got value=%s confidence=%v", rows[0].PreferenceValue, rows[0].Confidence)
	}
}

func TestCorrectionDropsInvalidItems(t *testing.T) {
	e := newTestEnv(t)
	user := uuid.New()
	e.llm.out = prefItems(
		map[string]any{"type": "Content Tone", "key": "Emoji", "value": "none"},
		map[string]any{"type": "", "key": "tone", "value": "x"},
		map[string]any{"type": "language", "key": "primary"},
		map[string]any{"type": "language", "key": "primary", "value": "vi", "confidence": 1.5},
		map[string]any{"type": "language", "key": "primary", "value": "  "},
	)
	prefs, err := e.preferences.UpdatePreferencesFromCorrection(context.Background(), user, Correction{
		OriginalMessage: "a", CorrectedResponse: "b",
	})
	if err != nil {
		t.Fatalf("UpdatePreferencesFromCorrection: %v", err)
	}
	if len(prefs) != 1 {
		t.Fatalf("valid items: want=1 got=%d (%+v)", len(prefs), prefs)
	}
	p := prefs[0]
	if p.PreferenceType != "content_tone" || p.PreferenceKey != "emoji" {
		t.Fatalf("snake-cased keys: got type=%q key=%q", p.PreferenceType, p.PreferenceKey)
	}
	if p.Confidence != e.cfg.Preferences.DefaultConfidence {
		t.Fatalf("default confidence: want=%v got=%v", e.cfg.Preferences.DefaultConfidence, p.Confidence)
	}
}

func TestCorrectionExtractionFailure(t *testing.T) {
	e := newTestEnv(t)
	user := uuid.New()
	c := Correction{OriginalMessage: "a", CorrectedResponse: "b"}

	e.llm.err = context.DeadlineExceeded
	prefs, err := e.preferences.UpdatePreferencesFromCorrection(context.Background(), user, c)
	if !errors.Is(err, ErrExtractionFailed) {
		t.Fatalf("llm error: want ErrExtractionFailed got=%v", err)
	}
	if len(prefs) != 0 {
		t.Fatalf("llm error: want no preferences got=%d", len(prefs))
	}

	e.llm.err = nil
	e.llm.out = map[string]any{"answer": "professional"}
	if _, err := e.preferences.UpdatePreferencesFromCorrection(context.Background(), user, c); !errors.Is(err, ErrExtractionFailed) {
		t.Fatalf("malformed output: want ErrExtractionFailed got=%v", err)
	}
	if rows, _ := e.prefRepo.ListByUser(e.dbc(), user, ""); len(rows) != 0 {
		t.Fatalf("stored rows after failures: want=0 got=%d", len(rows))
	}

	if _, err := e.preferences.UpdatePreferencesFromCorrection(context.Background(), user, Correction{OriginalMessage: "a"}); !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Fatalf("missing corrected response: want ErrInvalidArgument got=%v", err)
	}
}

func TestExtractionWithoutLLM(t *testing.T) {
	e := newTestEnv(t)
	svc := NewPreferenceService(testutil.Logger(t), e.prefRepo, e.feedbackRepo, nil, e.cfg.Preferences, time.Second)
	_, err := svc.UpdatePreferencesFromCorrection(context.Background(), uuid.New(), Correction{OriginalMessage: "a", CorrectedResponse: "b"})
	if !errors.Is(err, apperr.ErrUnavailable) {
		t.Fatalf("want ErrUnavailable got=%v", err)
	}
}

func TestExtractFromFeedbackRejectsNonCorrection(t *testing.T) {
	e := newTestEnv(t)
	evs := testutil.SeedFeedback(t, e.db, uuid.New(), testutil.FeedbackSeed{OriginalMessage: "hi"})
	if _, err := e.preferences.ExtractFromFeedback(context.Background(), evs[0].ID); !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Fatalf("positive feedback: want ErrInvalidArgument got=%v", err)
	}
	if _, err := e.preferences.ExtractFromFeedback(context.Background(), uuid.New()); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("missing feedback: want ErrNotFound got=%v", err)
	}
}

func TestSetPreferenceAndGroupedRead(t *testing.T) {
	e := newTestEnv(t)
	user := uuid.New()

	if _, err := e.preferences.SetPreference(context.Background(), user, "preferred_actions", "create_post", true, 0.9); err != nil {
		t.Fatalf("SetPreference: %v", err)
	}
	if _, err := e.preferences.SetPreference(context.Background(), user, "language", "primary", "vi", 1); err != nil {
		t.Fatalf("SetPreference: %v", err)
	}
	if _, err := e.preferences.SetPreference(context.Background(), user, "language", "primary", "vi", 1.2); !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Fatalf("bad confidence: want ErrInvalidArgument got=%v", err)
	}
	if _, err := e.preferences.SetPreference(context.Background(), user, "", "primary", "vi", 1); !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Fatalf("missing type: want ErrInvalidArgument got=%v", err)
	}

	all, err := e.preferences.GetUserPreferences(context.Background(), user, "")
	if err != nil {
		t.Fatalf("GetUserPreferences: %v", err)
	}
	if all["preferred_actions"]["create_post"] != true || all["language"]["primary"] != "vi" {
		t.Fatalf("grouped: got=%v", all)
	}

	lang, err := e.preferences.GetUserPreferences(context.Background(), user, "language")
	if err != nil {
		t.Fatalf("GetUserPreferences(language): %v", err)
	}
	if _, ok := lang["preferred_actions"]; ok || len(lang) != 1 {
		t.Fatalf("type filter: got=%v", lang)
	}

	empty, err := e.preferences.GetUserPreferences(context.Background(), uuid.New(), "")
	if err != nil || empty == nil || len(empty) != 0 {
		t.Fatalf("unknown user: want empty map got=%v err=%v", empty, err)
	}
}

func TestGroupPreferencesKeepsFirstPerKey(t *testing.T) {
	rows := []*types.Preference{
		{PreferenceType: "format", PreferenceKey: "length", PreferenceValue: []byte(`"short"`), Confidence: 0.9},
		{PreferenceType: "format", PreferenceKey: "length", PreferenceValue: []byte(`"long"`), Confidence: 0.4},
		{PreferenceType: "format", PreferenceKey: "raw", PreferenceValue: []byte(`not json`)},
	}
	got := groupPreferences(rows)
	if got["format"]["length"] != "short" {
		t.Fatalf("first wins: got=%v", got["format"]["length"])
	}
	if got["format"]["raw"] != "not json" {
		t.Fatalf("raw fallback: got=%v", got["format"]["raw"])
	}
}

func TestExtractFromFeedbackOutOfOrder(t *testing.T) {
	e := newTestEnv(t)
	user := uuid.New()
	e.llm.respond = toneByCorrection
	now := time.Now().UTC()
	evs := testutil.SeedFeedback(t, e.db, user,
		testutil.FeedbackSeed{FeedbackType: "correction", OriginalMessage: "a", CorrectedResponse: "Casual reply", CreatedAt: now.Add(-2 * time.Hour)},
		testutil.FeedbackSeed{FeedbackType: "correction", OriginalMessage: "a", CorrectedResponse: "Professional reply", CreatedAt: now.Add(-time.Hour)},
	)
	older, newer := evs[0], evs[1]

	if got, err := e.preferences.ExtractFromFeedback(context.Background(), newer.ID); err != nil || len(got) != 1 {
		t.Fatalf("newer: got=%d err=%v", len(got), err)
	}
	stale, err := e.preferences.ExtractFromFeedback(context.Background(), older.ID)
	if err != nil {
		t.Fatalf("older: %v", err)
	}
	if len(stale) != 0 {
		t.Fatalf("older job: want no applied preferences got=%d", len(stale))
	}

	row, err := e.prefRepo.GetByKey(e.dbc(), user, "response_style", "tone")
	if err != nil || row == nil {
		t.Fatalf("GetByKey: row=%v err=%v", row, err)
	}
	if string(row.PreferenceValue) != `"professional"` || row.SourceFeedbackID == nil || *row.SourceFeedbackID != newer.ID {
		t.Fatalf("stored: want newer correction got value=%s source=%v", row.PreferenceValue, row.SourceFeedbackID)
	}
}
