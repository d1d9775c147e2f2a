package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/suggestion-engine/internal/data/repos/testutil"
	types "github.com/yungbote/suggestion-engine/internal/domain"
	apperr "github.com/yungbote/suggestion-engine/internal/pkg/errors"
)

func intPtr(v int) *int { return &v }

func TestCollectFeedbackValidation(t *testing.T) {
	e := newTestEnv(t)
	user := uuid.New()
	cases := []struct {
		name string
		in   FeedbackInput
	}{
		{"missing user", FeedbackInput{FeedbackType: "positive", InteractionType: "chat"}},
		{"missing type", FeedbackInput{UserID: user, InteractionType: "chat"}},
		{"unknown type", FeedbackInput{UserID: user, FeedbackType: "love", InteractionType: "chat"}},
		{"unknown interaction", FeedbackInput{UserID: user, FeedbackType: "positive", InteractionType: "voice"}},
		{"rating too high", FeedbackInput{UserID: user, FeedbackType: "positive", InteractionType: "chat", Rating: intPtr(6)}},
		{"rating zero", FeedbackInput{UserID: user, FeedbackType: "positive", InteractionType: "chat", Rating: intPtr(0)}},
		{"correction without corrected response", FeedbackInput{UserID: user, FeedbackType: "correction", InteractionType: "chat", OriginalMessage: "hi"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ev, err := e.feedback.CollectFeedback(context.Background(), tc.in)
			if !errors.Is(err, apperr.ErrInvalidArgument) {
				t.Fatalf("want ErrInvalidArgument got=%v", err)
			}
			if ev != nil {
				t.Fatalf("want nil event got=%+v", ev)
			}
		})
	}
	n, err := e.feedbackRepo.CountByUser(e.dbc(), user)
	if err != nil || n != 0 {
		t.Fatalf("rejected input stored rows: n=%d err=%v", n, err)
	}
}

func TestCollectFeedbackStoresAndSchedules(t *testing.T) {
	e := newTestEnv(t)
	user := uuid.New()

	ev, err := e.feedback.CollectFeedback(context.Background(), FeedbackInput{
		UserID:          user,
		FeedbackType:    " Positive ",
		InteractionType: "command",
		OriginalMessage: "Tạo bài post",
		Rating:          intPtr(5),
		Context:         map[string]any{"project_id": "p1"},
	})
	if err != nil {
		t.Fatalf("CollectFeedback: %v", err)
	}
	if ev.ID == uuid.Nil || ev.FeedbackType != types.FeedbackPositive || ev.CreatedAt.IsZero() {
		t.Fatalf("stored event: got=%+v", ev)
	}
	if got := countJobs(t, e.db, user, types.JobPatternRecognize); got != 1 {
		t.Fatalf("pattern jobs: want=1 got=%d", got)
	}
	if got := countJobs(t, e.db, user, types.JobPreferenceExtract); got != 0 {
		t.Fatalf("preference jobs for positive feedback: want=0 got=%d", got)
	}

	// A second event while the first job is still queued does not add another.
	if _, err := e.feedback.CollectFeedback(context.Background(), FeedbackInput{
		UserID: user, FeedbackType: "negative", InteractionType: "chat",
	}); err != nil {
		t.Fatalf("CollectFeedback #2: %v", err)
	}
	if got := countJobs(t, e.db, user, types.JobPatternRecognize); got != 1 {
		t.Fatalf("pattern jobs after dedup: want=1 got=%d", got)
	}
	if len(e.notify.created) != 1 {
		t.Fatalf("job created notifications: want=1 got=%d", len(e.notify.created))
	}
}

func TestCollectCorrectionSchedulesExtraction(t *testing.T) {
	e := newTestEnv(t)
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
	var job types.JobRun
	if err := e.db.Where("owner_user_id = ? AND job_type = ?", user, types.JobPreferenceExtract).First(&job).Error; err != nil {
		t.Fatalf("load extraction job: %v", err)
	}
	if job.EntityType != "feedback" || job.EntityID == nil || *job.EntityID != ev.ID {
		t.Fatalf("extraction job entity: got=%s %v", job.EntityType, job.EntityID)
	}
	if job.Status != "queued" {
		t.Fatalf("extraction job status: want=queued got=%s", job.Status)
	}
}

func TestCollectFeedbackSurvivesSchedulingFailure(t *testing.T) {
	e := newTestEnv(t)
	svc := NewFeedbackService(testutil.Logger(t), e.feedbackRepo, failingJobs{})
	user := uuid.New()

	ev, err := svc.CollectFeedback(context.Background(), FeedbackInput{
		UserID:            user,
		FeedbackType:      "correction",
		InteractionType:   "chat",
		OriginalMessage:   "a",
		CorrectedResponse: "b",
	})
	if err != nil {
		t.Fatalf("CollectFeedback: want nil got=%v", err)
	}
	if ev == nil {
		t.Fatalf("want stored event")
	}
	if n, _ := e.feedbackRepo.CountByUser(e.dbc(), user); n != 1 {
		t.Fatalf("stored rows: want=1 got=%d", n)
	}
}

func TestListFeedbackNewestFirst(t *testing.T) {
	e := newTestEnv(t)
	user := uuid.New()
	seeded := testutil.SeedFeedback(t, e.db, user,
		testutil.FeedbackSeed{OriginalMessage: "first"},
		testutil.FeedbackSeed{OriginalMessage: "second"},
		testutil.FeedbackSeed{OriginalMessage: "third"},
	)
	testutil.SeedFeedback(t, e.db, uuid.New(), testutil.FeedbackSeed{OriginalMessage: "other user"})

	got, err := e.feedback.ListFeedback(context.Background(), user, 2)
	if err != nil {
		t.Fatalf("ListFeedback: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len: want=2 got=%d", len(got))
	}
	if got[0].ID != seeded[2].ID || got[1].ID != seeded[1].ID {
		t.Fatalf("order: want newest first got=%s,%s", got[0].OriginalMessage, got[1].OriginalMessage)
	}
	if _, err := e.feedback.ListFeedback(context.Background(), uuid.Nil, 0); !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Fatalf("nil user: want ErrInvalidArgument got=%v", err)
	}
}

func TestCollectFeedbackDuringRunningJobSchedulesAgain(t *testing.T) {
	e := newTestEnv(t)
	user := uuid.New()
	in := FeedbackInput{UserID: user, FeedbackType: "positive", InteractionType: "command", OriginalMessage: "Xuất báo cáo"}

	if _, err := e.feedback.CollectFeedback(context.Background(), in); err != nil {
		t.Fatalf("CollectFeedback #1: %v", err)
	}
	if err := e.db.Model(&types.JobRun{}).
		Where("owner_user_id = ? AND job_type = ?", user, types.JobPatternRecognize).
		Update("status", "running").Error; err != nil {
		t.Fatalf("mark running: %v", err)
	}

	if _, err := e.feedback.CollectFeedback(context.Background(), in); err != nil {
		t.Fatalf("CollectFeedback #2: %v", err)
	}
	var queued int64
	if err := e.db.Model(&types.JobRun{}).
		Where("owner_user_id = ? AND job_type = ? AND status = ?", user, types.JobPatternRecognize, "queued").
		Count(&queued).Error; err != nil {
		t.Fatalf("count queued: %v", err)
	}
	if queued != 1 {
		t.Fatalf("queued pattern jobs after feedback during a running job: want=1 got=%d", queued)
	}

	if _, err := e.feedback.CollectFeedback(context.Background(), in); err != nil {
		t.Fatalf("CollectFeedback #3: %v", err)
	}
	if got := countJobs(t, e.db, user, types.JobPatternRecognize); got != 2 {
		t.Fatalf("pattern jobs: want=2 got=%d", got)
	}
}
