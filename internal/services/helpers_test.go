package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/suggestion-engine/internal/data/repos"
	"github.com/yungbote/suggestion-engine/internal/data/repos/testutil"
	types "github.com/yungbote/suggestion-engine/internal/domain"
	"github.com/yungbote/suggestion-engine/internal/learning/tuning"
	"github.com/yungbote/suggestion-engine/internal/platform/dbctx"
)

type fakeLLM struct {
	mu    sync.Mutex
	out   map[string]any
	err   error
	calls int
	users []string
	// respond, when set, picks the output from the user prompt.
	respond func(user string) map[string]any
}

func (f *fakeLLM) GenerateJSON(ctx context.Context, system, user, schemaName string, schema map[string]any) (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.users = append(f.users, user)
	if f.err != nil {
		return nil, f.err
	}
	if f.respond != nil {
		return f.respond(user), nil
	}
	return f.out, nil
}

func (f *fakeLLM) GenerateText(ctx context.Context, system, user string) (string, error) {
	return "", errors.New("not implemented")
}

func aiItems(items ...map[string]any) map[string]any {
	arr := make([]any, 0, len(items))
	for _, it := range items {
		arr = append(arr, it)
	}
	return map[string]any{"suggestions": arr}
}

func prefItems(items ...map[string]any) map[string]any {
	arr := make([]any, 0, len(items))
	for _, it := range items {
		arr = append(arr, it)
	}
	return map[string]any{"preferences": arr}
}

type fakeContext struct {
	bc  *types.BusinessContext
	err error
}

func (f *fakeContext) GetContext(ctx context.Context, userID uuid.UUID, projectID *string) (*types.BusinessContext, error) {
	return f.bc, f.err
}

type recordingNotifier struct {
	mu        sync.Mutex
	created   []*types.JobRun
	generated map[uuid.UUID]int
	executed  []uuid.UUID
	dismissed []uuid.UUID
}

func (n *recordingNotifier) JobCreated(userID uuid.UUID, job *types.JobRun) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.created = append(n.created, job)
}
func (n *recordingNotifier) JobProgress(uuid.UUID, *types.JobRun, string, int, string) {}
func (n *recordingNotifier) JobFailed(uuid.UUID, *types.JobRun, string, string)        {}
func (n *recordingNotifier) JobDone(uuid.UUID, *types.JobRun)                          {}

func (n *recordingNotifier) SuggestionsGenerated(userID uuid.UUID, s []*types.Suggestion) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.generated == nil {
		n.generated = map[uuid.UUID]int{}
	}
	n.generated[userID] += len(s)
}

func (n *recordingNotifier) SuggestionExecuted(userID uuid.UUID, s *types.Suggestion) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.executed = append(n.executed, s.ID)
}

func (n *recordingNotifier) SuggestionDismissed(userID uuid.UUID, s *types.Suggestion) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.dismissed = append(n.dismissed, s.ID)
}

// failingJobs fails every enqueue.
type failingJobs struct{}

func (failingJobs) Enqueue(dbctx.Context, uuid.UUID, string, string, *uuid.UUID, map[string]any) (*types.JobRun, error) {
	return nil, errors.New("queue down")
}
func (failingJobs) EnqueueUnlessRunnable(dbctx.Context, uuid.UUID, string, string, *uuid.UUID, map[string]any) (*types.JobRun, bool, error) {
	return nil, false, errors.New("queue down")
}
func (failingJobs) EnqueueUnlessQueued(dbctx.Context, uuid.UUID, string, string, *uuid.UUID, map[string]any) (*types.JobRun, bool, error) {
	return nil, false, errors.New("queue down")
}
func (failingJobs) Dispatch(dbctx.Context, uuid.UUID) error { return nil }
func (failingJobs) GetForUser(dbctx.Context, uuid.UUID, uuid.UUID) (*types.JobRun, error) {
	return nil, errors.New("queue down")
}

type testEnv struct {
	db          *gorm.DB
	cfg         tuning.Config
	llm         *fakeLLM
	suggestLLM  *fakeLLM
	ctxProvider *fakeContext
	notify      *recordingNotifier

	feedbackRepo   repos.FeedbackEventRepo
	patternRepo    repos.PatternRepo
	prefRepo       repos.PreferenceRepo
	suggestionRepo repos.SuggestionRepo
	jobRepo        repos.JobRunRepo

	jobs        JobService
	feedback    FeedbackService
	recognizer  PatternRecognizer
	preferences PreferenceService
	generator   SuggestionGenerator
	lifecycle   SuggestionLifecycle
	batch       BatchLearner
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	e := &testEnv{
		db:          db,
		cfg:         tuning.Default(),
		llm:         &fakeLLM{out: prefItems()},
		suggestLLM:  &fakeLLM{out: aiItems()},
		ctxProvider: &fakeContext{},
		notify:      &recordingNotifier{},
	}
	e.feedbackRepo = repos.NewFeedbackEventRepo(db, log)
	e.patternRepo = repos.NewPatternRepo(db, log)
	e.prefRepo = repos.NewPreferenceRepo(db, log)
	e.suggestionRepo = repos.NewSuggestionRepo(db, log)
	e.jobRepo = repos.NewJobRunRepo(db, log)

	e.jobs = NewJobService(db, log, e.jobRepo, e.notify, nil, "")
	e.feedback = NewFeedbackService(log, e.feedbackRepo, e.jobs)
	e.recognizer = NewPatternRecognizer(log, e.feedbackRepo, e.patternRepo, e.cfg)
	e.preferences = NewPreferenceService(log, e.prefRepo, e.feedbackRepo, e.llm, e.cfg.Preferences, time.Second)
	e.generator = NewSuggestionGenerator(log, e.suggestionRepo, e.prefRepo, e.patternRepo, e.ctxProvider, e.suggestLLM, e.notify, e.cfg, time.Second, time.Second)
	e.lifecycle = NewSuggestionLifecycle(log, e.suggestionRepo, e.notify)
	e.batch = NewBatchLearner(log, e.feedbackRepo, e.recognizer, e.preferences, e.generator, e.cfg.Window)
	return e
}

func (e *testEnv) dbc() dbctx.Context { return dbctx.Context{Ctx: context.Background()} }

func countJobs(t *testing.T, db *gorm.DB, owner uuid.UUID, jobType string) int64 {
	t.Helper()
	var n int64
	if err := db.Model(&types.JobRun{}).Where("owner_user_id = ? AND job_type = ?", owner, jobType).Count(&n).Error; err != nil {
		t.Fatalf("count jobs: %v", err)
	}
	return n
}

func tp(t time.Time) *time.Time { return &t }

// toneByCorrection answers with the tone named in the corrected response.
func toneByCorrection(user string) map[string]any {
	tone := "casual"
	if strings.Contains(user, "Professional") {
		tone = "professional"
	}
	return prefItems(map[string]any{"type": "response_style", "key": "tone", "value": tone, "confidence": 0.8})
}
