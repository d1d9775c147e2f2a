package jobrun

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/testsuite"
	"gorm.io/datatypes"

	"github.com/yungbote/suggestion-engine/internal/data/repos"
	"github.com/yungbote/suggestion-engine/internal/data/repos/testutil"
	types "github.com/yungbote/suggestion-engine/internal/domain"
	jobrt "github.com/yungbote/suggestion-engine/internal/jobs/runtime"
	"github.com/yungbote/suggestion-engine/internal/platform/dbctx"
)

type flakyHandler struct{ failuresLeft int }

func (h *flakyHandler) Type() string { return "flaky" }
func (h *flakyHandler) Run(jc *jobrt.Context) error {
	if h.failuresLeft > 0 {
		h.failuresLeft--
		return errors.New("transient")
	}
	jc.Succeed("done", map[string]any{"ok": true})
	return nil
}

func queuedJob(t *testing.T, repo repos.JobRunRepo, jobType string) *types.JobRun {
	t.Helper()
	now := time.Now().UTC()
	job := &types.JobRun{
		ID:          uuid.New(),
		OwnerUserID: uuid.New(),
		JobType:     jobType,
		Status:      "queued",
		Stage:       "queued",
		Payload:     datatypes.JSON(`{}`),
		Result:      datatypes.JSON(`{}`),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := repo.Create(dbctx.Context{Ctx: context.Background()}, []*types.JobRun{job}); err != nil {
		t.Fatalf("create job: %v", err)
	}
	return job
}

func TestTickRetriesUntilAttemptsRunOut(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	repo := repos.NewJobRunRepo(db, log)
	reg := jobrt.NewRegistry()
	h := &flakyHandler{failuresLeft: 1}
	reg.MustRegister(h)
	acts := &Activities{Log: log, DB: db, Jobs: repo, Registry: reg, MaxAttempts: 3}
	job := queuedJob(t, repo, "flaky")

	first, err := acts.Tick(context.Background(), job.ID.String())
	if err != nil {
		t.Fatalf("Tick #1: %v", err)
	}
	if first.Status != "failed" || first.Attempts != 1 || first.Error != "transient" {
		t.Fatalf("Tick #1: got=%+v", first)
	}

	second, err := acts.Tick(context.Background(), job.ID.String())
	if err != nil {
		t.Fatalf("Tick #2: %v", err)
	}
	if second.Status != "succeeded" || second.Attempts != 2 {
		t.Fatalf("Tick #2: got=%+v", second)
	}

	// A finished job is reported without running the handler again.
	third, err := acts.Tick(context.Background(), job.ID.String())
	if err != nil || third.Status != "succeeded" || third.Attempts != 2 {
		t.Fatalf("Tick #3: got=%+v err=%v", third, err)
	}
}

func TestTickStopsAfterMaxAttempts(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	repo := repos.NewJobRunRepo(db, log)
	reg := jobrt.NewRegistry()
	h := &flakyHandler{failuresLeft: 5}
	reg.MustRegister(h)
	acts := &Activities{Log: log, DB: db, Jobs: repo, Registry: reg, MaxAttempts: 1}
	job := queuedJob(t, repo, "flaky")

	if _, err := acts.Tick(context.Background(), job.ID.String()); err != nil {
		t.Fatalf("Tick #1: %v", err)
	}
	res, err := acts.Tick(context.Background(), job.ID.String())
	if err != nil {
		t.Fatalf("Tick #2: %v", err)
	}
	if res.Status != "failed" || res.Attempts != 1 || h.failuresLeft != 4 {
		t.Fatalf("exhausted job must not rerun: res=%+v failuresLeft=%d", res, h.failuresLeft)
	}
}

func TestTickRejectsBadIDs(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	acts := &Activities{Log: log, DB: db, Jobs: repos.NewJobRunRepo(db, log), Registry: jobrt.NewRegistry()}
	if _, err := acts.Tick(context.Background(), "not-a-uuid"); err == nil {
		t.Fatalf("invalid id: want error")
	}
	if _, err := acts.Tick(context.Background(), uuid.NewString()); err == nil {
		t.Fatalf("missing job: want error")
	}
	if _, err := (&Activities{}).Tick(context.Background(), uuid.NewString()); err == nil {
		t.Fatalf("unconfigured: want error")
	}
}

func TestWorkflowOutcomes(t *testing.T) {
	cases := []struct {
		name    string
		status  string
		wantErr bool
	}{
		{"succeeded", "succeeded", false},
		{"failed", "failed", true},
		{"stuck", "running", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var suite testsuite.WorkflowTestSuite
			env := suite.NewTestWorkflowEnvironment()
			jobID := uuid.NewString()
			var gotID string
			env.RegisterActivityWithOptions(func(ctx context.Context, id string) (TickResult, error) {
				gotID = id
				return TickResult{JobID: id, Status: tc.status, Stage: "run"}, nil
			}, activity.RegisterOptions{Name: ActivityTick})
			env.SetStartWorkflowOptions(client.StartWorkflowOptions{ID: jobID})

			env.ExecuteWorkflow(Workflow)
			if !env.IsWorkflowCompleted() {
				t.Fatalf("workflow did not complete")
			}
			if err := env.GetWorkflowError(); (err != nil) != tc.wantErr {
				t.Fatalf("workflow error: wantErr=%v got=%v", tc.wantErr, err)
			}
			if gotID != jobID {
				t.Fatalf("tick job id: want=%s got=%s", jobID, gotID)
			}
		})
	}
}
