package jobrun

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.temporal.io/sdk/activity"
	"gorm.io/gorm"

	"github.com/yungbote/suggestion-engine/internal/data/repos"
	types "github.com/yungbote/suggestion-engine/internal/domain"
	domainjobs "github.com/yungbote/suggestion-engine/internal/domain/jobs"
	jobrt "github.com/yungbote/suggestion-engine/internal/jobs/runtime"
	"github.com/yungbote/suggestion-engine/internal/platform/dbctx"
	"github.com/yungbote/suggestion-engine/internal/platform/logger"
	"github.com/yungbote/suggestion-engine/internal/services"
)

type Activities struct {
	Log         *logger.Logger
	DB          *gorm.DB
	Jobs        repos.JobRunRepo
	Registry    *jobrt.Registry
	Notify      services.JobNotifier
	MaxAttempts int

	// HeartbeatEvery defaults to 10s; the DB heartbeat runs at three times that.
	HeartbeatEvery time.Duration
}

// Tick executes the job once unless it is already finished. A failed job is
// run again while attempts remain, so a workflow-level retry re-drives it.
func (a *Activities) Tick(ctx context.Context, jobID string) (TickResult, error) {
	res := TickResult{JobID: strings.TrimSpace(jobID)}
	if a == nil || a.DB == nil || a.Jobs == nil || a.Registry == nil {
		return res, fmt.Errorf("jobrun: activity not configured")
	}
	id, err := uuid.Parse(res.JobID)
	if err != nil || id == uuid.Nil {
		return res, fmt.Errorf("jobrun: invalid job_id")
	}
	dbc := dbctx.Context{Ctx: ctx, Tx: a.DB}

	job, err := a.Jobs.GetByID(dbc, id)
	if err != nil {
		return res, err
	}
	if a.finished(job) {
		return fill(res, job), nil
	}

	stop := a.startHeartbeat(ctx, id)
	defer stop()

	now := time.Now().UTC()
	claimed, err := a.Jobs.UpdateFieldsUnlessStatus(dbc, id, []string{domainjobs.StatusSucceeded}, map[string]interface{}{
		"status":       domainjobs.StatusRunning,
		"attempts":     gorm.Expr("attempts + 1"),
		"locked_at":    now,
		"heartbeat_at": now,
		"updated_at":   now,
	})
	if err != nil {
		return res, err
	}
	if !claimed {
		// Finished between the read and the claim.
		job, err = a.Jobs.GetByID(dbc, id)
		if err != nil {
			return res, err
		}
		return fill(res, job), nil
	}
	job.Status = domainjobs.StatusRunning
	job.Attempts++
	job.LockedAt = &now
	job.HeartbeatAt = &now

	log := a.Log
	if log == nil {
		log = logger.Nop()
	}
	jc := jobrt.NewContext(ctx, a.DB, job, a.Jobs, a.Notify)
	jobrt.Execute(jc, a.Registry, log.With("job_id", job.ID, "job_type", job.JobType))
	if err := jobrt.Reload(jc, a.Jobs); err != nil {
		return res, err
	}
	return fill(res, jc.Job), nil
}

func (a *Activities) finished(job *types.JobRun) bool {
	switch job.Status {
	case domainjobs.StatusSucceeded:
		return true
	case domainjobs.StatusFailed:
		return a.MaxAttempts > 0 && job.Attempts >= a.MaxAttempts
	default:
		return false
	}
}

func fill(res TickResult, job *types.JobRun) TickResult {
	res.Status = job.Status
	res.Stage = job.Stage
	res.Progress = job.Progress
	res.Attempts = job.Attempts
	res.Error = job.Error
	return res
}

func (a *Activities) startHeartbeat(ctx context.Context, jobID uuid.UUID) func() {
	every := a.HeartbeatEvery
	if every <= 0 {
		every = 10 * time.Second
	}
	done := make(chan struct{})
	go func() {
		temporalHB := time.NewTicker(every)
		defer temporalHB.Stop()
		dbHB := time.NewTicker(3 * every)
		defer dbHB.Stop()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-temporalHB.C:
				if activity.IsActivity(ctx) {
					activity.RecordHeartbeat(ctx)
				}
			case <-dbHB.C:
				_ = a.Jobs.Heartbeat(dbctx.Context{Ctx: ctx, Tx: a.DB}, jobID)
			}
		}
	}()
	return func() { close(done) }
}
