package runtime

import (
	"fmt"
	"time"

	"github.com/yungbote/suggestion-engine/internal/data/repos"
	domainjobs "github.com/yungbote/suggestion-engine/internal/domain/jobs"
	"github.com/yungbote/suggestion-engine/internal/observability"
	"github.com/yungbote/suggestion-engine/internal/platform/logger"
)

type MissingHandlerError struct{ JobType string }

func (e *MissingHandlerError) Error() string {
	return "no handler registered for job_type=" + e.JobType
}

type PanicError struct{ Val any }

func (e *PanicError) Error() string { return fmt.Sprintf("panic: %v", e.Val) }

// Execute runs the handler registered for jc.Job and leaves the row terminal
// in every case: a returned error or a panic fails it, and a handler that
// returns nil without finishing is marked succeeded. Both the local worker
// and the Temporal activity go through here.
func Execute(jc *Context, reg *Registry, log *logger.Logger) {
	if jc == nil || jc.Job == nil {
		return
	}
	if log == nil {
		log = logger.Nop()
	}
	job := jc.Job
	start := time.Now()
	defer func() {
		observability.Current().ObserveJob(job.JobType, job.Status, time.Since(start))
	}()

	h, ok := reg.Get(job.JobType)
	if !ok {
		log.Warn("No handler registered for job_type", "job_type", job.JobType, "job_id", job.ID)
		jc.Fail("dispatch", &MissingHandlerError{JobType: job.JobType})
		return
	}

	returnedNil := false
	func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error("Job handler panic", "job_id", job.ID, "job_type", job.JobType, "panic", r)
				jc.Fail("panic", &PanicError{Val: r})
			}
		}()
		if err := h.Run(jc); err != nil {
			jc.Fail("run", err)
			return
		}
		returnedNil = true
	}()

	if returnedNil && job.Status == domainjobs.StatusRunning {
		log.Warn("Job handler returned nil without terminal status; marking succeeded", "job_id", job.ID, "job_type", job.JobType, "stage", job.Stage)
		jc.Succeed("done", nil)
	}
}

// Reload refreshes jc.Job from storage.
func Reload(jc *Context, repo repos.JobRunRepo) error {
	if jc == nil || jc.Job == nil || repo == nil {
		return nil
	}
	fresh, err := repo.GetByID(jc.dbc(), jc.Job.ID)
	if err != nil {
		return err
	}
	*jc.Job = *fresh
	return nil
}
