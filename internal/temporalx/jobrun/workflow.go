package jobrun

import (
	"fmt"
	"strings"
	"time"

	"go.temporal.io/sdk/workflow"
)

// Workflow drives one job_run row; the workflow id is the job id. A failed
// job fails the workflow so the start-time retry policy schedules the next
// attempt.
func Workflow(ctx workflow.Context) error {
	jobID := strings.TrimSpace(workflow.GetInfo(ctx).WorkflowExecution.ID)
	if jobID == "" {
		return fmt.Errorf("jobrun: missing job_id")
	}

	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Minute,
		HeartbeatTimeout:    time.Minute,
		// Job retries are handled at the workflow level.
		RetryPolicy: nil,
	})

	var out TickResult
	if err := workflow.ExecuteActivity(ctx, ActivityTick, jobID).Get(ctx, &out); err != nil {
		return err
	}
	switch out.Status {
	case "succeeded":
		return nil
	case "failed":
		return fmt.Errorf("job failed (stage=%s attempts=%d): %s", out.Stage, out.Attempts, out.Error)
	default:
		return fmt.Errorf("job left in status %q", out.Status)
	}
}
