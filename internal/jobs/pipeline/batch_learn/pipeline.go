package batch_learn

import (
	"errors"

	jobrt "github.com/yungbote/suggestion-engine/internal/jobs/runtime"
	"github.com/yungbote/suggestion-engine/internal/services"
)

func (p *Pipeline) Run(jc *jobrt.Context) error {
	if jc == nil || jc.Job == nil {
		return nil
	}
	jc.Progress("learn", 5, "Learning from recent feedback")
	res := p.learner.LearnFromBatch(jc.Ctx, jc.Job.OwnerUserID, services.BatchOptions{
		Limit:    jc.PayloadInt("limit", 0),
		Generate: jc.PayloadBool("generate"),
	})
	if !res.Success {
		jc.Fail("learn", errors.New(res.Error))
		return nil
	}
	jc.Succeed("done", res)
	return nil
}
