package suggestion_generate

import (
	"github.com/google/uuid"

	jobrt "github.com/yungbote/suggestion-engine/internal/jobs/runtime"
	"github.com/yungbote/suggestion-engine/internal/services"
)

func (p *Pipeline) Run(jc *jobrt.Context) error {
	if jc == nil || jc.Job == nil {
		return nil
	}
	opts := services.GenerateOptions{Limit: jc.PayloadInt("limit", 0)}
	if pid := jc.PayloadString("project_id"); pid != "" {
		opts.ProjectID = &pid
	}

	jc.Progress("generate", 10, "Generating suggestions")
	created, err := p.generator.GenerateSuggestions(jc.Ctx, jc.Job.OwnerUserID, opts)
	if err != nil {
		jc.Fail("generate", err)
		return nil
	}
	ids := make([]uuid.UUID, 0, len(created))
	for _, s := range created {
		ids = append(ids, s.ID)
	}
	jc.Succeed("done", map[string]any{
		"suggestions_created": len(created),
		"suggestion_ids":      ids,
	})
	return nil
}
