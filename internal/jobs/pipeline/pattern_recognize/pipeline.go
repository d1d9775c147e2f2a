package pattern_recognize

import (
	jobrt "github.com/yungbote/suggestion-engine/internal/jobs/runtime"
	"github.com/yungbote/suggestion-engine/internal/services"
)

func (p *Pipeline) Run(jc *jobrt.Context) error {
	if jc == nil || jc.Job == nil {
		return nil
	}
	userID := jc.Job.OwnerUserID

	jc.Progress("patterns", 10, "Detecting usage patterns")
	found, err := p.recognizer.RecognizePatterns(jc.Ctx, userID, services.Window{
		Limit: jc.PayloadInt("limit", 0),
	})
	if err != nil {
		jc.Fail("patterns", err)
		return nil
	}

	byType := map[string]int{}
	for _, pat := range found {
		byType[pat.PatternType]++
	}
	jc.Succeed("done", map[string]any{
		"patterns_detected": len(found),
		"by_type":           byType,
	})
	return nil
}
