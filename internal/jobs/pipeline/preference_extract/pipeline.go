package preference_extract

import (
	"fmt"

	"github.com/google/uuid"

	jobrt "github.com/yungbote/suggestion-engine/internal/jobs/runtime"
)

func (p *Pipeline) Run(jc *jobrt.Context) error {
	if jc == nil || jc.Job == nil {
		return nil
	}
	feedbackID, ok := jc.PayloadUUID("feedback_id")
	if !ok && jc.Job.EntityID != nil {
		feedbackID, ok = *jc.Job.EntityID, *jc.Job.EntityID != uuid.Nil
	}
	if !ok {
		jc.Fail("validate", fmt.Errorf("missing feedback_id"))
		return nil
	}

	jc.Progress("extract", 10, "Extracting preferences from correction")
	prefs, err := p.prefs.ExtractFromFeedback(jc.Ctx, feedbackID)
	if err != nil {
		// Extraction failures are retried by the claim loop until attempts run out.
		jc.Fail("extract", err)
		return nil
	}

	keys := make([]string, 0, len(prefs))
	for _, pref := range prefs {
		keys = append(keys, pref.PreferenceType+"."+pref.PreferenceKey)
	}
	p.log.Debug("preferences stored", "feedback_id", feedbackID, "count", len(prefs))
	jc.Succeed("done", map[string]any{
		"feedback_id":         feedbackID.String(),
		"preferences_updated": len(prefs),
		"keys":                keys,
	})
	return nil
}
