package preference_extract

import (
	"github.com/yungbote/suggestion-engine/internal/platform/logger"
	"github.com/yungbote/suggestion-engine/internal/services"
)

type Pipeline struct {
	log   *logger.Logger
	prefs services.PreferenceService
}

func New(baseLog *logger.Logger, prefs services.PreferenceService) *Pipeline {
	return &Pipeline{
		log:   baseLog.With("job", "preference_extract"),
		prefs: prefs,
	}
}

func (p *Pipeline) Type() string { return "preference_extract" }
