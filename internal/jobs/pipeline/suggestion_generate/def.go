package suggestion_generate

import (
	"github.com/yungbote/suggestion-engine/internal/platform/logger"
	"github.com/yungbote/suggestion-engine/internal/services"
)

type Pipeline struct {
	log       *logger.Logger
	generator services.SuggestionGenerator
}

func New(baseLog *logger.Logger, generator services.SuggestionGenerator) *Pipeline {
	return &Pipeline{
		log:       baseLog.With("job", "suggestion_generate"),
		generator: generator,
	}
}

func (p *Pipeline) Type() string { return "suggestion_generate" }
