package pattern_recognize

import (
	"github.com/yungbote/suggestion-engine/internal/platform/logger"
	"github.com/yungbote/suggestion-engine/internal/services"
)

type Pipeline struct {
	log        *logger.Logger
	recognizer services.PatternRecognizer
}

func New(baseLog *logger.Logger, recognizer services.PatternRecognizer) *Pipeline {
	return &Pipeline{
		log:        baseLog.With("job", "pattern_recognize"),
		recognizer: recognizer,
	}
}

func (p *Pipeline) Type() string { return "pattern_recognize" }
