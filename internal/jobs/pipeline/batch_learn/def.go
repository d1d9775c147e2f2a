package batch_learn

import (
	"github.com/yungbote/suggestion-engine/internal/platform/logger"
	"github.com/yungbote/suggestion-engine/internal/services"
)

type Pipeline struct {
	log     *logger.Logger
	learner services.BatchLearner
}

func New(baseLog *logger.Logger, learner services.BatchLearner) *Pipeline {
	return &Pipeline{
		log:     baseLog.With("job", "batch_learn"),
		learner: learner,
	}
}

func (p *Pipeline) Type() string { return "batch_learn" }
