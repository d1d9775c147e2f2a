package bus

import (
	"context"

	"github.com/yungbote/suggestion-engine/internal/platform/logger"
	"github.com/yungbote/suggestion-engine/internal/realtime"
)

type logBus struct {
	log *logger.Logger
}

func NewLogBus(log *logger.Logger) Bus {
	if log == nil {
		log = logger.Nop()
	}
	return &logBus{log: log.With("service", "LogBus")}
}

func (b *logBus) Publish(ctx context.Context, msg realtime.Message) error {
	b.log.Debug("realtime event", "channel", msg.Channel, "event", msg.Event)
	return nil
}

func (b *logBus) Close() error { return nil }
