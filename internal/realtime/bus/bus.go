package bus

import (
	"context"

	"github.com/yungbote/suggestion-engine/internal/platform/envutil"
	"github.com/yungbote/suggestion-engine/internal/platform/logger"
	"github.com/yungbote/suggestion-engine/internal/realtime"
)

type Bus interface {
	Publish(ctx context.Context, msg realtime.Message) error
	Close() error
}

// NewFromEnv returns the Redis bus when REDIS_ADDR is set, else a bus that
// only logs.
func NewFromEnv(log *logger.Logger) (Bus, error) {
	if envutil.String("REDIS_ADDR", "") == "" {
		return NewLogBus(log), nil
	}
	return NewRedisBus(log)
}
