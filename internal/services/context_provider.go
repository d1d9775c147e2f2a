package services

import (
	"context"

	"github.com/google/uuid"

	types "github.com/yungbote/suggestion-engine/internal/domain"
	"github.com/yungbote/suggestion-engine/internal/platform/contextapi"
	"github.com/yungbote/suggestion-engine/internal/platform/logger"
)

// ContextProvider supplies the read-only business snapshot used by the
// suggestion rules. A nil context with a nil error means "nothing known".
type ContextProvider interface {
	GetContext(ctx context.Context, userID uuid.UUID, projectID *string) (*types.BusinessContext, error)
}

type noopContextProvider struct{}

func (noopContextProvider) GetContext(context.Context, uuid.UUID, *string) (*types.BusinessContext, error) {
	return nil, nil
}

func NewNoopContextProvider() ContextProvider { return noopContextProvider{} }

// NewContextProvider uses the context API when CONTEXT_API_URL is configured.
func NewContextProvider(baseLog *logger.Logger, cfg contextapi.Config) ContextProvider {
	if cfg.BaseURL == "" {
		baseLog.Info("CONTEXT_API_URL not set; suggestions use patterns and preferences only")
		return NewNoopContextProvider()
	}
	c, err := contextapi.New(baseLog, cfg)
	if err != nil {
		baseLog.Warn("context api disabled", "error", err)
		return NewNoopContextProvider()
	}
	return c
}
