package app

import (
	"fmt"

	temporalsdkclient "go.temporal.io/sdk/client"

	"github.com/yungbote/suggestion-engine/internal/platform/contextapi"
	"github.com/yungbote/suggestion-engine/internal/platform/logger"
	"github.com/yungbote/suggestion-engine/internal/platform/openai"
	"github.com/yungbote/suggestion-engine/internal/realtime/bus"
	"github.com/yungbote/suggestion-engine/internal/services"
	"github.com/yungbote/suggestion-engine/internal/temporalx"
)

type Clients struct {
	Bus         bus.Bus
	OpenAI      openai.Client
	Context     services.ContextProvider
	Temporal    temporalsdkclient.Client
	TemporalCfg temporalx.Config
}

// wireClients treats the LLM and context API as optional: without them
// extraction reports unavailable and suggestions skip context rules.
func wireClients(log *logger.Logger) (Clients, error) {
	log.Info("Wiring clients...")

	b, err := bus.NewFromEnv(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init realtime bus: %w", err)
	}

	var llm openai.Client
	if c, err := openai.NewClient(log); err != nil {
		log.Warn("OpenAI client disabled; preference extraction and ai suggestions unavailable", "error", err)
	} else {
		llm = c
	}

	tcfg := temporalx.LoadConfig()
	tc, err := temporalx.NewClient(log, tcfg)
	if err != nil {
		_ = b.Close()
		return Clients{}, fmt.Errorf("init temporal client: %w", err)
	}

	return Clients{
		Bus:         b,
		OpenAI:      llm,
		Context:     services.NewContextProvider(log, contextapi.ConfigFromEnv()),
		Temporal:    tc,
		TemporalCfg: tcfg,
	}, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.Temporal != nil {
		c.Temporal.Close()
	}
	if c.Bus != nil {
		_ = c.Bus.Close()
	}
}
