package patterns

import (
	"fmt"
	"strings"

	types "github.com/yungbote/suggestion-engine/internal/domain"
	"github.com/yungbote/suggestion-engine/internal/learning/tuning"
	"github.com/yungbote/suggestion-engine/internal/normalization"
)

type Command struct {
	cfg tuning.CommandConfig
}

func NewCommand(cfg tuning.CommandConfig) *Command {
	return &Command{cfg: cfg}
}

func (d *Command) Type() string { return types.PatternCommand }

// Detect groups messages by normalized template. Events arrive newest first,
// so the first message seen per template is kept as its sample.
func (d *Command) Detect(events []*types.FeedbackEvent) ([]Candidate, error) {
	withMessage := 0
	for _, ev := range events {
		if ev != nil && strings.TrimSpace(ev.OriginalMessage) != "" {
			withMessage++
		}
	}
	if withMessage == 0 || withMessage < d.cfg.MinEvents {
		return nil, nil
	}

	buckets := map[string]*bucket{}
	for _, ev := range events {
		if ev == nil {
			continue
		}
		sig := normalization.CommandTemplate(ev.OriginalMessage, d.cfg.MaxWords)
		if sig == "" {
			continue
		}
		b, ok := buckets[sig]
		if !ok {
			sample := strings.TrimSpace(ev.OriginalMessage)
			b = &bucket{
				signature:   sig,
				description: fmt.Sprintf("Frequently asks: %s", sig),
				data:        map[string]any{"template": sig, "sample": sample},
			}
			buckets[sig] = b
		}
		b.occurrences = append(b.occurrences, ev.CreatedAt)
	}
	return collect(d.Type(), d.cfg.MinSupport, buckets), nil
}
