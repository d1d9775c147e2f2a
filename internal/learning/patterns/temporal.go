package patterns

import (
	"fmt"
	"time"

	types "github.com/yungbote/suggestion-engine/internal/domain"
	"github.com/yungbote/suggestion-engine/internal/learning/tuning"
)

type Temporal struct {
	cfg tuning.TemporalConfig
	loc *time.Location
}

func NewTemporal(cfg tuning.TemporalConfig, loc *time.Location) *Temporal {
	if loc == nil {
		loc = time.UTC
	}
	return &Temporal{cfg: cfg, loc: loc}
}

func (d *Temporal) Type() string { return types.PatternTemporal }

func HourSignature(hour int) string { return fmt.Sprintf("hour:%02d", hour) }

func (d *Temporal) Detect(events []*types.FeedbackEvent) ([]Candidate, error) {
	buckets := map[string]*bucket{}
	for _, ev := range events {
		if ev == nil || ev.CreatedAt.IsZero() {
			continue
		}
		hour := ev.CreatedAt.In(d.loc).Hour()
		sig := HourSignature(hour)
		b, ok := buckets[sig]
		if !ok {
			b = &bucket{
				signature:   sig,
				description: fmt.Sprintf("Active around %02d:00 (%s)", hour, d.loc.String()),
				data:        map[string]any{"hour": hour, "time_zone": d.loc.String()},
			}
			buckets[sig] = b
		}
		b.occurrences = append(b.occurrences, ev.CreatedAt)
	}
	return collect(d.Type(), d.cfg.MinSupport, buckets), nil
}
