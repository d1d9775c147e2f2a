package patterns

import (
	"sort"
	"time"

	types "github.com/yungbote/suggestion-engine/internal/domain"
	"github.com/yungbote/suggestion-engine/internal/learning/tuning"
)

// Candidate is a regularity seen at least MinSupport times in one window.
type Candidate struct {
	PatternType string
	Signature   string
	Description string
	Data        map[string]any
	// Occurrences holds the created_at of every event counted, newest first.
	Occurrences []time.Time
}

func (c Candidate) Count() int { return len(c.Occurrences) }

func (c Candidate) Newest() time.Time {
	if len(c.Occurrences) == 0 {
		return time.Time{}
	}
	return c.Occurrences[0]
}

func (c Candidate) Oldest() time.Time {
	if len(c.Occurrences) == 0 {
		return time.Time{}
	}
	return c.Occurrences[len(c.Occurrences)-1]
}

// NewerThan counts occurrences strictly after t.
func (c Candidate) NewerThan(t time.Time) int {
	n := 0
	for _, at := range c.Occurrences {
		if at.After(t) {
			n++
		}
	}
	return n
}

type Detector interface {
	Type() string
	Detect(events []*types.FeedbackEvent) ([]Candidate, error)
}

// Detectors returns one detector per pattern type, in run order.
func Detectors(cfg tuning.Config) []Detector {
	return []Detector{
		NewTemporal(cfg.Patterns.Temporal, cfg.Location()),
		NewCommand(cfg.Patterns.Command),
		NewProjectAffinity(cfg.Patterns.ProjectAffinity),
	}
}

type bucket struct {
	signature   string
	data        map[string]any
	description string
	occurrences []time.Time
}

// collect turns buckets into candidates at or above minSupport, most
// supported first.
func collect(patternType string, minSupport int, buckets map[string]*bucket) []Candidate {
	out := make([]Candidate, 0, len(buckets))
	for _, b := range buckets {
		if len(b.occurrences) < minSupport {
			continue
		}
		occ := append([]time.Time(nil), b.occurrences...)
		sort.Slice(occ, func(i, j int) bool { return occ[i].After(occ[j]) })
		if b.data == nil {
			b.data = map[string]any{}
		}
		b.data["count"] = len(occ)
		out = append(out, Candidate{
			PatternType: patternType,
			Signature:   b.signature,
			Description: b.description,
			Data:        b.data,
			Occurrences: occ,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count() != out[j].Count() {
			return out[i].Count() > out[j].Count()
		}
		return out[i].Signature < out[j].Signature
	})
	return out
}
