package patterns

import (
	"encoding/json"
	"fmt"
	"strings"

	types "github.com/yungbote/suggestion-engine/internal/domain"
	"github.com/yungbote/suggestion-engine/internal/learning/tuning"
)

type ProjectAffinity struct {
	cfg tuning.Threshold
}

func NewProjectAffinity(cfg tuning.Threshold) *ProjectAffinity {
	return &ProjectAffinity{cfg: cfg}
}

func (d *ProjectAffinity) Type() string { return types.PatternProjectAffinity }

type feedbackProject struct {
	ProjectID   any    `json:"project_id"`
	ProjectName string `json:"project_name"`
}

// ProjectFromContext reads project_id/project_name out of a feedback context
// blob. Numeric ids are rendered as strings; unreadable blobs yield "".
func ProjectFromContext(raw []byte) (id string, name string) {
	if len(raw) == 0 {
		return "", ""
	}
	var fp feedbackProject
	if err := json.Unmarshal(raw, &fp); err != nil {
		return "", ""
	}
	switch v := fp.ProjectID.(type) {
	case string:
		id = strings.TrimSpace(v)
	case float64:
		id = strings.TrimSpace(fmt.Sprintf("%.0f", v))
	}
	return id, strings.TrimSpace(fp.ProjectName)
}

func (d *ProjectAffinity) Detect(events []*types.FeedbackEvent) ([]Candidate, error) {
	buckets := map[string]*bucket{}
	for _, ev := range events {
		if ev == nil {
			continue
		}
		id, name := ProjectFromContext(ev.Context)
		if id == "" {
			continue
		}
		b, ok := buckets[id]
		if !ok {
			b = &bucket{
				signature: id,
				data:      map[string]any{"project_id": id},
			}
			buckets[id] = b
		}
		// Newest first: the first non-empty name is the latest one.
		if _, has := b.data["project_name"]; !has && name != "" {
			b.data["project_name"] = name
		}
		b.occurrences = append(b.occurrences, ev.CreatedAt)
	}
	for _, b := range buckets {
		label := b.signature
		if n, ok := b.data["project_name"].(string); ok && n != "" {
			label = n
		}
		b.description = fmt.Sprintf("Works mostly on project %s", label)
	}
	return collect(d.Type(), d.cfg.MinSupport, buckets), nil
}
