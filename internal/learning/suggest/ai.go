package suggest

import (
	"encoding/json"
	"strings"
	"unicode/utf8"

	types "github.com/yungbote/suggestion-engine/internal/domain"
	"github.com/yungbote/suggestion-engine/internal/domain/learning"
	"github.com/yungbote/suggestion-engine/internal/normalization"
)

const maxTitleLen = 200

// AIPromptData is the serialized view of Inputs sent to the suggestion prompt.
type AIPromptData struct {
	ProjectsJSON    string
	PreferencesJSON string
	PatternsJSON    string
}

type promptProject struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Status            string `json:"status,omitempty"`
	LastActivityAt    string `json:"last_activity_at,omitempty"`
	LastPostAt        string `json:"last_post_at,omitempty"`
	HasActiveWorkflow bool   `json:"has_active_workflow"`
}

type promptPattern struct {
	Type       string  `json:"type"`
	Signature  string  `json:"signature"`
	Support    int     `json:"support"`
	Confidence float64 `json:"confidence"`
}

// DescribeInputs serializes the projects, preferences and active patterns in
// scope. Empty sections come back as empty strings.
func DescribeInputs(in Inputs) AIPromptData {
	var out AIPromptData
	if in.Context != nil {
		projects := make([]promptProject, 0, len(in.Context.Projects))
		for _, p := range in.Context.Projects {
			if !inScope(in, p.ID) {
				continue
			}
			pp := promptProject{ID: p.ID, Name: p.Name, Status: p.Status, HasActiveWorkflow: p.HasActiveWorkflow}
			if p.LastActivityAt != nil {
				pp.LastActivityAt = p.LastActivityAt.UTC().Format("2006-01-02")
			}
			if p.LastPostAt != nil {
				pp.LastPostAt = p.LastPostAt.UTC().Format("2006-01-02")
			}
			projects = append(projects, pp)
		}
		out.ProjectsJSON = marshalOrEmpty(projects, len(projects))
	}
	out.PreferencesJSON = marshalOrEmpty(in.Preferences, len(in.Preferences))

	pats := make([]promptPattern, 0, len(in.Patterns))
	for _, p := range in.Patterns {
		if p == nil || !p.IsActive {
			continue
		}
		pats = append(pats, promptPattern{Type: p.PatternType, Signature: p.Signature, Support: p.SupportCount, Confidence: p.Confidence})
	}
	out.PatternsJSON = marshalOrEmpty(pats, len(pats))
	return out
}

func marshalOrEmpty(v any, n int) string {
	if n == 0 {
		return ""
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

func inScope(in Inputs, projectID string) bool {
	return in.ProjectID == nil || *in.ProjectID == "" || *in.ProjectID == projectID
}

// AICandidates turns the items of an LLM suggestion response into candidates.
// Items that fail validation are dropped and counted. Project ids must name a
// project from the context; confidence is capped below the rule-based sources.
func (s *Synthesizer) AICandidates(in Inputs, items []any) ([]Candidate, int) {
	cfg := s.cfg.AI
	out := make([]Candidate, 0, len(items))
	invalid := 0
	for _, raw := range items {
		if cfg.Limit > 0 && len(out) >= cfg.Limit {
			break
		}
		c, ok := s.aiCandidate(in, raw)
		if !ok {
			invalid++
			continue
		}
		s.applyPreferences(&c, in.Preferences)
		if c.Confidence > cfg.MaxConfidence {
			c.Confidence = cfg.MaxConfidence
		}
		c.Confidence = clamp01(c.Confidence)
		out = append(out, c)
	}
	return out, invalid
}

func (s *Synthesizer) aiCandidate(in Inputs, raw any) (Candidate, bool) {
	m, ok := raw.(map[string]any)
	if !ok {
		return Candidate{}, false
	}
	title := field(m, "title")
	if title == "" || utf8.RuneCountInString(title) > maxTitleLen {
		return Candidate{}, false
	}

	kind := strings.ToLower(field(m, "type"))
	switch kind {
	case learning.SuggestionAction:
	case learning.SuggestionInformational, "reminder", "insight":
		kind = learning.SuggestionInformational
	default:
		return Candidate{}, false
	}

	priority := strings.ToLower(field(m, "priority"))
	if priority == "" {
		priority = learning.PriorityMedium
	}
	if !learning.IsPriority(priority) {
		return Candidate{}, false
	}

	action := normalization.SnakeKey(field(m, "action"))
	if action == "" {
		if kind != learning.SuggestionInformational {
			return Candidate{}, false
		}
		action = ActionRemind
	}

	confidence := s.cfg.AI.DefaultConfidence
	if rc, present := m["confidence"]; present && rc != nil {
		f, isNum := rc.(float64)
		if !isNum || f < 0 || f > 1 {
			return Candidate{}, false
		}
		confidence = f
	}

	c := Candidate{
		Type:        kind,
		Priority:    priority,
		Title:       title,
		Description: field(m, "description"),
		Action:      action,
		Params:      map[string]any{},
		Confidence:  confidence,
		Source:      learning.SuggestionSourceAI,
		Reasoning:   field(m, "reasoning"),
	}
	if pid := field(m, "project_id"); pid != "" {
		p := projectByID(in.Context, pid)
		if p == nil || !inScope(in, pid) {
			return Candidate{}, false
		}
		name := p.Name
		if name == "" {
			name = p.ID
		}
		c.ProjectID, c.ProjectName = strPtr(p.ID), strPtr(name)
		c.Params["project_id"] = p.ID
	}
	if c.Reasoning == "" {
		c.Reasoning = "proposed by the assistant"
	}
	return c, true
}

func projectByID(bc *types.BusinessContext, id string) *types.ProjectContext {
	if bc == nil {
		return nil
	}
	return bc.Project(id)
}

func field(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return strings.TrimSpace(s)
}
