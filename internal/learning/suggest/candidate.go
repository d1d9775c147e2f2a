package suggest

import (
	"math"
	"sort"

	types "github.com/yungbote/suggestion-engine/internal/domain"
	"github.com/yungbote/suggestion-engine/internal/domain/learning"
)

// Action names carried in suggested_action.action.
const (
	ActionCreatePost     = "create_post"
	ActionCreateWorkflow = "create_workflow"
	ActionCreateBackup   = "create_backup"
	ActionRepeatCommand  = "repeat_command"
	ActionRemind         = "remind"
)

type Candidate struct {
	Type        string
	Priority    string
	Title       string
	Description string
	Action      string
	Params      map[string]any
	ProjectID   *string
	ProjectName *string
	Confidence  float64
	Source      string
	Reasoning   string
}

// SuggestedAction is the JSON stored in suggested_action.
func (c Candidate) SuggestedAction() map[string]any {
	params := c.Params
	if params == nil {
		params = map[string]any{}
	}
	return map[string]any{"action": c.Action, "params": params}
}

// Rank orders by confidence, then priority high > medium > low, then title.
func Rank(cands []Candidate) {
	sort.SliceStable(cands, func(i, j int) bool {
		a, b := cands[i], cands[j]
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		ra, rb := learning.PriorityRank(a.Priority), learning.PriorityRank(b.Priority)
		if ra != rb {
			return ra > rb
		}
		return a.Title < b.Title
	})
}

// Dedup drops candidates whose title is already active for the user or
// already taken by a higher-ranked candidate. Input must be ranked.
func Dedup(cands []Candidate, active map[string]bool) []Candidate {
	seen := make(map[string]bool, len(cands))
	out := make([]Candidate, 0, len(cands))
	for _, c := range cands {
		if c.Title == "" || active[c.Title] || seen[c.Title] {
			continue
		}
		seen[c.Title] = true
		out = append(out, c)
	}
	return out
}

// Select ranks, dedups and truncates to limit.
func Select(cands []Candidate, active map[string]bool, limit int) []Candidate {
	ranked := append([]Candidate(nil), cands...)
	Rank(ranked)
	out := Dedup(ranked, active)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func ToSuggestion(c Candidate) *types.Suggestion {
	return &types.Suggestion{
		Type:        c.Type,
		Priority:    c.Priority,
		Title:       c.Title,
		Description: c.Description,
		ProjectID:   c.ProjectID,
		ProjectName: c.ProjectName,
		Confidence:  c.Confidence,
		Source:      c.Source,
		Reasoning:   c.Reasoning,
	}
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	}
	return math.Round(v*1e4) / 1e4
}
