package suggest

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	types "github.com/yungbote/suggestion-engine/internal/domain"
	"github.com/yungbote/suggestion-engine/internal/domain/learning"
	"github.com/yungbote/suggestion-engine/internal/learning/patterns"
	"github.com/yungbote/suggestion-engine/internal/learning/tuning"
)

const (
	baseContextConfidence  = 0.6
	baseWorkflowConfidence = 0.5
	urgencyWeight          = 0.3
)

// TitleNewProjectPost is used for the most recently active project.
const TitleNewProjectPost = "Tạo bài post về dự án mới"

// Preference groups copied into the params of content actions.
var contentPreferenceTypes = []string{
	learning.PreferenceResponseStyle,
	learning.PreferenceContentTone,
	learning.PreferenceLanguage,
	learning.PreferenceFormat,
}

type Inputs struct {
	Now time.Time
	// ProjectID narrows project candidates to one project.
	ProjectID   *string
	Context     *types.BusinessContext
	Preferences map[string]map[string]any
	Patterns    []*types.Pattern
	Location    *time.Location
	// OnInvalidPattern is told about patterns skipped for undecodable data.
	OnInvalidPattern func(p *types.Pattern, err error)
}

type Synthesizer struct {
	cfg tuning.SuggestionConfig
}

func NewSynthesizer(cfg tuning.SuggestionConfig) *Synthesizer {
	return &Synthesizer{cfg: cfg}
}

func (s *Synthesizer) Candidates(in Inputs) []Candidate {
	if in.Now.IsZero() {
		in.Now = time.Now().UTC()
	}
	if in.Location == nil {
		in.Location = time.UTC
	}
	affinity := affinityByProject(in.Patterns)

	var out []Candidate
	out = append(out, s.projectCandidates(in, affinity)...)
	if c, ok := s.backupCandidate(in); ok {
		out = append(out, c)
	}
	out = append(out, s.patternCandidates(in)...)

	for i := range out {
		s.applyPreferences(&out[i], in.Preferences)
		out[i].Confidence = clamp01(out[i].Confidence)
	}
	return out
}

func (s *Synthesizer) projectCandidates(in Inputs, affinity map[string]*types.Pattern) []Candidate {
	if in.Context == nil || len(in.Context.Projects) == 0 {
		return nil
	}
	mostRecent := mostRecentProject(in.Context.Projects)
	stale := time.Duration(s.cfg.StaleContentDays) * 24 * time.Hour

	var out []Candidate
	for i := range in.Context.Projects {
		p := in.Context.Projects[i]
		if p.ID == "" || strings.EqualFold(p.Status, "archived") {
			continue
		}
		if in.ProjectID != nil && *in.ProjectID != "" && *in.ProjectID != p.ID {
			continue
		}
		id, name := p.ID, p.Name
		if name == "" {
			name = p.ID
		}
		boost := 0.0
		reasonBoost := ""
		if ap, ok := affinity[p.ID]; ok {
			boost = s.cfg.AffinityBoost * ap.Confidence
			reasonBoost = fmt.Sprintf("; you work on this project often (%d recent interactions)", ap.SupportCount)
		}

		sinceActivity := staleness(in.Now, p.LastPostAt)
		if sinceActivity > stale {
			title := "Tạo bài post cho " + name
			if i == mostRecent {
				title = TitleNewProjectPost
			}
			days := int(sinceActivity.Hours() / 24)
			out = append(out, Candidate{
				Type:        learning.SuggestionAction,
				Priority:    learning.PriorityMedium,
				Title:       title,
				Description: fmt.Sprintf("Dự án \"%s\" chưa có bài post mới trong %s", name, daysLabel(p.LastPostAt, days)),
				Action:      ActionCreatePost,
				Params: map[string]any{
					"topic":      "dự án " + name,
					"platform":   "all",
					"project_id": id,
				},
				ProjectID:   strPtr(id),
				ProjectName: strPtr(name),
				Confidence:  baseContextConfidence + urgencyWeight*urgency(sinceActivity, stale) + boost,
				Source:      learning.SuggestionSourceContext,
				Reasoning:   fmt.Sprintf("no new content for %s%s", daysLabel(p.LastPostAt, days), reasonBoost),
			})
		}

		if !p.HasActiveWorkflow {
			out = append(out, Candidate{
				Type:        learning.SuggestionAction,
				Priority:    learning.PriorityLow,
				Title:       "Tạo workflow cho " + name,
				Description: fmt.Sprintf("Dự án \"%s\" chưa có workflow tự động nào đang chạy", name),
				Action:      ActionCreateWorkflow,
				Params:      map[string]any{"project_id": id},
				ProjectID:   strPtr(id),
				ProjectName: strPtr(name),
				Confidence:  baseWorkflowConfidence + boost,
				Source:      learning.SuggestionSourceContext,
				Reasoning:   "project has no active workflow" + reasonBoost,
			})
		}
	}
	return out
}

func (s *Synthesizer) backupCandidate(in Inputs) (Candidate, bool) {
	if in.Context == nil {
		return Candidate{}, false
	}
	overdue := time.Duration(s.cfg.BackupOverdueDays) * 24 * time.Hour
	critical := time.Duration(s.cfg.BackupCriticalDays) * 24 * time.Hour
	since := staleness(in.Now, in.Context.LastBackupAt)
	if since <= overdue {
		return Candidate{}, false
	}
	priority := learning.PriorityMedium
	if since > critical {
		priority = learning.PriorityHigh
	}
	days := int(since.Hours() / 24)
	return Candidate{
		Type:        learning.SuggestionAction,
		Priority:    priority,
		Title:       "Sao lưu database",
		Description: fmt.Sprintf("Chưa backup database %s", daysLabel(in.Context.LastBackupAt, days)),
		Action:      ActionCreateBackup,
		Params:      map[string]any{},
		Confidence:  baseContextConfidence + urgencyWeight*urgency(since, overdue),
		Source:      learning.SuggestionSourceContext,
		Reasoning:   "last backup older than " + strconv.Itoa(s.cfg.BackupOverdueDays) + " days",
	}, true
}

func (s *Synthesizer) patternCandidates(in Inputs) []Candidate {
	var out []Candidate
	currentHour := patterns.HourSignature(in.Now.In(in.Location).Hour())
	for _, p := range in.Patterns {
		if p == nil || !p.IsActive || p.Confidence < s.cfg.MinPatternConfidence {
			continue
		}
		data, err := decodeData(p.PatternData)
		if err != nil {
			if in.OnInvalidPattern != nil {
				in.OnInvalidPattern(p, err)
			}
			continue
		}
		switch p.PatternType {
		case types.PatternCommand:
			sample, _ := data["sample"].(string)
			if sample == "" {
				sample = p.Signature
			}
			priority := learning.PriorityLow
			if p.Confidence >= 0.7 {
				priority = learning.PriorityMedium
			}
			out = append(out, Candidate{
				Type:        learning.SuggestionAction,
				Priority:    priority,
				Title:       "Chạy lại: " + sample,
				Description: fmt.Sprintf("Bạn đã dùng lệnh này %d lần gần đây", p.SupportCount),
				Action:      ActionRepeatCommand,
				Params:      map[string]any{"command": sample, "template": p.Signature},
				Confidence:  p.Confidence,
				Source:      learning.SuggestionSourcePattern,
				Reasoning:   fmt.Sprintf("command pattern seen %d times", p.SupportCount),
			})
		case types.PatternTemporal:
			if p.Signature != currentHour {
				continue
			}
			hour := strings.TrimPrefix(p.Signature, "hour:")
			out = append(out, Candidate{
				Type:        learning.SuggestionInformational,
				Priority:    learning.PriorityLow,
				Title:       fmt.Sprintf("Khung giờ làm việc quen thuộc %s:00", hour),
				Description: "Bạn thường làm việc vào giờ này, hãy xem lại các việc đang chờ",
				Action:      ActionRemind,
				Params:      map[string]any{"hour": hour},
				Confidence:  p.Confidence,
				Source:      learning.SuggestionSourcePattern,
				Reasoning:   fmt.Sprintf("active at this hour in %d recent interactions", p.SupportCount),
			})
		}
	}
	return out
}

// applyPreferences copies content preferences into create_post params and
// boosts candidates whose action the user prefers.
func (s *Synthesizer) applyPreferences(c *Candidate, prefs map[string]map[string]any) {
	if len(prefs) == 0 {
		return
	}
	if c.Action == ActionCreatePost {
		if c.Params == nil {
			c.Params = map[string]any{}
		}
		for _, t := range contentPreferenceTypes {
			if group, ok := prefs[t]; ok && len(group) > 0 {
				c.Params[t] = group
			}
		}
	}
	if prefersAction(prefs[learning.PreferencePreferredActions], c.Action) {
		c.Confidence += s.cfg.PreferredActionBoost
		c.Reasoning += "; matches a preferred action"
	}
}

func prefersAction(group map[string]any, action string) bool {
	if action == "" {
		return false
	}
	for k, v := range group {
		if k == action {
			if b, ok := v.(bool); ok {
				return b
			}
			if s, ok := v.(string); ok {
				return !strings.EqualFold(s, "false")
			}
			return true
		}
		if s, ok := v.(string); ok && s == action {
			return true
		}
	}
	return false
}

func affinityByProject(ps []*types.Pattern) map[string]*types.Pattern {
	out := map[string]*types.Pattern{}
	for _, p := range ps {
		if p != nil && p.IsActive && p.PatternType == types.PatternProjectAffinity {
			out[p.Signature] = p
		}
	}
	return out
}

func mostRecentProject(ps []types.ProjectContext) int {
	best := 0
	for i := range ps {
		at := ps[i].LastActivityAt
		if at == nil {
			continue
		}
		if ps[best].LastActivityAt == nil || at.After(*ps[best].LastActivityAt) {
			best = i
		}
	}
	return best
}

// staleness treats a missing timestamp as very old.
func staleness(now time.Time, at *time.Time) time.Duration {
	if at == nil || at.IsZero() {
		return 999 * 24 * time.Hour
	}
	if d := now.Sub(*at); d > 0 {
		return d
	}
	return 0
}

// urgency grows from 0 at the threshold to 1 at twice the threshold.
func urgency(since, threshold time.Duration) float64 {
	if threshold <= 0 {
		return 1
	}
	u := float64(since-threshold) / float64(threshold)
	if u < 0 {
		return 0
	}
	if u > 1 {
		return 1
	}
	return u
}

func daysLabel(at *time.Time, days int) string {
	if at == nil {
		return "một thời gian dài"
	}
	return fmt.Sprintf("%d ngày", days)
}

func strPtr(s string) *string { return &s }
