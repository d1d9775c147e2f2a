package learning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	SuggestionAction        = "action"
	SuggestionInformational = "informational"
)

const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

const (
	SuggestionSourceContext = "context"
	SuggestionSourcePattern = "pattern"
	SuggestionSourceAI      = "ai"
)

// PriorityRank orders priorities high > medium > low; unknown values rank lowest.
func PriorityRank(p string) int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

func IsPriority(p string) bool { return PriorityRank(p) > 0 }

type Suggestion struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID          uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	Type            string         `gorm:"column:type;not null" json:"type"`
	Priority        string         `gorm:"column:priority;not null;index" json:"priority"`
	Title           string         `gorm:"column:title;not null" json:"title"`
	Description     string         `gorm:"column:description" json:"description,omitempty"`
	SuggestedAction datatypes.JSON `gorm:"column:suggested_action;type:jsonb" json:"suggested_action,omitempty"`
	ProjectID       *string        `gorm:"column:project_id;index" json:"project_id,omitempty"`
	ProjectName     *string        `gorm:"column:project_name" json:"project_name,omitempty"`
	Confidence      float64        `gorm:"column:confidence;not null;default:0" json:"confidence"`
	Source          string         `gorm:"column:source" json:"source,omitempty"`
	Reasoning       string         `gorm:"column:reasoning" json:"reasoning,omitempty"`
	ExecutedAt      *time.Time     `gorm:"column:executed_at;index" json:"executed_at,omitempty"`
	DismissedAt     *time.Time     `gorm:"column:dismissed_at;index" json:"dismissed_at,omitempty"`
	ExecutionResult datatypes.JSON `gorm:"column:execution_result;type:jsonb" json:"execution_result,omitempty"`
	CreatedAt       time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"not null" json:"updated_at"`
}

func (Suggestion) TableName() string { return "copilot_suggestion" }

// Active reports the proposed state: neither executed nor dismissed.
func (s *Suggestion) Active() bool {
	return s != nil && s.ExecutedAt == nil && s.DismissedAt == nil
}

func (s *Suggestion) State() string {
	switch {
	case s == nil:
		return ""
	case s.ExecutedAt != nil:
		return "executed"
	case s.DismissedAt != nil:
		return "dismissed"
	default:
		return "proposed"
	}
}
