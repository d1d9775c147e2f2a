package learning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	PreferenceSourceCorrection = "correction"
	PreferenceSourceExplicit   = "explicit"
)

// Well-known preference types. Extraction may produce others.
const (
	PreferenceResponseStyle    = "response_style"
	PreferenceContentTone      = "content_tone"
	PreferenceLanguage         = "language"
	PreferenceFormat           = "format"
	PreferencePreferredActions = "preferred_actions"
)

type Preference struct {
	ID               uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID           uuid.UUID      `gorm:"type:uuid;not null;index:idx_preference_key,unique,priority:1" json:"user_id"`
	PreferenceType   string         `gorm:"column:preference_type;not null;index:idx_preference_key,unique,priority:2" json:"preference_type"`
	PreferenceKey    string         `gorm:"column:preference_key;not null;index:idx_preference_key,unique,priority:3" json:"preference_key"`
	PreferenceValue  datatypes.JSON `gorm:"column:preference_value;type:jsonb" json:"preference_value"`
	Confidence       float64        `gorm:"column:confidence;not null;default:0" json:"confidence"`
	Source           string         `gorm:"column:source" json:"source,omitempty"`
	SourceFeedbackID *uuid.UUID     `gorm:"type:uuid;column:source_feedback_id" json:"source_feedback_id,omitempty"`
	// SourceAt is when the signal behind the value was observed; an older
	// signal never overwrites a newer one.
	SourceAt  *time.Time `gorm:"column:source_at" json:"source_at,omitempty"`
	CreatedAt time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time  `gorm:"not null;index" json:"updated_at"`
}

func (Preference) TableName() string { return "copilot_preference" }
