package learning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	FeedbackPositive   = "positive"
	FeedbackNegative   = "negative"
	FeedbackNeutral    = "neutral"
	FeedbackCorrection = "correction"
)

const (
	InteractionChat       = "chat"
	InteractionCommand    = "command"
	InteractionSuggestion = "suggestion"
)

func IsFeedbackType(t string) bool {
	switch t {
	case FeedbackPositive, FeedbackNegative, FeedbackNeutral, FeedbackCorrection:
		return true
	default:
		return false
	}
}

func IsInteractionType(t string) bool {
	switch t {
	case InteractionChat, InteractionCommand, InteractionSuggestion:
		return true
	default:
		return false
	}
}

// FeedbackEvent is append-only: rows are inserted once and never updated.
type FeedbackEvent struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID          uuid.UUID `gorm:"type:uuid;not null;index:idx_feedback_user_created,priority:1" json:"user_id"`
	FeedbackType    string    `gorm:"column:feedback_type;not null;index" json:"feedback_type"`
	InteractionType string    `gorm:"column:interaction_type;not null;index" json:"interaction_type"`
	ReferenceID     string    `gorm:"column:reference_id;index" json:"reference_id,omitempty"`
	ReferenceType   string    `gorm:"column:reference_type" json:"reference_type,omitempty"`
	Rating          *int      `gorm:"column:rating" json:"rating,omitempty"`
	Comment         string    `gorm:"column:comment" json:"comment,omitempty"`
	OriginalMessage string    `gorm:"column:original_message" json:"original_message,omitempty"`
	AIResponse      string    `gorm:"column:ai_response" json:"ai_response,omitempty"`
	// Only set for correction feedback.
	CorrectedResponse string         `gorm:"column:corrected_response" json:"corrected_response,omitempty"`
	Context           datatypes.JSON `gorm:"column:context;type:jsonb" json:"context,omitempty"`
	CreatedAt         time.Time      `gorm:"not null;index:idx_feedback_user_created,priority:2" json:"created_at"`
}

func (FeedbackEvent) TableName() string { return "copilot_feedback" }

func (e *FeedbackEvent) IsCorrection() bool {
	return e != nil && e.FeedbackType == FeedbackCorrection
}
