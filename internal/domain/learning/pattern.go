package learning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	PatternTemporal        = "temporal"
	PatternCommand         = "command"
	PatternProjectAffinity = "project_affinity"
)

// PatternTypes lists the detectors in the order they run.
var PatternTypes = []string{PatternTemporal, PatternCommand, PatternProjectAffinity}

type Pattern struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       uuid.UUID      `gorm:"type:uuid;not null;index:idx_pattern_signature,unique,priority:1" json:"user_id"`
	PatternType  string         `gorm:"column:pattern_type;not null;index:idx_pattern_signature,unique,priority:2" json:"pattern_type"`
	Signature    string         `gorm:"column:signature;not null;index:idx_pattern_signature,unique,priority:3" json:"signature"`
	Description  string         `gorm:"column:description" json:"description,omitempty"`
	PatternData  datatypes.JSON `gorm:"column:pattern_data;type:jsonb" json:"pattern_data,omitempty"`
	SupportCount int            `gorm:"column:support_count;not null;default:0" json:"support_count"`
	Confidence   float64        `gorm:"column:confidence;not null;default:0;index" json:"confidence"`
	FirstSeenAt  time.Time      `gorm:"column:first_seen_at;not null" json:"first_seen_at"`
	// LastSeenAt is the newest feedback event counted into SupportCount.
	LastSeenAt time.Time `gorm:"column:last_seen_at;not null" json:"last_seen_at"`
	IsActive   bool      `gorm:"column:is_active;not null;default:true;index" json:"is_active"`
	Version    int       `gorm:"column:version;not null;default:0" json:"-"`
	CreatedAt  time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time `gorm:"not null" json:"updated_at"`
}

func (Pattern) TableName() string { return "copilot_pattern" }
