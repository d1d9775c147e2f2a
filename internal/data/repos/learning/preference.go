package learning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/suggestion-engine/internal/domain"
	"github.com/yungbote/suggestion-engine/internal/platform/dbctx"
	"github.com/yungbote/suggestion-engine/internal/platform/logger"
)

type PreferenceRepo interface {
	Upsert(dbc dbctx.Context, p *types.Preference) (*types.Preference, bool, error)
	GetByKey(dbc dbctx.Context, userID uuid.UUID, prefType, key string) (*types.Preference, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID, prefType string) ([]*types.Preference, error)
}

type preferenceRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPreferenceRepo(db *gorm.DB, baseLog *logger.Logger) PreferenceRepo {
	return &preferenceRepo{
		db:  db,
		log: baseLog.With("repo", "PreferenceRepo"),
	}
}

// Upsert is last-write-wins on (user_id, preference_type, preference_key),
// ordered by SourceAt: a row whose stored source_at is newer than the incoming
// one is left untouched. It returns the stored row and whether the write applied.
func (r *preferenceRepo) Upsert(dbc dbctx.Context, p *types.Preference) (*types.Preference, bool, error) {
	now := time.Now().UTC()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.SourceAt == nil {
		p.SourceAt = &now
	} else {
		at := p.SourceAt.UTC()
		p.SourceAt = &at
	}
	p.UpdatedAt = now
	conn := dbc.Conn(r.db)
	res := conn.
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "preference_type"}, {Name: "preference_key"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"preference_value",
				"confidence",
				"source",
				"source_feedback_id",
				"source_at",
				"updated_at",
			}),
			Where: clause.Where{Exprs: []clause.Expression{
				clause.Expr{SQL: "(copilot_preference.source_at IS NULL OR copilot_preference.source_at <= excluded.source_at)"},
			}},
		}).
		Create(p)
	if res.Error != nil {
		return nil, false, res.Error
	}
	applied := res.RowsAffected > 0
	var stored types.Preference
	if err := conn.
		Where("user_id = ? AND preference_type = ? AND preference_key = ?", p.UserID, p.PreferenceType, p.PreferenceKey).
		First(&stored).Error; err != nil {
		return nil, false, err
	}
	if !applied {
		r.log.Debug("stale preference write skipped",
			"user_id", p.UserID,
			"preference_type", p.PreferenceType,
			"preference_key", p.PreferenceKey,
		)
	}
	return &stored, applied, nil
}

// GetByKey returns nil, nil when absent.
func (r *preferenceRepo) GetByKey(dbc dbctx.Context, userID uuid.UUID, prefType, key string) (*types.Preference, error) {
	var p types.Preference
	err := dbc.Conn(r.db).
		Where("user_id = ? AND preference_type = ? AND preference_key = ?", userID, prefType, key).
		Limit(1).
		Find(&p).Error
	if err != nil {
		return nil, err
	}
	if p.ID == uuid.Nil {
		return nil, nil
	}
	return &p, nil
}

func (r *preferenceRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID, prefType string) ([]*types.Preference, error) {
	out := []*types.Preference{}
	if userID == uuid.Nil {
		return out, nil
	}
	q := dbc.Conn(r.db).Where("user_id = ?", userID)
	if prefType != "" {
		q = q.Where("preference_type = ?", prefType)
	}
	if err := q.Order("confidence DESC").Order("updated_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
