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

type PatternRepo interface {
	GetBySignature(dbc dbctx.Context, userID uuid.UUID, patternType, signature string) (*types.Pattern, error)
	InsertIgnore(dbc dbctx.Context, p *types.Pattern) (bool, error)
	UpdateIfVersion(dbc dbctx.Context, id uuid.UUID, version int, updates map[string]interface{}) (bool, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID, patternType string, activeOnly bool) ([]*types.Pattern, error)
}

type patternRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPatternRepo(db *gorm.DB, baseLog *logger.Logger) PatternRepo {
	return &patternRepo{
		db:  db,
		log: baseLog.With("repo", "PatternRepo"),
	}
}

// GetBySignature returns nil, nil when no pattern exists for the key.
func (r *patternRepo) GetBySignature(dbc dbctx.Context, userID uuid.UUID, patternType, signature string) (*types.Pattern, error) {
	var p types.Pattern
	err := dbc.Conn(r.db).
		Where("user_id = ? AND pattern_type = ? AND signature = ?", userID, patternType, signature).
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

// InsertIgnore reports false when a row with the same (user, type, signature)
// already exists; the caller then takes the update path.
func (r *patternRepo) InsertIgnore(dbc dbctx.Context, p *types.Pattern) (bool, error) {
	now := time.Now().UTC()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = now
	}
	p.IsActive = true
	res := dbc.Conn(r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "pattern_type"}, {Name: "signature"}},
			DoNothing: true,
		}).
		Create(p)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// UpdateIfVersion applies updates only while the stored version still equals
// version, bumping it. False means another writer got there first.
func (r *patternRepo) UpdateIfVersion(dbc dbctx.Context, id uuid.UUID, version int, updates map[string]interface{}) (bool, error) {
	if id == uuid.Nil {
		return false, nil
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}
	updates["version"] = gorm.Expr("version + 1")
	res := dbc.Conn(r.db).
		Model(&types.Pattern{}).
		Where("id = ? AND version = ?", id, version).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *patternRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID, patternType string, activeOnly bool) ([]*types.Pattern, error) {
	out := []*types.Pattern{}
	if userID == uuid.Nil {
		return out, nil
	}
	q := dbc.Conn(r.db).Where("user_id = ?", userID)
	if patternType != "" {
		q = q.Where("pattern_type = ?", patternType)
	}
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	if err := q.Order("confidence DESC").Order("support_count DESC").Order("signature ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
