package learning

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/suggestion-engine/internal/domain"
	apperr "github.com/yungbote/suggestion-engine/internal/pkg/errors"
	"github.com/yungbote/suggestion-engine/internal/platform/dbctx"
	"github.com/yungbote/suggestion-engine/internal/platform/logger"
)

// FeedbackEventRepo is append-only; there is deliberately no update or delete.
type FeedbackEventRepo interface {
	Create(dbc dbctx.Context, ev *types.FeedbackEvent) (*types.FeedbackEvent, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.FeedbackEvent, error)
	ListRecentByUser(dbc dbctx.Context, userID uuid.UUID, limit int, since time.Time) ([]*types.FeedbackEvent, error)
	CountByUser(dbc dbctx.Context, userID uuid.UUID) (int64, error)
}

type feedbackEventRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewFeedbackEventRepo(db *gorm.DB, baseLog *logger.Logger) FeedbackEventRepo {
	return &feedbackEventRepo{
		db:  db,
		log: baseLog.With("repo", "FeedbackEventRepo"),
	}
}

func (r *feedbackEventRepo) Create(dbc dbctx.Context, ev *types.FeedbackEvent) (*types.FeedbackEvent, error) {
	if ev == nil {
		return nil, fmt.Errorf("nil feedback event")
	}
	if ev.ID == uuid.Nil {
		ev.ID = uuid.New()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}
	if err := dbc.Conn(r.db).Create(ev).Error; err != nil {
		return nil, err
	}
	return ev, nil
}

func (r *feedbackEventRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.FeedbackEvent, error) {
	if id == uuid.Nil {
		return nil, apperr.ErrNotFound
	}
	var ev types.FeedbackEvent
	err := dbc.Conn(r.db).Where("id = ?", id).First(&ev).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ev, nil
}

// ListRecentByUser returns the newest events first. A zero since disables the
// time bound; limit <= 0 disables the row bound.
func (r *feedbackEventRepo) ListRecentByUser(dbc dbctx.Context, userID uuid.UUID, limit int, since time.Time) ([]*types.FeedbackEvent, error) {
	out := []*types.FeedbackEvent{}
	if userID == uuid.Nil {
		return out, nil
	}
	q := dbc.Conn(r.db).Where("user_id = ?", userID)
	if !since.IsZero() {
		q = q.Where("created_at >= ?", since.UTC())
	}
	q = q.Order("created_at DESC").Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *feedbackEventRepo) CountByUser(dbc dbctx.Context, userID uuid.UUID) (int64, error) {
	var n int64
	err := dbc.Conn(r.db).Model(&types.FeedbackEvent{}).Where("user_id = ?", userID).Count(&n).Error
	return n, err
}
