package learning

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/suggestion-engine/internal/domain"
	domainlearning "github.com/yungbote/suggestion-engine/internal/domain/learning"
	apperr "github.com/yungbote/suggestion-engine/internal/pkg/errors"
	"github.com/yungbote/suggestion-engine/internal/platform/dbctx"
	"github.com/yungbote/suggestion-engine/internal/platform/logger"
)

type SuggestionFilter struct {
	// MinPriority keeps suggestions at or above this priority.
	MinPriority      string
	ProjectID        *string
	IncludeDismissed bool
	IncludeExecuted  bool
	Since            time.Time
	Limit            int
}

type SuggestionRepo interface {
	ActiveTitles(dbc dbctx.Context, userID uuid.UUID) (map[string]bool, error)
	InsertIfNoActiveTitle(dbc dbctx.Context, s *types.Suggestion) (bool, error)
	List(dbc dbctx.Context, userID uuid.UUID, f SuggestionFilter) ([]*types.Suggestion, error)
	GetForUser(dbc dbctx.Context, userID, id uuid.UUID) (*types.Suggestion, error)
	MarkExecuted(dbc dbctx.Context, userID, id uuid.UUID, at time.Time, result datatypes.JSON) (bool, error)
	MarkDismissed(dbc dbctx.Context, userID, id uuid.UUID, at time.Time) (bool, error)
}

type suggestionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSuggestionRepo(db *gorm.DB, baseLog *logger.Logger) SuggestionRepo {
	return &suggestionRepo{
		db:  db,
		log: baseLog.With("repo", "SuggestionRepo"),
	}
}

const activeClause = "executed_at IS NULL AND dismissed_at IS NULL"

const priorityOrder = "CASE priority WHEN 'high' THEN 3 WHEN 'medium' THEN 2 WHEN 'low' THEN 1 ELSE 0 END DESC"

func (r *suggestionRepo) ActiveTitles(dbc dbctx.Context, userID uuid.UUID) (map[string]bool, error) {
	out := map[string]bool{}
	if userID == uuid.Nil {
		return out, nil
	}
	var titles []string
	if err := dbc.Conn(r.db).
		Model(&types.Suggestion{}).
		Where("user_id = ? AND "+activeClause, userID).
		Pluck("title", &titles).Error; err != nil {
		return nil, err
	}
	for _, t := range titles {
		out[t] = true
	}
	return out, nil
}

// InsertIfNoActiveTitle relies on the partial unique index over active
// (user_id, title); false means an active row with that title already exists.
func (r *suggestionRepo) InsertIfNoActiveTitle(dbc dbctx.Context, s *types.Suggestion) (bool, error) {
	now := time.Now().UTC()
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = now
	}
	res := dbc.Conn(r.db).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(s)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *suggestionRepo) List(dbc dbctx.Context, userID uuid.UUID, f SuggestionFilter) ([]*types.Suggestion, error) {
	out := []*types.Suggestion{}
	if userID == uuid.Nil {
		return out, nil
	}
	q := dbc.Conn(r.db).Where("user_id = ?", userID)
	if !f.IncludeExecuted {
		q = q.Where("executed_at IS NULL")
	}
	if !f.IncludeDismissed {
		q = q.Where("dismissed_at IS NULL")
	}
	if allowed := prioritiesAtLeast(f.MinPriority); len(allowed) > 0 {
		q = q.Where("priority IN ?", allowed)
	}
	if f.ProjectID != nil && *f.ProjectID != "" {
		// Project-less suggestions stay visible under a project filter.
		q = q.Where("(project_id = ? OR project_id IS NULL)", *f.ProjectID)
	}
	if !f.Since.IsZero() {
		q = q.Where("created_at >= ?", f.Since.UTC())
	}
	q = q.Order("confidence DESC").Order(priorityOrder).Order("created_at DESC")
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func prioritiesAtLeast(min string) []string {
	rank := domainlearning.PriorityRank(min)
	if rank == 0 {
		return nil
	}
	var out []string
	for _, p := range []string{domainlearning.PriorityHigh, domainlearning.PriorityMedium, domainlearning.PriorityLow} {
		if domainlearning.PriorityRank(p) >= rank {
			out = append(out, p)
		}
	}
	return out
}

// GetForUser hides other users' rows behind ErrNotFound.
func (r *suggestionRepo) GetForUser(dbc dbctx.Context, userID, id uuid.UUID) (*types.Suggestion, error) {
	if userID == uuid.Nil || id == uuid.Nil {
		return nil, apperr.ErrNotFound
	}
	var s types.Suggestion
	err := dbc.Conn(r.db).Where("id = ? AND user_id = ?", id, userID).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *suggestionRepo) MarkExecuted(dbc dbctx.Context, userID, id uuid.UUID, at time.Time, result datatypes.JSON) (bool, error) {
	updates := map[string]interface{}{
		"executed_at": at.UTC(),
		"updated_at":  at.UTC(),
	}
	if len(result) > 0 {
		updates["execution_result"] = result
	}
	return r.transition(dbc, userID, id, updates)
}

func (r *suggestionRepo) MarkDismissed(dbc dbctx.Context, userID, id uuid.UUID, at time.Time) (bool, error) {
	return r.transition(dbc, userID, id, map[string]interface{}{
		"dismissed_at": at.UTC(),
		"updated_at":   at.UTC(),
	})
}

// transition only touches rows still in the proposed state.
func (r *suggestionRepo) transition(dbc dbctx.Context, userID, id uuid.UUID, updates map[string]interface{}) (bool, error) {
	if userID == uuid.Nil || id == uuid.Nil {
		return false, nil
	}
	res := dbc.Conn(r.db).
		Model(&types.Suggestion{}).
		Where("id = ? AND user_id = ? AND "+activeClause, id, userID).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
