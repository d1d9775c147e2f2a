package learning

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/suggestion-engine/internal/data/repos/testutil"
	types "github.com/yungbote/suggestion-engine/internal/domain"
	apperr "github.com/yungbote/suggestion-engine/internal/pkg/errors"
	"github.com/yungbote/suggestion-engine/internal/platform/dbctx"
)

func TestFeedbackEventRepo(t *testing.T) {
	db := testutil.DB(t)
	repo := NewFeedbackEventRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background()}

	userID := uuid.New()
	now := time.Now().UTC()
	var ids []uuid.UUID
	for i := 0; i < 4; i++ {
		ev, err := repo.Create(dbc, &types.FeedbackEvent{
			UserID:          userID,
			FeedbackType:    types.FeedbackPositive,
			InteractionType: "command",
			OriginalMessage: "Tạo bài post",
			CreatedAt:       now.Add(time.Duration(i-4) * time.Hour),
		})
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		if ev.ID == uuid.Nil {
			t.Fatalf("Create: expected generated id")
		}
		ids = append(ids, ev.ID)
	}

	got, err := repo.ListRecentByUser(dbc, userID, 3, time.Time{})
	if err != nil {
		t.Fatalf("ListRecentByUser: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("ListRecentByUser: want=3 got=%d", len(got))
	}
	if got[0].ID != ids[3] {
		t.Fatalf("ListRecentByUser: want newest first")
	}

	bounded, err := repo.ListRecentByUser(dbc, userID, 0, now.Add(-150*time.Minute))
	if err != nil {
		t.Fatalf("ListRecentByUser since: %v", err)
	}
	if len(bounded) != 2 {
		t.Fatalf("ListRecentByUser since: want=2 got=%d", len(bounded))
	}

	if n, err := repo.CountByUser(dbc, userID); err != nil || n != 4 {
		t.Fatalf("CountByUser: want=4 got=%d err=%v", n, err)
	}

	ev, err := repo.GetByID(dbc, ids[0])
	if err != nil || ev.UserID != userID {
		t.Fatalf("GetByID: err=%v", err)
	}
	if _, err := repo.GetByID(dbc, uuid.New()); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("GetByID missing: want ErrNotFound got=%v", err)
	}
}
