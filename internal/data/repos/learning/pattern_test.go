package learning

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/suggestion-engine/internal/data/repos/testutil"
	types "github.com/yungbote/suggestion-engine/internal/domain"
	"github.com/yungbote/suggestion-engine/internal/platform/dbctx"
)

func TestPatternRepoInsertAndCAS(t *testing.T) {
	db := testutil.DB(t)
	repo := NewPatternRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background()}

	userID := uuid.New()
	now := time.Now().UTC()
	p := &types.Pattern{
		UserID:       userID,
		PatternType:  types.PatternCommand,
		Signature:    "tạo bài post",
		SupportCount: 3,
		Confidence:   0.3,
		FirstSeenAt:  now.Add(-time.Hour),
		LastSeenAt:   now,
	}
	inserted, err := repo.InsertIgnore(dbc, p)
	if err != nil || !inserted {
		t.Fatalf("InsertIgnore: inserted=%v err=%v", inserted, err)
	}

	dup := &types.Pattern{
		UserID:       userID,
		PatternType:  types.PatternCommand,
		Signature:    "tạo bài post",
		SupportCount: 9,
		FirstSeenAt:  now,
		LastSeenAt:   now,
	}
	inserted, err = repo.InsertIgnore(dbc, dup)
	if err != nil {
		t.Fatalf("InsertIgnore dup: %v", err)
	}
	if inserted {
		t.Fatalf("InsertIgnore dup: want=false got=true")
	}

	stored, err := repo.GetBySignature(dbc, userID, types.PatternCommand, "tạo bài post")
	if err != nil || stored == nil {
		t.Fatalf("GetBySignature: stored=%v err=%v", stored, err)
	}
	if stored.SupportCount != 3 {
		t.Fatalf("support: want=3 got=%d", stored.SupportCount)
	}

	ok, err := repo.UpdateIfVersion(dbc, stored.ID, stored.Version, map[string]interface{}{"support_count": 4})
	if err != nil || !ok {
		t.Fatalf("UpdateIfVersion: ok=%v err=%v", ok, err)
	}
	// Stale version loses.
	ok, err = repo.UpdateIfVersion(dbc, stored.ID, stored.Version, map[string]interface{}{"support_count": 99})
	if err != nil {
		t.Fatalf("UpdateIfVersion stale: %v", err)
	}
	if ok {
		t.Fatalf("UpdateIfVersion stale: want=false got=true")
	}

	after, _ := repo.GetBySignature(dbc, userID, types.PatternCommand, "tạo bài post")
	if after.SupportCount != 4 || after.Version != stored.Version+1 {
		t.Fatalf("after CAS: support=%d version=%d", after.SupportCount, after.Version)
	}

	missing, err := repo.GetBySignature(dbc, userID, types.PatternTemporal, "hour:09")
	if err != nil || missing != nil {
		t.Fatalf("GetBySignature missing: want nil got=%v err=%v", missing, err)
	}
}

func TestPatternRepoListByUser(t *testing.T) {
	db := testutil.DB(t)
	repo := NewPatternRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background()}

	userID := uuid.New()
	now := time.Now().UTC()
	for i, sig := range []string{"hour:08", "hour:09", "hour:10"} {
		_, err := repo.InsertIgnore(dbc, &types.Pattern{
			UserID:       userID,
			PatternType:  types.PatternTemporal,
			Signature:    sig,
			SupportCount: 3 + i,
			Confidence:   float64(3+i) / 10,
			FirstSeenAt:  now,
			LastSeenAt:   now,
		})
		if err != nil {
			t.Fatalf("InsertIgnore: %v", err)
		}
	}
	if _, err := repo.InsertIgnore(dbc, &types.Pattern{
		UserID:       userID,
		PatternType:  types.PatternProjectAffinity,
		Signature:    "proj-1",
		SupportCount: 3,
		Confidence:   0.3,
		FirstSeenAt:  now,
		LastSeenAt:   now,
	}); err != nil {
		t.Fatalf("InsertIgnore: %v", err)
	}

	all, err := repo.ListByUser(dbc, userID, "", true)
	if err != nil || len(all) != 4 {
		t.Fatalf("ListByUser: len=%d err=%v", len(all), err)
	}
	temporal, err := repo.ListByUser(dbc, userID, types.PatternTemporal, true)
	if err != nil || len(temporal) != 3 {
		t.Fatalf("ListByUser temporal: len=%d err=%v", len(temporal), err)
	}
	if temporal[0].Signature != "hour:10" {
		t.Fatalf("ListByUser order: want=hour:10 got=%s", temporal[0].Signature)
	}
}
