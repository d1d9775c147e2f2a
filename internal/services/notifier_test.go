package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/suggestion-engine/internal/data/repos/testutil"
	types "github.com/yungbote/suggestion-engine/internal/domain"
	apperr "github.com/yungbote/suggestion-engine/internal/pkg/errors"
	"github.com/yungbote/suggestion-engine/internal/realtime"
)

type captureBus struct {
	msgs []realtime.Message
	err  error
}

func (b *captureBus) Publish(ctx context.Context, msg realtime.Message) error {
	b.msgs = append(b.msgs, msg)
	return b.err
}
func (b *captureBus) Close() error { return nil }

func TestNotifierPublishesPerUserChannel(t *testing.T) {
	b := &captureBus{}
	n := NewNotifier(b, testutil.Logger(t))
	user := uuid.New()
	job := &types.JobRun{ID: uuid.New(), JobType: types.JobBatchLearn}

	n.JobProgress(user, job, "patterns", 40, "detecting")
	n.SuggestionsGenerated(user, nil)
	n.SuggestionsGenerated(user, []*types.Suggestion{{ID: uuid.New()}, {ID: uuid.New()}})
	n.JobDone(uuid.Nil, job)

	if len(b.msgs) != 2 {
		t.Fatalf("messages: want=2 got=%d", len(b.msgs))
	}
	if b.msgs[0].Channel != user.String() || b.msgs[0].Event != realtime.EventJobProgress {
		t.Fatalf("progress message: got=%+v", b.msgs[0])
	}
	if b.msgs[0].Data["progress"] != 40 || b.msgs[0].Data["job_type"] != types.JobBatchLearn {
		t.Fatalf("progress data: got=%v", b.msgs[0].Data)
	}
	if b.msgs[1].Event != realtime.EventSuggestionsGenerated || b.msgs[1].Data["count"] != 2 {
		t.Fatalf("generated message: got=%+v", b.msgs[1])
	}
}

func TestNotifierSwallowsPublishErrors(t *testing.T) {
	b := &captureBus{err: errors.New("redis down")}
	n := NewNotifier(b, testutil.Logger(t))
	n.JobFailed(uuid.New(), nil, "run", "boom")
	if len(b.msgs) != 1 || b.msgs[0].Data["job_id"] != uuid.Nil {
		t.Fatalf("failed message: got=%+v", b.msgs)
	}
}

func TestJobServiceWithoutTemporal(t *testing.T) {
	e := newTestEnv(t)
	owner := uuid.New()

	job, err := e.jobs.Enqueue(e.dbc(), owner, types.JobBatchLearn, "user", &owner, map[string]any{"generate": true})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if job.Status != "queued" || string(job.Result) != "{}" {
		t.Fatalf("queued job: got=%+v", job)
	}
	if err := e.jobs.Dispatch(e.dbc(), job.ID); err != nil {
		t.Fatalf("Dispatch without temporal: %v", err)
	}

	got, err := e.jobs.GetForUser(e.dbc(), owner, job.ID)
	if err != nil || got.ID != job.ID {
		t.Fatalf("GetForUser: got=%+v err=%v", got, err)
	}
	if _, err := e.jobs.GetForUser(e.dbc(), uuid.New(), job.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("other user: want ErrNotFound got=%v", err)
	}
	if _, err := e.jobs.GetForUser(e.dbc(), uuid.Nil, job.ID); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Fatalf("nil user: want ErrUnauthorized got=%v", err)
	}
	if _, err := e.jobs.Enqueue(e.dbc(), owner, "", "", nil, nil); !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Fatalf("missing type: want ErrInvalidArgument got=%v", err)
	}

	tx := testutil.Tx(t, e.db)
	if !isDBTransaction(tx) {
		t.Fatalf("begin tx should be detected as a transaction")
	}
	if isDBTransaction(e.db) {
		t.Fatalf("pool must not be detected as a transaction")
	}
}
