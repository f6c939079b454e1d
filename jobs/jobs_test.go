package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
)

type stubPruner struct {
	cutoff  time.Time
	removed int64
	err     error
}

func (s *stubPruner) PruneBefore(_ context.Context, cutoff time.Time) (int64, error) {
	s.cutoff = cutoff
	return s.removed, s.err
}

func TestAuditPruneUsesConfiguredRetention(t *testing.T) {
	pruner := &stubPruner{removed: 3}
	job := NewAuditPruneJob(pruner, 48*time.Hour, nil, nil)
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	job.clock = func() time.Time { return now }

	task, err := NewAuditPruneTask(0)
	if err != nil {
		t.Fatalf("build task: %v", err)
	}
	if err := job.Handle(context.Background(), task); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if want := now.Add(-48 * time.Hour); !pruner.cutoff.Equal(want) {
		t.Fatalf("cutoff = %v, want %v", pruner.cutoff, want)
	}
}

func TestAuditPrunePayloadOverridesRetention(t *testing.T) {
	pruner := &stubPruner{}
	job := NewAuditPruneJob(pruner, 48*time.Hour, nil, nil)
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	job.clock = func() time.Time { return now }

	task, err := NewAuditPruneTask(24)
	if err != nil {
		t.Fatalf("build task: %v", err)
	}
	if err := job.Handle(context.Background(), task); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if want := now.Add(-24 * time.Hour); !pruner.cutoff.Equal(want) {
		t.Fatalf("cutoff = %v, want %v", pruner.cutoff, want)
	}
}

func TestAuditPruneSkipsRetryOnMalformedPayload(t *testing.T) {
	job := NewAuditPruneJob(&stubPruner{}, time.Hour, nil, nil)
	task := asynq.NewTask(TaskAuditPrune, []byte("{not json"))

	if err := job.Handle(context.Background(), task); !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected SkipRetry, got %v", err)
	}
}

func TestAuditPrunePropagatesStoreError(t *testing.T) {
	wantErr := errors.New("boom")
	job := NewAuditPruneJob(&stubPruner{err: wantErr}, time.Hour, nil, nil)

	task, err := NewAuditPruneTask(0)
	if err != nil {
		t.Fatalf("build task: %v", err)
	}
	if err := job.Handle(context.Background(), task); !errors.Is(err, wantErr) {
		t.Fatalf("expected %v, got %v", wantErr, err)
	}
}
