package main

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/savingsledger/internal/usecase"
)

type stubCollector struct {
	runs atomic.Int32
}

func (s *stubCollector) ApplyChargesDue(ctx context.Context, asOf time.Time) (usecase.ApplyChargesResult, error) {
	s.runs.Add(1)
	return usecase.ApplyChargesResult{}, nil
}

func TestRunSchedulerRunsImmediatelyAndOnTicks(t *testing.T) {
	collector := &stubCollector{}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		runScheduler(ctx, collector, 10*time.Millisecond, zerolog.Nop())
		close(done)
	}()

	deadline := time.After(time.Second)
	for collector.runs.Load() < 2 {
		select {
		case <-deadline:
			t.Fatalf("expected at least 2 scheduler passes, got %d", collector.runs.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop after cancel")
	}
}
