package scheduler

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tutorhub/tutorhub-backend/internal/domain"
)

func TestSchedulerRunsExecutePass(t *testing.T) {
	var calls int32
	fired := make(chan struct{}, 1)

	s := New(5*time.Millisecond, func(now time.Time) (*domain.ExecuteResult, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			fired <- struct{}{}
		}
		return &domain.ExecuteResult{}, nil
	})

	s.Start()
	defer s.Stop()

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("execute-pass was not triggered")
	}
}

func TestSchedulerStopHaltsTicker(t *testing.T) {
	var calls int32

	s := New(5*time.Millisecond, func(now time.Time) (*domain.ExecuteResult, error) {
		atomic.AddInt32(&calls, 1)
		return &domain.ExecuteResult{}, nil
	})

	s.Start()
	time.Sleep(30 * time.Millisecond)
	s.Stop()

	after := atomic.LoadInt32(&calls)
	time.Sleep(30 * time.Millisecond)
	if got := atomic.LoadInt32(&calls); got != after {
		t.Errorf("execute-pass fired after Stop: %d -> %d", after, got)
	}
}

func TestSchedulerStopIsIdempotent(t *testing.T) {
	s := New(time.Minute, func(now time.Time) (*domain.ExecuteResult, error) {
		return &domain.ExecuteResult{}, nil
	})

	s.Start()
	s.Stop()
	s.Stop()
}

func TestSchedulerSurvivesPassFailure(t *testing.T) {
	var calls int32
	second := make(chan struct{}, 1)

	s := New(5*time.Millisecond, func(now time.Time) (*domain.ExecuteResult, error) {
		if atomic.AddInt32(&calls, 1) == 2 {
			second <- struct{}{}
		}
		return nil, errors.New("store unavailable")
	})

	s.Start()
	defer s.Stop()

	// A failing pass must not kill the ticker loop
	select {
	case <-second:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler stopped ticking after a failed pass")
	}
}
