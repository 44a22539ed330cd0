package scheduler

import (
	"sync"
	"time"

	"github.com/tutorhub/tutorhub-backend/internal/domain"
	"github.com/tutorhub/tutorhub-backend/pkg/logger"
)

// ExecutePassFunc runs one execute-pass over the scheduled action queue.
// The current time is passed in so the pass itself never reads a wall
// clock, which keeps it deterministic under test.
type ExecutePassFunc func(now time.Time) (*domain.ExecuteResult, error)

// Scheduler drives the execute-pass from an in-process ticker. It is a
// trigger only; all claim/ordering guarantees live in the lifecycle
// service, so running several replicas of the process is safe.
type Scheduler struct {
	interval time.Duration
	execute  ExecutePassFunc
	stop     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// New creates a scheduler that runs execute every interval
func New(interval time.Duration, execute ExecutePassFunc) *Scheduler {
	return &Scheduler{
		interval: interval,
		execute:  execute,
		stop:     make(chan struct{}),
	}
}

// Start launches the background ticker goroutine
func (s *Scheduler) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.stop:
				return
			case now := <-ticker.C:
				s.tick(now)
			}
		}
	}()
	logger.Info("Lifecycle scheduler started (interval=%s)", s.interval)
}

// Stop halts the ticker and waits for an in-flight pass to finish
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
	s.wg.Wait()
	logger.Info("Lifecycle scheduler stopped")
}

func (s *Scheduler) tick(now time.Time) {
	result, err := s.execute(now)
	if err != nil {
		logger.Error("Execute-pass failed: %v", err)
		return
	}
	if result.ExecutedCount > 0 || len(result.Errors) > 0 {
		logger.Info("Execute-pass: %d executed, %d failed", result.ExecutedCount, len(result.Errors))
	}
}
