package usecase

import (
	"context"
	"log/slog"
	"time"
)

// Scheduler runs scan cycles one after another: one immediately, then one
// interval after the previous cycle finished. Trigger requests an early
// cycle; requests made while a cycle runs collapse into one.
type Scheduler struct {
	index    *IndexUseCase
	root     string
	interval time.Duration
	logger   *slog.Logger
	trigger  chan struct{}
	cycles   chan *ScanResult
}

func NewScheduler(index *IndexUseCase, root string, interval time.Duration, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		index:    index,
		root:     root,
		interval: interval,
		logger:   logger.With("component", "scheduler"),
		trigger:  make(chan struct{}, 1),
	}
}

// Trigger asks for a cycle as soon as the current one, if any, is done.
func (s *Scheduler) Trigger() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

// Results returns a channel that receives the result of every successful
// cycle. It must be called before Run; sends never block, so a slow reader
// misses results.
func (s *Scheduler) Results() <-chan *ScanResult {
	if s.cycles == nil {
		s.cycles = make(chan *ScanResult, 16)
	}
	return s.cycles
}

// Run blocks until ctx is cancelled. Failed cycles are logged and retried
// at the next tick.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("scanner started", "root", s.root, "interval", s.interval)

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scanner stopped")
			return nil
		case <-timer.C:
		case <-s.trigger:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
		}

		s.runOnce(ctx)
		if ctx.Err() != nil {
			s.logger.Info("scanner stopped")
			return nil
		}
		timer.Reset(s.interval)
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	result, err := s.index.RunCycle(ctx, s.root, nil)
	if err != nil {
		return
	}
	if s.cycles != nil {
		select {
		case s.cycles <- result:
		default:
		}
	}
}
