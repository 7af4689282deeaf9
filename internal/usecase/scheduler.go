package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"SignalWatch/internal/domain/models"
	"SignalWatch/pkg/cache"
	applogger "SignalWatch/pkg/logger"
)

// ErrCycleBusy is returned by TryRun when another cycle holds the lock.
var ErrCycleBusy = errors.New("evaluation cycle already running")

const cycleLockKey = "lock:evaluation-cycle"

// CycleRunner is what the trigger endpoint and the scheduler drive.
type CycleRunner interface {
	RunCycle(ctx context.Context) ([]models.Signal, error)
}

// Scheduler serializes cycles inside the process and optionally ticks them on an
// interval. With a shared cache it also takes a store lock so replicas skip a tick
// another replica is already running.
type Scheduler struct {
	cycle        CycleRunner
	lock         cache.Service
	logger       *applogger.Logger
	interval     time.Duration
	runOnStart   bool
	cycleTimeout time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewScheduler(cycle CycleRunner, lock cache.Service, l *applogger.Logger, interval, cycleTimeout time.Duration, runOnStart bool) *Scheduler {
	if cycleTimeout <= 0 {
		cycleTimeout = 2 * time.Minute
	}
	return &Scheduler{
		cycle:        cycle,
		lock:         lock,
		logger:       l,
		interval:     interval,
		runOnStart:   runOnStart,
		cycleTimeout: cycleTimeout,
	}
}

// RunCycle waits for any in-flight cycle, then runs one.
func (s *Scheduler) RunCycle(ctx context.Context) ([]models.Signal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cycle.RunCycle(ctx)
}

// TryRun runs a cycle unless one is already in progress here or, when a lock store
// is set, on another replica.
func (s *Scheduler) TryRun(ctx context.Context) ([]models.Signal, error) {
	if !s.mu.TryLock() {
		return nil, ErrCycleBusy
	}
	defer s.mu.Unlock()

	if s.lock != nil {
		ok, err := s.lock.TryLock(ctx, cycleLockKey, s.cycleTimeout)
		if err != nil {
			s.logger.Warn("cycle lock unavailable, running unlocked", applogger.Error(err))
		} else if !ok {
			return nil, ErrCycleBusy
		} else {
			defer func() {
				if err := s.lock.Unlock(context.WithoutCancel(ctx), cycleLockKey); err != nil {
					s.logger.Warn("release cycle lock", applogger.Error(err))
				}
			}()
		}
	}
	return s.cycle.RunCycle(ctx)
}

// Start begins ticking. It returns immediately; a zero interval disables ticking.
func (s *Scheduler) Start(ctx context.Context) {
	if s.interval <= 0 {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	go s.loop(ctx)
	s.logger.Info("scheduler started", applogger.Duration("interval_ms", s.interval), applogger.Bool("run_on_start", s.runOnStart))
}

func (s *Scheduler) loop(ctx context.Context) {
	defer s.wg.Done()

	if s.runOnStart {
		s.tick(ctx)
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, s.cycleTimeout)
	defer cancel()
	if _, err := s.TryRun(runCtx); errors.Is(err, ErrCycleBusy) {
		s.logger.Debug("scheduled cycle skipped, previous still running")
	}
}

// Shutdown stops ticking and waits for the running cycle, bounded by ctx.
func (s *Scheduler) Shutdown(ctx context.Context) error {
	if s.cancel == nil {
		return nil
	}
	s.cancel()
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
