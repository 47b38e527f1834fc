package session

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// logoutGuard reports whether a sign-out is underway, in which case the scheduler must not
// start a renewal that could race the teardown.
type logoutGuard interface {
	InProgress() bool
}

// Scheduler fires the renewal callback on a fixed interval while a session is active. It is
// restartable: Stop followed by Start begins a fresh run with a full interval.
type Scheduler struct {
	interval time.Duration
	refresh  func(context.Context)
	guard    logoutGuard

	mu      sync.Mutex
	running bool
	stopC   chan struct{}
}

func NewScheduler(interval time.Duration, refresh func(context.Context), guard logoutGuard) *Scheduler {
	return &Scheduler{interval: interval, refresh: refresh, guard: guard}
}

// Start begins the renewal loop. Calling Start on a running scheduler is a no-op, so at most
// one loop exists at a time.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.stopC = make(chan struct{})
	go s.loop(s.stopC)
	slog.Debug("renewal scheduler started", "interval", s.interval)
}

// Stop halts the loop. No new tick fires after Stop returns; a tick already executing is
// allowed to finish, which is why ticks re-check the logout guard. Stop may be called from
// within a tick callback. Safe to call when not running.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.running = false
	close(s.stopC)
	slog.Debug("renewal scheduler stopped")
}

// Running reports whether the renewal loop is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Scheduler) loop(stopC chan struct{}) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stopC:
			return
		case <-ticker.C:
			select {
			case <-stopC:
				return
			default:
			}
			if s.guard != nil && s.guard.InProgress() {
				// teardown owns the session right now
				slog.Debug("skipping renewal tick during sign-out")
				continue
			}
			s.refresh(context.Background())
		}
	}
}
