package session

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/divvyapp/divvy/events"
)

// LoginLocation is where the shell lands after sign-out.
const LoginLocation = "/login"

// Navigator is the UI shell's navigation surface. NavigateToLogin must not return until the
// login view is fully loaded; the logout guard is held for its entire duration.
type Navigator interface {
	CurrentLocation() string
	NavigateToLogin()
}

// LoggedOutEvent is broadcast after local session state has been cleared.
type LoggedOutEvent struct{}

const (
	guardIdle int32 = iota
	guardLoggingOut
)

type stopper interface {
	Stop()
}

// LogoutCoordinator tears the session down exactly once no matter how many callers race into
// it. The losers of the race return immediately; the winner stops renewals, clears local
// state, best-effort invalidates the backend session, and navigates to the login view.
type LogoutCoordinator struct {
	backend   signOutBackend
	store     *Store
	navigator Navigator
	scheduler stopper

	guard atomic.Int32
}

type signOutBackend interface {
	SignOut(ctx context.Context) error
}

func NewLogoutCoordinator(backend signOutBackend, store *Store, navigator Navigator) *LogoutCoordinator {
	return &LogoutCoordinator{backend: backend, store: store, navigator: navigator}
}

// InProgress reports whether a sign-out currently owns the session.
func (lc *LogoutCoordinator) InProgress() bool {
	return lc.guard.Load() == guardLoggingOut
}

// Logout performs the teardown. Concurrent and re-entrant calls while one is underway are
// no-ops. Local state is always cleared even when the backend call fails.
func (lc *LogoutCoordinator) Logout(ctx context.Context) {
	if !lc.guard.CompareAndSwap(guardIdle, guardLoggingOut) {
		slog.Debug("sign-out already in progress")
		return
	}

	// A late failure resolving after a completed teardown finds the session already gone;
	// there is nothing left to tear down a second time.
	if lc.store.User() == nil {
		lc.guard.Store(guardIdle)
		return
	}

	if lc.scheduler != nil {
		lc.scheduler.Stop()
	}

	// Backend invalidation is best effort; the local session dies regardless.
	if err := lc.backend.SignOut(ctx); err != nil {
		slog.Warn("backend sign-out failed", "error", err)
	}

	lc.store.SetUser(nil)
	lc.store.SetLoading(false)
	events.Emit(LoggedOutEvent{})
	slog.Info("signed out")

	if lc.navigator == nil || lc.navigator.CurrentLocation() == LoginLocation {
		lc.guard.Store(guardIdle)
		return
	}
	// The guard stays held until the login view has replaced whatever was on screen, so
	// nothing restarts a session against a half-torn-down UI.
	lc.navigator.NavigateToLogin()
	lc.guard.Store(guardIdle)
}
