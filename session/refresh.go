package session

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"github.com/divvyapp/divvy/api"
)

// refreshKey collapses all concurrent renewal attempts into one backend exchange.
const refreshKey = "session-refresh"

// RefreshCoordinator renews the access credential and re-verifies the identity behind it.
// Concurrent callers share a single in-flight renewal and all receive its outcome.
type RefreshCoordinator struct {
	backend api.AuthBackend
	store   *Store
	logout  *LogoutCoordinator
	group   singleflight.Group
}

func NewRefreshCoordinator(backend api.AuthBackend, store *Store, logout *LogoutCoordinator) *RefreshCoordinator {
	return &RefreshCoordinator{backend: backend, store: store, logout: logout}
}

// Refresh renews the credential and returns whether the session is still valid afterwards.
// False covers both a torn-down session and a transient failure that left it untouched;
// callers that need to distinguish can check the store.
func (rc *RefreshCoordinator) Refresh(ctx context.Context) bool {
	v, _, _ := rc.group.Do(refreshKey, func() (any, error) {
		return rc.doRefresh(ctx), nil
	})
	return v.(bool)
}

func (rc *RefreshCoordinator) doRefresh(ctx context.Context) bool {
	if err := rc.backend.Renew(ctx); err != nil {
		switch {
		case errors.Is(err, api.ErrAuthentication):
			slog.Warn("credential renewal rejected, signing out", "error", err)
			rc.logout.Logout(ctx)
		case errors.Is(err, api.ErrTransient):
			// the session may still be fine, leave it alone and let the next tick retry
			slog.Debug("credential renewal failed transiently", "error", err)
		default:
			slog.Error("credential renewal failed", "error", err)
		}
		return false
	}

	// The renewed credential is only trusted once the backend confirms who it belongs to.
	user, err := rc.backend.CurrentUser(ctx)
	if err != nil {
		if errors.Is(err, api.ErrTransient) {
			slog.Debug("post-renewal verification failed transiently", "error", err)
			return false
		}
		slog.Warn("post-renewal verification rejected, signing out", "error", err)
		rc.logout.Logout(ctx)
		return false
	}
	rc.store.SetUser(user)
	return true
}
