package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/divvyapp/divvy/api"
)

// Result is the outcome of a login or signup attempt, shaped for direct display: either it
// succeeded, or the backend wants a second factor, or Message explains the failure.
type Result struct {
	Success     bool
	RequiresMFA bool
	Message     string
}

// Config carries the manager's collaborators. Backend is required; a nil Navigator disables
// navigation on sign-out.
type Config struct {
	Backend         api.AuthBackend
	Navigator       Navigator
	RenewalInterval time.Duration
}

// Manager is the session facade the application shell talks to. It owns the store, the
// background renewal loop, and the single-teardown sign-out path.
type Manager struct {
	backend api.AuthBackend
	store   *Store
	logout  *LogoutCoordinator
	refresh *RefreshCoordinator
	sched   *Scheduler

	hydrateOnce sync.Once
	// overlapping operations share one loading phase
	loadingOps atomic.Int32
}

func NewManager(conf Config) *Manager {
	if conf.RenewalInterval <= 0 {
		conf.RenewalInterval = 14 * time.Minute
	}
	store := NewStore()
	lc := NewLogoutCoordinator(conf.Backend, store, conf.Navigator)
	rc := NewRefreshCoordinator(conf.Backend, store, lc)
	sched := NewScheduler(conf.RenewalInterval, func(ctx context.Context) { rc.Refresh(ctx) }, lc)
	lc.scheduler = sched
	return &Manager{
		backend: conf.Backend,
		store:   store,
		logout:  lc,
		refresh: rc,
		sched:   sched,
	}
}

// Store exposes the session state for subscription.
func (m *Manager) Store() *Store { return m.store }

func (m *Manager) IsAuthenticated() bool { return m.store.Get().IsAuthenticated() }

// CurrentUser returns the signed-in user, or nil.
func (m *Manager) CurrentUser() *api.User { return m.store.User() }

// Hydrate restores the session from the credential already held by the HTTP client, if any.
// It runs at most once per manager; callers after the first return immediately. Any failure
// leaves the session anonymous without touching the backend further.
func (m *Manager) Hydrate(ctx context.Context) {
	m.hydrateOnce.Do(func() {
		m.beginLoading()
		defer m.endLoading()

		user, err := m.backend.CurrentUser(ctx)
		if err != nil {
			slog.Info("no session to restore", "error", err)
			m.store.SetUser(nil)
			return
		}
		slog.Info("session restored", "user", user.Email)
		m.store.SetUser(user)
		m.sched.Start()
	})
}

// Login authenticates with the given credentials. Validation failures never reach the
// backend. On success the renewal loop starts; a RequiresMFA result means the caller should
// retry the same request with MFACode set.
func (m *Manager) Login(ctx context.Context, req api.LoginRequest) Result {
	if err := ValidateLogin(req.Email, req.Password); err != nil {
		return Result{Message: err.Error()}
	}
	if req.MFACode != "" {
		if err := ValidateMFACode(req.MFACode); err != nil {
			return Result{Message: err.Error()}
		}
	}

	m.beginLoading()
	defer m.endLoading()

	outcome, err := m.backend.Login(ctx, req)
	if err != nil {
		slog.Warn("login failed", "email", req.Email, "error", err)
		return Result{Message: loginFailureMessage(err)}
	}
	if outcome.RequiresMFA {
		return Result{RequiresMFA: true}
	}
	slog.Info("logged in", "user", outcome.User.Email)
	m.store.SetUser(outcome.User)
	m.sched.Start()
	return Result{Success: true}
}

// Signup registers an account and, on success, signs straight in with the same credentials.
func (m *Manager) Signup(ctx context.Context, req api.SignupRequest) Result {
	if err := ValidateSignup(req.Name, req.Email, req.Password, req.ConfirmPassword); err != nil {
		return Result{Message: err.Error()}
	}

	m.beginLoading()
	if _, err := m.backend.Signup(ctx, req); err != nil {
		m.endLoading()
		slog.Warn("signup failed", "email", req.Email, "error", err)
		return Result{Message: loginFailureMessage(err)}
	}
	m.endLoading()

	return m.Login(ctx, api.LoginRequest{Email: req.Email, Password: req.Password})
}

// Logout tears the session down. Idempotent under concurrency.
func (m *Manager) Logout(ctx context.Context) {
	m.logout.Logout(ctx)
}

// RefreshToken renews the access credential on demand, sharing any renewal already in
// flight. Unlike the background loop it surfaces as a loading phase.
func (m *Manager) RefreshToken(ctx context.Context) bool {
	m.beginLoading()
	defer m.endLoading()
	return m.refresh.Refresh(ctx)
}

// Close stops background work. The manager is not usable afterwards.
func (m *Manager) Close() {
	m.sched.Stop()
}

func (m *Manager) beginLoading() {
	if m.loadingOps.Add(1) == 1 {
		m.store.SetLoading(true)
	}
}

func (m *Manager) endLoading() {
	if m.loadingOps.Add(-1) == 0 {
		m.store.SetLoading(false)
	}
}

// loginFailureMessage turns a backend failure into something safe to put in front of the
// user. Authentication rejections deliberately stay vague.
func loginFailureMessage(err error) string {
	switch {
	case errors.Is(err, api.ErrAuthentication):
		return "Invalid email or password."
	case errors.Is(err, api.ErrTransient):
		return "The service is temporarily unavailable. Please try again."
	case errors.Is(err, api.ErrProtocol):
		return "Something went wrong. Please try again."
	default:
		return err.Error()
	}
}
