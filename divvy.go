// Package divvy is the client core of the Divvy expense tracker. It owns session lifecycle,
// credential renewal, and the expense API surface, leaving rendering to the embedding shell.
package divvy

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"sync"
	"sync/atomic"
	"time"

	"github.com/divvyapp/divvy/api"
	"github.com/divvyapp/divvy/common"
	"github.com/divvyapp/divvy/common/deviceid"
	"github.com/divvyapp/divvy/common/settings"
	"github.com/divvyapp/divvy/events"
	"github.com/divvyapp/divvy/session"
)

// Options configures a Client. Zero values fall back to persisted settings and per-user
// defaults.
type Options struct {
	// DataDir is where settings and other local state live.
	DataDir string
	// LogDir is where the log file lives. Defaults to DataDir.
	LogDir string
	// LogLevel overrides the persisted log level.
	LogLevel string
	// BaseURL overrides the persisted API endpoint.
	BaseURL string
	// Locale overrides the persisted display locale.
	Locale string
}

// NavigationEvent is broadcast when the client asks the shell to move to a new view.
type NavigationEvent struct {
	Location string
}

const hydrateTimeout = 15 * time.Second

// Client is the top-level handle embedders hold. One per process.
type Client struct {
	session  *session.Manager
	expenses *api.ExpenseClient
	nav      *locationTracker

	closeOnce sync.Once
}

// NewClient initializes directories, logging, settings, and the session, restoring any
// persisted sign-in before returning. The returned client is ready for use.
func NewClient(opts Options) (*Client, error) {
	if err := common.Init(opts.DataDir, opts.LogDir, opts.LogLevel); err != nil {
		return nil, fmt.Errorf("initializing common components: %w", err)
	}
	if err := settings.InitSettings(common.DataPath()); err != nil {
		return nil, fmt.Errorf("initializing settings: %w", err)
	}
	if opts.Locale != "" {
		if err := settings.Set(settings.LocaleKey, opts.Locale); err != nil {
			slog.Warn("persisting locale", "error", err)
		}
	}

	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = settings.GetString(settings.BaseURLKey)
	}
	if baseURL == "" {
		baseURL = settings.DefaultBaseURL
	}

	// The credential is an opaque httpOnly cookie; the jar is the only place it lives.
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}
	httpClient := &http.Client{Jar: jar, Timeout: common.DefaultHTTPTimeout}

	deviceID := deviceid.Get()
	backend := api.NewAuthClient(httpClient, baseURL, deviceID)

	interval := settings.GetDuration(settings.RenewalIntervalKey)
	if interval <= 0 {
		interval = settings.DefaultRenewalInterval
	}

	nav := newLocationTracker()
	mgr := session.NewManager(session.Config{
		Backend:         backend,
		Navigator:       nav,
		RenewalInterval: interval,
	})

	c := &Client{
		session:  mgr,
		expenses: api.NewExpenseClient(httpClient, baseURL, deviceID, mgr),
		nav:      nav,
	}

	ctx, cancel := context.WithTimeout(context.Background(), hydrateTimeout)
	defer cancel()
	mgr.Hydrate(ctx)

	slog.Info("client ready", "baseURL", baseURL, "authenticated", mgr.IsAuthenticated())
	return c, nil
}

// Login signs in with the given credentials. On success the remembered email preference is
// applied; a RequiresMFA result means the same call should be repeated with mfaCode set.
func (c *Client) Login(ctx context.Context, email, password string, rememberMe bool, mfaCode string) session.Result {
	res := c.session.Login(ctx, api.LoginRequest{
		Email:      email,
		Password:   password,
		RememberMe: rememberMe,
		MFACode:    mfaCode,
	})
	if res.Success {
		var err error
		if rememberMe {
			err = settings.Set(settings.RememberedEmailKey, email)
		} else {
			err = settings.Delete(settings.RememberedEmailKey)
		}
		if err != nil {
			slog.Warn("persisting remembered email", "error", err)
		}
	}
	return res
}

// Signup registers a new account and signs in.
func (c *Client) Signup(ctx context.Context, name, email, password, confirmPassword string) session.Result {
	return c.session.Signup(ctx, api.SignupRequest{
		Name:            name,
		Email:           email,
		Password:        password,
		ConfirmPassword: confirmPassword,
	})
}

// Logout tears the session down and navigates to the login view.
func (c *Client) Logout(ctx context.Context) {
	c.session.Logout(ctx)
}

// RefreshToken renews the access credential immediately.
func (c *Client) RefreshToken(ctx context.Context) bool {
	return c.session.RefreshToken(ctx)
}

func (c *Client) IsAuthenticated() bool { return c.session.IsAuthenticated() }

// CurrentUser returns the signed-in user, or nil.
func (c *Client) CurrentUser() *api.User { return c.session.CurrentUser() }

// RememberedEmail returns the email to pre-fill on the login form, if the user opted in.
func (c *Client) RememberedEmail() string {
	return settings.GetString(settings.RememberedEmailKey)
}

// Expenses exposes the expense API. Calls made while signed out fail with an authentication
// error.
func (c *Client) Expenses() *api.ExpenseClient { return c.expenses }

// Session exposes the session manager for state subscription.
func (c *Client) Session() *session.Manager { return c.session }

// SetLocation tells the client which view the shell is currently showing, so sign-out can
// skip navigation when the login view is already up.
func (c *Client) SetLocation(location string) {
	c.nav.SetLocation(location)
}

// Location returns the shell's current view.
func (c *Client) Location() string {
	return c.nav.CurrentLocation()
}

// Close stops background work. Idempotent.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.session.Close()
		settings.StopWatching()
	})
}

// locationTracker implements session.Navigator by broadcasting navigation requests to the
// shell and tracking the location it reports back.
type locationTracker struct {
	location atomic.Value
}

func newLocationTracker() *locationTracker {
	lt := &locationTracker{}
	lt.location.Store("/")
	return lt
}

func (lt *locationTracker) SetLocation(location string) {
	lt.location.Store(location)
}

func (lt *locationTracker) CurrentLocation() string {
	return lt.location.Load().(string)
}

// NavigateToLogin asks the shell to show the login view. The shell has no way to signal
// completion, so the location flips immediately and the event is broadcast after.
func (lt *locationTracker) NavigateToLogin() {
	lt.location.Store(session.LoginLocation)
	events.Emit(NavigationEvent{Location: session.LoginLocation})
}
