package api

import (
	"context"
	"fmt"
	"net/http"
)

// AuthBackend is the authentication service contract the session manager consumes. The access
// credential itself travels as an opaque httpOnly cookie handled by the HTTP client's jar; this
// layer never inspects it.
type AuthBackend interface {
	// Login authenticates with primary credentials and, when the account requires it, a
	// 6-digit second-factor code.
	Login(ctx context.Context, req LoginRequest) (*LoginOutcome, error)
	// Signup registers a new account.
	Signup(ctx context.Context, req SignupRequest) (*User, error)
	// SignOut invalidates the session server side. Best effort.
	SignOut(ctx context.Context) error
	// CurrentUser returns the identity bound to the current session credential. It serves
	// both startup hydration and post-renewal verification.
	CurrentUser(ctx context.Context) (*User, error)
	// Renew extends the lifetime of the access credential.
	Renew(ctx context.Context) error
}

type authClient struct {
	wc *webClient
}

// NewAuthClient returns an AuthBackend talking to the hosted API. httpClient must carry a
// cookie jar so the session credential survives across calls.
func NewAuthClient(httpClient *http.Client, baseURL, deviceID string) AuthBackend {
	return &authClient{wc: newWebClient(httpClient, baseURL, deviceID)}
}

func (c *authClient) Login(ctx context.Context, loginData LoginRequest) (*LoginOutcome, error) {
	var resp loginResponse
	req := c.wc.NewRequest(nil, nil, loginData)
	if err := c.wc.Post(ctx, "/auth/login", req, &resp); err != nil {
		return nil, err
	}
	if resp.RequiresMFA {
		return &LoginOutcome{RequiresMFA: true}, nil
	}
	if resp.User == nil || resp.User.ID == "" {
		return nil, fmt.Errorf("%w: login succeeded with no user data", ErrProtocol)
	}
	return &LoginOutcome{User: resp.User}, nil
}

func (c *authClient) Signup(ctx context.Context, signupData SignupRequest) (*User, error) {
	var resp loginResponse
	req := c.wc.NewRequest(nil, nil, signupData)
	if err := c.wc.Post(ctx, "/auth/signup", req, &resp); err != nil {
		return nil, err
	}
	return resp.User, nil
}

func (c *authClient) SignOut(ctx context.Context) error {
	return c.wc.Post(ctx, "/auth/logout", nil, nil)
}

func (c *authClient) CurrentUser(ctx context.Context) (*User, error) {
	var user User
	if err := c.wc.Get(ctx, "/auth/me", nil, &user); err != nil {
		return nil, err
	}
	// a session with no identity is indistinguishable from data corruption
	if user.ID == "" {
		return nil, fmt.Errorf("%w: current-user response carries no user", ErrProtocol)
	}
	return &user, nil
}

func (c *authClient) Renew(ctx context.Context) error {
	return c.wc.Post(ctx, "/auth/renew", nil, nil)
}
