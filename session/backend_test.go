package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/divvyapp/divvy/api"
)

const (
	defaultTestInterval = 10 * time.Millisecond
	timeEventually      = time.Second
	tickEventually      = 5 * time.Millisecond
)

// mockBackend is a hand-rolled api.AuthBackend whose behavior each test configures through
// the function fields. Nil fields succeed with sensible defaults. Call counts are atomic so
// tests can hammer it from many goroutines.
type mockBackend struct {
	loginFunc       func(ctx context.Context, req api.LoginRequest) (*api.LoginOutcome, error)
	signupFunc      func(ctx context.Context, req api.SignupRequest) (*api.User, error)
	signOutFunc     func(ctx context.Context) error
	currentUserFunc func(ctx context.Context) (*api.User, error)
	renewFunc       func(ctx context.Context) error

	loginCalls       atomic.Int32
	signOutCalls     atomic.Int32
	currentUserCalls atomic.Int32
	renewCalls       atomic.Int32
}

var testUser = &api.User{ID: "u1", Name: "Ada", Email: "ada@example.com"}

func (m *mockBackend) Login(ctx context.Context, req api.LoginRequest) (*api.LoginOutcome, error) {
	m.loginCalls.Add(1)
	if m.loginFunc != nil {
		return m.loginFunc(ctx, req)
	}
	return &api.LoginOutcome{User: testUser}, nil
}

func (m *mockBackend) Signup(ctx context.Context, req api.SignupRequest) (*api.User, error) {
	if m.signupFunc != nil {
		return m.signupFunc(ctx, req)
	}
	return testUser, nil
}

func (m *mockBackend) SignOut(ctx context.Context) error {
	m.signOutCalls.Add(1)
	if m.signOutFunc != nil {
		return m.signOutFunc(ctx)
	}
	return nil
}

func (m *mockBackend) CurrentUser(ctx context.Context) (*api.User, error) {
	m.currentUserCalls.Add(1)
	if m.currentUserFunc != nil {
		return m.currentUserFunc(ctx)
	}
	return testUser, nil
}

func (m *mockBackend) Renew(ctx context.Context) error {
	m.renewCalls.Add(1)
	if m.renewFunc != nil {
		return m.renewFunc(ctx)
	}
	return nil
}

// mockNavigator records navigation requests.
type mockNavigator struct {
	mu         sync.Mutex
	location   string
	navCalls   int
	onNavigate func()
}

func newMockNavigator(location string) *mockNavigator {
	return &mockNavigator{location: location}
}

func (n *mockNavigator) CurrentLocation() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.location
}

func (n *mockNavigator) NavigateToLogin() {
	n.mu.Lock()
	n.navCalls++
	n.location = LoginLocation
	fn := n.onNavigate
	n.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (n *mockNavigator) SetLocation(location string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.location = location
}

func (n *mockNavigator) navigations() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.navCalls
}
