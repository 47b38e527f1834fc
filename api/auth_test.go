package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthClientLogin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/auth/login", r.URL.Path)
		assert.Equal(t, "divvy", r.Header.Get("X-Divvy-App"))
		assert.Equal(t, "dev-1", r.Header.Get("X-Divvy-Device-Id"))

		var req LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "ada@example.com", req.Email)

		json.NewEncoder(w).Encode(map[string]any{
			"user": map[string]string{"id": "u1", "name": "Ada", "email": req.Email},
		})
	}))
	defer srv.Close()

	c := NewAuthClient(srv.Client(), srv.URL, "dev-1")
	outcome, err := c.Login(context.Background(), LoginRequest{Email: "ada@example.com", Password: "pw"})
	require.NoError(t, err)
	require.NotNil(t, outcome.User)
	assert.Equal(t, "u1", outcome.User.ID)
	assert.False(t, outcome.RequiresMFA)
}

func TestAuthClientLoginRequiresMFA(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"requiresMfa": true})
	}))
	defer srv.Close()

	c := NewAuthClient(srv.Client(), srv.URL, "dev-1")
	outcome, err := c.Login(context.Background(), LoginRequest{Email: "ada@example.com", Password: "pw"})
	require.NoError(t, err)
	assert.True(t, outcome.RequiresMFA)
	assert.Nil(t, outcome.User)
}

func TestAuthClientLoginRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"message": "invalid credentials"})
	}))
	defer srv.Close()

	c := NewAuthClient(srv.Client(), srv.URL, "dev-1")
	_, err := c.Login(context.Background(), LoginRequest{Email: "ada@example.com", Password: "pw"})
	require.ErrorIs(t, err, ErrAuthentication)
	assert.Contains(t, err.Error(), "invalid credentials")
}

func TestAuthClientServerErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewAuthClient(srv.Client(), srv.URL, "dev-1")
	err := c.Renew(context.Background())
	assert.ErrorIs(t, err, ErrTransient)
}

func TestAuthClientThrottlingIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewAuthClient(srv.Client(), srv.URL, "dev-1")
	err := c.Renew(context.Background())
	assert.ErrorIs(t, err, ErrTransient)
}

func TestAuthClientUnreachableIsTransient(t *testing.T) {
	c := NewAuthClient(&http.Client{}, "http://127.0.0.1:1", "dev-1")
	err := c.Renew(context.Background())
	assert.ErrorIs(t, err, ErrTransient)
}

func TestAuthClientLoginEmptyUserIsProtocolError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewAuthClient(srv.Client(), srv.URL, "dev-1")
	_, err := c.Login(context.Background(), LoginRequest{Email: "ada@example.com", Password: "pw"})
	assert.ErrorIs(t, err, ErrProtocol)
}

func TestAuthClientCurrentUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/auth/me", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]string{"id": "u1", "name": "Ada", "email": "ada@example.com"})
	}))
	defer srv.Close()

	c := NewAuthClient(srv.Client(), srv.URL, "dev-1")
	user, err := c.CurrentUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
}

func TestAuthClientCurrentUserMissingIdentityIsProtocolError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewAuthClient(srv.Client(), srv.URL, "dev-1")
	_, err := c.CurrentUser(context.Background())
	assert.ErrorIs(t, err, ErrProtocol)
}

func TestAuthClientSignOut(t *testing.T) {
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
	}))
	defer srv.Close()

	c := NewAuthClient(srv.Client(), srv.URL, "dev-1")
	require.NoError(t, c.SignOut(context.Background()))
	assert.Equal(t, "/auth/logout", path)
}
