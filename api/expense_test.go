package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRefresher struct {
	calls  atomic.Int32
	result bool
	onCall func()
}

func (s *stubRefresher) RefreshToken(ctx context.Context) bool {
	s.calls.Add(1)
	if s.onCall != nil {
		s.onCall()
	}
	return s.result
}

func TestExpensesListsExpenses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/expenses", r.URL.Path)
		json.NewEncoder(w).Encode([]Expense{
			{ID: "e1", Description: "Groceries", AmountCents: 4250, Currency: "USD", Category: "Food"},
		})
	}))
	defer srv.Close()

	ec := NewExpenseClient(srv.Client(), srv.URL, "dev-1", nil)
	expenses, err := ec.Expenses(context.Background())
	require.NoError(t, err)
	require.Len(t, expenses, 1)
	assert.Equal(t, int64(4250), expenses[0].AmountCents)
}

func TestExpensesRenewsOnceOnAuthFailure(t *testing.T) {
	var authorized atomic.Bool
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		if !authorized.Load() {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode([]Expense{{ID: "e1"}})
	}))
	defer srv.Close()

	refresher := &stubRefresher{result: true}
	refresher.onCall = func() { authorized.Store(true) }

	ec := NewExpenseClient(srv.Client(), srv.URL, "dev-1", refresher)
	expenses, err := ec.Expenses(context.Background())
	require.NoError(t, err)
	assert.Len(t, expenses, 1)
	assert.Equal(t, int32(1), refresher.calls.Load())
}

func TestExpensesFailedRenewalSurfacesOriginalError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	refresher := &stubRefresher{result: false}
	ec := NewExpenseClient(srv.Client(), srv.URL, "dev-1", refresher)
	_, err := ec.Expenses(context.Background())
	require.ErrorIs(t, err, ErrAuthentication)
	assert.Equal(t, int32(1), refresher.calls.Load())
}

func TestCreateExpenseSendsIdempotencyKey(t *testing.T) {
	var key string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		key = r.Header.Get("Idempotency-Key")
		var e Expense
		require.NoError(t, json.NewDecoder(r.Body).Decode(&e))
		e.ID = "e1"
		json.NewEncoder(w).Encode(e)
	}))
	defer srv.Close()

	ec := NewExpenseClient(srv.Client(), srv.URL, "dev-1", nil)
	created, err := ec.CreateExpense(context.Background(), Expense{Description: "Groceries", AmountCents: 4250})
	require.NoError(t, err)
	assert.Equal(t, "e1", created.ID)
	assert.NotEmpty(t, key)
}

func TestDeleteExpense(t *testing.T) {
	var path, method string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path, method = r.URL.Path, r.Method
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	ec := NewExpenseClient(srv.Client(), srv.URL, "dev-1", nil)
	require.NoError(t, ec.DeleteExpense(context.Background(), "e1"))
	assert.Equal(t, "/expenses/e1", path)
	assert.Equal(t, http.MethodDelete, method)
}

func TestExportCSV(t *testing.T) {
	date := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]Expense{
			{ID: "e1", Description: "Groceries", AmountCents: 4250, Currency: "USD", Category: "Food", Date: date},
			{ID: "e2", Description: "Taxi, airport", AmountCents: 1999, Currency: "USD", Category: "Travel", Date: date},
		})
	}))
	defer srv.Close()

	ec := NewExpenseClient(srv.Client(), srv.URL, "dev-1", nil)
	var buf bytes.Buffer
	require.NoError(t, ec.ExportCSV(context.Background(), &buf))

	out := buf.String()
	assert.Contains(t, out, "date,description,category,amount,currency,notes")
	assert.Contains(t, out, "2026-08-01,Groceries,Food,42.50,USD,")
	// commas in fields survive quoting
	assert.Contains(t, out, `"Taxi, airport"`)
}

func TestSettlements(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/settlements", r.URL.Path)
		json.NewEncoder(w).Encode([]Settlement{{ID: "s1", FromUserID: "u1", ToUserID: "u2", AmountCents: 500}})
	}))
	defer srv.Close()

	ec := NewExpenseClient(srv.Client(), srv.URL, "dev-1", nil)
	settlements, err := ec.Settlements(context.Background())
	require.NoError(t, err)
	require.Len(t, settlements, 1)
	assert.Equal(t, "u2", settlements[0].ToUserID)
}
