package api

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
)

// TokenRefresher renews the access credential on demand. A false return means the session could
// not be renewed and the original failure stands.
type TokenRefresher interface {
	RefreshToken(ctx context.Context) bool
}

// ExpenseClient is the thin API surface the dashboards are built on: expense and settlement
// CRUD, category listing, and CSV export. When a call is rejected with an authentication
// failure it renews the credential once through the session manager and retries.
type ExpenseClient struct {
	rd        *webClient // retrying transport, idempotent reads only
	wr        *webClient
	refresher TokenRefresher
}

// NewExpenseClient builds the expense API client on the same cookie-carrying httpClient as the
// auth client. Reads go through a retrying transport; writes are sent exactly once.
func NewExpenseClient(httpClient *http.Client, baseURL, deviceID string, refresher TokenRefresher) *ExpenseClient {
	retry := retryablehttp.NewClient()
	retry.RetryMax = 2
	retry.Logger = nil
	if httpClient != nil {
		retry.HTTPClient = httpClient
	}
	return &ExpenseClient{
		rd:        newWebClient(retry.StandardClient(), baseURL, deviceID),
		wr:        newWebClient(httpClient, baseURL, deviceID),
		refresher: refresher,
	}
}

// withRenewal runs fn and, if it fails because the credential expired, renews once and retries.
func (ec *ExpenseClient) withRenewal(ctx context.Context, fn func() error) error {
	err := fn()
	if err == nil || !errors.Is(err, ErrAuthentication) || ec.refresher == nil {
		return err
	}
	if !ec.refresher.RefreshToken(ctx) {
		return err
	}
	return fn()
}

// Expenses lists all expenses for the signed-in user.
func (ec *ExpenseClient) Expenses(ctx context.Context) ([]Expense, error) {
	var out []Expense
	err := ec.withRenewal(ctx, func() error {
		out = nil
		return ec.rd.Get(ctx, "/expenses", nil, &out)
	})
	if err != nil {
		return nil, fmt.Errorf("listing expenses: %w", err)
	}
	return out, nil
}

// CreateExpense records a new expense. An idempotency key protects against the backend applying
// a create twice when the renewal retry path resends it.
func (ec *ExpenseClient) CreateExpense(ctx context.Context, e Expense) (*Expense, error) {
	header := map[string]string{"Idempotency-Key": uuid.NewString()}
	var out Expense
	err := ec.withRenewal(ctx, func() error {
		req := ec.wr.NewRequest(nil, header, e)
		return ec.wr.Post(ctx, "/expenses", req, &out)
	})
	if err != nil {
		return nil, fmt.Errorf("creating expense: %w", err)
	}
	return &out, nil
}

func (ec *ExpenseClient) UpdateExpense(ctx context.Context, e Expense) (*Expense, error) {
	var out Expense
	err := ec.withRenewal(ctx, func() error {
		req := ec.wr.NewRequest(nil, nil, e)
		return ec.wr.Put(ctx, "/expenses/"+url.PathEscape(e.ID), req, &out)
	})
	if err != nil {
		return nil, fmt.Errorf("updating expense %s: %w", e.ID, err)
	}
	return &out, nil
}

func (ec *ExpenseClient) DeleteExpense(ctx context.Context, id string) error {
	err := ec.withRenewal(ctx, func() error {
		return ec.wr.Delete(ctx, "/expenses/"+url.PathEscape(id), nil, nil)
	})
	if err != nil {
		return fmt.Errorf("deleting expense %s: %w", id, err)
	}
	return nil
}

func (ec *ExpenseClient) Settlements(ctx context.Context) ([]Settlement, error) {
	var out []Settlement
	err := ec.withRenewal(ctx, func() error {
		out = nil
		return ec.rd.Get(ctx, "/settlements", nil, &out)
	})
	if err != nil {
		return nil, fmt.Errorf("listing settlements: %w", err)
	}
	return out, nil
}

func (ec *ExpenseClient) CreateSettlement(ctx context.Context, s Settlement) (*Settlement, error) {
	header := map[string]string{"Idempotency-Key": uuid.NewString()}
	var out Settlement
	err := ec.withRenewal(ctx, func() error {
		req := ec.wr.NewRequest(nil, header, s)
		return ec.wr.Post(ctx, "/settlements", req, &out)
	})
	if err != nil {
		return nil, fmt.Errorf("creating settlement: %w", err)
	}
	return &out, nil
}

func (ec *ExpenseClient) Categories(ctx context.Context) ([]Category, error) {
	var out []Category
	err := ec.withRenewal(ctx, func() error {
		out = nil
		return ec.rd.Get(ctx, "/categories", nil, &out)
	})
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	return out, nil
}

// ExportCSV fetches all expenses and writes them to w as CSV, newest first as returned by the
// backend.
func (ec *ExpenseClient) ExportCSV(ctx context.Context, w io.Writer) error {
	expenses, err := ec.Expenses(ctx)
	if err != nil {
		return fmt.Errorf("exporting expenses: %w", err)
	}
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"date", "description", "category", "amount", "currency", "notes"}); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	for _, e := range expenses {
		record := []string{
			e.Date.Format(time.DateOnly),
			e.Description,
			e.Category,
			formatAmount(e.AmountCents),
			e.Currency,
			e.Notes,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing csv record: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatAmount(cents int64) string {
	return strconv.FormatFloat(float64(cents)/100, 'f', 2, 64)
}
