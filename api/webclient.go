package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
	"moul.io/http2curl"

	"github.com/divvyapp/divvy/common"
)

// Headers sent with every request so the backend can attribute it to this client build and
// device.
const (
	appNameHeader  = "X-Divvy-App"
	versionHeader  = "X-Divvy-Version"
	platformHeader = "X-Divvy-Platform"
	deviceIDHeader = "X-Divvy-Device-Id"
)

type webClient struct {
	client *resty.Client
}

func newWebClient(httpClient *http.Client, baseURL, deviceID string) *webClient {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	client := resty.NewWithClient(httpClient)
	if baseURL != "" {
		client.SetBaseURL(baseURL)
	}

	client.OnBeforeRequest(func(c *resty.Client, req *resty.Request) error {
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		req.Header.Set(appNameHeader, common.Name)
		req.Header.Set(versionHeader, common.Version)
		req.Header.Set(platformHeader, common.Platform)
		if deviceID != "" {
			req.Header.Set(deviceIDHeader, deviceID)
		}
		return nil
	})
	return &webClient{client: client}
}

func (wc *webClient) NewRequest(queryParams, headers map[string]string, body any) *resty.Request {
	return wc.client.NewRequest().SetQueryParams(queryParams).SetHeaders(headers).SetBody(body)
}

func (wc *webClient) Get(ctx context.Context, path string, req *resty.Request, res any) error {
	return wc.send(ctx, resty.MethodGet, path, req, res)
}

func (wc *webClient) Post(ctx context.Context, path string, req *resty.Request, res any) error {
	return wc.send(ctx, resty.MethodPost, path, req, res)
}

func (wc *webClient) Put(ctx context.Context, path string, req *resty.Request, res any) error {
	return wc.send(ctx, resty.MethodPut, path, req, res)
}

func (wc *webClient) Delete(ctx context.Context, path string, req *resty.Request, res any) error {
	return wc.send(ctx, resty.MethodDelete, path, req, res)
}

func (wc *webClient) send(ctx context.Context, method, path string, req *resty.Request, res any) error {
	if req == nil {
		req = wc.client.NewRequest()
	}
	req.SetContext(ctx)
	if res != nil {
		req.SetResult(res)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		// transport-level failures (timeouts, refused connections, DNS) say nothing about
		// the session itself
		return fmt.Errorf("%w: sending request: %v", ErrTransient, err)
	}
	if slog.Default().Enabled(ctx, slog.LevelDebug) {
		if command, cErr := http2curl.GetCurlCommand(req.RawRequest); cErr == nil {
			slog.Debug("request sent", "curl", command.String())
		}
	}
	return classifyResponse(resp)
}

// classifyResponse maps the HTTP status class onto the error taxonomy: explicit rejections
// (401/403) are authentication failures, server errors and throttling are transient, anything
// else in the 4xx range is a plain request error surfaced with the backend's message.
func classifyResponse(resp *resty.Response) error {
	code := resp.StatusCode()
	switch {
	case code >= http.StatusOK && code < http.StatusMultipleChoices:
		return nil
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrAuthentication, responseMessage(resp))
	case code == http.StatusRequestTimeout || code == http.StatusTooManyRequests || code >= http.StatusInternalServerError:
		return fmt.Errorf("%w: status %d", ErrTransient, code)
	default:
		return fmt.Errorf("unexpected response %d: %s", code, responseMessage(resp))
	}
}

func responseMessage(resp *resty.Response) string {
	var base baseResponse
	if err := json.Unmarshal(resp.Body(), &base); err == nil && base.Message != "" {
		return base.Message
	}
	return strings.TrimSpace(string(resp.Body()))
}
