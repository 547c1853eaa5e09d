// Package whoop implements the MetricsClient port against the WHOOP metrics service.
package whoop

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ericfisherdev/heartsync/internal/domain/model"
	"github.com/ericfisherdev/heartsync/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.MetricsClient = (*Client)(nil)

// DefaultBaseURL is the production API origin.
const DefaultBaseURL = "https://api.prod.whoop.com"

const (
	apiVersion   = "7"
	metricName   = "heart_rate"
	stepSeconds  = "60"
	orderByTime  = "t"
	maxErrorBody = 4 << 10
)

// Client implements driven.MetricsClient over HTTP.
type Client struct {
	http    *http.Client
	baseURL *url.URL
}

// NewClient creates a metrics API client on http.DefaultTransport. Each request
// covers a distinct window, so responses are never cached. timeout bounds each
// request, including reading the body.
func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	return NewClientWithHTTPClient(&http.Client{Timeout: timeout}, baseURL)
}

// NewClientWithHTTPClient creates a Client with a custom http.Client and base URL.
// This constructor is intended for testing, allowing injection of an httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL string) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base URL %q must be absolute", baseURL)
	}
	return &Client{http: httpClient, baseURL: u}, nil
}

// metricsResponse is the body of a successful metrics request.
type metricsResponse struct {
	Name   string          `json:"name"`
	Start  json.RawMessage `json:"start"`
	Values []metricValue   `json:"values"`
}

type metricValue struct {
	Data float64 `json:"data"`
	Time int64   `json:"time"`
}

// FetchHeartRate requests heart-rate samples for the credential's user inside
// window, ordered by ascending time. 401 and 403 map to driven.ErrAuthExpired;
// any other non-2xx status, transport error or undecodable body is a fetch
// failure.
func (c *Client) FetchHeartRate(ctx context.Context, cred model.Credential, window model.SyncWindow) ([]model.Sample, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.heartRateURL(cred.UserID, window), nil)
	if err != nil {
		return nil, fmt.Errorf("building heart rate request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+cred.AccessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting heart rate: %w: %w", driven.ErrFetchFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("metrics api returned %d: %w", resp.StatusCode, driven.ErrAuthExpired)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &driven.FetchError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var payload metricsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding heart rate response: %w: %w", driven.ErrFetchFailed, err)
	}

	samples := make([]model.Sample, 0, len(payload.Values))
	for _, v := range payload.Values {
		samples = append(samples, model.SampleFromEpochMillis(int(math.Round(v.Data)), v.Time))
	}

	slog.Debug("metrics api call",
		"metric", metricName,
		"user_id", cred.UserID,
		"status", resp.StatusCode,
		"count", len(samples),
	)

	return samples, nil
}

// heartRateURL builds
// /metrics-service/v1/metrics/user/{id}?apiVersion=7&name=heart_rate&start=..&end=..&step=60&order=t.
func (c *Client) heartRateURL(userID int64, window model.SyncWindow) string {
	u := *c.baseURL
	u.Path = u.Path + "/metrics-service/v1/metrics/user/" + strconv.FormatInt(userID, 10)

	q := url.Values{}
	q.Set("apiVersion", apiVersion)
	q.Set("name", metricName)
	q.Set("start", formatInstant(window.Start))
	q.Set("end", formatInstant(window.End))
	q.Set("step", stepSeconds)
	q.Set("order", orderByTime)
	u.RawQuery = q.Encode()

	return u.String()
}

// formatInstant renders t as ISO-8601 UTC with millisecond precision.
func formatInstant(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}
