// Package diacloud is a client for the Diacloud diabetes-data platform.
// It authenticates once per run and fetches raw records for one metric
// type over one [start, end) window; retry policy belongs to the caller.
package diacloud

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"healthboard-sync/internal/metrics"
)

const requestTimeout = 30 * time.Second

// Client is a Diacloud API client
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// Session is the result of a successful login: a bearer-style token plus
// the opaque account identifier the read endpoints require.
type Session struct {
	Token     string `json:"token"`
	AccountID string `json:"accountId"`
}

// HTTPError is a non-success response from the Diacloud API
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("diacloud request failed with status %d: %s", e.StatusCode, e.Body)
}

// AuthError is a failed login. It aborts the entire run before any
// window is processed.
type AuthError struct {
	StatusCode int
	Body       string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("diacloud login failed with status %d: %s", e.StatusCode, e.Body)
}

// GlucoseRecord is one raw CGM sample as the platform returns it
type GlucoseRecord struct {
	Timestamp string  `json:"timestamp"`
	Value     float64 `json:"value"`
	Trend     string  `json:"trend"`
}

// DoseRecord is one raw insulin dose. DoseType is filled in by the client
// from the endpoint it was fetched from.
type DoseRecord struct {
	Timestamp    string  `json:"timestamp"`
	Units        float64 `json:"units"`
	SubType      string  `json:"subType"`
	Duration     float64 `json:"duration"`
	DurationUnit string  `json:"durationUnit"`
	DoseType     string  `json:"-"`
}

// ActivityRecord is one raw physical-activity session
type ActivityRecord struct {
	Name         string  `json:"name"`
	StartTime    string  `json:"startTime"`
	EndTime      string  `json:"endTime"`
	Distance     float64 `json:"distance"`
	DistanceUnit string  `json:"distanceUnit"`
	Duration     float64 `json:"duration"`
	DurationUnit string  `json:"durationUnit"`
	Calories     float64 `json:"calories"`
}

// NewClient creates a new Diacloud API client
func NewClient(baseURL string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		httpClient: &http.Client{Timeout: requestTimeout},
		baseURL:    baseURL,
		logger:     logger,
	}
}

// Login exchanges the account credentials for a session token and account
// identifier. Called once per orchestrator run.
func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	body, err := json.Marshal(map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal login request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/login", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.logger.Error("login failed", "error", err, "duration_ms", duration.Milliseconds())
		return nil, fmt.Errorf("login request failed: %w", err)
	}
	defer resp.Body.Close()

	c.logger.Info("diacloud_login", "status", resp.StatusCode, "duration_ms", duration.Milliseconds())
	metrics.DiacloudRequestsTotal.WithLabelValues(metrics.OpLogin, strconv.Itoa(resp.StatusCode)).Inc()
	metrics.DiacloudRequestDuration.WithLabelValues(metrics.OpLogin, strconv.Itoa(resp.StatusCode)).Observe(duration.Seconds())

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, &AuthError{StatusCode: resp.StatusCode, Body: string(bodyBytes)}
	}

	var session Session
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, fmt.Errorf("failed to decode login response: %w", err)
	}

	return &session, nil
}

// FetchGlucose fetches glucose readings for one [start, end) window
func (c *Client) FetchGlucose(ctx context.Context, session *Session, start, end time.Time) ([]GlucoseRecord, error) {
	var out []GlucoseRecord
	if err := c.fetchReadings(ctx, session, "glucose", start, end, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FetchInsulin fetches bolus and basal doses for one [start, end) window.
// The two endpoints are independent, so the sub-fetches run concurrently
// and are joined into one dose list tagged by type.
func (c *Client) FetchInsulin(ctx context.Context, session *Session, start, end time.Time) ([]DoseRecord, error) {
	type result struct {
		doseType string
		doses    []DoseRecord
		err      error
	}

	results := make(chan result, 2)
	for _, doseType := range []string{"bolus", "basal"} {
		go func(doseType string) {
			var doses []DoseRecord
			err := c.fetchReadings(ctx, session, doseType, start, end, &doses)
			results <- result{doseType: doseType, doses: doses, err: err}
		}(doseType)
	}

	var merged []DoseRecord
	for i := 0; i < 2; i++ {
		res := <-results
		if res.err != nil {
			return nil, fmt.Errorf("failed to fetch %s doses: %w", res.doseType, res.err)
		}
		for j := range res.doses {
			res.doses[j].DoseType = res.doseType
		}
		merged = append(merged, res.doses...)
	}

	return merged, nil
}

// FetchActivities fetches physical-activity sessions for one [start, end) window
func (c *Client) FetchActivities(ctx context.Context, session *Session, start, end time.Time) ([]ActivityRecord, error) {
	var out []ActivityRecord
	if err := c.fetchReadings(ctx, session, "activity", start, end, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// fetchReadings performs one read request and decodes the JSON array
// response into out. Non-success responses propagate as HTTPError with
// no automatic retry.
func (c *Client) fetchReadings(ctx context.Context, session *Session, metricType string, start, end time.Time, out any) error {
	params := url.Values{}
	params.Set("type", metricType)
	params.Set("start", start.UTC().Format(time.RFC3339))
	params.Set("end", end.UTC().Format(time.RFC3339))

	endpoint := fmt.Sprintf("%s/accounts/%s/readings?%s", c.baseURL, url.PathEscape(session.AccountID), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+session.Token)

	reqStart := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(reqStart)

	if err != nil {
		c.logger.Error("fetch failed", "type", metricType, "error", err)
		return fmt.Errorf("fetch %s failed: %w", metricType, err)
	}
	defer resp.Body.Close()

	c.logger.Info("diacloud_fetch",
		"type", metricType,
		"status", resp.StatusCode,
		"duration_ms", duration.Milliseconds(),
		"start", start.UTC().Format(time.RFC3339),
		"end", end.UTC().Format(time.RFC3339))
	metrics.DiacloudRequestsTotal.WithLabelValues(metrics.OpFetchReadings, strconv.Itoa(resp.StatusCode)).Inc()
	metrics.DiacloudRequestDuration.WithLabelValues(metrics.OpFetchReadings, strconv.Itoa(resp.StatusCode)).Observe(duration.Seconds())

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return &HTTPError{StatusCode: resp.StatusCode, Body: string(bodyBytes)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", metricType, err)
	}

	return nil
}
