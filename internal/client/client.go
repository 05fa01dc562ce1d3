// Package client talks to the calispro REST api on behalf of the session tracker.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/2beens/calispro/internal/catalog"
	"github.com/2beens/calispro/internal/ledger"
	"github.com/2beens/calispro/internal/tracker"
	"github.com/2beens/calispro/internal/users"
)

var (
	ErrUnauthorized = errors.New("not logged in or session expired")
	ErrNotFound     = errors.New("not found")
)

const (
	userAgentPrefix = "calispro-tracker/"
	defaultTimeout  = 15 * time.Second
	retryBackoff    = 300 * time.Millisecond
)

// APIError is a non-2xx answer the client has no sentinel for.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

type Client struct {
	baseURL    string
	token      string
	userAgent  string
	httpClient *http.Client
}

var _ tracker.Ledger = (*Client)(nil)

// NewClient builds a client for the api at baseURL. A nil httpClient gets a traced
// transport with a default timeout.
func NewClient(baseURL, token, version string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   defaultTimeout,
		}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		userAgent:  userAgentPrefix + version,
		httpClient: httpClient,
	}
}

func (c *Client) WithToken(token string) *Client {
	clone := *c
	clone.token = token
	return &clone
}

// do sends the request and decodes a JSON answer into out. Transport errors and 5xx
// answers are retried once, silently.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
	}

	var (
		resp *http.Response
		err  error
	)
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			log.Debugf("retrying %s %s: %v", method, path, err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(retryBackoff):
			}
		}

		resp, err = c.send(ctx, method, path, payload)
		if err != nil {
			continue
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			err = responseError(resp)
			continue
		}
		break
	}
	if err != nil {
		return err
	}
	defer func() {
		// drain so the connection can be reused
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		return responseError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return c.httpClient.Do(req)
}

// responseError consumes and closes the body of a failed response.
func responseError(resp *http.Response) error {
	defer func() { _ = resp.Body.Close() }()
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	}
	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    strings.TrimSpace(string(msg)),
	}
}

func (c *Client) Signup(ctx context.Context, req users.SignupRequest) (*users.SignupResponse, error) {
	var resp users.SignupResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/signup", req, &resp); err != nil {
		return nil, fmt.Errorf("signup: %w", err)
	}
	return &resp, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*users.LoginResponse, error) {
	var resp users.LoginResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", users.LoginRequest{
		Email:    email,
		Password: password,
	}, &resp); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	return &resp, nil
}

func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
}

func (c *Client) Exercises(ctx context.Context) ([]catalog.Exercise, error) {
	var exercises []catalog.Exercise
	if err := c.do(ctx, http.MethodGet, "/api/exercises", nil, &exercises); err != nil {
		return nil, fmt.Errorf("list exercises: %w", err)
	}
	return exercises, nil
}

func (c *Client) Exercise(ctx context.Context, id string) (*catalog.Exercise, error) {
	var exercise catalog.Exercise
	if err := c.do(ctx, http.MethodGet, "/api/exercises/"+url.PathEscape(id), nil, &exercise); err != nil {
		return nil, fmt.Errorf("get exercise %s: %w", id, err)
	}
	return &exercise, nil
}

func (c *Client) Skills(ctx context.Context) ([]catalog.Skill, error) {
	var skills []catalog.Skill
	if err := c.do(ctx, http.MethodGet, "/api/skills", nil, &skills); err != nil {
		return nil, fmt.Errorf("list skills: %w", err)
	}
	return skills, nil
}

func (c *Client) Skill(ctx context.Context, id string) (*catalog.Skill, error) {
	var skill catalog.Skill
	if err := c.do(ctx, http.MethodGet, "/api/skills/"+url.PathEscape(id), nil, &skill); err != nil {
		return nil, fmt.Errorf("get skill %s: %w", id, err)
	}
	return &skill, nil
}

func (c *Client) Workout(ctx context.Context, id string) (*catalog.Workout, error) {
	var workout catalog.Workout
	if err := c.do(ctx, http.MethodGet, "/api/workouts/"+url.PathEscape(id), nil, &workout); err != nil {
		return nil, fmt.Errorf("get workout %s: %w", id, err)
	}
	return &workout, nil
}

func (c *Client) Workouts(ctx context.Context) ([]catalog.Workout, error) {
	var workouts []catalog.Workout
	if err := c.do(ctx, http.MethodGet, "/api/workouts", nil, &workouts); err != nil {
		return nil, fmt.Errorf("list workouts: %w", err)
	}
	return workouts, nil
}

func (c *Client) Mastery(ctx context.Context) ([]ledger.MasteryRecord, error) {
	var records []ledger.MasteryRecord
	if err := c.do(ctx, http.MethodGet, "/api/skills/user/progress", nil, &records); err != nil {
		return nil, fmt.Errorf("list mastery: %w", err)
	}
	return records, nil
}

func (c *Client) AwardMastery(ctx context.Context, req ledger.AwardRequest) (*ledger.MasteryRecord, error) {
	var rec ledger.MasteryRecord
	if err := c.do(ctx, http.MethodPost, "/api/skills/user/progress", req, &rec); err != nil {
		return nil, fmt.Errorf("award mastery %s: %w", req.SkillID, err)
	}
	return &rec, nil
}

func (c *Client) RecordSession(ctx context.Context, req ledger.LogRequest) (*ledger.HistoryRecord, error) {
	var rec ledger.HistoryRecord
	if err := c.do(ctx, http.MethodPost, "/api/logs", req, &rec); err != nil {
		return nil, fmt.Errorf("record session: %w", err)
	}
	return &rec, nil
}

func (c *Client) DeleteHistoryEntry(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, "/api/logs/history/"+url.PathEscape(id), nil, nil); err != nil {
		return fmt.Errorf("delete history entry %s: %w", id, err)
	}
	return nil
}

func (c *Client) Streaks(ctx context.Context) (*ledger.StreakStats, error) {
	var stats ledger.StreakStats
	if err := c.do(ctx, http.MethodGet, "/api/logs/streaks", nil, &stats); err != nil {
		return nil, fmt.Errorf("get streaks: %w", err)
	}
	return &stats, nil
}

// History returns the newest records first. A limit <= 0 uses the server default.
func (c *Client) History(ctx context.Context, limit int) ([]ledger.HistoryRecord, error) {
	path := "/api/logs/history"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var records []ledger.HistoryRecord
	if err := c.do(ctx, http.MethodGet, path, nil, &records); err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return records, nil
}

// Library loads the reference data a session is planned from. Mastery is optional:
// without it skill sessions start from level 0.
func (c *Client) Library(ctx context.Context) (tracker.Library, error) {
	exercises, err := c.Exercises(ctx)
	if err != nil {
		return tracker.Library{}, err
	}
	skills, err := c.Skills(ctx)
	if err != nil {
		return tracker.Library{}, err
	}
	mastery, err := c.Mastery(ctx)
	if err != nil {
		log.Warnf("mastery not available, planning from level 0: %s", err)
	}
	return tracker.Library{
		Exercises: exercises,
		Skills:    skills,
		Mastery:   mastery,
	}, nil
}
