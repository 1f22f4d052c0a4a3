package jules

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	julesErrors "github.com/robertpelloni/jules-app/internal/errors"
	"github.com/robertpelloni/jules-app/internal/logger"
)

const DefaultBaseURL = "https://jules.googleapis.com/v1"

// APIError carries the upstream status and body for non-2xx responses.
type APIError struct {
	StatusCode int
	Message    string
	Body       string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("jules api error: status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("jules api error: status %d", e.StatusCode)
}

func (e *APIError) Unwrap() error {
	return julesErrors.ErrProvider
}

// Client talks to the remote session/activity store. All calls are
// authenticated with an opaque API key via the X-Goog-Api-Key header.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) request(ctx context.Context, method, endpoint string, body interface{}, out interface{}) error {
	if c.apiKey == "" {
		return julesErrors.Configuration("jules API key is not set")
	}

	var reqBody *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return julesErrors.Wrap(err, "encode request body")
		}
		reqBody = bytes.NewReader(b)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reqBody)
	if err != nil {
		return julesErrors.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return julesErrors.Transient(fmt.Sprintf("%s %s: %v", method, endpoint, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var payload struct {
			Message string `json:"message"`
			Error   struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil {
			apiErr.Message = payload.Message
			if apiErr.Message == "" {
				apiErr.Message = payload.Error.Message
			}
		}
		slog.Debug("jules api error",
			"method", method,
			"endpoint", endpoint,
			"status", resp.StatusCode,
			"trace_id", logger.GetTraceID(ctx),
			"session_id", logger.GetSessionID(ctx),
		)
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return julesErrors.Wrap(err, "decode response")
	}
	return nil
}

func (c *Client) ListSources(ctx context.Context) ([]Source, error) {
	var resp struct {
		Sources []Source `json:"sources"`
	}
	if err := c.request(ctx, http.MethodGet, "/sources", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Sources, nil
}

func (c *Client) ListSessions(ctx context.Context) ([]Session, error) {
	var resp struct {
		Sessions []Session `json:"sessions"`
	}
	if err := c.request(ctx, http.MethodGet, "/sessions", nil, &resp); err != nil {
		return nil, err
	}
	for i := range resp.Sessions {
		if resp.Sessions[i].Status == "" {
			resp.Sessions[i].Status = NormalizeStatus(resp.Sessions[i].RawStatus)
		}
	}
	return resp.Sessions, nil
}

func (c *Client) GetSession(ctx context.Context, id string) (*Session, error) {
	var sess Session
	if err := c.request(ctx, http.MethodGet, "/sessions/"+id, nil, &sess); err != nil {
		return nil, err
	}
	if sess.Status == "" {
		sess.Status = NormalizeStatus(sess.RawStatus)
	}
	return &sess, nil
}

func (c *Client) CreateSession(ctx context.Context, req CreateSessionRequest) (*Session, error) {
	var sess Session
	if err := c.request(ctx, http.MethodPost, "/sessions", req, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// ResumeSession asks the agent to pick a paused/completed/failed session back up.
func (c *Client) ResumeSession(ctx context.Context, id string) error {
	return c.request(ctx, http.MethodPost, "/sessions/"+id+":resume", struct{}{}, nil)
}

// ApprovePlan approves a plan the agent is waiting on.
func (c *Client) ApprovePlan(ctx context.Context, id string) error {
	return c.request(ctx, http.MethodPost, "/sessions/"+id+":approvePlan", struct{}{}, nil)
}

func (c *Client) ListActivities(ctx context.Context, sessionID string) ([]Activity, error) {
	var resp struct {
		Activities []Activity `json:"activities"`
	}
	if err := c.request(ctx, http.MethodGet, "/sessions/"+sessionID+"/activities", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Activities, nil
}

// SendMessage appends a user message activity to a session.
func (c *Client) SendMessage(ctx context.Context, sessionID, content string) (*Activity, error) {
	req := CreateActivityRequest{SessionID: sessionID, Content: content, Type: ActivityMessage}
	var act Activity
	if err := c.request(ctx, http.MethodPost, "/sessions/"+sessionID+"/activities", req, &act); err != nil {
		return nil, err
	}
	return &act, nil
}
