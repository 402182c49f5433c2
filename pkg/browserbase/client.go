package browserbase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
)

const defaultBaseURL = "https://api.browserbase.com"

// Client talks to the session-provisioning REST API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

type ClientOption func(*Client)

// WithBaseURL overrides the API endpoint, used by tests and self-hosted
// deployments.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient swaps the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a session API client authenticated with apiKey.
func NewClient(apiKey string, options ...ClientOption) *Client {
	client := &Client{
		baseURL: defaultBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}

	for _, option := range options {
		option(client)
	}

	return client
}

// CreateSession provisions a fresh remote browser session.
func (c *Client) CreateSession(ctx context.Context, request SessionRequest) (*Session, error) {
	payload, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to encode session request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/sessions", c.baseURL)
	log.Debug("creating remote browser session", "url", url, "project", request.ProjectID)

	session := &Session{}
	if err := c.do(ctx, http.MethodPost, url, payload, session); err != nil {
		return nil, err
	}

	log.Debug("session created", "id", session.ID, "status", session.Status)
	return session, nil
}

// StopSession asks the API to release a keep-alive session so it stops
// accruing time. Failures are returned but callers typically just log them;
// the server reaps idle sessions on its own timeout regardless.
func (c *Client) StopSession(ctx context.Context, projectID, sessionID string) error {
	payload, err := json.Marshal(map[string]string{
		"projectId": projectID,
		"status":    "REQUEST_RELEASE",
	})
	if err != nil {
		return fmt.Errorf("failed to encode release request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/sessions/%s", c.baseURL, sessionID)
	log.Debug("releasing remote browser session", "id", sessionID)

	return c.do(ctx, http.MethodPost, url, payload, nil)
}

func (c *Client) do(ctx context.Context, method, url string, payload []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-BB-API-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach session API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("session API returned non-OK status: %d, body: %s", resp.StatusCode, string(body))
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode session API response: %w", err)
	}

	return nil
}

// InspectorURL returns the operator-facing session page for a session id.
func InspectorURL(sessionID string) string {
	return fmt.Sprintf("https://browserbase.com/sessions/%s", sessionID)
}
