// Package client provides typed access to the NextGenWeb API for
// interactive tooling.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client provides typed access to the API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// Option customises client instantiation.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// New constructs a Client pointing at the provided API base URL.
func New(base, token string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimSpace(base)
	if trimmed == "" {
		trimmed = "http://localhost:4000"
	}
	if !strings.HasPrefix(trimmed, "http://") && !strings.HasPrefix(trimmed, "https://") {
		trimmed = "http://" + trimmed
	}
	if _, err := url.Parse(trimmed); err != nil {
		return nil, fmt.Errorf("invalid api base url: %w", err)
	}
	cli := &Client{
		baseURL:    strings.TrimRight(trimmed, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(cli)
	}
	return cli, nil
}

// APIError represents an error response from the API.
type APIError struct {
	Status  int
	Message string
}

func (e APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api request failed with status %d", e.Status)
	}
	return fmt.Sprintf("api request failed (%d): %s", e.Status, e.Message)
}

// Version mirrors the API's version resource.
type Version struct {
	ID            string            `json:"id"`
	WebsiteID     string            `json:"website_id"`
	VersionNumber int               `json:"version_number"`
	Status        string            `json:"status"`
	PageRevisions map[string]string `json:"page_revisions"`
	VersionName   string            `json:"version_name"`
	TriggerType   string            `json:"trigger_type"`
	CreatedAt     time.Time         `json:"created_at"`
	PublishedAt   *time.Time        `json:"published_at"`
}

// Deployment mirrors the API's deployment resource.
type Deployment struct {
	ID          string     `json:"id"`
	WebsiteID   string     `json:"website_id"`
	Provider    string     `json:"provider"`
	Status      string     `json:"status"`
	URL         string     `json:"url"`
	Error       string     `json:"error"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at"`
}

// Diff mirrors the API's version comparison result.
type Diff struct {
	Added     []string `json:"added"`
	Removed   []string `json:"removed"`
	Modified  []string `json:"modified"`
	Unchanged []string `json:"unchanged"`
	Summary   string   `json:"summary"`
}

// ListVersions fetches versions of a website, newest first.
func (c *Client) ListVersions(ctx context.Context, websiteID string) ([]Version, error) {
	var resp struct {
		Versions []Version `json:"versions"`
	}
	path := "/websites/" + url.PathEscape(websiteID) + "/versions"
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Versions, nil
}

// Finalize snapshots and publishes the current draft.
func (c *Client) Finalize(ctx context.Context, websiteID, name, description string) (*Version, error) {
	body := map[string]string{"version_name": name, "description": description}
	var resp Version
	path := "/websites/" + url.PathEscape(websiteID) + "/finalize"
	if err := c.do(ctx, http.MethodPost, path, body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Publish promotes a version to production.
func (c *Client) Publish(ctx context.Context, versionID string) (*Version, error) {
	var resp Version
	path := "/versions/" + url.PathEscape(versionID) + "/publish"
	if err := c.do(ctx, http.MethodPost, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Compare returns the diff between two versions.
func (c *Client) Compare(ctx context.Context, oldID, newID string) (*Diff, error) {
	var resp Diff
	path := fmt.Sprintf("/versions/compare?old=%s&new=%s", url.QueryEscape(oldID), url.QueryEscape(newID))
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Deploy triggers a deployment of the production version.
func (c *Client) Deploy(ctx context.Context, websiteID, providerName string) (*Deployment, error) {
	body := map[string]string{"provider": providerName}
	var resp Deployment
	path := "/websites/" + url.PathEscape(websiteID) + "/deploy"
	if err := c.do(ctx, http.MethodPost, path, body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetDeployment fetches a deployment row.
func (c *Client) GetDeployment(ctx context.Context, deploymentID string) (*Deployment, error) {
	var resp Deployment
	if err := c.do(ctx, http.MethodGet, "/deployments/"+url.PathEscape(deploymentID), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CancelDeployment stops a running deployment.
func (c *Client) CancelDeployment(ctx context.Context, deploymentID string) (*Deployment, error) {
	var resp Deployment
	path := "/deployments/" + url.PathEscape(deploymentID) + "/cancel"
	if err := c.do(ctx, http.MethodPost, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, v any) error {
	if ctx == nil {
		ctx = context.Background()
	}
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("api request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var payload struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&payload)
		return APIError{Status: resp.StatusCode, Message: payload.Error}
	}
	if v == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
