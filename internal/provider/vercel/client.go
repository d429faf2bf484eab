// Package vercel implements provider.Provider against the Vercel REST API.
package vercel

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"log/slog"

	"github.com/sethvargo/go-retry"

	"github.com/harshal-b-98/NextGenWeb-sub006/internal/domain"
	"github.com/harshal-b-98/NextGenWeb-sub006/internal/provider"
)

const defaultBaseURL = "https://api.vercel.com"

var _ provider.Provider = (*Client)(nil)

// Client talks to the Vercel REST API.
type Client struct {
	baseURL    string
	token      string
	teamID     string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option customises client instantiation.
type Option func(*Client)

// WithBaseURL overrides the API endpoint, used by tests.
func WithBaseURL(base string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(base, "/")
	}
}

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// WithTeam scopes all requests to a Vercel team.
func WithTeam(teamID string) Option {
	return func(c *Client) {
		c.teamID = teamID
	}
}

// New constructs a Client authenticated with the given token.
func New(token string, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name identifies the provider.
func (c *Client) Name() string { return "vercel" }

// apiError is Vercel's error envelope.
type apiError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// CreateProject registers a hosting project.
func (c *Client) CreateProject(ctx context.Context, name, framework string) (*provider.Project, error) {
	body := map[string]any{"name": name}
	if framework != "" {
		body["framework"] = framework
	}
	var resp struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if err := c.do(ctx, http.MethodPost, "/v10/projects", body, &resp); err != nil {
		return nil, err
	}
	return &provider.Project{ID: resp.ID, Name: resp.Name}, nil
}

// GetProject looks up a project by name or id.
func (c *Client) GetProject(ctx context.Context, nameOrID string) (*provider.Project, error) {
	var resp struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	err := c.do(ctx, http.MethodGet, "/v9/projects/"+url.PathEscape(nameOrID), nil, &resp)
	if err != nil {
		return nil, err
	}
	return &provider.Project{ID: resp.ID, Name: resp.Name}, nil
}

// Deploy uploads the file tree and starts a build. Files are sent inline;
// the trees this platform exports stay small enough that the digest upload
// flow is not worth its bookkeeping.
func (c *Client) Deploy(ctx context.Context, projectName string, files []domain.ExportedFile, opts provider.DeployOptions) (*provider.Deployment, error) {
	type inlineFile struct {
		File string `json:"file"`
		Data string `json:"data"`
	}
	payload := struct {
		Name   string            `json:"name"`
		Files  []inlineFile      `json:"files"`
		Target string            `json:"target,omitempty"`
		Meta   map[string]string `json:"meta,omitempty"`
	}{Name: projectName, Target: opts.Target, Meta: opts.Meta}
	for _, f := range files {
		if f.IsDir {
			continue
		}
		payload.Files = append(payload.Files, inlineFile{File: f.Path, Data: f.Content})
	}

	var resp struct {
		ID           string `json:"id"`
		URL          string `json:"url"`
		ReadyState   string `json:"readyState"`
		InspectorURL string `json:"inspectorUrl"`
	}
	if err := c.do(ctx, http.MethodPost, "/v13/deployments", payload, &resp); err != nil {
		return nil, err
	}
	return &provider.Deployment{
		ID:           resp.ID,
		URL:          normalizeURL(resp.URL),
		InspectorURL: resp.InspectorURL,
		Status:       mapReadyState(resp.ReadyState),
	}, nil
}

// GetDeploymentStatus polls one deployment.
func (c *Client) GetDeploymentStatus(ctx context.Context, deploymentID string) (*provider.StatusResult, error) {
	var resp struct {
		ReadyState string `json:"readyState"`
		URL        string `json:"url"`
		ErrorMsg   string `json:"errorMessage"`
	}
	if err := c.do(ctx, http.MethodGet, "/v13/deployments/"+url.PathEscape(deploymentID), nil, &resp); err != nil {
		return nil, err
	}
	return &provider.StatusResult{
		Status: mapReadyState(resp.ReadyState),
		URL:    normalizeURL(resp.URL),
		Error:  resp.ErrorMsg,
	}, nil
}

// CancelDeployment aborts a running deployment.
func (c *Client) CancelDeployment(ctx context.Context, deploymentID string) error {
	return c.do(ctx, http.MethodPatch, "/v12/deployments/"+url.PathEscape(deploymentID)+"/cancel", nil, nil)
}

// AddDomain attaches a custom domain to a project.
func (c *Client) AddDomain(ctx context.Context, projectID, name string) error {
	body := map[string]string{"name": name}
	return c.do(ctx, http.MethodPost, "/v10/projects/"+url.PathEscape(projectID)+"/domains", body, nil)
}

// VerifyDomain triggers domain verification and reports the outcome.
func (c *Client) VerifyDomain(ctx context.Context, projectID, name string) (bool, error) {
	var resp struct {
		Verified bool `json:"verified"`
	}
	path := "/v9/projects/" + url.PathEscape(projectID) + "/domains/" + url.PathEscape(name) + "/verify"
	if err := c.do(ctx, http.MethodPost, path, nil, &resp); err != nil {
		return false, err
	}
	return resp.Verified, nil
}

// RemoveDomain detaches a custom domain.
func (c *Client) RemoveDomain(ctx context.Context, projectID, name string) error {
	path := "/v9/projects/" + url.PathEscape(projectID) + "/domains/" + url.PathEscape(name)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// ListDeployments returns recent deployments of a project.
func (c *Client) ListDeployments(ctx context.Context, projectID string, opts provider.ListOptions) ([]provider.Deployment, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}
	path := fmt.Sprintf("/v6/deployments?projectId=%s&limit=%d", url.QueryEscape(projectID), limit)
	var resp struct {
		Deployments []struct {
			UID        string `json:"uid"`
			URL        string `json:"url"`
			ReadyState string `json:"readyState"`
			Inspector  string `json:"inspectorUrl"`
		} `json:"deployments"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	out := make([]provider.Deployment, 0, len(resp.Deployments))
	for _, d := range resp.Deployments {
		out = append(out, provider.Deployment{
			ID:           d.UID,
			URL:          normalizeURL(d.URL),
			InspectorURL: d.Inspector,
			Status:       mapReadyState(d.ReadyState),
		})
	}
	return out, nil
}

// mapReadyState translates Vercel's readyState vocabulary onto the
// canonical status enum.
func mapReadyState(state string) domain.DeploymentStatus {
	switch strings.ToUpper(strings.TrimSpace(state)) {
	case "QUEUED":
		return domain.DeployPending
	case "INITIALIZING", "BUILDING":
		return domain.DeployBuilding
	case "UPLOADING", "DEPLOYING":
		return domain.DeployDeploying
	case "READY":
		return domain.DeployReady
	case "ERROR":
		return domain.DeployError
	case "CANCELED":
		return domain.DeployCanceled
	default:
		return domain.DeployBuilding
	}
}

func normalizeURL(raw string) string {
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return raw
	}
	return "https://" + raw
}

func (c *Client) do(ctx context.Context, method, path string, body, v any) error {
	// Only reads are replayed. A POST that reached Vercel before the
	// connection dropped would otherwise create a second deployment or
	// project.
	if method != http.MethodGet {
		return c.doOnce(ctx, method, path, body, v)
	}
	var lastErr error
	backoff := retry.WithMaxRetries(2, retry.NewConstant(500*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		lastErr = c.doOnce(ctx, method, path, body, v)
		if lastErr == nil {
			return nil
		}
		var transient *transientError
		if errors.As(lastErr, &transient) {
			return retry.RetryableError(lastErr)
		}
		return lastErr
	})
	if err != nil {
		return lastErr
	}
	return nil
}

// transientError marks 5xx and transport failures as retryable.
type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

func (c *Client) doOnce(ctx context.Context, method, path string, body, v any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+c.teamSuffix(path), reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &transientError{err: fmt.Errorf("vercel request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		io.Copy(io.Discard, resp.Body)
		return provider.ErrNotFound
	}
	if resp.StatusCode >= 500 {
		io.Copy(io.Discard, resp.Body)
		return &transientError{err: fmt.Errorf("vercel returned %s", resp.Status)}
	}
	if resp.StatusCode >= 400 {
		var apiErr apiError
		if decodeErr := json.NewDecoder(resp.Body).Decode(&apiErr); decodeErr == nil && apiErr.Error.Message != "" {
			return fmt.Errorf("vercel: %s (%s)", apiErr.Error.Message, apiErr.Error.Code)
		}
		return fmt.Errorf("vercel returned %s", resp.Status)
	}
	if v == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode vercel response: %w", err)
	}
	return nil
}

func (c *Client) teamSuffix(path string) string {
	if c.teamID == "" {
		return path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "teamId=" + url.QueryEscape(c.teamID)
}
