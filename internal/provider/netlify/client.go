// Package netlify implements provider.Provider against the Netlify API.
package netlify

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"log/slog"

	"github.com/harshal-b-98/NextGenWeb-sub006/internal/domain"
	"github.com/harshal-b-98/NextGenWeb-sub006/internal/provider"
)

const defaultBaseURL = "https://api.netlify.com/api/v1"

var _ provider.Provider = (*Client)(nil)

// Client talks to the Netlify API. Netlify calls projects "sites" and uses
// a digest-based deploy flow: announce file SHAs, then upload the ones the
// platform has not seen before.
type Client struct {
	baseURL    string
	token      string
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
func (c *Client) Name() string { return "netlify" }

type siteResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CreateProject creates a Netlify site.
func (c *Client) CreateProject(ctx context.Context, name, framework string) (*provider.Project, error) {
	var resp siteResponse
	if err := c.do(ctx, http.MethodPost, "/sites", map[string]string{"name": name}, &resp); err != nil {
		return nil, err
	}
	return &provider.Project{ID: resp.ID, Name: resp.Name}, nil
}

// GetProject looks up a site by id or name.
func (c *Client) GetProject(ctx context.Context, nameOrID string) (*provider.Project, error) {
	var resp siteResponse
	if err := c.do(ctx, http.MethodGet, "/sites/"+url.PathEscape(nameOrID), nil, &resp); err != nil {
		return nil, err
	}
	return &provider.Project{ID: resp.ID, Name: resp.Name}, nil
}

type deployResponse struct {
	ID         string   `json:"id"`
	State      string   `json:"state"`
	SSLURL     string   `json:"ssl_url"`
	DeployURL  string   `json:"deploy_ssl_url"`
	AdminURL   string   `json:"admin_url"`
	ErrorMsg   string   `json:"error_message"`
	Required   []string `json:"required"`
	SiteID     string   `json:"site_id"`
	CommitRef  string   `json:"commit_ref"`
	DeployTime int      `json:"deploy_time"`
}

// Deploy announces the file digests, uploads required files, and returns
// the created deploy.
func (c *Client) Deploy(ctx context.Context, projectName string, files []domain.ExportedFile, opts provider.DeployOptions) (*provider.Deployment, error) {
	digests := make(map[string]string, len(files))
	byDigest := make(map[string]domain.ExportedFile, len(files))
	for _, f := range files {
		if f.IsDir {
			continue
		}
		sum := sha1.Sum([]byte(f.Content))
		digest := hex.EncodeToString(sum[:])
		path := "/" + strings.TrimPrefix(f.Path, "/")
		digests[path] = digest
		byDigest[digest] = f
	}

	payload := map[string]any{"files": digests}
	if opts.Target == "production" {
		payload["draft"] = false
	} else {
		payload["draft"] = true
	}

	var resp deployResponse
	if err := c.do(ctx, http.MethodPost, "/sites/"+url.PathEscape(projectName)+"/deploys", payload, &resp); err != nil {
		return nil, err
	}

	for _, digest := range resp.Required {
		file, ok := byDigest[digest]
		if !ok {
			continue
		}
		if err := c.uploadFile(ctx, resp.ID, file); err != nil {
			return nil, fmt.Errorf("upload %s: %w", file.Path, err)
		}
	}

	return &provider.Deployment{
		ID:           resp.ID,
		URL:          pickURL(resp),
		InspectorURL: resp.AdminURL,
		Status:       mapState(resp.State),
	}, nil
}

// GetDeploymentStatus polls one deploy.
func (c *Client) GetDeploymentStatus(ctx context.Context, deploymentID string) (*provider.StatusResult, error) {
	var resp deployResponse
	if err := c.do(ctx, http.MethodGet, "/deploys/"+url.PathEscape(deploymentID), nil, &resp); err != nil {
		return nil, err
	}
	return &provider.StatusResult{
		Status: mapState(resp.State),
		URL:    pickURL(resp),
		Error:  resp.ErrorMsg,
	}, nil
}

// CancelDeployment aborts a running deploy.
func (c *Client) CancelDeployment(ctx context.Context, deploymentID string) error {
	return c.do(ctx, http.MethodPost, "/deploys/"+url.PathEscape(deploymentID)+"/cancel", nil, nil)
}

// AddDomain sets a custom domain on a site.
func (c *Client) AddDomain(ctx context.Context, projectID, name string) error {
	body := map[string]string{"custom_domain": name}
	return c.do(ctx, http.MethodPatch, "/sites/"+url.PathEscape(projectID), body, nil)
}

// VerifyDomain checks DNS for the site's custom domain.
func (c *Client) VerifyDomain(ctx context.Context, projectID, name string) (bool, error) {
	var resp struct {
		State string `json:"state"`
	}
	path := "/sites/" + url.PathEscape(projectID) + "/dns"
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return false, err
	}
	return strings.EqualFold(resp.State, "verified"), nil
}

// RemoveDomain clears the custom domain from a site.
func (c *Client) RemoveDomain(ctx context.Context, projectID, name string) error {
	body := map[string]any{"custom_domain": nil}
	return c.do(ctx, http.MethodPatch, "/sites/"+url.PathEscape(projectID), body, nil)
}

// ListDeployments returns recent deploys of a site.
func (c *Client) ListDeployments(ctx context.Context, projectID string, opts provider.ListOptions) ([]provider.Deployment, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}
	path := fmt.Sprintf("/sites/%s/deploys?per_page=%d", url.PathEscape(projectID), limit)
	var resp []deployResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	out := make([]provider.Deployment, 0, len(resp))
	for _, d := range resp {
		out = append(out, provider.Deployment{
			ID:           d.ID,
			URL:          pickURL(d),
			InspectorURL: d.AdminURL,
			Status:       mapState(d.State),
		})
	}
	return out, nil
}

// mapState translates Netlify deploy states onto the canonical enum.
func mapState(state string) domain.DeploymentStatus {
	switch strings.ToLower(strings.TrimSpace(state)) {
	case "new", "pending_review", "accepted", "enqueued":
		return domain.DeployPending
	case "building", "preparing", "prepared":
		return domain.DeployBuilding
	case "uploading", "uploaded", "processing":
		return domain.DeployDeploying
	case "ready", "current":
		return domain.DeployReady
	case "error", "failed":
		return domain.DeployError
	case "canceled", "deleted", "rejected":
		return domain.DeployCanceled
	default:
		return domain.DeployBuilding
	}
}

func pickURL(d deployResponse) string {
	if d.SSLURL != "" {
		return d.SSLURL
	}
	return d.DeployURL
}

func (c *Client) uploadFile(ctx context.Context, deployID string, file domain.ExportedFile) error {
	path := "/deploys/" + url.PathEscape(deployID) + "/files/" + strings.TrimPrefix(file.Path, "/")
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+path, strings.NewReader(file.Content))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/octet-stream")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= 400 {
		return fmt.Errorf("netlify returned %s", resp.Status)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body, v any) error {
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
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("netlify request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		io.Copy(io.Discard, resp.Body)
		return provider.ErrNotFound
	}
	if resp.StatusCode >= 400 {
		var apiErr struct {
			Message string `json:"message"`
		}
		if decodeErr := json.NewDecoder(resp.Body).Decode(&apiErr); decodeErr == nil && apiErr.Message != "" {
			return fmt.Errorf("netlify: %s", apiErr.Message)
		}
		return fmt.Errorf("netlify returned %s", resp.Status)
	}
	if v == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode netlify response: %w", err)
	}
	return nil
}
