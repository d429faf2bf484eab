// Package provider abstracts the hosting platforms websites deploy to.
package provider

import (
	"context"
	"errors"

	"github.com/harshal-b-98/NextGenWeb-sub006/internal/domain"
)

// ErrNotFound indicates a project or deployment does not exist on the
// provider side.
var ErrNotFound = errors.New("provider: not found")

// Project is a provider-side hosting project.
type Project struct {
	ID   string
	Name string
}

// Deployment is the provider's view of a deploy operation.
type Deployment struct {
	ID           string
	URL          string
	InspectorURL string
	Status       domain.DeploymentStatus
}

// StatusResult is one poll observation.
type StatusResult struct {
	Status domain.DeploymentStatus
	URL    string
	Error  string
}

// DeployOptions carries per-deploy parameters.
type DeployOptions struct {
	Target string
	Meta   map[string]string
}

// ListOptions paginates deployment listings.
type ListOptions struct {
	Limit int
}

// Provider is the hosting-platform abstraction. Implementations map their
// native status vocabulary onto the canonical domain.DeploymentStatus enum.
type Provider interface {
	Name() string
	CreateProject(ctx context.Context, name, framework string) (*Project, error)
	// GetProject returns ErrNotFound when no project matches.
	GetProject(ctx context.Context, nameOrID string) (*Project, error)
	Deploy(ctx context.Context, projectName string, files []domain.ExportedFile, opts DeployOptions) (*Deployment, error)
	GetDeploymentStatus(ctx context.Context, deploymentID string) (*StatusResult, error)
	CancelDeployment(ctx context.Context, deploymentID string) error
	AddDomain(ctx context.Context, projectID, name string) error
	VerifyDomain(ctx context.Context, projectID, name string) (bool, error)
	RemoveDomain(ctx context.Context, projectID, name string) error
	ListDeployments(ctx context.Context, projectID string, opts ListOptions) ([]Deployment, error)
}

// Registry resolves providers by name.
type Registry map[string]Provider

// Get returns the named provider or ErrNotFound.
func (r Registry) Get(name string) (Provider, error) {
	if p, ok := r[name]; ok {
		return p, nil
	}
	return nil, ErrNotFound
}
