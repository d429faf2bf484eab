package domain

import "time"

// DeploymentStatus is the canonical deployment state machine. Transitions
// only move forward; the three terminal states are absorbing.
type DeploymentStatus string

const (
	DeployPending   DeploymentStatus = "pending"
	DeployBuilding  DeploymentStatus = "building"
	DeployDeploying DeploymentStatus = "deploying"
	DeployReady     DeploymentStatus = "ready"
	DeployError     DeploymentStatus = "error"
	DeployCanceled  DeploymentStatus = "canceled"
)

// Terminal reports whether no further automatic transition occurs.
func (s DeploymentStatus) Terminal() bool {
	switch s {
	case DeployReady, DeployError, DeployCanceled:
		return true
	}
	return false
}

// Deployment captures a single build+deploy attempt against a hosting
// provider. CompletedAt is set exactly when Status is terminal.
type Deployment struct {
	ID                   string           `json:"id"`
	WebsiteID            string           `json:"website_id"`
	Provider             string           `json:"provider"`
	Status               DeploymentStatus `json:"status"`
	Target               string           `json:"target"`
	URL                  string           `json:"url"`
	InspectorURL         string           `json:"inspector_url"`
	ProviderDeploymentID string           `json:"provider_deployment_id"`
	ProviderProjectID    string           `json:"provider_project_id"`
	Error                string           `json:"error"`
	CreatedAt            time.Time        `json:"created_at"`
	UpdatedAt            time.Time        `json:"updated_at"`
	CompletedAt          *time.Time       `json:"completed_at"`
}

// DeploymentStatusUpdate carries the mutable fields of a deployment. Empty
// strings leave the stored value untouched.
type DeploymentStatusUpdate struct {
	DeploymentID         string
	Status               DeploymentStatus
	URL                  string
	InspectorURL         string
	ProviderDeploymentID string
	ProviderProjectID    string
	Error                string
	CompletedAt          *time.Time
}
