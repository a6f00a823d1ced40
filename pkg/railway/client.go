// Package railway provides a Railway GraphQL API client for deployment
// status, logs, variables, and redeploys.
package railway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// DefaultAPIURL is Railway's public GraphQL endpoint.
const DefaultAPIURL = "https://backboard.railway.app/graphql/v2"

// Client executes GraphQL queries against the Railway API.
type Client struct {
	httpClient *http.Client
	apiURL     string
	token      string
}

// NewClient creates a client authenticated with the given API token.
func NewClient(token string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		apiURL:     DefaultAPIURL,
		token:      token,
	}
}

// NewClientWithURL creates a client against a custom endpoint. Used by tests.
func NewClientWithURL(token, apiURL string) *Client {
	c := NewClient(token)
	c.apiURL = apiURL
	return c
}

type graphQLRequest struct {
	Variables map[string]any `json:"variables"`
	Query     string         `json:"query"`
}

type graphQLError struct {
	Message string `json:"message"`
}

// query executes a GraphQL operation and decodes the "data" object into out.
func (c *Client) query(ctx context.Context, query string, variables map[string]any, out any) error {
	if variables == nil {
		variables = map[string]any{}
	}
	payload, err := json.Marshal(graphQLRequest{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("failed to encode graphql request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("railway request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var envelope struct {
		Data   json.RawMessage `json:"data"`
		Errors []graphQLError  `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("failed to decode railway response: %w", err)
	}
	if len(envelope.Errors) > 0 {
		return fmt.Errorf("railway API error: %s", envelope.Errors[0].Message)
	}

	if out != nil && len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("failed to decode railway data: %w", err)
		}
	}
	return nil
}

// Deployment is one deployment in a project's history.
type Deployment struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	CreatedAt string `json:"createdAt"`
}

// GetDeployments returns recent deployments for a project, newest first.
func (c *Client) GetDeployments(ctx context.Context, projectID string, limit int) ([]Deployment, error) {
	if limit <= 0 {
		limit = 10
	}
	const q = `query($projectId: String!, $limit: Int!) {
		deployments(input: { projectId: $projectId } first: $limit) {
			edges { node { id status createdAt } }
		}
	}`

	var data struct {
		Deployments struct {
			Edges []struct {
				Node Deployment `json:"node"`
			} `json:"edges"`
		} `json:"deployments"`
	}
	err := c.query(ctx, q, map[string]any{"projectId": projectID, "limit": limit}, &data)
	if err != nil {
		return nil, err
	}

	deployments := make([]Deployment, 0, len(data.Deployments.Edges))
	for _, edge := range data.Deployments.Edges {
		deployments = append(deployments, edge.Node)
	}
	return deployments, nil
}

// LogLine is one deployment log entry.
type LogLine struct {
	Timestamp string `json:"timestamp"`
	Message   string `json:"message"`
}

// GetLogs returns up to limit log lines for a deployment.
func (c *Client) GetLogs(ctx context.Context, deploymentID string, limit int) ([]LogLine, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `query($deploymentId: String!, $limit: Int!) {
		deploymentLogs(deploymentId: $deploymentId limit: $limit) {
			message
			timestamp
		}
	}`

	var data struct {
		DeploymentLogs []LogLine `json:"deploymentLogs"`
	}
	err := c.query(ctx, q, map[string]any{"deploymentId": deploymentID, "limit": limit}, &data)
	if err != nil {
		return nil, err
	}
	return data.DeploymentLogs, nil
}

// ProjectStatus summarizes a project's latest deployment.
type ProjectStatus struct {
	Status            string
	LatestDeployment  *Deployment
	RecentDeployments []Deployment
}

// GetProjectStatus returns the project's recent deployments and overall
// status (the latest deployment's status, or "unknown" with no history).
func (c *Client) GetProjectStatus(ctx context.Context, projectID string) (*ProjectStatus, error) {
	deployments, err := c.GetDeployments(ctx, projectID, 3)
	if err != nil {
		return nil, err
	}

	status := &ProjectStatus{
		Status:            "unknown",
		RecentDeployments: deployments,
	}
	if len(deployments) > 0 {
		status.LatestDeployment = &deployments[0]
		status.Status = deployments[0].Status
	}
	return status, nil
}

// SetVariable upserts an environment variable.
func (c *Client) SetVariable(ctx context.Context, projectID, environmentID, name, value string) error {
	const q = `mutation($projectId: String!, $environmentId: String!, $name: String!, $value: String!) {
		variableUpsert(input: {
			projectId: $projectId
			environmentId: $environmentId
			name: $name
			value: $value
		})
	}`
	return c.query(ctx, q, map[string]any{
		"projectId":     projectID,
		"environmentId": environmentID,
		"name":          name,
		"value":         value,
	}, nil)
}

// Redeploy triggers a redeployment of a service in an environment.
func (c *Client) Redeploy(ctx context.Context, serviceID, environmentID string) error {
	const q = `mutation($serviceId: String!, $environmentId: String!) {
		serviceRedeploy(serviceId: $serviceId environmentId: $environmentId)
	}`
	return c.query(ctx, q, map[string]any{
		"serviceId":     serviceID,
		"environmentId": environmentID,
	}, nil)
}
