package flightpathsdk

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

// Client is a minimal Flightpath HTTP API client.
type Client struct {
	BaseURL     string
	APIKey      string
	BearerToken string
	HTTPClient  *http.Client
	Timeout     time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		Timeout: 10 * time.Second,
	}
}

// Project represents the API project model.
type Project struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Stage       string  `json:"stage"`
	RepoURL     *string `json:"repo_url,omitempty"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

// Milestone represents the API milestone model.
type Milestone struct {
	ID        string `json:"id"`
	ProjectID string `json:"project_id"`
	Title     string `json:"title"`
	Status    string `json:"status"`
}

// Task represents the API task model.
type Task struct {
	ID          string `json:"id"`
	MilestoneID string `json:"milestone_id"`
	Title       string `json:"title"`
	Type        string `json:"type"`
	Status      string `json:"status"`
	SortOrder   int    `json:"sort_order"`
}

// ActivityEvent represents one entry of a project's activity log.
type ActivityEvent struct {
	ID         string         `json:"id"`
	ProjectID  string         `json:"project_id"`
	Kind       string         `json:"kind"`
	ExternalID string         `json:"external_id"`
	OccurredAt string         `json:"occurred_at"`
	Actor      string         `json:"actor"`
	Title      string         `json:"title"`
	URL        string         `json:"url,omitempty"`
	Metadata   map[string]any `json:"metadata"`
}

// SyncResult reports what a sync run stored.
type SyncResult struct {
	Success bool `json:"success"`
	Synced  struct {
		Commits      int `json:"commits"`
		PullRequests int `json:"pullRequests"`
	} `json:"synced"`
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// Login exchanges a GitHub identity for a bearer token and stores it on the
// client for subsequent calls.
func (c *Client) Login(ctx context.Context, githubID, name, githubToken string) error {
	body := map[string]any{
		"github_id":    githubID,
		"name":         name,
		"github_token": githubToken,
	}
	var resp struct {
		Token string `json:"token"`
	}
	if err := c.do(ctx, http.MethodPost, "v0/auth/login", body, &resp); err != nil {
		return err
	}
	c.BearerToken = resp.Token
	return nil
}

// CreateProject creates a project.
func (c *Client) CreateProject(ctx context.Context, name, stage, repoURL string) (Project, error) {
	body := map[string]any{"name": name}
	if stage != "" {
		body["stage"] = stage
	}
	if repoURL != "" {
		body["repo_url"] = repoURL
	}
	var resp Project
	err := c.do(ctx, http.MethodPost, "v0/projects", body, &resp)
	return resp, err
}

// ListProjects returns the caller's projects.
func (c *Client) ListProjects(ctx context.Context) ([]Project, error) {
	var resp []Project
	err := c.do(ctx, http.MethodGet, "v0/projects", nil, &resp)
	return resp, err
}

// CreateMilestone creates a milestone under a project.
func (c *Client) CreateMilestone(ctx context.Context, projectID, title string) (Milestone, error) {
	var resp Milestone
	endpoint := fmt.Sprintf("v0/projects/%s/milestones", url.PathEscape(projectID))
	err := c.do(ctx, http.MethodPost, endpoint, map[string]any{"title": title}, &resp)
	return resp, err
}

// CreateTask creates a task under a milestone.
func (c *Client) CreateTask(ctx context.Context, milestoneID, title, taskType string) (Task, error) {
	body := map[string]any{"title": title}
	if taskType != "" {
		body["type"] = taskType
	}
	var resp Task
	endpoint := fmt.Sprintf("v0/milestones/%s/tasks", url.PathEscape(milestoneID))
	err := c.do(ctx, http.MethodPost, endpoint, body, &resp)
	return resp, err
}

// Activity returns a project's newest activity events.
func (c *Client) Activity(ctx context.Context, projectID string, limit int) ([]ActivityEvent, error) {
	endpoint := fmt.Sprintf("v0/projects/%s/activity", url.PathEscape(projectID))
	if limit > 0 {
		endpoint = fmt.Sprintf("%s?limit=%d", endpoint, limit)
	}
	var resp []ActivityEvent
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

// Sync triggers a GitHub backfill for a project.
func (c *Client) Sync(ctx context.Context, projectID string) (SyncResult, error) {
	var resp SyncResult
	endpoint := fmt.Sprintf("v0/projects/%s/sync", url.PathEscape(projectID))
	err := c.do(ctx, http.MethodPost, endpoint, map[string]any{}, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	url := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	switch {
	case c.BearerToken != "":
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	case c.APIKey != "":
		req.Header.Set("X-Api-Key", c.APIKey)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}
