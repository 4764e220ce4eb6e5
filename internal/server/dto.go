package server

import (
	"encoding/json"

	"flightpath/internal/domain"
)

type LoginRequest struct {
	GitHubID    string `json:"github_id"`
	Name        string `json:"name"`
	Email       string `json:"email,omitempty"`
	AvatarURL   string `json:"avatar_url,omitempty"`
	GitHubToken string `json:"github_token,omitempty"`
}

type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

type UserResponse struct {
	ID        string `json:"id"`
	GitHubID  string `json:"github_id"`
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
	CreatedAt string `json:"created_at"`
}

func userResponse(u domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		GitHubID:  u.GitHubID,
		Name:      u.Name,
		Email:     u.Email,
		AvatarURL: u.AvatarURL,
		CreatedAt: u.CreatedAt,
	}
}

type CreateAPIKeyRequest struct {
	Name string `json:"name,omitempty"`
}

type APIKeyResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name,omitempty"`
	Key       string `json:"key,omitempty"`
	CreatedAt string `json:"created_at"`
}

type CreateProjectRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Stage       string  `json:"stage,omitempty" enum:"idea,planning,execution,monitoring,done"`
	StartDate   *string `json:"start_date,omitempty"`
	EndDate     *string `json:"end_date,omitempty"`
	RepoURL     *string `json:"repo_url,omitempty"`
}

type UpdateProjectRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Stage       *string `json:"stage,omitempty"`
	StartDate   *string `json:"start_date,omitempty"`
	EndDate     *string `json:"end_date,omitempty"`
	RepoURL     *string `json:"repo_url,omitempty"`
}

type ProjectResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Stage       string  `json:"stage"`
	StartDate   *string `json:"start_date,omitempty"`
	EndDate     *string `json:"end_date,omitempty"`
	RepoURL     *string `json:"repo_url,omitempty"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

func projectResponse(p domain.Project) ProjectResponse {
	return ProjectResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Stage:       p.Stage,
		StartDate:   p.StartDate,
		EndDate:     p.EndDate,
		RepoURL:     p.RepoURL,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func mapProjects(items []domain.Project) []ProjectResponse {
	out := make([]ProjectResponse, 0, len(items))
	for _, p := range items {
		out = append(out, projectResponse(p))
	}
	return out
}

type CreateMilestoneRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Status      string  `json:"status,omitempty" enum:"on_track,at_risk,overdue,completed"`
	StartDate   *string `json:"start_date,omitempty"`
	EndDate     *string `json:"end_date,omitempty"`
}

type UpdateMilestoneRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Status      *string `json:"status,omitempty"`
	StartDate   *string `json:"start_date,omitempty"`
	EndDate     *string `json:"end_date,omitempty"`
}

type MilestoneResponse struct {
	ID          string  `json:"id"`
	ProjectID   string  `json:"project_id"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Status      string  `json:"status"`
	StartDate   *string `json:"start_date,omitempty"`
	EndDate     *string `json:"end_date,omitempty"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

func milestoneResponse(m domain.Milestone) MilestoneResponse {
	return MilestoneResponse{
		ID:          m.ID,
		ProjectID:   m.ProjectID,
		Title:       m.Title,
		Description: m.Description,
		Status:      m.Status,
		StartDate:   m.StartDate,
		EndDate:     m.EndDate,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func mapMilestones(items []domain.Milestone) []MilestoneResponse {
	out := make([]MilestoneResponse, 0, len(items))
	for _, m := range items {
		out = append(out, milestoneResponse(m))
	}
	return out
}

type CreateTaskRequest struct {
	Title       string `json:"title"`
	Type        string `json:"type,omitempty" enum:"task,bug,improvement,idea"`
	Status      string `json:"status,omitempty" enum:"todo,in_progress,blocked,done"`
	Description string `json:"description,omitempty"`
}

type UpdateTaskRequest struct {
	Title       *string `json:"title,omitempty"`
	Type        *string `json:"type,omitempty"`
	Status      *string `json:"status,omitempty"`
	Description *string `json:"description,omitempty"`
	SortOrder   *int    `json:"sort_order,omitempty"`
}

type TaskResponse struct {
	ID          string `json:"id"`
	MilestoneID string `json:"milestone_id"`
	Title       string `json:"title"`
	Type        string `json:"type"`
	Status      string `json:"status"`
	Description string `json:"description,omitempty"`
	SortOrder   int    `json:"sort_order"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

func taskResponse(t domain.Task) TaskResponse {
	return TaskResponse{
		ID:          t.ID,
		MilestoneID: t.MilestoneID,
		Title:       t.Title,
		Type:        t.Type,
		Status:      t.Status,
		Description: t.Description,
		SortOrder:   t.SortOrder,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func mapTasks(items []domain.Task) []TaskResponse {
	out := make([]TaskResponse, 0, len(items))
	for _, t := range items {
		out = append(out, taskResponse(t))
	}
	return out
}

type ActivityEventResponse struct {
	ID         string         `json:"id"`
	ProjectID  string         `json:"project_id"`
	Kind       string         `json:"kind"`
	ExternalID string         `json:"external_id"`
	OccurredAt string         `json:"occurred_at"`
	Actor      string         `json:"actor"`
	Title      string         `json:"title"`
	URL        string         `json:"url,omitempty"`
	Metadata   map[string]any `json:"metadata"`
	CreatedAt  string         `json:"created_at"`
	UpdatedAt  string         `json:"updated_at"`
}

func activityEventResponse(e domain.ActivityEvent) ActivityEventResponse {
	meta := map[string]any{}
	if e.Metadata != "" {
		_ = json.Unmarshal([]byte(e.Metadata), &meta)
	}
	return ActivityEventResponse{
		ID:         e.ID,
		ProjectID:  e.ProjectID,
		Kind:       e.Kind,
		ExternalID: e.ExternalID,
		OccurredAt: e.OccurredAt,
		Actor:      e.Actor,
		Title:      e.Title,
		URL:        e.URL,
		Metadata:   meta,
		CreatedAt:  e.CreatedAt,
		UpdatedAt:  e.UpdatedAt,
	}
}

func mapActivityEvents(items []domain.ActivityEvent) []ActivityEventResponse {
	out := make([]ActivityEventResponse, 0, len(items))
	for _, e := range items {
		out = append(out, activityEventResponse(e))
	}
	return out
}

type SyncedCounts struct {
	Commits      int `json:"commits"`
	PullRequests int `json:"pullRequests"`
}

type SyncResponse struct {
	Success bool         `json:"success"`
	Synced  SyncedCounts `json:"synced"`
}
