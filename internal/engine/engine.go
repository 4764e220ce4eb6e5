package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"flightpath/internal/activity"
	"flightpath/internal/config"
	"flightpath/internal/domain"
	"flightpath/internal/repo"
)

// Engine holds the wiring for all operations: storage, configuration and the
// activity pipeline. Now is injectable for tests.
type Engine struct {
	DB     *sql.DB
	Repo   repo.Repo
	Config *config.Config
	Now    func() time.Time
}

func New(db *sql.DB, cfg *config.Config) Engine {
	return Engine{
		DB:     db,
		Repo:   repo.Repo{DB: db},
		Config: cfg,
		Now:    time.Now,
	}
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e Engine) nowString() string {
	return e.now().UTC().Format(time.RFC3339)
}

// Verifier builds the webhook signature verifier from configuration. An
// empty configured secret disables verification.
func (e Engine) Verifier() activity.Verifier {
	secret := ""
	if e.Config != nil {
		secret = e.Config.GitHub.WebhookSecret
	}
	return activity.Verifier{Secret: secret}
}

func (e Engine) store() activity.Store {
	return activity.Store{Repo: e.Repo, Now: e.Now}
}

// Ingestor builds the webhook ingestion pipeline.
func (e Engine) Ingestor() activity.Ingestor {
	return activity.Ingestor{
		Resolver: activity.Resolver{Repo: e.Repo},
		Store:    e.store(),
	}
}

// Poller builds the REST backfill pipeline.
func (e Engine) Poller() activity.Poller {
	baseURL := ""
	lookback := 0
	if e.Config != nil {
		baseURL = e.Config.GitHub.APIBaseURL
		lookback = e.Config.GitHub.LookbackDays
	}
	return activity.Poller{
		Repo:  e.Repo,
		Store: e.store(),
		NewClient: func(ctx context.Context, token string) (*activity.Client, error) {
			return activity.NewClient(ctx, token, baseURL)
		},
		LookbackDays: lookback,
		Now:          e.Now,
	}
}

// IngestWebhook runs one verified webhook delivery through the pipeline.
func (e Engine) IngestWebhook(ctx context.Context, event string, raw []byte) (activity.IngestResult, error) {
	return e.Ingestor().Ingest(ctx, event, raw)
}

// SyncProject backfills a project's activity from the REST API.
func (e Engine) SyncProject(ctx context.Context, projectID, userID string) (activity.SyncResult, error) {
	return e.Poller().Sync(ctx, projectID, userID)
}

// ListActivity returns a project's newest events, ownership checked.
func (e Engine) ListActivity(ctx context.Context, projectID, userID string, limit int) ([]domain.ActivityEvent, error) {
	if _, err := e.Repo.GetProjectForUser(ctx, projectID, userID); err != nil {
		return nil, err
	}
	return e.Repo.ListActivityEvents(ctx, projectID, limit)
}

// UserUpsertOptions carry the GitHub identity of a signed-in user. Token is
// optional; an empty token leaves any stored one in place.
type UserUpsertOptions struct {
	GitHubID  string
	Name      string
	Email     string
	AvatarURL string
	Token     string
}

func (e Engine) UpsertUser(ctx context.Context, opts UserUpsertOptions) (domain.User, error) {
	if opts.GitHubID == "" {
		return domain.User{}, errors.New("github id is required")
	}
	if opts.Name == "" {
		return domain.User{}, errors.New("name is required")
	}
	now := e.nowString()
	u := domain.User{
		ID:        uuid.NewString(),
		GitHubID:  opts.GitHubID,
		Name:      opts.Name,
		Email:     opts.Email,
		AvatarURL: opts.AvatarURL,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return e.Repo.UpsertUser(ctx, u, opts.Token)
}

// CreateAPIKey mints a key for a user and returns the plaintext once; only
// its hash is stored.
func (e Engine) CreateAPIKey(ctx context.Context, userID, name string) (domain.APIKey, string, error) {
	if _, err := e.Repo.GetUser(ctx, userID); err != nil {
		return domain.APIKey{}, "", err
	}
	plaintext := "fp_" + uuid.NewString()
	key := domain.APIKey{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      name,
		KeyHash:   repo.HashAPIKey(plaintext),
		CreatedAt: e.nowString(),
	}
	if err := e.Repo.InsertAPIKey(ctx, key); err != nil {
		return domain.APIKey{}, "", err
	}
	return key, plaintext, nil
}

// ProjectCreateOptions are parameters for creating a project.
type ProjectCreateOptions struct {
	UserID      string
	Name        string
	Description string
	Stage       string
	StartDate   *string
	EndDate     *string
	RepoURL     *string
}

func (e Engine) CreateProject(ctx context.Context, opts ProjectCreateOptions) (domain.Project, error) {
	if opts.UserID == "" {
		return domain.Project{}, errors.New("user is required")
	}
	if opts.Name == "" {
		return domain.Project{}, errors.New("name is required")
	}
	if opts.Stage == "" {
		opts.Stage = "idea"
	}
	if !domain.ValidProjectStage(opts.Stage) {
		return domain.Project{}, fmt.Errorf("invalid stage %q", opts.Stage)
	}
	if _, err := e.Repo.GetUser(ctx, opts.UserID); err != nil {
		return domain.Project{}, err
	}
	now := e.nowString()
	p := domain.Project{
		ID:          uuid.NewString(),
		UserID:      opts.UserID,
		Name:        opts.Name,
		Description: opts.Description,
		Stage:       opts.Stage,
		StartDate:   opts.StartDate,
		EndDate:     opts.EndDate,
		RepoURL:     opts.RepoURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := e.Repo.InsertProject(ctx, p); err != nil {
		return domain.Project{}, err
	}
	return p, nil
}

// ProjectUpdateOptions encapsulate allowed updates. Nil fields are left
// untouched; a pointer to empty string clears nullable columns.
type ProjectUpdateOptions struct {
	Name        *string
	Description *string
	Stage       *string
	StartDate   *string
	EndDate     *string
	RepoURL     *string
}

func (e Engine) UpdateProject(ctx context.Context, id, userID string, opts ProjectUpdateOptions) (domain.Project, error) {
	if _, err := e.Repo.GetProjectForUser(ctx, id, userID); err != nil {
		return domain.Project{}, err
	}
	if opts.Stage != nil && !domain.ValidProjectStage(*opts.Stage) {
		return domain.Project{}, fmt.Errorf("invalid stage %q", *opts.Stage)
	}
	if opts.Name != nil && *opts.Name == "" {
		return domain.Project{}, errors.New("name cannot be empty")
	}
	err := e.Repo.UpdateProject(ctx, id, repo.ProjectUpdate{
		Name:        opts.Name,
		Description: opts.Description,
		Stage:       opts.Stage,
		StartDate:   opts.StartDate,
		EndDate:     opts.EndDate,
		RepoURL:     opts.RepoURL,
		UpdatedAt:   e.nowString(),
	})
	if err != nil {
		return domain.Project{}, err
	}
	return e.Repo.GetProject(ctx, id)
}

func (e Engine) GetProject(ctx context.Context, id, userID string) (domain.Project, error) {
	return e.Repo.GetProjectForUser(ctx, id, userID)
}

func (e Engine) ListProjects(ctx context.Context, userID string) ([]domain.Project, error) {
	return e.Repo.ListProjects(ctx, userID)
}

func (e Engine) DeleteProject(ctx context.Context, id, userID string) error {
	if _, err := e.Repo.GetProjectForUser(ctx, id, userID); err != nil {
		return err
	}
	return e.Repo.DeleteProject(ctx, id)
}

// MilestoneCreateOptions are parameters for creating a milestone.
type MilestoneCreateOptions struct {
	ProjectID   string
	UserID      string
	Title       string
	Description string
	Status      string
	StartDate   *string
	EndDate     *string
}

func (e Engine) CreateMilestone(ctx context.Context, opts MilestoneCreateOptions) (domain.Milestone, error) {
	if opts.Title == "" {
		return domain.Milestone{}, errors.New("title is required")
	}
	if opts.Status == "" {
		opts.Status = "on_track"
	}
	if !domain.ValidMilestoneStatus(opts.Status) {
		return domain.Milestone{}, fmt.Errorf("invalid status %q", opts.Status)
	}
	if _, err := e.Repo.GetProjectForUser(ctx, opts.ProjectID, opts.UserID); err != nil {
		return domain.Milestone{}, err
	}
	now := e.nowString()
	m := domain.Milestone{
		ID:          uuid.NewString(),
		ProjectID:   opts.ProjectID,
		Title:       opts.Title,
		Description: opts.Description,
		Status:      opts.Status,
		StartDate:   opts.StartDate,
		EndDate:     opts.EndDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := e.Repo.InsertMilestone(ctx, m); err != nil {
		return domain.Milestone{}, err
	}
	return m, nil
}

type MilestoneUpdateOptions struct {
	Title       *string
	Description *string
	Status      *string
	StartDate   *string
	EndDate     *string
}

func (e Engine) UpdateMilestone(ctx context.Context, id, userID string, opts MilestoneUpdateOptions) (domain.Milestone, error) {
	if _, err := e.Repo.GetMilestoneForUser(ctx, id, userID); err != nil {
		return domain.Milestone{}, err
	}
	if opts.Status != nil && !domain.ValidMilestoneStatus(*opts.Status) {
		return domain.Milestone{}, fmt.Errorf("invalid status %q", *opts.Status)
	}
	if opts.Title != nil && *opts.Title == "" {
		return domain.Milestone{}, errors.New("title cannot be empty")
	}
	err := e.Repo.UpdateMilestone(ctx, id, repo.MilestoneUpdate{
		Title:       opts.Title,
		Description: opts.Description,
		Status:      opts.Status,
		StartDate:   opts.StartDate,
		EndDate:     opts.EndDate,
		UpdatedAt:   e.nowString(),
	})
	if err != nil {
		return domain.Milestone{}, err
	}
	return e.Repo.GetMilestone(ctx, id)
}

func (e Engine) ListMilestones(ctx context.Context, projectID, userID string) ([]domain.Milestone, error) {
	if _, err := e.Repo.GetProjectForUser(ctx, projectID, userID); err != nil {
		return nil, err
	}
	return e.Repo.ListMilestones(ctx, projectID)
}

func (e Engine) DeleteMilestone(ctx context.Context, id, userID string) error {
	if _, err := e.Repo.GetMilestoneForUser(ctx, id, userID); err != nil {
		return err
	}
	return e.Repo.DeleteMilestone(ctx, id)
}

// TaskCreateOptions are parameters for creating a task. New tasks land at
// the end of the milestone's ordering.
type TaskCreateOptions struct {
	MilestoneID string
	UserID      string
	Title       string
	Type        string
	Status      string
	Description string
}

func (e Engine) CreateTask(ctx context.Context, opts TaskCreateOptions) (domain.Task, error) {
	if opts.Title == "" {
		return domain.Task{}, errors.New("title is required")
	}
	if opts.Type == "" {
		opts.Type = "task"
	}
	if !domain.ValidTaskType(opts.Type) {
		return domain.Task{}, fmt.Errorf("invalid type %q", opts.Type)
	}
	if opts.Status == "" {
		opts.Status = "todo"
	}
	if !domain.ValidTaskStatus(opts.Status) {
		return domain.Task{}, fmt.Errorf("invalid status %q", opts.Status)
	}
	if _, err := e.Repo.GetMilestoneForUser(ctx, opts.MilestoneID, opts.UserID); err != nil {
		return domain.Task{}, err
	}
	maxOrder, err := e.Repo.MaxTaskOrder(ctx, opts.MilestoneID)
	if err != nil {
		return domain.Task{}, err
	}
	now := e.nowString()
	t := domain.Task{
		ID:          uuid.NewString(),
		MilestoneID: opts.MilestoneID,
		Title:       opts.Title,
		Type:        opts.Type,
		Status:      opts.Status,
		Description: opts.Description,
		SortOrder:   maxOrder + 1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := e.Repo.InsertTask(ctx, t); err != nil {
		return domain.Task{}, err
	}
	return t, nil
}

type TaskUpdateOptions struct {
	Title       *string
	Type        *string
	Status      *string
	Description *string
	SortOrder   *int
}

func (e Engine) UpdateTask(ctx context.Context, id, userID string, opts TaskUpdateOptions) (domain.Task, error) {
	if _, err := e.Repo.GetTaskForUser(ctx, id, userID); err != nil {
		return domain.Task{}, err
	}
	if opts.Type != nil && !domain.ValidTaskType(*opts.Type) {
		return domain.Task{}, fmt.Errorf("invalid type %q", *opts.Type)
	}
	if opts.Status != nil && !domain.ValidTaskStatus(*opts.Status) {
		return domain.Task{}, fmt.Errorf("invalid status %q", *opts.Status)
	}
	if opts.Title != nil && *opts.Title == "" {
		return domain.Task{}, errors.New("title cannot be empty")
	}
	err := e.Repo.UpdateTask(ctx, id, repo.TaskUpdate{
		Title:       opts.Title,
		Type:        opts.Type,
		Status:      opts.Status,
		Description: opts.Description,
		SortOrder:   opts.SortOrder,
		UpdatedAt:   e.nowString(),
	})
	if err != nil {
		return domain.Task{}, err
	}
	return e.Repo.GetTask(ctx, id)
}

func (e Engine) ListTasks(ctx context.Context, milestoneID, userID string) ([]domain.Task, error) {
	if _, err := e.Repo.GetMilestoneForUser(ctx, milestoneID, userID); err != nil {
		return nil, err
	}
	return e.Repo.ListTasks(ctx, milestoneID)
}

func (e Engine) DeleteTask(ctx context.Context, id, userID string) error {
	if _, err := e.Repo.GetTaskForUser(ctx, id, userID); err != nil {
		return err
	}
	return e.Repo.DeleteTask(ctx, id)
}

// RemoteRepo is one repository visible to a user's stored credential.
type RemoteRepo struct {
	Name        string `json:"name"`
	FullName    string `json:"full_name"`
	HTMLURL     string `json:"html_url"`
	Description string `json:"description,omitempty"`
	Private     bool   `json:"private"`
}

// ListRemoteRepos lists the user's GitHub repositories for project linking.
func (e Engine) ListRemoteRepos(ctx context.Context, userID string) ([]RemoteRepo, error) {
	token, err := e.Repo.GetUserToken(ctx, userID)
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}
	if token == "" {
		return nil, activity.ErrNoCredential
	}
	baseURL := ""
	if e.Config != nil {
		baseURL = e.Config.GitHub.APIBaseURL
	}
	client, err := activity.NewClient(ctx, token, baseURL)
	if err != nil {
		return nil, err
	}
	repos, err := client.ListUserRepos(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]RemoteRepo, 0, len(repos))
	for _, r := range repos {
		out = append(out, RemoteRepo{
			Name:        r.GetName(),
			FullName:    r.GetFullName(),
			HTMLURL:     r.GetHTMLURL(),
			Description: r.GetDescription(),
			Private:     r.GetPrivate(),
		})
	}
	return out, nil
}
