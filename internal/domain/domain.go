package domain

type User struct {
	ID        string `json:"id"`
	GitHubID  string `json:"github_id"`
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
	CreatedAt string `json:"created_at" format:"date-time"`
	UpdatedAt string `json:"updated_at" format:"date-time"`
}

type Project struct {
	ID          string  `json:"id"`
	UserID      string  `json:"user_id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Stage       string  `json:"stage" enum:"idea,planning,execution,monitoring,done"`
	StartDate   *string `json:"start_date,omitempty" format:"date-time"`
	EndDate     *string `json:"end_date,omitempty" format:"date-time"`
	RepoURL     *string `json:"repo_url,omitempty"`
	CreatedAt   string  `json:"created_at" format:"date-time"`
	UpdatedAt   string  `json:"updated_at" format:"date-time"`
}

type Milestone struct {
	ID          string  `json:"id"`
	ProjectID   string  `json:"project_id"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	StartDate   *string `json:"start_date,omitempty" format:"date-time"`
	EndDate     *string `json:"end_date,omitempty" format:"date-time"`
	Status      string  `json:"status" enum:"on_track,at_risk,overdue,completed"`
	CreatedAt   string  `json:"created_at" format:"date-time"`
	UpdatedAt   string  `json:"updated_at" format:"date-time"`
}

type Task struct {
	ID          string `json:"id"`
	MilestoneID string `json:"milestone_id"`
	Title       string `json:"title"`
	Type        string `json:"type" enum:"task,bug,improvement,idea"`
	Status      string `json:"status" enum:"todo,in_progress,blocked,done"`
	Description string `json:"description,omitempty"`
	SortOrder   int    `json:"sort_order"`
	CreatedAt   string `json:"created_at" format:"date-time"`
	UpdatedAt   string `json:"updated_at" format:"date-time"`
}

// ActivityEvent is the canonical record of one externally-observed happening,
// regardless of whether a webhook delivery or a poll produced it. The pair
// (ProjectID, ExternalID) identifies it; Title and Metadata are the only
// fields later deliveries may refresh.
type ActivityEvent struct {
	ID         string `json:"id"`
	ProjectID  string `json:"project_id"`
	Kind       string `json:"kind" enum:"commit,pull_request,issue"`
	ExternalID string `json:"external_id"`
	OccurredAt string `json:"occurred_at" format:"date-time"`
	Actor      string `json:"actor"`
	Title      string `json:"title"`
	URL        string `json:"url"`
	Metadata   string `json:"metadata_json"`
	CreatedAt  string `json:"created_at" format:"date-time"`
	UpdatedAt  string `json:"updated_at" format:"date-time"`
}

const (
	EventKindCommit      = "commit"
	EventKindPullRequest = "pull_request"
	EventKindIssue       = "issue"
)

type APIKey struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	Name      string `json:"name,omitempty"`
	KeyHash   string `json:"key_hash"`
	CreatedAt string `json:"created_at" format:"date-time"`
}

var ProjectStages = []string{"idea", "planning", "execution", "monitoring", "done"}

var MilestoneStatuses = []string{"on_track", "at_risk", "overdue", "completed"}

var (
	TaskTypes    = []string{"task", "bug", "improvement", "idea"}
	TaskStatuses = []string{"todo", "in_progress", "blocked", "done"}
)

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func ValidProjectStage(s string) bool    { return contains(ProjectStages, s) }
func ValidMilestoneStatus(s string) bool { return contains(MilestoneStatuses, s) }
func ValidTaskType(s string) bool        { return contains(TaskTypes, s) }
func ValidTaskStatus(s string) bool      { return contains(TaskStatuses, s) }
func ValidEventKind(s string) bool {
	return s == EventKindCommit || s == EventKindPullRequest || s == EventKindIssue
}
