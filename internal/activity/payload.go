package activity

import (
	"encoding/json"
	"fmt"
)

// Webhook payloads are loosely typed JSON in the host's shape. Each kind has
// its own parser that fails closed: a missing required field rejects the
// delivery instead of producing a half-populated record.

const (
	WebhookEventPush        = "push"
	WebhookEventPullRequest = "pull_request"
	WebhookEventIssues      = "issues"
)

type repositoryRef struct {
	HTMLURL string `json:"html_url"`
}

type commitAuthor struct {
	Name     string `json:"name"`
	Username string `json:"username"`
}

type pushCommit struct {
	ID        string       `json:"id"`
	Message   string       `json:"message"`
	Timestamp string       `json:"timestamp"`
	URL       string       `json:"url"`
	Author    commitAuthor `json:"author"`
	Added     []string     `json:"added"`
	Modified  []string     `json:"modified"`
	Removed   []string     `json:"removed"`
}

type pushPayload struct {
	Repository repositoryRef `json:"repository"`
	Commits    []pushCommit  `json:"commits"`
}

type account struct {
	Login     string `json:"login"`
	AvatarURL string `json:"avatar_url"`
}

type pullRequestObject struct {
	ID        int64    `json:"id"`
	Number    int      `json:"number"`
	Title     string   `json:"title"`
	State     string   `json:"state"`
	Merged    bool     `json:"merged"`
	HTMLURL   string   `json:"html_url"`
	CreatedAt string   `json:"created_at"`
	User      *account `json:"user"`
}

type pullRequestPayload struct {
	Action      string            `json:"action"`
	Repository  repositoryRef     `json:"repository"`
	PullRequest pullRequestObject `json:"pull_request"`
}

type issueObject struct {
	ID        int64    `json:"id"`
	Number    int      `json:"number"`
	Title     string   `json:"title"`
	State     string   `json:"state"`
	HTMLURL   string   `json:"html_url"`
	CreatedAt string   `json:"created_at"`
	User      *account `json:"user"`
}

type issuePayload struct {
	Action     string        `json:"action"`
	Repository repositoryRef `json:"repository"`
	Issue      issueObject   `json:"issue"`
}

// repositoryURL extracts the common repository envelope from any webhook
// payload. An absent URL is a validation failure for the whole delivery.
func repositoryURL(raw []byte) (string, error) {
	var envelope struct {
		Repository repositoryRef `json:"repository"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if envelope.Repository.HTMLURL == "" {
		return "", fmt.Errorf("%w: no repository url", ErrInvalidPayload)
	}
	return envelope.Repository.HTMLURL, nil
}

func parsePushPayload(raw []byte) (*pushPayload, error) {
	var p pushPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("%w: push: %v", ErrInvalidPayload, err)
	}
	if p.Repository.HTMLURL == "" {
		return nil, fmt.Errorf("%w: push has no repository url", ErrInvalidPayload)
	}
	return &p, nil
}

func parsePullRequestPayload(raw []byte) (*pullRequestPayload, error) {
	var p pullRequestPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("%w: pull_request: %v", ErrInvalidPayload, err)
	}
	if p.Repository.HTMLURL == "" {
		return nil, fmt.Errorf("%w: pull_request has no repository url", ErrInvalidPayload)
	}
	if p.PullRequest.ID == 0 {
		return nil, fmt.Errorf("%w: pull_request has no object id", ErrInvalidPayload)
	}
	return &p, nil
}

func parseIssuePayload(raw []byte) (*issuePayload, error) {
	var p issuePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("%w: issues: %v", ErrInvalidPayload, err)
	}
	if p.Repository.HTMLURL == "" {
		return nil, fmt.Errorf("%w: issues has no repository url", ErrInvalidPayload)
	}
	if p.Issue.ID == 0 {
		return nil, fmt.Errorf("%w: issues has no object id", ErrInvalidPayload)
	}
	return &p, nil
}
