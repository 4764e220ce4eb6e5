package activity

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/go-github/v57/github"

	"flightpath/internal/domain"
)

const unknownActor = "unknown"

// firstLine truncates a commit message at the first newline; multi-line
// bodies never reach the title field.
func firstLine(message string) string {
	if i := strings.IndexByte(message, '\n'); i >= 0 {
		return message[:i]
	}
	return message
}

func normalizeTimestamp(value string) (string, error) {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return "", fmt.Errorf("parse timestamp %q: %w", value, err)
	}
	return t.UTC().Format(time.RFC3339), nil
}

func metadataJSON(fields map[string]any) string {
	data, err := json.Marshal(fields)
	if err != nil {
		return "{}"
	}
	return string(data)
}

// commitEvent maps one commit of a push delivery to its canonical form.
func commitEvent(projectID string, c pushCommit) (domain.ActivityEvent, error) {
	if c.ID == "" {
		return domain.ActivityEvent{}, fmt.Errorf("commit has no sha")
	}
	occurredAt, err := normalizeTimestamp(c.Timestamp)
	if err != nil {
		return domain.ActivityEvent{}, fmt.Errorf("commit %s: %w", c.ID, err)
	}
	actor := c.Author.Username
	if actor == "" {
		actor = c.Author.Name
	}
	if actor == "" {
		actor = unknownActor
	}
	return domain.ActivityEvent{
		ProjectID:  projectID,
		Kind:       domain.EventKindCommit,
		ExternalID: c.ID,
		OccurredAt: occurredAt,
		Actor:      actor,
		Title:      firstLine(c.Message),
		URL:        c.URL,
		Metadata: metadataJSON(map[string]any{
			"sha":      c.ID,
			"added":    len(c.Added),
			"modified": len(c.Modified),
			"removed":  len(c.Removed),
		}),
	}, nil
}

// pullRequestEvent maps a pull_request delivery to its canonical form. The
// numeric host id is prefixed with "pr-" so it cannot collide with a
// SHA-shaped commit id under the same project.
func pullRequestEvent(projectID string, p *pullRequestPayload) (domain.ActivityEvent, error) {
	pr := p.PullRequest
	occurredAt, err := normalizeTimestamp(pr.CreatedAt)
	if err != nil {
		return domain.ActivityEvent{}, fmt.Errorf("pull request %d: %w", pr.ID, err)
	}
	actor := unknownActor
	avatar := ""
	if pr.User != nil {
		if pr.User.Login != "" {
			actor = pr.User.Login
		}
		avatar = pr.User.AvatarURL
	}
	return domain.ActivityEvent{
		ProjectID:  projectID,
		Kind:       domain.EventKindPullRequest,
		ExternalID: fmt.Sprintf("pr-%d", pr.ID),
		OccurredAt: occurredAt,
		Actor:      actor,
		Title:      pr.Title,
		URL:        pr.HTMLURL,
		Metadata: metadataJSON(map[string]any{
			"number":       pr.Number,
			"state":        pr.State,
			"action":       p.Action,
			"merged":       pr.Merged,
			"authorAvatar": avatar,
		}),
	}, nil
}

// issueEvent maps an issues delivery to its canonical form, symmetric to
// pullRequestEvent with an "issue-" prefix.
func issueEvent(projectID string, p *issuePayload) (domain.ActivityEvent, error) {
	issue := p.Issue
	occurredAt, err := normalizeTimestamp(issue.CreatedAt)
	if err != nil {
		return domain.ActivityEvent{}, fmt.Errorf("issue %d: %w", issue.ID, err)
	}
	actor := unknownActor
	if issue.User != nil && issue.User.Login != "" {
		actor = issue.User.Login
	}
	return domain.ActivityEvent{
		ProjectID:  projectID,
		Kind:       domain.EventKindIssue,
		ExternalID: fmt.Sprintf("issue-%d", issue.ID),
		OccurredAt: occurredAt,
		Actor:      actor,
		Title:      issue.Title,
		URL:        issue.HTMLURL,
		Metadata: metadataJSON(map[string]any{
			"number": issue.Number,
			"state":  issue.State,
			"action": p.Action,
		}),
	}, nil
}

// commitEventFromAPI synthesizes the canonical commit shape from a REST
// listing, so polled commits flow through the same store as webhook ones.
func commitEventFromAPI(projectID string, rc *github.RepositoryCommit) (domain.ActivityEvent, error) {
	sha := rc.GetSHA()
	if sha == "" {
		return domain.ActivityEvent{}, fmt.Errorf("listed commit has no sha")
	}
	commit := rc.GetCommit()
	if commit == nil || commit.GetAuthor() == nil {
		return domain.ActivityEvent{}, fmt.Errorf("commit %s has no author metadata", sha)
	}
	actor := rc.GetAuthor().GetLogin()
	if actor == "" {
		actor = commit.GetAuthor().GetName()
	}
	if actor == "" {
		actor = unknownActor
	}
	return domain.ActivityEvent{
		ProjectID:  projectID,
		Kind:       domain.EventKindCommit,
		ExternalID: sha,
		OccurredAt: commit.GetAuthor().GetDate().UTC().Format(time.RFC3339),
		Actor:      actor,
		Title:      firstLine(commit.GetMessage()),
		URL:        rc.GetHTMLURL(),
		Metadata: metadataJSON(map[string]any{
			"sha":          sha,
			"authorAvatar": rc.GetAuthor().GetAvatarURL(),
		}),
	}, nil
}

// pullRequestEventFromAPI synthesizes the canonical pull-request shape from a
// REST listing. The listing carries no action verb and reports merge state
// via merged_at.
func pullRequestEventFromAPI(projectID string, pr *github.PullRequest) (domain.ActivityEvent, error) {
	if pr.GetID() == 0 {
		return domain.ActivityEvent{}, fmt.Errorf("listed pull request has no id")
	}
	actor := pr.GetUser().GetLogin()
	if actor == "" {
		actor = unknownActor
	}
	return domain.ActivityEvent{
		ProjectID:  projectID,
		Kind:       domain.EventKindPullRequest,
		ExternalID: fmt.Sprintf("pr-%d", pr.GetID()),
		OccurredAt: pr.GetCreatedAt().UTC().Format(time.RFC3339),
		Actor:      actor,
		Title:      pr.GetTitle(),
		URL:        pr.GetHTMLURL(),
		Metadata: metadataJSON(map[string]any{
			"number":       pr.GetNumber(),
			"state":        pr.GetState(),
			"merged":       pr.MergedAt != nil,
			"authorAvatar": pr.GetUser().GetAvatarURL(),
		}),
	}, nil
}
