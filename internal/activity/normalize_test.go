package activity

import (
	"encoding/json"
	"testing"

	"flightpath/internal/domain"
)

func TestFirstLine(t *testing.T) {
	cases := []struct{ in, want string }{
		{"fix flaky retry", "fix flaky retry"},
		{"fix flaky retry\n\nlonger explanation", "fix flaky retry"},
		{"", ""},
		{"\nbody only", ""},
	}
	for _, c := range cases {
		if got := firstLine(c.in); got != c.want {
			t.Errorf("firstLine(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func decodeMetadata(t *testing.T, e domain.ActivityEvent) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal([]byte(e.Metadata), &m); err != nil {
		t.Fatalf("metadata is not valid JSON: %v", err)
	}
	return m
}

func TestCommitEvent(t *testing.T) {
	c := pushCommit{
		ID:        "a1b2c3d4",
		Message:   "add poller\n\ndetails",
		Timestamp: "2026-03-01T10:30:00+02:00",
		URL:       "https://github.com/acme/rocket/commit/a1b2c3d4",
		Author:    commitAuthor{Username: "octocat", Name: "Octo Cat"},
		Added:     []string{"a.go", "b.go"},
		Modified:  []string{"c.go"},
	}
	e, err := commitEvent("proj-1", c)
	if err != nil {
		t.Fatalf("commitEvent: %v", err)
	}
	if e.Kind != domain.EventKindCommit {
		t.Errorf("kind = %q", e.Kind)
	}
	if e.ExternalID != "a1b2c3d4" {
		t.Errorf("external id = %q", e.ExternalID)
	}
	if e.OccurredAt != "2026-03-01T08:30:00Z" {
		t.Errorf("occurred_at = %q, want UTC normalization", e.OccurredAt)
	}
	if e.Actor != "octocat" {
		t.Errorf("actor = %q", e.Actor)
	}
	if e.Title != "add poller" {
		t.Errorf("title = %q", e.Title)
	}
	m := decodeMetadata(t, e)
	if m["sha"] != "a1b2c3d4" || m["added"] != float64(2) || m["modified"] != float64(1) || m["removed"] != float64(0) {
		t.Errorf("metadata = %v", m)
	}
}

func TestCommitEventActorFallback(t *testing.T) {
	c := pushCommit{ID: "sha1", Timestamp: "2026-03-01T10:00:00Z", Author: commitAuthor{Name: "Only Name"}}
	e, err := commitEvent("p", c)
	if err != nil {
		t.Fatalf("commitEvent: %v", err)
	}
	if e.Actor != "Only Name" {
		t.Errorf("actor = %q, want name fallback", e.Actor)
	}

	c.Author = commitAuthor{}
	e, err = commitEvent("p", c)
	if err != nil {
		t.Fatalf("commitEvent: %v", err)
	}
	if e.Actor != "unknown" {
		t.Errorf("actor = %q, want unknown fallback", e.Actor)
	}
}

func TestCommitEventRejectsMissingSHA(t *testing.T) {
	if _, err := commitEvent("p", pushCommit{Timestamp: "2026-03-01T10:00:00Z"}); err == nil {
		t.Fatal("expected error for commit without sha")
	}
}

func TestCommitEventRejectsBadTimestamp(t *testing.T) {
	if _, err := commitEvent("p", pushCommit{ID: "sha1", Timestamp: "yesterday"}); err == nil {
		t.Fatal("expected error for unparseable timestamp")
	}
}

func TestPullRequestEvent(t *testing.T) {
	p := &pullRequestPayload{
		Action: "closed",
		PullRequest: pullRequestObject{
			ID:        991,
			Number:    14,
			Title:     "Wire retry budget",
			State:     "closed",
			Merged:    true,
			HTMLURL:   "https://github.com/acme/rocket/pull/14",
			CreatedAt: "2026-03-02T09:00:00Z",
			User:      &account{Login: "octocat", AvatarURL: "https://avatars.example/1"},
		},
	}
	e, err := pullRequestEvent("proj-1", p)
	if err != nil {
		t.Fatalf("pullRequestEvent: %v", err)
	}
	if e.Kind != domain.EventKindPullRequest {
		t.Errorf("kind = %q", e.Kind)
	}
	if e.ExternalID != "pr-991" {
		t.Errorf("external id = %q", e.ExternalID)
	}
	m := decodeMetadata(t, e)
	if m["number"] != float64(14) || m["state"] != "closed" || m["action"] != "closed" || m["merged"] != true {
		t.Errorf("metadata = %v", m)
	}
	if m["authorAvatar"] != "https://avatars.example/1" {
		t.Errorf("authorAvatar = %v", m["authorAvatar"])
	}
}

func TestPullRequestEventNilUser(t *testing.T) {
	p := &pullRequestPayload{
		Action:      "opened",
		PullRequest: pullRequestObject{ID: 5, CreatedAt: "2026-03-02T09:00:00Z"},
	}
	e, err := pullRequestEvent("proj-1", p)
	if err != nil {
		t.Fatalf("pullRequestEvent: %v", err)
	}
	if e.Actor != "unknown" {
		t.Errorf("actor = %q", e.Actor)
	}
}

func TestIssueEvent(t *testing.T) {
	p := &issuePayload{
		Action: "opened",
		Issue: issueObject{
			ID:        771,
			Number:    42,
			Title:     "Polling misses force pushes",
			State:     "open",
			HTMLURL:   "https://github.com/acme/rocket/issues/42",
			CreatedAt: "2026-03-03T12:00:00Z",
			User:      &account{Login: "reporter"},
		},
	}
	e, err := issueEvent("proj-1", p)
	if err != nil {
		t.Fatalf("issueEvent: %v", err)
	}
	if e.Kind != domain.EventKindIssue {
		t.Errorf("kind = %q", e.Kind)
	}
	if e.ExternalID != "issue-771" {
		t.Errorf("external id = %q", e.ExternalID)
	}
	if e.Actor != "reporter" {
		t.Errorf("actor = %q", e.Actor)
	}
	m := decodeMetadata(t, e)
	if m["number"] != float64(42) || m["state"] != "open" || m["action"] != "opened" {
		t.Errorf("metadata = %v", m)
	}
}
