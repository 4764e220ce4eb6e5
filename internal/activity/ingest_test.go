package activity

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"flightpath/internal/repo"
)

func newTestIngestor(r repo.Repo) Ingestor {
	return Ingestor{
		Resolver: Resolver{Repo: r},
		Store:    Store{Repo: r, Now: fixedNow},
	}
}

func pushDelivery(repoURL string, commits string) []byte {
	return []byte(fmt.Sprintf(`{"repository":{"html_url":"%s"},"commits":[%s]}`, repoURL, commits))
}

const commitOne = `{"id":"sha-one","message":"one\n\nbody","timestamp":"2026-03-05T09:00:00Z","url":"https://github.com/acme/rocket/commit/sha-one","author":{"username":"octocat"},"added":["a.go"],"modified":[],"removed":[]}`

const commitTwo = `{"id":"sha-two","message":"two","timestamp":"2026-03-05T10:00:00Z","url":"https://github.com/acme/rocket/commit/sha-two","author":{"name":"Octo Cat"},"added":[],"modified":["a.go"],"removed":[]}`

func TestIngestPushAppliesEachCommit(t *testing.T) {
	r, _, project := newTestRepo(t)
	in := newTestIngestor(r)
	ctx := context.Background()

	raw := pushDelivery(testRepoURL, commitOne+","+commitTwo)
	res, err := in.Ingest(ctx, WebhookEventPush, raw)
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if !res.Tracked || res.Applied != 2 {
		t.Fatalf("result = %+v, want tracked with 2 applied", res)
	}
	if n := countEvents(t, r.DB, project.ID); n != 2 {
		t.Fatalf("expected 2 rows, got %d", n)
	}

	e, err := r.GetActivityEvent(ctx, project.ID, "sha-one")
	if err != nil {
		t.Fatalf("get sha-one: %v", err)
	}
	if e.Title != "one" || e.Actor != "octocat" {
		t.Errorf("stored commit = %+v", e)
	}
}

func TestIngestPushRedeliveryIsIdempotent(t *testing.T) {
	r, _, project := newTestRepo(t)
	in := newTestIngestor(r)
	ctx := context.Background()

	raw := pushDelivery(testRepoURL, commitOne+","+commitTwo)
	for i := 0; i < 2; i++ {
		if _, err := in.Ingest(ctx, WebhookEventPush, raw); err != nil {
			t.Fatalf("delivery %d: %v", i, err)
		}
	}
	if n := countEvents(t, r.DB, project.ID); n != 2 {
		t.Fatalf("expected 2 rows after redelivery, got %d", n)
	}
}

func TestIngestUntrackedRepository(t *testing.T) {
	r, _, project := newTestRepo(t)
	in := newTestIngestor(r)

	raw := pushDelivery("https://github.com/acme/other", commitOne)
	res, err := in.Ingest(context.Background(), WebhookEventPush, raw)
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if res.Tracked {
		t.Fatal("expected untracked result")
	}
	if n := countEvents(t, r.DB, project.ID); n != 0 {
		t.Fatalf("untracked delivery wrote %d rows", n)
	}
}

func TestIngestPushSkipsMalformedCommit(t *testing.T) {
	r, _, project := newTestRepo(t)
	in := newTestIngestor(r)

	bad := `{"message":"no sha","timestamp":"2026-03-05T09:00:00Z"}`
	raw := pushDelivery(testRepoURL, bad+","+commitTwo)
	res, err := in.Ingest(context.Background(), WebhookEventPush, raw)
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if res.Applied != 1 {
		t.Fatalf("applied = %d, want only the well-formed commit", res.Applied)
	}
	if n := countEvents(t, r.DB, project.ID); n != 1 {
		t.Fatalf("expected 1 row, got %d", n)
	}
}

func TestIngestPullRequest(t *testing.T) {
	r, _, project := newTestRepo(t)
	in := newTestIngestor(r)
	ctx := context.Background()

	raw := []byte(fmt.Sprintf(`{
		"action": "opened",
		"repository": {"html_url": "%s"},
		"pull_request": {
			"id": 991, "number": 14, "title": "Wire retry budget",
			"state": "open", "merged": false,
			"html_url": "%s/pull/14",
			"created_at": "2026-03-02T09:00:00Z",
			"user": {"login": "octocat", "avatar_url": "https://avatars.example/1"}
		}
	}`, testRepoURL, testRepoURL))
	res, err := in.Ingest(ctx, WebhookEventPullRequest, raw)
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if res.Applied != 1 {
		t.Fatalf("applied = %d", res.Applied)
	}
	e, err := r.GetActivityEvent(ctx, project.ID, "pr-991")
	if err != nil {
		t.Fatalf("get pr-991: %v", err)
	}
	if e.Kind != "pull_request" || e.Title != "Wire retry budget" {
		t.Errorf("stored pr = %+v", e)
	}
}

func TestIngestIssue(t *testing.T) {
	r, _, project := newTestRepo(t)
	in := newTestIngestor(r)
	ctx := context.Background()

	raw := []byte(fmt.Sprintf(`{
		"action": "closed",
		"repository": {"html_url": "%s"},
		"issue": {
			"id": 771, "number": 42, "title": "Polling misses force pushes",
			"state": "closed",
			"html_url": "%s/issues/42",
			"created_at": "2026-03-03T12:00:00Z",
			"user": {"login": "reporter"}
		}
	}`, testRepoURL, testRepoURL))
	if _, err := in.Ingest(ctx, WebhookEventIssues, raw); err != nil {
		t.Fatalf("ingest: %v", err)
	}
	e, err := r.GetActivityEvent(ctx, project.ID, "issue-771")
	if err != nil {
		t.Fatalf("get issue-771: %v", err)
	}
	if e.Kind != "issue" || e.Actor != "reporter" {
		t.Errorf("stored issue = %+v", e)
	}
}

func TestIngestRejectsMalformedDelivery(t *testing.T) {
	r, _, _ := newTestRepo(t)
	in := newTestIngestor(r)
	ctx := context.Background()

	if _, err := in.Ingest(ctx, WebhookEventPush, []byte(`not json`)); !errors.Is(err, ErrInvalidPayload) {
		t.Errorf("malformed body: err = %v, want ErrInvalidPayload", err)
	}
	if _, err := in.Ingest(ctx, WebhookEventPush, []byte(`{"commits":[]}`)); !errors.Is(err, ErrInvalidPayload) {
		t.Errorf("missing repository: err = %v, want ErrInvalidPayload", err)
	}
	raw := []byte(fmt.Sprintf(`{"action":"opened","repository":{"html_url":"%s"},"pull_request":{}}`, testRepoURL))
	if _, err := in.Ingest(ctx, WebhookEventPullRequest, raw); !errors.Is(err, ErrInvalidPayload) {
		t.Errorf("pull_request without id: err = %v, want ErrInvalidPayload", err)
	}
}

func TestIngestUnsupportedEvent(t *testing.T) {
	r, _, _ := newTestRepo(t)
	in := newTestIngestor(r)

	raw := pushDelivery(testRepoURL, commitOne)
	if _, err := in.Ingest(context.Background(), "deployment_status", raw); err == nil {
		t.Fatal("expected error for unsupported event type")
	}
}
