package activity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"flightpath/internal/domain"
	"flightpath/internal/repo"
)

// fakeGitHub serves the two listings the poller hits for acme/rocket. Bodies
// are raw JSON in the REST wire shape.
func fakeGitHub(t *testing.T, commitsBody, pullsBody string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/rocket/commits", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, commitsBody)
	})
	mux.HandleFunc("/repos/acme/rocket/pulls", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, pullsBody)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestPoller(r repo.Repo, apiURL string) Poller {
	return Poller{
		Repo:  r,
		Store: Store{Repo: r, Now: fixedNow},
		NewClient: func(ctx context.Context, token string) (*Client, error) {
			return NewClient(ctx, token, apiURL)
		},
		LookbackDays: 30,
		Now:          fixedNow,
	}
}

func seedToken(t *testing.T, r repo.Repo, userID string) {
	t.Helper()
	now := fixedNow().Format(time.RFC3339)
	if err := r.SetUserToken(context.Background(), userID, "ghp_testtoken", now); err != nil {
		t.Fatalf("seed token: %v", err)
	}
}

const commitsListing = `[
  {
    "sha": "poll-sha-1",
    "html_url": "https://github.com/acme/rocket/commit/poll-sha-1",
    "author": {"login": "octocat", "avatar_url": "https://avatars.example/1"},
    "commit": {
      "message": "tighten backoff\n\nfull rationale",
      "author": {"name": "Octo Cat", "date": "2026-03-08T10:00:00Z"}
    }
  },
  {
    "sha": "poll-sha-2",
    "html_url": "https://github.com/acme/rocket/commit/poll-sha-2",
    "commit": {
      "message": "fix typo",
      "author": {"name": "Drive By", "date": "2026-03-09T10:00:00Z"}
    }
  }
]`

const pullsListing = `[
  {
    "id": 991, "number": 14, "title": "Wire retry budget", "state": "closed",
    "html_url": "https://github.com/acme/rocket/pull/14",
    "created_at": "2026-03-02T09:00:00Z",
    "merged_at": "2026-03-04T09:00:00Z",
    "user": {"login": "octocat", "avatar_url": "https://avatars.example/1"}
  },
  {
    "id": 550, "number": 3, "title": "Ancient refactor", "state": "open",
    "html_url": "https://github.com/acme/rocket/pull/3",
    "created_at": "2026-01-15T09:00:00Z",
    "user": {"login": "octocat"}
  }
]`

func TestPollerSync(t *testing.T) {
	r, user, project := newTestRepo(t)
	seedToken(t, r, user.ID)
	srv := fakeGitHub(t, commitsListing, pullsListing)
	p := newTestPoller(r, srv.URL)
	ctx := context.Background()

	res, err := p.Sync(ctx, project.ID, user.ID)
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if res.Commits != 2 {
		t.Errorf("commits = %d, want 2", res.Commits)
	}
	if res.PullRequests != 1 {
		t.Errorf("pull requests = %d, want 1 after window filter", res.PullRequests)
	}

	c, err := r.GetActivityEvent(ctx, project.ID, "poll-sha-1")
	if err != nil {
		t.Fatalf("get poll-sha-1: %v", err)
	}
	if c.Title != "tighten backoff" || c.Actor != "octocat" {
		t.Errorf("stored commit = %+v", c)
	}

	// Listing commits carry no top-level author when the account is gone.
	c2, err := r.GetActivityEvent(ctx, project.ID, "poll-sha-2")
	if err != nil {
		t.Fatalf("get poll-sha-2: %v", err)
	}
	if c2.Actor != "Drive By" {
		t.Errorf("actor = %q, want git author name fallback", c2.Actor)
	}

	pr, err := r.GetActivityEvent(ctx, project.ID, "pr-991")
	if err != nil {
		t.Fatalf("get pr-991: %v", err)
	}
	if pr.Kind != domain.EventKindPullRequest {
		t.Errorf("kind = %q", pr.Kind)
	}
	m := decodeMetadata(t, pr)
	if m["merged"] != true {
		t.Errorf("merged = %v, want true from merged_at", m["merged"])
	}

	if _, err := r.GetActivityEvent(ctx, project.ID, "pr-550"); !errors.Is(err, repo.ErrNotFound) {
		t.Errorf("pull request outside lookback window was stored")
	}
}

func TestPollerSyncIsIdempotent(t *testing.T) {
	r, user, project := newTestRepo(t)
	seedToken(t, r, user.ID)
	srv := fakeGitHub(t, commitsListing, pullsListing)
	p := newTestPoller(r, srv.URL)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := p.Sync(ctx, project.ID, user.ID); err != nil {
			t.Fatalf("sync %d: %v", i, err)
		}
	}
	if n := countEvents(t, r.DB, project.ID); n != 3 {
		t.Fatalf("expected 3 rows after repeat sync, got %d", n)
	}
}

func TestPollerDedupsAcrossSources(t *testing.T) {
	r, user, project := newTestRepo(t)
	seedToken(t, r, user.ID)
	ctx := context.Background()

	// Webhook delivery lands the commit first.
	in := newTestIngestor(r)
	raw := pushDelivery(testRepoURL, `{"id":"poll-sha-1","message":"tighten backoff","timestamp":"2026-03-08T10:00:00Z","url":"https://github.com/acme/rocket/commit/poll-sha-1","author":{"username":"octocat"}}`)
	if _, err := in.Ingest(ctx, WebhookEventPush, raw); err != nil {
		t.Fatalf("ingest: %v", err)
	}

	srv := fakeGitHub(t, commitsListing, `[]`)
	p := newTestPoller(r, srv.URL)
	if _, err := p.Sync(ctx, project.ID, user.ID); err != nil {
		t.Fatalf("sync: %v", err)
	}

	var n int
	err := r.DB.QueryRow(`SELECT COUNT(*) FROM activity_events WHERE project_id=? AND external_id=?`, project.ID, "poll-sha-1").Scan(&n)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected webhook and poll copies to collapse into 1 row, got %d", n)
	}
}

func TestPollerSyncWithoutRepository(t *testing.T) {
	r, user, project := newTestRepo(t)
	seedToken(t, r, user.ID)
	if err := r.UpdateProject(context.Background(), project.ID, repo.ProjectUpdate{
		RepoURL:   ptr(""),
		UpdatedAt: fixedNow().Format(time.RFC3339),
	}); err != nil {
		t.Fatalf("unlink project: %v", err)
	}
	p := newTestPoller(r, "http://127.0.0.1:0")

	_, err := p.Sync(context.Background(), project.ID, user.ID)
	if !errors.Is(err, ErrNoRepositoryLinked) {
		t.Fatalf("err = %v, want ErrNoRepositoryLinked", err)
	}
}

func TestPollerSyncWithoutCredential(t *testing.T) {
	r, user, project := newTestRepo(t)
	p := newTestPoller(r, "http://127.0.0.1:0")

	_, err := p.Sync(context.Background(), project.ID, user.ID)
	if !errors.Is(err, ErrNoCredential) {
		t.Fatalf("err = %v, want ErrNoCredential", err)
	}
}

func TestPollerSyncUpstreamFailure(t *testing.T) {
	r, user, project := newTestRepo(t)
	seedToken(t, r, user.ID)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		http.Error(w, `{"message":"invalid something"}`, http.StatusBadGateway)
	}))
	defer srv.Close()
	p := newTestPoller(r, srv.URL)

	_, err := p.Sync(context.Background(), project.ID, user.ID)
	if !errors.Is(err, ErrUpstream) {
		t.Fatalf("err = %v, want ErrUpstream", err)
	}
}

func TestPollerSyncUnknownProject(t *testing.T) {
	r, user, _ := newTestRepo(t)
	p := newTestPoller(r, "http://127.0.0.1:0")

	_, err := p.Sync(context.Background(), "nope", user.ID)
	if !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("err = %v, want repo.ErrNotFound", err)
	}
}

func ptr(s string) *string { return &s }
