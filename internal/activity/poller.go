package activity

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/go-github/v57/github"

	"flightpath/internal/repo"
)

// ClientFactory builds an API client for a stored credential. Swappable so
// tests can point polls at a local server.
type ClientFactory func(ctx context.Context, token string) (*Client, error)

// Poller backfills a project's activity from the REST API, covering events
// the webhook path missed. Both sources land in the same store, so replayed
// and polled copies of an event collapse into one row.
type Poller struct {
	Repo         repo.Repo
	Store        Store
	NewClient    ClientFactory
	LookbackDays int
	Now          func() time.Time
}

type SyncResult struct {
	Commits      int
	PullRequests int
}

func (p Poller) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

func (p Poller) lookback() time.Duration {
	days := p.LookbackDays
	if days <= 0 {
		days = 30
	}
	return time.Duration(days) * 24 * time.Hour
}

// Sync pulls recent commits and pull requests for the project and applies
// them. The project must belong to the user, be linked to a repository, and
// the user must have a stored token. A fetch failure on either listing fails
// the whole sync; rows applied before the failure stay put.
func (p Poller) Sync(ctx context.Context, projectID, userID string) (SyncResult, error) {
	project, err := p.Repo.GetProjectForUser(ctx, projectID, userID)
	if err != nil {
		return SyncResult{}, err
	}
	if project.RepoURL == nil || *project.RepoURL == "" {
		return SyncResult{}, ErrNoRepositoryLinked
	}
	owner, name, err := ParseRepoURL(*project.RepoURL)
	if err != nil {
		return SyncResult{}, err
	}
	token, err := p.Repo.GetUserToken(ctx, userID)
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		return SyncResult{}, err
	}
	if token == "" {
		return SyncResult{}, ErrNoCredential
	}
	client, err := p.NewClient(ctx, token)
	if err != nil {
		return SyncResult{}, fmt.Errorf("build api client: %w", err)
	}

	since := p.now().Add(-p.lookback())
	commits, err := client.ListRecentCommits(ctx, owner, name, since)
	if err != nil {
		return SyncResult{}, err
	}
	prs, err := client.ListPullRequests(ctx, owner, name)
	if err != nil {
		return SyncResult{}, err
	}

	var result SyncResult
	for _, rc := range commits {
		e, err := commitEventFromAPI(project.ID, rc)
		if err != nil {
			log.Printf("sync: skipping commit for project %s: %v", project.ID, err)
			continue
		}
		if _, err := p.Store.Apply(ctx, e); err != nil {
			return result, err
		}
		result.Commits++
	}
	for _, pr := range prs {
		if !withinWindow(pr, since) {
			continue
		}
		e, err := pullRequestEventFromAPI(project.ID, pr)
		if err != nil {
			log.Printf("sync: skipping pull request for project %s: %v", project.ID, err)
			continue
		}
		if _, err := p.Store.Apply(ctx, e); err != nil {
			return result, err
		}
		result.PullRequests++
	}
	return result, nil
}

// withinWindow filters pull requests by creation date. The listing is sorted
// by update time, so older pull requests with recent activity show up and
// have to be dropped client side.
func withinWindow(pr *github.PullRequest, since time.Time) bool {
	created := pr.GetCreatedAt()
	return !created.Before(since)
}
