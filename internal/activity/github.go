package activity

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"
)

const listPageSize = 30

var repoPathPattern = regexp.MustCompile(`github\.com/([^/]+)/([^/]+)`)

// ParseRepoURL extracts owner and name from a GitHub repository URL. A
// trailing .git suffix is tolerated.
func ParseRepoURL(repoURL string) (owner, name string, err error) {
	m := repoPathPattern.FindStringSubmatch(repoURL)
	if m == nil {
		return "", "", fmt.Errorf("%w: %s", ErrInvalidRepoURL, repoURL)
	}
	return m[1], strings.TrimSuffix(m[2], ".git"), nil
}

// Client wraps the GitHub REST API calls the poller needs. An empty baseURL
// targets api.github.com; tests point it at a local server.
type Client struct {
	gh *github.Client
}

func NewClient(ctx context.Context, token, baseURL string) (*Client, error) {
	var c *github.Client
	if token == "" {
		c = github.NewClient(nil)
	} else {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		c = github.NewClient(oauth2.NewClient(ctx, ts))
	}
	if baseURL != "" {
		u, err := url.Parse(baseURL)
		if err != nil {
			return nil, fmt.Errorf("parse api base url: %w", err)
		}
		if !strings.HasSuffix(u.Path, "/") {
			u.Path += "/"
		}
		c.BaseURL = u
	}
	return &Client{gh: c}, nil
}

// ListRecentCommits fetches one page of default-branch commits no older than
// since.
func (c *Client) ListRecentCommits(ctx context.Context, owner, name string, since time.Time) ([]*github.RepositoryCommit, error) {
	commits, _, err := c.gh.Repositories.ListCommits(ctx, owner, name, &github.CommitsListOptions{
		Since:       since,
		ListOptions: github.ListOptions{PerPage: listPageSize},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: list commits for %s/%s: %v", ErrUpstream, owner, name, err)
	}
	return commits, nil
}

// ListPullRequests fetches one page of pull requests in any state, most
// recently updated first. Callers filter by creation date themselves.
func (c *Client) ListPullRequests(ctx context.Context, owner, name string) ([]*github.PullRequest, error) {
	prs, _, err := c.gh.PullRequests.List(ctx, owner, name, &github.PullRequestListOptions{
		State:       "all",
		Sort:        "updated",
		Direction:   "desc",
		ListOptions: github.ListOptions{PerPage: listPageSize},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: list pull requests for %s/%s: %v", ErrUpstream, owner, name, err)
	}
	return prs, nil
}

// ListUserRepos lists repositories visible to the authenticated user, for
// linking a project to one of them.
func (c *Client) ListUserRepos(ctx context.Context) ([]*github.Repository, error) {
	repos, _, err := c.gh.Repositories.List(ctx, "", &github.RepositoryListOptions{
		Sort:        "updated",
		ListOptions: github.ListOptions{PerPage: 100},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: list repositories: %v", ErrUpstream, err)
	}
	return repos, nil
}
