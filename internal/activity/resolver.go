package activity

import (
	"context"
	"errors"
	"fmt"

	"flightpath/internal/domain"
	"flightpath/internal/repo"
)

// Resolver maps a repository html_url from an incoming delivery to the
// project tracking it. Matching is exact string comparison against the
// stored repo_url, no normalization of scheme, case or trailing slashes.
type Resolver struct {
	Repo repo.Repo
}

func (r Resolver) Resolve(ctx context.Context, repoURL string) (domain.Project, error) {
	if repoURL == "" {
		return domain.Project{}, ErrNotTracked
	}
	p, err := r.Repo.GetProjectByRepoURL(ctx, repoURL)
	if errors.Is(err, repo.ErrNotFound) {
		return domain.Project{}, ErrNotTracked
	}
	if err != nil {
		return domain.Project{}, fmt.Errorf("resolve repository %s: %w", repoURL, err)
	}
	return p, nil
}
