package activity

import (
	"context"
	"errors"
	"fmt"
	"log"
)

// Ingestor runs a webhook delivery through resolve, parse and store. The
// caller is expected to have verified the delivery signature already.
type Ingestor struct {
	Resolver Resolver
	Store    Store
}

// IngestResult reports what a delivery produced. Tracked is false when no
// project claims the repository; such deliveries are acknowledged without
// writing anything.
type IngestResult struct {
	Tracked bool
	Applied int
}

// Ingest processes one delivery of the named event type. Push deliveries are
// applied commit by commit; a commit that fails to normalize or store is
// logged and skipped so the rest of the batch still lands.
func (in Ingestor) Ingest(ctx context.Context, event string, raw []byte) (IngestResult, error) {
	repoURL, err := repositoryURL(raw)
	if err != nil {
		return IngestResult{}, err
	}
	project, err := in.Resolver.Resolve(ctx, repoURL)
	if errors.Is(err, ErrNotTracked) {
		return IngestResult{}, nil
	}
	if err != nil {
		return IngestResult{}, err
	}

	switch event {
	case WebhookEventPush:
		payload, err := parsePushPayload(raw)
		if err != nil {
			return IngestResult{Tracked: true}, err
		}
		applied := 0
		for _, c := range payload.Commits {
			e, err := commitEvent(project.ID, c)
			if err != nil {
				log.Printf("webhook: skipping commit in push for project %s: %v", project.ID, err)
				continue
			}
			if _, err := in.Store.Apply(ctx, e); err != nil {
				log.Printf("webhook: storing commit %s for project %s: %v", c.ID, project.ID, err)
				continue
			}
			applied++
		}
		return IngestResult{Tracked: true, Applied: applied}, nil

	case WebhookEventPullRequest:
		payload, err := parsePullRequestPayload(raw)
		if err != nil {
			return IngestResult{Tracked: true}, err
		}
		e, err := pullRequestEvent(project.ID, payload)
		if err != nil {
			return IngestResult{Tracked: true}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		if _, err := in.Store.Apply(ctx, e); err != nil {
			return IngestResult{Tracked: true}, err
		}
		return IngestResult{Tracked: true, Applied: 1}, nil

	case WebhookEventIssues:
		payload, err := parseIssuePayload(raw)
		if err != nil {
			return IngestResult{Tracked: true}, err
		}
		e, err := issueEvent(project.ID, payload)
		if err != nil {
			return IngestResult{Tracked: true}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		if _, err := in.Store.Apply(ctx, e); err != nil {
			return IngestResult{Tracked: true}, err
		}
		return IngestResult{Tracked: true, Applied: 1}, nil

	default:
		return IngestResult{}, fmt.Errorf("unsupported event type %q", event)
	}
}
