package activity

import "errors"

var (
	// ErrNotTracked means no project has linked the repository an event
	// belongs to. It is a signal to drop the event silently, not a fault.
	ErrNotTracked = errors.New("repository not linked to any project")

	// ErrNoRepositoryLinked is returned by Sync for projects without a
	// repository link.
	ErrNoRepositoryLinked = errors.New("project has no linked repository")

	// ErrNoCredential is returned by Sync when the owning user has no
	// stored GitHub access token.
	ErrNoCredential = errors.New("no github token available")

	// ErrInvalidRepoURL is returned when a linked URL does not match the
	// github.com/<owner>/<repo> pattern.
	ErrInvalidRepoURL = errors.New("invalid repository url")

	// ErrInvalidPayload marks a delivery that could not be parsed or is
	// missing required fields. The sender gets a 400, not a retryable 500.
	ErrInvalidPayload = errors.New("invalid payload")

	// ErrUpstream marks a failed call to the external host. Whatever the
	// host answered, the failure is not the caller's fault.
	ErrUpstream = errors.New("github api request failed")
)
