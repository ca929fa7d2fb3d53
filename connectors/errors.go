package connectors

import "errors"

// Failure taxonomy for ingestion. Every failure is scoped to one source, one
// page, or one record; callers log and move on rather than aborting siblings.
var (
	// ErrFetchForbidden means robots.txt disallows the requested path.
	// The whole source run is skipped until the next scheduled pass.
	ErrFetchForbidden = errors.New("fetch forbidden by robots policy")

	// ErrMissingExternalID means a raw record cannot be keyed and must be
	// skipped during normalization, never inserted with a null key.
	ErrMissingExternalID = errors.New("raw record has no resolvable external id")
)
