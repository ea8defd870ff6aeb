// Package apperr holds the sentinel errors shared by services, handlers and
// the worker. Services wrap these with fmt.Errorf("...: %w", ...) so callers
// can branch with errors.Is instead of string matching.
package apperr

import "errors"

var (
	// ErrNotFound marks a missing template, form, document or job.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument marks rejected input (bad slug, malformed payload).
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrRateLimited marks transient provider throttling (HTTP 429/5xx from
	// the Docs/Drive API). The worker retries these with backoff; everything
	// else is terminal.
	ErrRateLimited = errors.New("rate limited")
	// ErrExtraction marks a failed placeholder scan. Sync treats it as
	// recoverable and leaves stored placeholders untouched.
	ErrExtraction = errors.New("extraction failed")
)
