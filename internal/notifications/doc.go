// Package notifications delivers user-facing messages through ntfy.
//
// NewService returns a no-op implementation when no topic is configured so
// callers never need to check whether notifications are set up. Transient
// delivery failures are retried with backoff; a final failure is returned
// to the caller, which decides whether it matters.
package notifications
