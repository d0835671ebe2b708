// Package notifications delivers identification events to ntfy.
//
// NewService returns a no-op implementation when no topic is configured.
// Per-track events honour notifications.identification, batch summaries
// notifications.scan and failures notifications.errors, so callers publish
// unconditionally and let configuration decide what is sent.
package notifications
