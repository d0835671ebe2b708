// Package recognition talks to the remote audio recognition service.
//
// Client posts raw sample bytes to the service and decodes the ranked match
// list. Only the fields the identification pipeline reads are typed; the
// provider payload (share links, artwork, hub) is carried through as raw JSON.
// Failures are tagged with the services error markers: rejected credentials
// map to ErrAuthentication, connectivity problems and throttling to
// ErrTransient, and unreadable payloads to ErrMalformedResponse.
//
// The client never retries on its own. WithRetry wraps a Recognizer with a
// bounded backoff policy for callers that want one.
package recognition
