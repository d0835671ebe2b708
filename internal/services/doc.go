// Package services defines shared utilities consumed by the identification
// pipeline, the organizer, and the external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, track IDs, stage names, and
//     correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper so per-track failures can
//     be classified (not found, sample read, authentication, transient,
//     malformed response, metadata persist) without string matching.
//
// Use these helpers when wiring new pipeline logic so operational behaviour
// (error handling, observability, retry eligibility) stays uniform.
package services
