// Package identification turns unlabeled audio files into tagged, organized
// tracks.
//
// Select scores the service's top candidate and applies the confidence
// threshold; Reconcile merges the accepted descriptor into the track all or
// nothing. The Orchestrator chains sampler, recognizer, selector, reconciler
// and organizer for one track, and drives batch runs on top of that chain:
// per-track failures become outcomes counted in ScanStats, only cancellation
// stops a run early, and a deferred finalizer always stamps the duration,
// records the run and publishes the summary.
package identification
