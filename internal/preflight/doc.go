// Package preflight provides readiness checks for the recognition service,
// Jellyfin and the filesystem paths jellyzam depends on.
//
// These checks run in two contexts:
//   - Batch commands (scan, identify, watch) call RunAll before touching the
//     library. A failed check stops the command before any file is moved.
//   - The CLI "jellyzam status" command uses the individual check functions
//     to display service health.
//
// Each check is gated by its config toggle -- disabled features are skipped.
package preflight
