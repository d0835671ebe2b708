// Package logs reads the JSON log file written by internal/logging.
//
// Tail returns the last N lines (or everything after a byte offset) and, in
// follow mode, blocks on fsnotify events until new lines arrive or the wait
// expires. Filter narrows records by minimum level, component or run ID.
package logs
