// Package watch picks up audio files dropped into watched directories.
//
// A Watcher subscribes to fsnotify events below each directory, waits until a
// file has been quiet for the debounce interval, catalogues it and hands the
// settled group to the identification batch runner. Tracks already in the
// catalogue with complete metadata (for example files the organizer just moved
// into a watched tree) are not identified again.
package watch
