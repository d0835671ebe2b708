// Package library holds the track model and the local catalog jellyzam works
// against.
//
// Track, Source and Persister are the seams the identification and
// organization code depend on. Store implements both over SQLite (modernc),
// records batch run history, and keeps the initial-scan flag. Importer fills
// the catalog from music directories, reading ID3 tags where present, and
// TaggingPersister mirrors metadata changes back into mp3 files.
package library
