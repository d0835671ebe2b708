// Package main hosts the jellyzam CLI entrypoint and command graph.
//
// The Cobra-based command tree catalogues music directories, identifies
// tracks against the recognition service, organizes files into the
// artist/album layout, watches drop folders, and reports run history and
// service health. It centralizes configuration resolution, logger setup and
// collaborator wiring so subcommands can focus on user experience.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
