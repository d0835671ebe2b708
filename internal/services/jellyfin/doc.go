// Package jellyfin asks a Jellyfin server to rescan its libraries once the
// organizer has moved files, so renamed tracks show up without waiting for
// the scheduled scan.
package jellyfin
