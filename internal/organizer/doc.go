// Package organizer moves identified tracks into the canonical
// artist/album/title layout under a base path.
//
// Planner derives the target path: sanitized segments, the source extension
// kept verbatim, and " (N)" suffixes probed linearly until a free name is
// found. A target equal to the source ignoring case means the track is already
// organized, so repeated runs move nothing. Engine performs the move without
// ever clobbering an existing file, downgrades every filesystem failure to a
// skipped_failed plan that leaves the source in place, sweeps empty
// directories deepest-first, and hands out per-base-path flock locks so only
// one organization run touches a tree at a time.
package organizer
