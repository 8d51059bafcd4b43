package lesson

import "github.com/azizbek/lektor/internal/api"

// lessonLoadedMsg carries the fetched lesson detail.
type lessonLoadedMsg struct {
	Lesson *api.Lesson
	Err    error
}

// viewerProbeMsg reports whether an embed URL answered a reachability
// probe. URL is the source item URL the probe was issued for, so stale
// results from an item the player already left are dropped.
type viewerProbeMsg struct {
	URL string
	OK  bool
}
