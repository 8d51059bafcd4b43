package course

import "github.com/azizbek/lektor/internal/api"

// courseLoadedMsg carries the fetched course detail.
type courseLoadedMsg struct {
	Course *api.Course
	Err    error
}

// pendingDrainedMsg reports how many queued submissions were re-posted.
type pendingDrainedMsg struct {
	Synced int
	Left   int
}
