package quiz

import (
	"github.com/azizbek/lektor/internal/assessment"
	"github.com/azizbek/lektor/internal/store"
)

// poolLoadedMsg carries the fetched question pool.
type poolLoadedMsg struct {
	Pool []assessment.Question
	Err  error
}

// countdownTickMsg advances the clock of one specific attempt. A tick
// for any other attempt ID is stale and dropped.
type countdownTickMsg struct {
	AttemptID string
}

// submitDoneMsg carries the interpreted end of a submission attempt.
type submitDoneMsg struct {
	AttemptID string
	Outcome   assessment.Outcome
}

// historyLoadedMsg carries the journaled attempts for this lesson.
type historyLoadedMsg struct {
	Attempts []store.Attempt
}
