// Package assessment runs the timed multiple-choice test that gates
// lesson progression: question sampling, the countdown, local scoring,
// and the submission outcome handling.
package assessment

import (
	"math"
	"math/rand/v2"

	"github.com/google/uuid"
)

// Question is one multiple-choice question as fetched from the backend.
type Question struct {
	Ref     string
	Text    string
	Options []string
	Correct string
}

// Phase is the test lifecycle. Graded is terminal and immutable.
type Phase int

const (
	PhaseNotStarted Phase = iota
	PhaseInProgress
	PhaseSubmitting
	PhaseGraded
)

const (
	// SampleCap is how many questions one attempt draws from the pool.
	SampleCap = 10
	// PointsPerQuestion is the fixed value of a correct answer.
	PointsPerQuestion = 2
	// DefaultPassPercent is the display threshold used only when the
	// backend omits its own passed flag.
	DefaultPassPercent = 80
)

// Result is the backend's authoritative grading of an attempt.
type Result struct {
	Correct      int
	Total        int
	ScorePercent int
	// Passed is nil when the backend did not say; display then falls
	// back to the local threshold.
	Passed       *bool
	AttemptsUsed int
	MaxAttempts  int
}

// Session is one test attempt. It is owned by the quiz view, discarded
// on retry or lesson change, and never mutated from outside the event
// loop.
type Session struct {
	ID        string
	LessonID  string
	Questions []Question

	answers     map[int]string
	secondsLeft int
	phase       Phase
	autoFired   bool
	saveFailed  bool
	result      *Result
}

// NewSession samples the pool and starts the clock. The sample is an
// unbiased shuffle capped at SampleCap; a smaller pool is taken whole,
// in randomized order. Every attempt samples fresh.
func NewSession(lessonID string, pool []Question, durationSec int) *Session {
	sampled := make([]Question, len(pool))
	copy(sampled, pool)
	rand.Shuffle(len(sampled), func(i, j int) {
		sampled[i], sampled[j] = sampled[j], sampled[i]
	})
	if len(sampled) > SampleCap {
		sampled = sampled[:SampleCap]
	}

	return &Session{
		ID:          uuid.New().String(),
		LessonID:    lessonID,
		Questions:   sampled,
		answers:     make(map[int]string),
		secondsLeft: durationSec,
		phase:       PhaseInProgress,
	}
}

// Phase returns the current lifecycle state.
func (s *Session) Phase() Phase { return s.phase }

// SecondsLeft returns the remaining countdown.
func (s *Session) SecondsLeft() int { return s.secondsLeft }

// Answer records the selected option for a sampled-question index,
// overwriting any earlier pick. Rejected once the phase leaves
// in_progress: a submitting or graded test is frozen.
func (s *Session) Answer(index int, option string) bool {
	if s.phase != PhaseInProgress {
		return false
	}
	if index < 0 || index >= len(s.Questions) {
		return false
	}
	s.answers[index] = option
	return true
}

// AnswerFor returns the recorded selection for a question index.
func (s *Session) AnswerFor(index int) (string, bool) {
	v, ok := s.answers[index]
	return v, ok
}

// AnsweredCount returns how many questions have a recorded selection.
func (s *Session) AnsweredCount() int { return len(s.answers) }

// Tick consumes one second of the countdown. It reports true exactly
// once, when the clock hits zero, so the caller fires auto-submit a
// single time. Ticks outside in_progress are no-ops, which is what makes
// a stale timer from an abandoned attempt harmless.
func (s *Session) Tick() (autoSubmit bool) {
	if s.phase != PhaseInProgress {
		return false
	}
	if s.secondsLeft > 0 {
		s.secondsLeft--
	}
	if s.secondsLeft == 0 && !s.autoFired {
		s.autoFired = true
		return true
	}
	return false
}

// BeginSubmit freezes answers and moves to submitting. Idempotent: the
// second caller (a manual click racing the auto-submit, or the reverse)
// gets false and must not post again.
func (s *Session) BeginSubmit() bool {
	if s.phase != PhaseInProgress {
		return false
	}
	s.phase = PhaseSubmitting
	return true
}

// LocalScore computes the provisional score from recorded answers:
// two points per question whose selection matches the correct field.
func (s *Session) LocalScore() int {
	points := 0
	for i, q := range s.Questions {
		if ans, ok := s.answers[i]; ok && ans == q.Correct {
			points += PointsPerQuestion
		}
	}
	return points
}

// LocalPercent is the provisional percentage for the sampled set.
func (s *Session) LocalPercent() int {
	return Percent(s.LocalScore(), len(s.Questions))
}

// Percent converts points over a question count to a rounded percentage.
func Percent(points, questionCount int) int {
	if questionCount == 0 {
		return 0
	}
	max := float64(questionCount * PointsPerQuestion)
	return int(math.Round(float64(points) / max * 100))
}

// CompleteGraded installs the backend's authoritative result and moves
// to the terminal graded phase.
func (s *Session) CompleteGraded(res Result) {
	if s.phase != PhaseSubmitting {
		return
	}
	s.result = &res
	s.saveFailed = false
	s.phase = PhaseGraded
}

// MarkSaveFailed records that no endpoint accepted the submission. The
// provisional score stays visible and the attempt can be re-saved
// without retaking: answers are retained and the phase stays frozen.
func (s *Session) MarkSaveFailed() {
	if s.phase != PhaseSubmitting {
		return
	}
	s.saveFailed = true
}

// SaveFailed reports whether the last save attempt failed.
func (s *Session) SaveFailed() bool { return s.saveFailed }

// RetrySave re-arms a failed save. Only valid in the failed-save state;
// it keeps the phase at submitting so answers remain frozen.
func (s *Session) RetrySave() bool {
	if s.phase != PhaseSubmitting || !s.saveFailed {
		return false
	}
	s.saveFailed = false
	return true
}

// Result returns the authoritative result once graded.
func (s *Session) Result() (*Result, bool) {
	if s.phase != PhaseGraded || s.result == nil {
		return nil, false
	}
	return s.result, true
}

// Passed resolves the pass verdict for display: the backend's flag when
// present, otherwise the local percentage against the default threshold.
func (s *Session) Passed() bool {
	if s.result != nil {
		if s.result.Passed != nil {
			return *s.result.Passed
		}
		return s.result.ScorePercent >= DefaultPassPercent
	}
	return s.LocalPercent() >= DefaultPassPercent
}

// DisplayPercent is the percentage to show: authoritative when graded,
// provisional otherwise.
func (s *Session) DisplayPercent() int {
	if s.result != nil {
		return s.result.ScorePercent
	}
	return s.LocalPercent()
}

// SelectedAnswer pairs a question reference with the chosen option.
type SelectedAnswer struct {
	QuestionRef string
	Selected    string
}

// SelectedAnswers flattens the answer map for submission, in sampled
// order. Unanswered questions are submitted with an empty selection.
func (s *Session) SelectedAnswers() []SelectedAnswer {
	out := make([]SelectedAnswer, len(s.Questions))
	for i, q := range s.Questions {
		ans := s.answers[i]
		out[i] = SelectedAnswer{QuestionRef: q.Ref, Selected: ans}
	}
	return out
}
