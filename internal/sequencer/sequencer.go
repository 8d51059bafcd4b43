// Package sequencer owns the player's position in a lesson playlist:
// which item is active, what counts as completed, and when the
// end-of-lesson options open up.
package sequencer

import "github.com/azizbek/lektor/internal/catalog"

// Phase is the sequencer's lifecycle state.
type Phase int

const (
	// PhaseIdle means no lesson is loaded.
	PhaseIdle Phase = iota
	// PhaseActive means the player is on a playlist item.
	PhaseActive
	// PhaseChoice means the last item was reached and the end-of-lesson
	// options (case study, assessment) are on offer.
	PhaseChoice
)

// Choice is an end-of-lesson option.
type Choice int

const (
	ChoiceCaseStudy Choice = iota
	ChoiceAssessment
)

// videoCompleteRatio is how far into a video playback must get before
// the item counts as watched. Advisory only; it never blocks Next.
const videoCompleteRatio = 0.9

// Sequencer steps through one lesson's playlist. The index moves only
// through Next, Previous or a reload; items are never skipped.
type Sequencer struct {
	playlist  []catalog.Item
	index     int
	completed []bool
	phase     Phase
}

func New() *Sequencer {
	return &Sequencer{phase: PhaseIdle}
}

// Load resets the sequencer onto a fresh playlist: index back to zero,
// all completion flags cleared. Called whenever the active lesson changes.
func (s *Sequencer) Load(items []catalog.Item) {
	s.playlist = items
	s.index = 0
	s.completed = make([]bool, len(items))
	if len(items) == 0 {
		s.phase = PhaseChoice
		return
	}
	s.phase = PhaseActive
	s.checkEnd()
}

// Phase returns the current lifecycle state.
func (s *Sequencer) Phase() Phase { return s.phase }

// Len returns the playlist length.
func (s *Sequencer) Len() int { return len(s.playlist) }

// Index returns the active item's position.
func (s *Sequencer) Index() int { return s.index }

// Current returns the active item, if any.
func (s *Sequencer) Current() (catalog.Item, bool) {
	if s.phase == PhaseIdle || len(s.playlist) == 0 {
		return catalog.Item{}, false
	}
	return s.playlist[s.index], true
}

// Playlist returns the loaded items in order.
func (s *Sequencer) Playlist() []catalog.Item { return s.playlist }

// CanNext reports whether a later item exists.
func (s *Sequencer) CanNext() bool {
	return s.phase != PhaseIdle && s.index < len(s.playlist)-1
}

// CanPrevious reports whether an earlier item exists.
func (s *Sequencer) CanPrevious() bool {
	return s.phase != PhaseIdle && s.index > 0
}

// Next advances to the following item. The new item starts with a clear
// completion flag. Returns false when already at the end.
func (s *Sequencer) Next() bool {
	if !s.CanNext() {
		return false
	}
	s.index++
	s.completed[s.index] = false
	s.checkEnd()
	return true
}

// Previous steps back one item, clearing the revisited item's flag.
func (s *Sequencer) Previous() bool {
	if !s.CanPrevious() {
		return false
	}
	s.index--
	s.completed[s.index] = false
	s.phase = PhaseActive
	return true
}

// checkEnd opens the end-of-lesson choices once the last item is active.
func (s *Sequencer) checkEnd() {
	if s.index == len(s.playlist)-1 {
		s.phase = PhaseChoice
	}
}

// ReportVideoProgress records playback progress for the active item.
// Only videos have a completion rule; reaching 90% of the duration marks
// the item watched. The mark is a hint, never a gate.
func (s *Sequencer) ReportVideoProgress(position, duration float64) {
	item, ok := s.Current()
	if !ok || item.Kind != catalog.KindVideo {
		return
	}
	if duration > 0 && position/duration >= videoCompleteRatio {
		s.completed[s.index] = true
	}
}

// ReportVideoEnded marks the active video watched on a natural end event.
func (s *Sequencer) ReportVideoEnded() {
	item, ok := s.Current()
	if !ok || item.Kind != catalog.KindVideo {
		return
	}
	s.completed[s.index] = true
}

// ItemCompleted reports the advisory completion flag of the active item.
// Non-video items are viewable as-is and count as complete once active.
func (s *Sequencer) ItemCompleted() bool {
	item, ok := s.Current()
	if !ok {
		return false
	}
	if item.Kind != catalog.KindVideo {
		return true
	}
	return s.completed[s.index]
}

// Choices lists the end-of-lesson options for a lesson that has the
// given features configured. Empty when nothing else is on offer; the
// sequencer never picks one by itself.
func (s *Sequencer) Choices(hasCaseStudy, hasAssessment bool) []Choice {
	if s.phase != PhaseChoice {
		return nil
	}
	var out []Choice
	if hasCaseStudy {
		out = append(out, ChoiceCaseStudy)
	}
	if hasAssessment {
		out = append(out, ChoiceAssessment)
	}
	return out
}
