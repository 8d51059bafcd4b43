// Package quiz runs one timed assessment attempt end to end: sampling,
// answering, the countdown, submission and the graded result.
package quiz

import (
	"context"
	"errors"
	"time"

	tea "charm.land/bubbletea/v2"
	"go.uber.org/zap"

	"github.com/azizbek/lektor/internal/api"
	"github.com/azizbek/lektor/internal/assessment"
	"github.com/azizbek/lektor/internal/coach"
	"github.com/azizbek/lektor/internal/config"
	"github.com/azizbek/lektor/internal/router"
	"github.com/azizbek/lektor/internal/screen"
	"github.com/azizbek/lektor/internal/screens/notice"
	"github.com/azizbek/lektor/internal/screens/review"
	"github.com/azizbek/lektor/internal/store"
	"github.com/azizbek/lektor/internal/ui/components"
	"github.com/azizbek/lektor/internal/ui/layout"
)

// Deps is what an attempt needs from the outside.
type Deps struct {
	Client *api.Client
	Store  *store.Store
	Engine *assessment.Engine
	Coach  *coach.Coach
	Config config.Config
	Log    *zap.Logger
}

// QuizScreen owns one attempt. The session is created fresh per screen
// and every mutation happens here, on the event loop.
type QuizScreen struct {
	deps        Deps
	lessonID    string
	lessonTitle string

	sess    *assessment.Session
	options []components.OptionList
	qIndex  int

	spin    components.Spinner
	loading bool
	errMsg  string

	confirmOpen bool
	leaveOpen   bool
	saveErr     string
	history     []store.Attempt
}

var _ screen.Screen = (*QuizScreen)(nil)
var _ screen.KeyHintProvider = (*QuizScreen)(nil)
var _ screen.EscClaimer = (*QuizScreen)(nil)

func New(deps Deps, lessonID, lessonTitle string) *QuizScreen {
	return &QuizScreen{
		deps:        deps,
		lessonID:    lessonID,
		lessonTitle: lessonTitle,
		spin:        components.NewSpinner("Preparing quiz..."),
		loading:     true,
	}
}

func (q *QuizScreen) Init() tea.Cmd {
	return tea.Batch(q.fetchPool(), q.spin.Init())
}

func (q *QuizScreen) Title() string {
	return "Quiz · " + q.lessonTitle
}

// ClaimsEsc keeps the root model from popping a running attempt: esc is
// handled here (dialog dismissal, the leave prompt) until the test is
// submitted or graded.
func (q *QuizScreen) ClaimsEsc() bool {
	return q.sess != nil && q.sess.Phase() == assessment.PhaseInProgress
}

func (q *QuizScreen) KeyHints() []layout.KeyHint {
	if q.sess == nil {
		return nil
	}
	switch q.sess.Phase() {
	case assessment.PhaseInProgress:
		if q.leaveOpen {
			return []layout.KeyHint{
				{Key: "y", Description: "Leave, discard attempt"},
				{Key: "n", Description: "Keep answering"},
			}
		}
		if q.confirmOpen {
			return []layout.KeyHint{
				{Key: "y", Description: "Submit now"},
				{Key: "n", Description: "Keep answering"},
			}
		}
		return []layout.KeyHint{
			{Key: "←→", Description: "Question"},
			{Key: "↑↓ Enter", Description: "Answer"},
			{Key: "s", Description: "Submit"},
			{Key: "Esc", Description: "Leave"},
		}
	case assessment.PhaseSubmitting:
		if q.sess.SaveFailed() {
			return []layout.KeyHint{
				{Key: "r", Description: "Retry save"},
				{Key: "Esc", Description: "Back"},
			}
		}
		return nil
	case assessment.PhaseGraded:
		hints := []layout.KeyHint{
			{Key: "v", Description: "Review answers"},
		}
		if q.canRetake() {
			hints = append(hints, layout.KeyHint{Key: "t", Description: "Retake"})
		}
		return append(hints, layout.KeyHint{Key: "Esc", Description: "Back to lessons"})
	}
	return nil
}

func (q *QuizScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case poolLoadedMsg:
		return q.handlePool(msg)

	case countdownTickMsg:
		return q.handleTick(msg)

	case submitDoneMsg:
		return q.handleSubmitDone(msg)

	case historyLoadedMsg:
		q.history = msg.Attempts
		return q, nil

	case tea.KeyMsg:
		return q.handleKey(msg)
	}

	if q.loading || (q.sess != nil && q.sess.Phase() == assessment.PhaseSubmitting && !q.sess.SaveFailed()) {
		var cmd tea.Cmd
		q.spin, cmd = q.spin.Update(msg)
		return q, cmd
	}

	return q, nil
}

func (q *QuizScreen) handlePool(msg poolLoadedMsg) (screen.Screen, tea.Cmd) {
	q.loading = false
	if msg.Err != nil {
		if blocked, ok := asBlocked(msg.Err); ok {
			return q, popToCourse(notice.Msg{Level: notice.LevelWarn, Text: blocked.Message})
		}
		q.errMsg = msg.Err.Error()
		return q, nil
	}
	if len(msg.Pool) == 0 {
		q.errMsg = "this lesson has no quiz questions"
		return q, nil
	}

	q.sess = assessment.NewSession(q.lessonID, msg.Pool, int(q.deps.Config.QuizDuration.Seconds()))
	q.options = make([]components.OptionList, len(q.sess.Questions))
	for i, question := range q.sess.Questions {
		q.options[i] = components.NewOptionList(question.Text, question.Options)
	}
	return q, q.tick()
}

func (q *QuizScreen) handleTick(msg countdownTickMsg) (screen.Screen, tea.Cmd) {
	if q.sess == nil || q.sess.ID != msg.AttemptID {
		return q, nil
	}
	if q.sess.Phase() != assessment.PhaseInProgress {
		return q, nil
	}
	if q.sess.Tick() {
		return q, q.beginSubmit()
	}
	return q, q.tick()
}

func (q *QuizScreen) handleSubmitDone(msg submitDoneMsg) (screen.Screen, tea.Cmd) {
	if q.sess == nil || q.sess.ID != msg.AttemptID {
		return q, nil
	}

	switch msg.Outcome.Kind {
	case assessment.OutcomeGraded:
		q.sess.CompleteGraded(*msg.Outcome.Result)
		return q, q.loadHistory()

	case assessment.OutcomeBlocked:
		text := msg.Outcome.Message
		if text == "" {
			text = "the backend refused this attempt"
		}
		return q, popToCourse(notice.Msg{Level: notice.LevelWarn, Text: text})

	default:
		q.sess.MarkSaveFailed()
		if msg.Outcome.Err != nil {
			q.saveErr = msg.Outcome.Err.Error()
		}
		return q, nil
	}
}

func (q *QuizScreen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	key := msg.String()

	if q.errMsg != "" {
		return q, popBack()
	}
	if q.sess == nil {
		return q, nil
	}

	switch q.sess.Phase() {
	case assessment.PhaseInProgress:
		return q.handleAnswerKey(key, msg)

	case assessment.PhaseSubmitting:
		if q.sess.SaveFailed() && key == "r" {
			if q.sess.RetrySave() {
				q.saveErr = ""
				return q, q.submitCmd()
			}
		}

	case assessment.PhaseGraded:
		switch key {
		case "v":
			return q, q.openReview()
		case "t":
			if q.canRetake() {
				return q, q.retake()
			}
		}
	}

	return q, nil
}

func (q *QuizScreen) handleAnswerKey(key string, msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	if q.leaveOpen {
		switch key {
		case "y", "Y":
			return q, popBackRefresh()
		case "n", "N", "esc":
			q.leaveOpen = false
		}
		return q, nil
	}

	if q.confirmOpen {
		switch key {
		case "y", "Y":
			q.confirmOpen = false
			return q, q.beginSubmit()
		case "n", "N", "esc":
			q.confirmOpen = false
		}
		return q, nil
	}

	switch key {
	case "left", "h":
		if q.qIndex > 0 {
			q.qIndex--
		}
		return q, nil
	case "right", "l":
		if q.qIndex < len(q.options)-1 {
			q.qIndex++
		}
		return q, nil
	case "s":
		q.confirmOpen = true
		return q, nil
	case "esc":
		// Leaving mid-attempt discards it; make that a decision.
		q.leaveOpen = true
		return q, nil
	}

	// Everything else drives the active question's option list.
	var cmd tea.Cmd
	before := q.options[q.qIndex].Chosen
	q.options[q.qIndex], cmd = q.options[q.qIndex].Update(msg)
	after := q.options[q.qIndex].Chosen
	if after != before && after >= 0 {
		q.sess.Answer(q.qIndex, q.sess.Questions[q.qIndex].Options[after])
	}
	return q, cmd
}

func (q *QuizScreen) fetchPool() tea.Cmd {
	client := q.deps.Client
	id := q.lessonID
	timeout := q.deps.Config.RequestTimeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout*4)
		defer cancel()
		pool, err := client.QuizPool(ctx, id)
		return poolLoadedMsg{Pool: pool, Err: err}
	}
}

func (q *QuizScreen) tick() tea.Cmd {
	attemptID := q.sess.ID
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return countdownTickMsg{AttemptID: attemptID}
	})
}

// beginSubmit freezes the session and posts it. Both the manual path
// and the countdown path come through here; the phase guard makes the
// second caller a no-op.
func (q *QuizScreen) beginSubmit() tea.Cmd {
	if !q.sess.BeginSubmit() {
		return nil
	}
	for i := range q.options {
		q.options[i].Frozen = true
	}
	return tea.Batch(q.submitCmd(), q.spin.Init())
}

func (q *QuizScreen) submitCmd() tea.Cmd {
	engine := q.deps.Engine
	sub := q.sess.Submission()
	timeout := q.deps.Config.RequestTimeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout*4)
		defer cancel()
		return submitDoneMsg{AttemptID: sub.AttemptID, Outcome: engine.Submit(ctx, sub)}
	}
}

// loadHistory reads the journaled attempts for this lesson so the
// graded view can show how this run compares.
func (q *QuizScreen) loadHistory() tea.Cmd {
	st := q.deps.Store
	if st == nil {
		return nil
	}
	id := q.lessonID
	timeout := q.deps.Config.RequestTimeout
	log := q.deps.Log
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		attempts, err := st.Attempts(ctx, id)
		if err != nil {
			if log != nil {
				log.Warn("load attempt history", zap.Error(err))
			}
			return nil
		}
		return historyLoadedMsg{Attempts: attempts}
	}
}

// canRetake reports whether the backend left room for another attempt.
func (q *QuizScreen) canRetake() bool {
	res, ok := q.sess.Result()
	if !ok {
		return false
	}
	return res.MaxAttempts == 0 || res.AttemptsUsed < res.MaxAttempts
}

// retake swaps this screen for a fresh attempt at the same depth.
func (q *QuizScreen) retake() tea.Cmd {
	deps := q.deps
	id := q.lessonID
	title := q.lessonTitle
	return func() tea.Msg {
		return router.ReplaceScreenMsg{Screen: New(deps, id, title)}
	}
}

func (q *QuizScreen) openReview() tea.Cmd {
	sess := q.sess
	c := q.deps.Coach
	title := q.lessonTitle
	return func() tea.Msg {
		return router.PushScreenMsg{Screen: review.New(sess, c, title)}
	}
}

func asBlocked(err error) (*assessment.BlockedError, bool) {
	var blocked *assessment.BlockedError
	if errors.As(err, &blocked) {
		return blocked, true
	}
	return nil, false
}

func popBack() tea.Cmd {
	return func() tea.Msg { return router.PopScreenMsg{} }
}

func popBackRefresh() tea.Cmd {
	return func() tea.Msg {
		return router.PopScreenMsg{Result: notice.RefreshMsg{}}
	}
}

func popToCourse(result tea.Msg) tea.Cmd {
	return func() tea.Msg { return router.PopToRootMsg{Result: result} }
}
