package quiz

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/azizbek/lektor/internal/assessment"
	"github.com/azizbek/lektor/internal/config"
	"github.com/azizbek/lektor/internal/router"
	"github.com/azizbek/lektor/internal/screens/notice"
	"github.com/azizbek/lektor/internal/store"
)

func keyPress(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}

func specialKey(code rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: code}
}

func testPool(n int) []assessment.Question {
	pool := make([]assessment.Question, n)
	for i := range pool {
		pool[i] = assessment.Question{
			Text:    "question",
			Options: []string{"a", "b", "c", "d"},
			Correct: "a",
		}
	}
	return pool
}

func testQuizScreen(durationSec int) *QuizScreen {
	cfg := config.Config{
		QuizDuration:   time.Duration(durationSec) * time.Second,
		RequestTimeout: time.Second,
	}
	return New(Deps{Config: cfg}, "lesson-1", "Lesson 1")
}

func loadPool(t *testing.T, q *QuizScreen, n int) {
	t.Helper()
	scr, cmd := q.Update(poolLoadedMsg{Pool: testPool(n)})
	if scr.(*QuizScreen).sess == nil {
		t.Fatal("expected a session after pool load")
	}
	if cmd == nil {
		t.Fatal("expected the countdown to start after pool load")
	}
}

func TestQuizScreen_Title(t *testing.T) {
	q := testQuizScreen(60)
	if q.Title() != "Quiz · Lesson 1" {
		t.Errorf("Title = %q", q.Title())
	}
}

func TestQuizScreen_PoolLoadStartsSession(t *testing.T) {
	q := testQuizScreen(60)
	loadPool(t, q, 3)

	if got := len(q.sess.Questions); got != 3 {
		t.Errorf("sampled %d questions, want 3", got)
	}
	if q.sess.Phase() != assessment.PhaseInProgress {
		t.Errorf("phase = %v, want in progress", q.sess.Phase())
	}
	if len(q.options) != 3 {
		t.Errorf("built %d option lists, want 3", len(q.options))
	}
}

func TestQuizScreen_EmptyPool(t *testing.T) {
	q := testQuizScreen(60)
	q.Update(poolLoadedMsg{Pool: nil})
	if q.errMsg == "" {
		t.Error("expected an error message for an empty pool")
	}
}

func TestQuizScreen_StaleTickDropped(t *testing.T) {
	q := testQuizScreen(60)
	loadPool(t, q, 2)
	before := q.sess.SecondsLeft()

	_, cmd := q.Update(countdownTickMsg{AttemptID: "some-other-attempt"})
	if cmd != nil {
		t.Error("stale tick must not reschedule")
	}
	if q.sess.SecondsLeft() != before {
		t.Error("stale tick must not consume clock time")
	}
}

func TestQuizScreen_AutoSubmitFiresOnce(t *testing.T) {
	q := testQuizScreen(1)
	loadPool(t, q, 2)

	// The only second elapses: the clock hits zero and submission starts.
	_, cmd := q.Update(countdownTickMsg{AttemptID: q.sess.ID})
	if cmd == nil {
		t.Fatal("expected a submit command at zero")
	}
	if q.sess.Phase() != assessment.PhaseSubmitting {
		t.Errorf("phase = %v, want submitting", q.sess.Phase())
	}
	for i := range q.options {
		if !q.options[i].Frozen {
			t.Errorf("option list %d not frozen during submit", i)
		}
	}

	// A leaked timer for the same attempt lands after submission began.
	_, cmd = q.Update(countdownTickMsg{AttemptID: q.sess.ID})
	if cmd != nil {
		t.Error("tick after submit must be a no-op")
	}
}

func TestQuizScreen_ManualSubmitConfirm(t *testing.T) {
	q := testQuizScreen(60)
	loadPool(t, q, 2)

	q.Update(keyPress('s'))
	if !q.confirmOpen {
		t.Fatal("expected the confirm prompt after s")
	}

	q.Update(keyPress('n'))
	if q.confirmOpen {
		t.Error("n should dismiss the confirm prompt")
	}
	if q.sess.Phase() != assessment.PhaseInProgress {
		t.Errorf("phase = %v, want still in progress", q.sess.Phase())
	}

	q.Update(keyPress('s'))
	q.Update(keyPress('y'))
	if q.sess.Phase() != assessment.PhaseSubmitting {
		t.Errorf("phase = %v, want submitting after confirm", q.sess.Phase())
	}
}

func TestQuizScreen_AnswerRecorded(t *testing.T) {
	q := testQuizScreen(60)
	loadPool(t, q, 2)

	q.Update(specialKey(tea.KeyDown))
	q.Update(specialKey(tea.KeyEnter))

	got, ok := q.sess.AnswerFor(0)
	if !ok {
		t.Fatal("expected a recorded answer for question 0")
	}
	if got != q.sess.Questions[0].Options[1] {
		t.Errorf("recorded %q, want the second option", got)
	}
}

func TestQuizScreen_QuestionNavigation(t *testing.T) {
	q := testQuizScreen(60)
	loadPool(t, q, 3)

	q.Update(keyPress('l'))
	if q.qIndex != 1 {
		t.Errorf("qIndex = %d after l, want 1", q.qIndex)
	}
	q.Update(keyPress('h'))
	if q.qIndex != 0 {
		t.Errorf("qIndex = %d after h, want 0", q.qIndex)
	}
	q.Update(keyPress('h'))
	if q.qIndex != 0 {
		t.Errorf("qIndex = %d, must not go below 0", q.qIndex)
	}
}

func TestQuizScreen_GradedResultApplied(t *testing.T) {
	q := testQuizScreen(60)
	loadPool(t, q, 2)
	q.sess.BeginSubmit()

	res := assessment.Result{Correct: 2, Total: 2, ScorePercent: 100}
	q.Update(submitDoneMsg{
		AttemptID: q.sess.ID,
		Outcome:   assessment.Outcome{Kind: assessment.OutcomeGraded, Result: &res},
	})

	if q.sess.Phase() != assessment.PhaseGraded {
		t.Errorf("phase = %v, want graded", q.sess.Phase())
	}
	if got, _ := q.sess.Result(); got.ScorePercent != 100 {
		t.Errorf("ScorePercent = %d, want 100", got.ScorePercent)
	}
}

func TestQuizScreen_StaleSubmitResultDropped(t *testing.T) {
	q := testQuizScreen(60)
	loadPool(t, q, 2)
	q.sess.BeginSubmit()

	res := assessment.Result{ScorePercent: 100}
	q.Update(submitDoneMsg{
		AttemptID: "some-other-attempt",
		Outcome:   assessment.Outcome{Kind: assessment.OutcomeGraded, Result: &res},
	})

	if q.sess.Phase() != assessment.PhaseSubmitting {
		t.Errorf("phase = %v, a result for another attempt must not grade this one", q.sess.Phase())
	}
}

func TestQuizScreen_BlockedRoutesToCourse(t *testing.T) {
	q := testQuizScreen(60)
	loadPool(t, q, 2)
	q.sess.BeginSubmit()

	_, cmd := q.Update(submitDoneMsg{
		AttemptID: q.sess.ID,
		Outcome:   assessment.Outcome{Kind: assessment.OutcomeBlocked, Code: 402, Message: "payment required"},
	})
	if cmd == nil {
		t.Fatal("expected a navigation command for a blocked outcome")
	}

	msg := cmd()
	pop, ok := msg.(router.PopToRootMsg)
	if !ok {
		t.Fatalf("cmd produced %T, want PopToRootMsg", msg)
	}
	n, ok := pop.Result.(notice.Msg)
	if !ok {
		t.Fatalf("Result is %T, want notice.Msg", pop.Result)
	}
	if n.Text != "payment required" {
		t.Errorf("notice text = %q", n.Text)
	}
}

func TestQuizScreen_SaveFailedRetry(t *testing.T) {
	q := testQuizScreen(60)
	loadPool(t, q, 2)
	q.Update(specialKey(tea.KeyEnter)) // answer question 0
	q.sess.BeginSubmit()

	q.Update(submitDoneMsg{
		AttemptID: q.sess.ID,
		Outcome:   assessment.Outcome{Kind: assessment.OutcomeSaveFailed, Err: errFailed},
	})

	if !q.sess.SaveFailed() {
		t.Fatal("expected the session in save-failed state")
	}
	if _, ok := q.sess.AnswerFor(0); !ok {
		t.Error("answers must survive a failed save")
	}

	_, cmd := q.Update(keyPress('r'))
	if cmd == nil {
		t.Fatal("expected a re-submit command on r")
	}
	if q.sess.SaveFailed() {
		t.Error("retry should clear the save-failed flag")
	}
	if q.saveErr != "" {
		t.Error("retry should clear the shown error")
	}
}

var errFailed = errors.New("no endpoint took the submission")

func gradeSession(t *testing.T, q *QuizScreen, res assessment.Result) {
	t.Helper()
	q.sess.BeginSubmit()
	q.Update(submitDoneMsg{
		AttemptID: q.sess.ID,
		Outcome:   assessment.Outcome{Kind: assessment.OutcomeGraded, Result: &res},
	})
	if q.sess.Phase() != assessment.PhaseGraded {
		t.Fatalf("phase = %v, want graded", q.sess.Phase())
	}
}

func TestQuizScreen_EscOpensLeavePrompt(t *testing.T) {
	q := testQuizScreen(60)
	loadPool(t, q, 2)

	q.Update(specialKey(tea.KeyEscape))
	if !q.leaveOpen {
		t.Fatal("esc mid-attempt should open the leave prompt")
	}

	q.Update(keyPress('n'))
	if q.leaveOpen {
		t.Error("n should keep the attempt running")
	}
	if q.sess.Phase() != assessment.PhaseInProgress {
		t.Errorf("phase = %v, want still in progress", q.sess.Phase())
	}

	q.Update(specialKey(tea.KeyEscape))
	_, cmd := q.Update(keyPress('y'))
	if cmd == nil {
		t.Fatal("expected a navigation command after confirming the leave")
	}
	pop, ok := cmd().(router.PopScreenMsg)
	if !ok {
		t.Fatalf("cmd produced %T, want PopScreenMsg", cmd())
	}
	if _, ok := pop.Result.(notice.RefreshMsg); !ok {
		t.Error("leaving should tell the lesson screen to refetch")
	}
}

func TestQuizScreen_EscCancelsSubmitConfirm(t *testing.T) {
	q := testQuizScreen(60)
	loadPool(t, q, 2)

	q.Update(keyPress('s'))
	if !q.confirmOpen {
		t.Fatal("expected the confirm prompt after s")
	}

	q.Update(specialKey(tea.KeyEscape))
	if q.confirmOpen {
		t.Error("esc should dismiss the submit confirm")
	}
	if q.leaveOpen {
		t.Error("dismissing the confirm must not open the leave prompt")
	}
	if q.sess.Phase() != assessment.PhaseInProgress {
		t.Errorf("phase = %v, want still in progress", q.sess.Phase())
	}
}

func TestQuizScreen_ClaimsEscOnlyDuringAttempt(t *testing.T) {
	q := testQuizScreen(60)
	if q.ClaimsEsc() {
		t.Error("must not claim esc before the pool loads")
	}

	loadPool(t, q, 2)
	if !q.ClaimsEsc() {
		t.Error("must claim esc while the attempt is running")
	}

	gradeSession(t, q, assessment.Result{Correct: 2, Total: 2, ScorePercent: 100})
	if q.ClaimsEsc() {
		t.Error("must release esc once graded")
	}
}

func TestQuizScreen_RetakeReplacesScreen(t *testing.T) {
	q := testQuizScreen(60)
	loadPool(t, q, 2)
	gradeSession(t, q, assessment.Result{ScorePercent: 50, AttemptsUsed: 1, MaxAttempts: 3})

	_, cmd := q.Update(keyPress('t'))
	if cmd == nil {
		t.Fatal("expected a retake command with attempts left")
	}
	rep, ok := cmd().(router.ReplaceScreenMsg)
	if !ok {
		t.Fatalf("cmd produced %T, want ReplaceScreenMsg", cmd())
	}
	fresh, ok := rep.Screen.(*QuizScreen)
	if !ok {
		t.Fatalf("replacement is %T, want a quiz screen", rep.Screen)
	}
	if fresh.sess != nil || !fresh.loading {
		t.Error("the replacement must be a fresh attempt, not the graded one")
	}
}

func TestQuizScreen_RetakeBlockedAtAttemptLimit(t *testing.T) {
	q := testQuizScreen(60)
	loadPool(t, q, 2)
	gradeSession(t, q, assessment.Result{ScorePercent: 50, AttemptsUsed: 3, MaxAttempts: 3})

	if q.canRetake() {
		t.Error("no retake once the backend's attempt limit is used up")
	}
	_, cmd := q.Update(keyPress('t'))
	if cmd != nil {
		t.Error("t must be a no-op at the attempt limit")
	}
}

func TestQuizScreen_GradedShowsHistoryAndCertificate(t *testing.T) {
	q := testQuizScreen(60)
	loadPool(t, q, 2)
	gradeSession(t, q, assessment.Result{Correct: 2, Total: 2, ScorePercent: 100})

	q.Update(historyLoadedMsg{Attempts: []store.Attempt{
		{LessonID: "lesson-1", Percent: 40},
		{LessonID: "lesson-1", Percent: 80},
	}})

	out := q.View(80, 24)
	if !strings.Contains(out, "certificate") {
		t.Error("a passing score should mention the certificate")
	}
	if !strings.Contains(out, "best 80%") {
		t.Errorf("graded view should show the best journaled percent, got:\n%s", out)
	}
}

func TestQuizScreen_LowScoreHidesCertificateLine(t *testing.T) {
	q := testQuizScreen(60)
	loadPool(t, q, 2)
	gradeSession(t, q, assessment.Result{Correct: 0, Total: 2, ScorePercent: 40})

	if out := q.View(80, 24); strings.Contains(out, "certificate") {
		t.Error("a score under the certificate threshold must not mention it")
	}
}
