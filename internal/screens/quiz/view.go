package quiz

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/azizbek/lektor/internal/assessment"
	"github.com/azizbek/lektor/internal/progress"
	"github.com/azizbek/lektor/internal/ui/theme"
)

func (q *QuizScreen) View(width, height int) string {
	if q.loading {
		return "\n  " + q.spin.View()
	}
	if q.errMsg != "" {
		return "\n  " + theme.Incorrect.Render("Quiz unavailable") +
			"\n\n  " + theme.Body.Render(q.errMsg) +
			"\n\n  " + theme.Hint.Render("Press any key to go back")
	}
	if q.sess == nil {
		return ""
	}

	switch q.sess.Phase() {
	case assessment.PhaseInProgress:
		return q.renderInProgress(width)
	case assessment.PhaseSubmitting:
		return q.renderSubmitting()
	case assessment.PhaseGraded:
		return q.renderGraded(width)
	}
	return ""
}

func (q *QuizScreen) renderInProgress(width int) string {
	var b strings.Builder

	left := theme.Subtitle.Render(fmt.Sprintf("Question %d/%d", q.qIndex+1, len(q.sess.Questions)))
	answered := theme.Hint.Render(fmt.Sprintf("%d answered", q.sess.AnsweredCount()))
	clock := renderClock(q.sess.SecondsLeft())

	line := "  " + left + "   " + answered
	pad := width - lipgloss.Width(line) - lipgloss.Width(clock) - 4
	if pad > 0 {
		line += strings.Repeat(" ", pad)
	}
	line += clock

	b.WriteString("\n" + line + "\n")
	b.WriteString(lipgloss.NewStyle().Foreground(theme.Border).Render("  "+strings.Repeat("─", max(0, width-4))) + "\n\n")

	b.WriteString(indent(q.options[q.qIndex].View(), "  "))

	switch {
	case q.leaveOpen:
		b.WriteString("\n  " + theme.Blocked.Render("Leave the quiz? This attempt will be discarded.") +
			" " + theme.Hint.Render("(y/n)"))
	case q.confirmOpen:
		unanswered := len(q.sess.Questions) - q.sess.AnsweredCount()
		prompt := "Submit now?"
		if unanswered > 0 {
			prompt = fmt.Sprintf("Submit with %d unanswered question(s)?", unanswered)
		}
		b.WriteString("\n  " + theme.Blocked.Render(prompt) + " " + theme.Hint.Render("(y/n)"))
	}

	return b.String()
}

// renderClock styles the countdown, turning red inside the last minute.
func renderClock(secondsLeft int) string {
	mins := secondsLeft / 60
	secs := secondsLeft % 60
	text := fmt.Sprintf("⏱ %d:%02d", mins, secs)
	if secondsLeft <= 60 {
		return theme.CountdownUrgent.Render(text)
	}
	return theme.Countdown.Render(text)
}

func (q *QuizScreen) renderSubmitting() string {
	if !q.sess.SaveFailed() {
		return "\n  " + q.spin.View()
	}

	var b strings.Builder
	b.WriteString("\n  " + theme.Incorrect.Render("Could not save your attempt") + "\n\n")
	b.WriteString(fmt.Sprintf("  Provisional score: %s\n",
		theme.Selected.Render(fmt.Sprintf("%d points (%d%%)", q.sess.LocalScore(), q.sess.LocalPercent()))))
	b.WriteString("  " + theme.Hint.Render("Your answers are kept. Press r to retry the save.") + "\n")
	if q.saveErr != "" {
		b.WriteString("\n  " + theme.Hint.Render(q.saveErr) + "\n")
	}
	return b.String()
}

func (q *QuizScreen) renderGraded(width int) string {
	res, _ := q.sess.Result()

	var b strings.Builder
	b.WriteString("\n")
	if q.sess.Passed() {
		b.WriteString(theme.Title.Width(width).Render("Passed!") + "\n\n")
	} else {
		b.WriteString(theme.Incorrect.Width(width).Align(lipgloss.Center).Render("Not passed") + "\n\n")
	}

	b.WriteString(theme.Subtitle.Width(width).Render(
		fmt.Sprintf("Score: %d%%", q.sess.DisplayPercent())) + "\n")

	if res != nil {
		b.WriteString(theme.Subtitle.Width(width).Render(
			fmt.Sprintf("%d of %d correct", res.Correct, res.Total)) + "\n")
		if res.MaxAttempts > 0 {
			b.WriteString(theme.Subtitle.Width(width).Render(
				fmt.Sprintf("Attempt %d of %d", res.AttemptsUsed, res.MaxAttempts)) + "\n")
		}
	}

	if progress.CertificateEligible(q.sess.DisplayPercent()) {
		b.WriteString(theme.Correct.Width(width).Align(lipgloss.Center).
			Render("Counts toward the course certificate") + "\n")
	}

	if len(q.history) > 0 {
		best := 0
		for _, a := range q.history {
			if a.Percent > best {
				best = a.Percent
			}
		}
		b.WriteString("\n" + theme.Hint.Width(width).Align(lipgloss.Center).Render(
			fmt.Sprintf("Saved locally: %d attempt(s) on this lesson, best %d%%",
				len(q.history), best)) + "\n")
	}

	hint := "v to review answers · Esc to go back"
	if q.canRetake() {
		hint = "v to review answers · t to retake · Esc to go back"
	}
	b.WriteString("\n" + theme.Hint.Width(width).Align(lipgloss.Center).Render(hint) + "\n")
	return b.String()
}

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = prefix + line
		}
	}
	return strings.Join(lines, "\n")
}
