// Package review shows the per-question breakdown of a graded attempt,
// with optional tutor explanations for the questions that were missed.
package review

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/azizbek/lektor/internal/assessment"
	"github.com/azizbek/lektor/internal/coach"
	"github.com/azizbek/lektor/internal/screen"
	"github.com/azizbek/lektor/internal/ui/layout"
	"github.com/azizbek/lektor/internal/ui/theme"
)

// explanationMsg delivers one coach answer.
type explanationMsg struct {
	Index int
	Exp   *coach.Explanation
	Err   error
}

// ReviewScreen walks a graded attempt question by question.
type ReviewScreen struct {
	sess        *assessment.Session
	coach       *coach.Coach
	lessonTitle string

	cursor       int
	explanations map[int]*coach.Explanation
	pending      map[int]bool
	failures     map[int]string
}

var _ screen.Screen = (*ReviewScreen)(nil)
var _ screen.KeyHintProvider = (*ReviewScreen)(nil)

func New(sess *assessment.Session, c *coach.Coach, lessonTitle string) *ReviewScreen {
	return &ReviewScreen{
		sess:         sess,
		coach:        c,
		lessonTitle:  lessonTitle,
		explanations: make(map[int]*coach.Explanation),
		pending:      make(map[int]bool),
		failures:     make(map[int]string),
	}
}

func (r *ReviewScreen) Init() tea.Cmd {
	return nil
}

func (r *ReviewScreen) Title() string {
	return "Review · " + r.lessonTitle
}

func (r *ReviewScreen) KeyHints() []layout.KeyHint {
	hints := []layout.KeyHint{
		{Key: "↑↓", Description: "Question"},
	}
	if r.coach.Enabled() && r.missedAt(r.cursor) {
		hints = append(hints, layout.KeyHint{Key: "e", Description: "Explain"})
	}
	hints = append(hints, layout.KeyHint{Key: "Esc", Description: "Back"})
	return hints
}

func (r *ReviewScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case explanationMsg:
		delete(r.pending, msg.Index)
		if msg.Err != nil {
			r.failures[msg.Index] = msg.Err.Error()
		} else {
			r.explanations[msg.Index] = msg.Exp
		}
		return r, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if r.cursor > 0 {
				r.cursor--
			}
		case "down", "j":
			if r.cursor < len(r.sess.Questions)-1 {
				r.cursor++
			}
		case "e":
			return r, r.explain(r.cursor)
		}
	}
	return r, nil
}

// missedAt reports whether the question at index was answered wrong or
// left blank.
func (r *ReviewScreen) missedAt(index int) bool {
	if index < 0 || index >= len(r.sess.Questions) {
		return false
	}
	ans, ok := r.sess.AnswerFor(index)
	return !ok || ans != r.sess.Questions[index].Correct
}

func (r *ReviewScreen) explain(index int) tea.Cmd {
	if !r.coach.Enabled() || !r.missedAt(index) {
		return nil
	}
	if r.pending[index] || r.explanations[index] != nil {
		return nil
	}
	r.pending[index] = true
	delete(r.failures, index)

	question := r.sess.Questions[index]
	chosen := -1
	if ans, ok := r.sess.AnswerFor(index); ok {
		for i, opt := range question.Options {
			if opt == ans {
				chosen = i
				break
			}
		}
	}
	correct := 0
	for i, opt := range question.Options {
		if opt == question.Correct {
			correct = i
			break
		}
	}

	c := r.coach
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()
		exp, err := c.Explain(ctx, coach.Request{
			QuestionText:  question.Text,
			Options:       question.Options,
			CorrectIndex:  correct,
			SelectedIndex: chosen,
		})
		return explanationMsg{Index: index, Exp: exp, Err: err}
	}
}

func (r *ReviewScreen) View(width, height int) string {
	var b strings.Builder
	b.WriteString("\n")

	b.WriteString("  " + theme.Subtitle.Render(fmt.Sprintf(
		"Score %d%% · %d of %d answered",
		r.sess.DisplayPercent(), r.sess.AnsweredCount(), len(r.sess.Questions))) + "\n")
	b.WriteString(lipgloss.NewStyle().Foreground(theme.Border).Render("  "+strings.Repeat("─", max(0, width-4))) + "\n\n")

	for i, question := range r.sess.Questions {
		b.WriteString(r.renderQuestion(i, question))
	}
	return b.String()
}

func (r *ReviewScreen) renderQuestion(i int, question assessment.Question) string {
	var b strings.Builder

	marker := "  "
	if i == r.cursor {
		marker = "▸ "
	}

	verdict := theme.Correct.Render("✓")
	if r.missedAt(i) {
		verdict = theme.Incorrect.Render("✗")
	}

	line := fmt.Sprintf("  %s%s %d. %s", marker, verdict, i+1, question.Text)
	if i == r.cursor {
		b.WriteString(theme.Selected.Render(line) + "\n")
	} else {
		b.WriteString(theme.Body.Render(line) + "\n")
	}

	if i != r.cursor {
		return b.String()
	}

	// Expanded detail for the highlighted question.
	ans, answered := r.sess.AnswerFor(i)
	if !answered {
		b.WriteString("       " + theme.Hint.Render("not answered") + "\n")
	} else if ans != question.Correct {
		b.WriteString("       " + theme.Incorrect.Render("you chose: "+ans) + "\n")
	}
	b.WriteString("       " + theme.Correct.Render("correct: "+question.Correct) + "\n")

	switch {
	case r.pending[i]:
		b.WriteString("       " + theme.Hint.Render("asking the coach...") + "\n")
	case r.failures[i] != "":
		b.WriteString("       " + theme.Hint.Render("coach unavailable: "+r.failures[i]) + "\n")
	case r.explanations[i] != nil:
		exp := r.explanations[i]
		b.WriteString("       " + theme.Body.Render(exp.Summary) + "\n")
		if exp.WhyWrong != "" {
			b.WriteString("       " + theme.Body.Render(exp.WhyWrong) + "\n")
		}
		if exp.Tip != "" {
			b.WriteString("       " + theme.Hint.Render("tip: "+exp.Tip) + "\n")
		}
	case r.coach.Enabled() && r.missedAt(i):
		b.WriteString("       " + theme.Hint.Render("press e for an explanation") + "\n")
	}

	b.WriteString("\n")
	return b.String()
}
