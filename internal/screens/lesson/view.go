package lesson

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/azizbek/lektor/internal/catalog"
	"github.com/azizbek/lektor/internal/sequencer"
	"github.com/azizbek/lektor/internal/ui/theme"
	"github.com/azizbek/lektor/internal/viewer"
)

func (l *LessonScreen) View(width, height int) string {
	if l.loading {
		return "\n  " + l.spin.View()
	}
	if l.errMsg != "" {
		return "\n  " + theme.Incorrect.Render("Could not load the lesson") +
			"\n\n  " + theme.Body.Render(l.errMsg) +
			"\n\n  " + theme.Hint.Render("Press any key to go back")
	}
	if l.lesson == nil {
		return ""
	}

	if l.choiceOpen {
		return l.renderChoices(width)
	}

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(l.renderItemPanel(width))
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Foreground(theme.Border).Render("  " + strings.Repeat("─", max(0, width-4))))
	b.WriteString("\n")
	b.WriteString(l.renderPlaylist())

	if l.seq.Phase() == sequencer.PhaseChoice && len(l.choices()) > 0 {
		b.WriteString("\n  " + theme.Hint.Render("End of lesson. Press c for options."))
	}
	return b.String()
}

func (l *LessonScreen) renderItemPanel(width int) string {
	item, ok := l.seq.Current()
	if !ok {
		return "  " + theme.Hint.Render("This lesson has no content.")
	}

	plan := l.view.Plan(item.URL)

	var b strings.Builder
	pos := fmt.Sprintf("Item %d/%d", l.seq.Index()+1, l.seq.Len())
	b.WriteString("  " + theme.Subtitle.Render(pos) + "  " +
		theme.Selected.Render(kindLabel(item.Kind)) + "\n\n")
	b.WriteString("  " + theme.Body.Bold(true).Render(item.DisplayName) + "\n\n")

	b.WriteString("  " + theme.Hint.Render(modeLabel(plan.Mode)) + "\n")
	if plan.Mode != viewer.ModeDownload {
		b.WriteString("  " + theme.Body.Render("View:     "+plan.ViewURL) + "\n")
	}
	b.WriteString("  " + theme.Body.Render("Download: "+plan.DownloadURL) + "\n")
	if plan.Note != "" {
		b.WriteString("  " + theme.Hint.Render(plan.Note) + "\n")
	}

	if item.Kind == catalog.KindVideo {
		if l.seq.ItemCompleted() {
			b.WriteString("\n  " + theme.Correct.Render("✓ watched") + "\n")
		} else {
			b.WriteString("\n  " + theme.Hint.Render("not yet watched") + "\n")
		}
	}
	return b.String()
}

func (l *LessonScreen) renderPlaylist() string {
	var b strings.Builder
	for i, item := range l.seq.Playlist() {
		marker := "  "
		if i == l.seq.Index() {
			marker = "▸ "
		}
		line := fmt.Sprintf("  %s%-11s %s", marker, kindLabel(item.Kind), item.DisplayName)
		if i == l.seq.Index() {
			b.WriteString(theme.Selected.Render(line))
		} else {
			b.WriteString(theme.Unselected.Render(line))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (l *LessonScreen) renderChoices(width int) string {
	options := l.choices()

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(theme.Title.Width(width).Render("Lesson complete") + "\n\n")
	b.WriteString(theme.Subtitle.Width(width).Render("What next?") + "\n\n")

	for i, choice := range options {
		label := choiceLabel(choice)
		if i == l.choiceCursor {
			b.WriteString("    " + theme.Selected.Render("▸ "+label) + "\n")
		} else {
			b.WriteString("    " + theme.Unselected.Render("  "+label) + "\n")
		}
	}
	if len(options) == 0 {
		b.WriteString("    " + theme.Hint.Render("Nothing further here. Press Esc to go back.") + "\n")
	}
	return b.String()
}

func choiceLabel(c sequencer.Choice) string {
	switch c {
	case sequencer.ChoiceCaseStudy:
		return "Open the case study"
	case sequencer.ChoiceAssessment:
		return "Take the quiz"
	default:
		return "Continue"
	}
}

func kindLabel(k catalog.Kind) string {
	switch k {
	case catalog.KindVideo:
		return "[video]"
	case catalog.KindMaterial:
		return "[material]"
	case catalog.KindNotes:
		return "[notes]"
	case catalog.KindTask:
		return "[task]"
	case catalog.KindCaseStudy:
		return "[case study]"
	default:
		return "[file]"
	}
}

func modeLabel(m viewer.Mode) string {
	switch m {
	case viewer.ModeInline:
		return "Opens directly"
	case viewer.ModeEmbedPrimary:
		return "Office viewer (primary)"
	case viewer.ModeEmbedSecondary:
		return "Document viewer (fallback)"
	case viewer.ModeLocalConvert:
		return "Local preview"
	case viewer.ModeDownload:
		return "Download only"
	default:
		return string(m)
	}
}
