package components

import (
	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/azizbek/lektor/internal/ui/theme"
)

// Spinner wraps bubbles/spinner for network loading states.
type Spinner struct {
	Model   spinner.Model
	Message string
}

// NewSpinner creates a styled spinner with a message shown beside it.
func NewSpinner(message string) Spinner {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(theme.Primary)
	return Spinner{Model: s, Message: message}
}

// Init starts the spinner ticking.
func (s Spinner) Init() tea.Cmd {
	return s.Model.Tick
}

// Update advances the spinner animation.
func (s Spinner) Update(msg tea.Msg) (Spinner, tea.Cmd) {
	var cmd tea.Cmd
	s.Model, cmd = s.Model.Update(msg)
	return s, cmd
}

// View renders the spinner and message.
func (s Spinner) View() string {
	out := s.Model.View()
	if s.Message != "" {
		out += " " + lipgloss.NewStyle().Foreground(theme.TextDim).Render(s.Message)
	}
	return out
}
