// Package notice holds the cross-screen result messages that travel
// with router pops, so screens do not have to import each other.
package notice

// Level selects how a notice is styled.
type Level int

const (
	LevelInfo Level = iota
	LevelWarn
	LevelError
)

// Msg is a short banner for the receiving screen.
type Msg struct {
	Level Level
	Text  string
}

// RefreshMsg asks the receiving screen to refetch its data. Sent when
// navigation returns to a screen whose lock states may have changed.
type RefreshMsg struct{}
