package ui

import (
	"rolf/config"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
)

// StatusBar draws a one-line message at a fixed cell position, the way the
// preview reports "Loading..." and "Aborted.".
type StatusBar struct {
	X, Y    int
	Width   int
	Message string
	IsError bool
	Theme   *config.ColorScheme
}

func NewStatusBar(x, y, width int) *StatusBar {
	return &StatusBar{X: x, Y: y, Width: width}
}

// Set replaces the message.
func (s *StatusBar) Set(msg string, isError bool) {
	s.Message = msg
	s.IsError = isError
}

func (s *StatusBar) Render(screen tcell.Screen) {
	if s.Width < 1 {
		return
	}
	theme := s.Theme
	if theme == nil {
		theme = config.Themes["monokai"]
	}

	style := tcell.StyleDefault.Background(theme.StatusBg).Foreground(theme.StatusFg)
	if s.IsError {
		style = style.Foreground(theme.ErrorFg)
	}

	// Clear the line
	for cx := s.X; cx < s.X+s.Width; cx++ {
		screen.SetContent(cx, s.Y, ' ', nil, style)
	}

	col := s.X
	for _, ch := range runewidth.Truncate(s.Message, s.Width, "…") {
		screen.SetContent(col, s.Y, ch, nil, style)
		col += runewidth.RuneWidth(ch)
	}
}
