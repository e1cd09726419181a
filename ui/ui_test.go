package ui

import (
	"testing"

	"rolf/config"
	"rolf/preview"

	"github.com/creack/pty"
	"github.com/gdamore/tcell/v2"
)

func clearTermEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"TERM", "TERM_PROGRAM", "ROLF_IMAGE_PROTOCOL",
		"KITTY_INSTALLATION_DIR", "KITTY_PID", "KITTY_WINDOW_ID",
		"GHOSTTY_RESOURCES_DIR", "WEZTERM_EXECUTABLE", "WEZTERM_PANE",
		"MINTTY_SHORTCUT", "WT_SESSION",
	} {
		t.Setenv(k, "")
	}
}

func TestDetectProtocolOverride(t *testing.T) {
	clearTermEnv(t)
	t.Setenv("TERM", "xterm-kitty")

	t.Setenv("ROLF_IMAGE_PROTOCOL", "sixel")
	if got := DetectProtocol(""); got != preview.ProtoSixel {
		t.Fatalf("expected env override sixel, got %v", got)
	}
	if got := DetectProtocol("iterm2"); got != preview.ProtoITerm2 {
		t.Fatalf("expected config to win over env, got %v", got)
	}
	if got := DetectProtocol("auto"); got != preview.ProtoSixel {
		t.Fatalf("expected auto to defer to env, got %v", got)
	}
}

func TestDetectProtocolFromTerminal(t *testing.T) {
	tests := []struct {
		key, value string
		want       preview.Protocol
	}{
		{"TERM", "xterm-kitty", preview.ProtoKitty},
		{"TERM_PROGRAM", "ghostty", preview.ProtoKitty},
		{"TERM_PROGRAM", "WezTerm", preview.ProtoKitty},
		{"TERM_PROGRAM", "iTerm.app", preview.ProtoITerm2},
		{"TERM", "foot-extra", preview.ProtoSixel},
		{"WT_SESSION", "1", preview.ProtoSixel},
		{"TERM", "dumb", preview.ProtoKitty},
	}
	for _, tt := range tests {
		clearTermEnv(t)
		t.Setenv(tt.key, tt.value)
		if got := DetectProtocol(""); got != tt.want {
			t.Fatalf("%s=%s: expected %v, got %v", tt.key, tt.value, tt.want, got)
		}
	}
}

func TestQueryWindowPixelsFromPTY(t *testing.T) {
	ptmx, tty, err := pty.Open()
	if err != nil {
		t.Skipf("no pty available: %v", err)
	}
	defer ptmx.Close()
	defer tty.Close()

	if err := pty.Setsize(ptmx, &pty.Winsize{Rows: 24, Cols: 80, X: 800, Y: 480}); err != nil {
		t.Fatalf("setsize failed: %v", err)
	}

	win, cells, err := QueryWindowPixels(tty)
	if err != nil {
		t.Fatalf("QueryWindowPixels failed: %v", err)
	}
	if win != (preview.WindowPixels{Width: 800, Height: 480}) {
		t.Fatalf("expected 800x480 pixels, got %+v", win)
	}
	if cells != (preview.Cells{Cols: 80, Rows: 24}) {
		t.Fatalf("expected 80x24 cells, got %+v", cells)
	}
}

func TestQueryWindowPixelsWithoutPixelReport(t *testing.T) {
	ptmx, tty, err := pty.Open()
	if err != nil {
		t.Skipf("no pty available: %v", err)
	}
	defer ptmx.Close()
	defer tty.Close()

	if err := pty.Setsize(ptmx, &pty.Winsize{Rows: 24, Cols: 80}); err != nil {
		t.Fatalf("setsize failed: %v", err)
	}
	win, _, err := QueryWindowPixels(tty)
	if err != nil {
		t.Fatalf("QueryWindowPixels failed: %v", err)
	}
	if win.Valid() {
		t.Fatalf("expected zero pixel geometry, got %+v", win)
	}
}

func TestStatusBarRenderTruncates(t *testing.T) {
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatalf("screen init failed: %v", err)
	}
	defer screen.Fini()
	screen.SetSize(20, 3)

	s := NewStatusBar(10, 1, 6)
	s.Theme = config.Themes["dark"]
	s.Set("Loading...", false)
	s.Render(screen)

	var got []rune
	for x := 10; x < 16; x++ {
		r, _, _, _ := screen.GetContent(x, 1)
		got = append(got, r)
	}
	if string(got) != "Loadi…" {
		t.Fatalf("expected truncated message, got %q", string(got))
	}
}

func TestStatusBarErrorStyle(t *testing.T) {
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatalf("screen init failed: %v", err)
	}
	defer screen.Fini()
	screen.SetSize(40, 3)

	theme := config.Themes["dark"]
	s := NewStatusBar(0, 0, 40)
	s.Theme = theme
	s.Set("boom", true)
	s.Render(screen)

	_, _, style, _ := screen.GetContent(0, 0)
	fg, _, _ := style.Decompose()
	if fg != theme.ErrorFg {
		t.Fatalf("expected error foreground %v, got %v", theme.ErrorFg, fg)
	}
}
