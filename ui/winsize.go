package ui

import (
	"os"

	"rolf/preview"

	"golang.org/x/sys/unix"
)

// OpenTTY opens the controlling terminal for raw escape sequence output.
func OpenTTY() (*os.File, error) {
	return os.OpenFile("/dev/tty", os.O_RDWR, 0)
}

// QueryWindowPixels asks the terminal behind f for its size via TIOCGWINSZ.
// Terminals that do not report pixels yield a zero WindowPixels, which the
// preview treats as fatal.
func QueryWindowPixels(f *os.File) (preview.WindowPixels, preview.Cells, error) {
	ws, err := unix.IoctlGetWinsize(int(f.Fd()), unix.TIOCGWINSZ)
	if err != nil {
		return preview.WindowPixels{}, preview.Cells{}, err
	}
	return preview.WindowPixels{Width: int(ws.Xpixel), Height: int(ws.Ypixel)},
		preview.Cells{Cols: int(ws.Col), Rows: int(ws.Row)}, nil
}
