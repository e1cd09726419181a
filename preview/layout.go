package preview

import (
	"errors"
	"image"
)

// ErrNoPixelGeometry is returned when the terminal did not report its size
// in pixels (or cells). Without it no cell-accurate preview is possible.
var ErrNoPixelGeometry = errors.New("preview: terminal pixel geometry unavailable")

// Cells is the terminal grid size in character cells.
type Cells struct {
	Cols, Rows int
}

// WindowPixels is the terminal surface size in physical pixels.
type WindowPixels struct {
	Width, Height int
}

// Valid reports whether both dimensions are non-zero.
func (w WindowPixels) Valid() bool {
	return w.Width > 0 && w.Height > 0
}

// Fit is the display region chosen for an image, in cells.
type Fit struct {
	Cols, Rows int
	// Rescale is set when Cols differs from the unscaled cell width, so the
	// bitmap has to be resampled to PixelSize before display.
	Rescale bool
}

// PixelSize converts the fitted cell region back to pixels.
func (f Fit) PixelSize(cells Cells, win WindowPixels) (int, int) {
	if cells.Cols < 1 || cells.Rows < 1 {
		return 0, 0
	}
	return f.Cols * win.Width / cells.Cols, f.Rows * win.Height / cells.Rows
}

// FitToRegion computes the cell region for an image of img pixels placed in
// the column starting at originX. The column ends two cells before the right
// edge and spans rows 1 to cells.Rows-2.
//
// A region taller than the column is halved until it fits, and the width
// follows the halved height. Integer truncation throughout matches the
// terminal's discrete grid.
func FitToRegion(img image.Point, cells Cells, win WindowPixels, originX int) (Fit, error) {
	if !win.Valid() || cells.Cols < 1 || cells.Rows < 1 {
		return Fit{}, ErrNoPixelGeometry
	}

	naiveCols := img.X * cells.Cols / win.Width
	naiveRows := img.Y * cells.Rows / win.Height

	cols := naiveCols
	if originX+cols >= cells.Cols {
		cols = cells.Cols - originX - 2
		if cols < 1 {
			cols = 1
		}
	}

	rows := naiveRows
	if naiveCols > 0 {
		rows = naiveRows * cols / naiveCols
	}

	if maxRows := cells.Rows - 2; rows > maxRows {
		for rows > maxRows && rows > 1 {
			rows /= 2
		}
		if naiveRows > 0 {
			cols = naiveCols * rows / naiveRows
		}
	}

	return Fit{Cols: cols, Rows: rows, Rescale: cols != naiveCols}, nil
}
