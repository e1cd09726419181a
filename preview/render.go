package preview

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"os"

	"rolf/logging"
	"rolf/tiff"

	"github.com/disintegration/imaging"
)

// Request describes one preview.
type Request struct {
	Path string
	Ext  string // lower-case extension without the dot
	// Cells and Window are the terminal geometry queried at startup.
	Cells  Cells
	Window WindowPixels
	// OriginX is the first column of the preview region.
	OriginX int
	Gate    *Gate
}

// Renderer decodes, orients, scales and transmits previews.
type Renderer struct {
	// Out receives protocol bytes, normally /dev/tty.
	Out      io.Writer
	Protocol Protocol
	Filter   imaging.ResampleFilter
	// TempDir and TempPrefix locate Kitty payload files.
	TempDir    string
	TempPrefix string
	// Status, when set, receives progress messages for the status line.
	Status func(msg string)
	// Decode defaults to DecodeFile.
	Decode func(path string) (image.Image, error)
}

func (r *Renderer) status(msg string) {
	if r.Status != nil {
		r.Status(msg)
	}
}

// Render displays req.Path. ctx is checked between stages; a cancelled
// render stops at the next stage boundary and returns ctx.Err(). Whether
// anything reaches the terminal is decided by req.Gate alone, checked under
// its lock right before the write.
func (r *Renderer) Render(ctx context.Context, req Request) error {
	r.status("Loading...")

	decode := r.Decode
	if decode == nil {
		decode = DecodeFile
	}
	img, err := decode(req.Path)
	if err != nil {
		return fmt.Errorf("decode %s: %w", req.Path, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if IsJPEG(req.Ext) {
		img, err = r.orient(req.Path, img)
		if err != nil {
			return err
		}
	}

	b := img.Bounds()
	fit, err := FitToRegion(image.Pt(b.Dx(), b.Dy()), req.Cells, req.Window, req.OriginX)
	if err != nil {
		return err
	}
	if fit.Rescale {
		w, h := fit.PixelSize(req.Cells, req.Window)
		logging.Debug("resample %s from %dx%d to fit %dx%d", req.Path, b.Dx(), b.Dy(), w, h)
		img = resample(img, w, h, r.Filter)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	rgba := toNRGBA(img)
	payload, err := r.encode(rgba, fit)
	if err != nil {
		return err
	}

	gate := req.Gate
	if gate == nil {
		gate = NewGate()
	}
	wrote, err := gate.Do(func() error {
		// Sized so the cursor move and payload reach Out in one Write.
		w := bufio.NewWriterSize(r.Out, len(payload)+16)
		writeCursor(w, req.OriginX, 1)
		w.Write(payload)
		return w.Flush()
	})
	if err != nil {
		return fmt.Errorf("write preview: %w", err)
	}
	if !wrote {
		logging.Debug("preview of %s suppressed", req.Path)
	}
	return nil
}

func (r *Renderer) orient(path string, img image.Image) (image.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	o, ok, err := tiff.FindOrientation(data)
	if err != nil {
		return nil, fmt.Errorf("exif %s: %w", path, err)
	}
	if !ok {
		return img, nil
	}
	logging.Debug("%s: orientation %d", path, o)
	return Orient(img, o), nil
}

// encode builds the protocol bytes for img. For Kitty this persists the
// bitmap to a temp file and the payload only carries its path.
func (r *Renderer) encode(img *image.NRGBA, fit Fit) ([]byte, error) {
	var buf bytes.Buffer
	width, height := img.Bounds().Dx(), img.Bounds().Dy()

	switch r.Protocol {
	case ProtoSixel:
		if err := EncodeSixel(&buf, img); err != nil {
			return nil, err
		}
	case ProtoITerm2:
		if err := EncodeITerm2(&buf, img); err != nil {
			return nil, err
		}
	default:
		path, err := storeInTempFile(r.TempDir, r.TempPrefix, img.Pix)
		if err != nil {
			return nil, err
		}
		logging.Debug("stored %dx%d preview (%d cells wide) in %s", width, height, fit.Cols, path)
		if err := EncodeKitty(&buf, path, width, height); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// writeCursor moves the cursor to the zero-based cell (x, y).
func writeCursor(w io.Writer, x, y int) {
	fmt.Fprintf(w, "\033[%d;%dH", y+1, x+1)
}
