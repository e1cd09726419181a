package preview

import (
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// DecodeFile decodes the image at path with whichever registered codec
// matches its contents.
func DecodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("unsupported image format: %w", err)
	}
	return img, nil
}

// IsImageFile returns true if the file extension indicates a supported image format.
func IsImageFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tiff", ".tif", ".webp":
		return true
	}
	return false
}

// Ext returns the lower-cased extension of path without the dot.
func Ext(path string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
}

// resample shrinks img to fit within w×h, preserving its aspect ratio.
func resample(img image.Image, w, h int, filter imaging.ResampleFilter) image.Image {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return imaging.Fit(img, w, h, filter)
}

// toNRGBA returns img as tightly packed 8-bit non-premultiplied RGBA with
// its origin at (0,0), reusing img when it already is.
func toNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok {
		b := n.Bounds()
		if b.Min == (image.Point{}) && n.Stride == 4*b.Dx() {
			return n
		}
	}
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// ParseFilter maps a filter name to an imaging resample filter.
// Unknown names select Lanczos.
func ParseFilter(name string) imaging.ResampleFilter {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "nearest", "nearest-neighbor":
		return imaging.NearestNeighbor
	case "linear", "bilinear":
		return imaging.Linear
	case "catmullrom", "catmull-rom":
		return imaging.CatmullRom
	case "box":
		return imaging.Box
	}
	return imaging.Lanczos
}
