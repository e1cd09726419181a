package preview

import (
	"image"
	"strings"

	"rolf/tiff"

	"github.com/disintegration/imaging"
)

// Orient returns img transformed for upright display. Rotations named in
// the EXIF orientation values are clockwise; imaging rotates
// counter-clockwise, hence Rotate270 for a 90° CW turn.
func Orient(img image.Image, o tiff.Orientation) image.Image {
	switch o {
	case tiff.OrientFlipH:
		return imaging.FlipH(img)
	case tiff.OrientRotate180:
		return imaging.Rotate180(img)
	case tiff.OrientFlipV:
		return imaging.FlipV(img)
	case tiff.OrientTranspose:
		return imaging.Transpose(img)
	case tiff.OrientRotate90CW:
		return imaging.Rotate270(img)
	case tiff.OrientTransverse:
		return imaging.Transverse(img)
	case tiff.OrientRotate270CW:
		return imaging.Rotate90(img)
	}
	return img
}

// IsJPEG reports whether ext names a JPEG file. ext may carry a leading dot.
func IsJPEG(ext string) bool {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "jpg", "jpeg":
		return true
	}
	return false
}
