package tiff

// Orientation is the EXIF orientation tag value.
type Orientation int

const (
	OrientNormal      Orientation = 1
	OrientFlipH       Orientation = 2
	OrientRotate180   Orientation = 3
	OrientFlipV       Orientation = 4
	OrientTranspose   Orientation = 5 // rotate 90 CW + flip H
	OrientRotate90CW  Orientation = 6
	OrientTransverse  Orientation = 7 // rotate 270 CW + flip H
	OrientRotate270CW Orientation = 8
)

// Valid reports whether o is one of the eight defined orientations.
func (o Orientation) Valid() bool {
	return o >= OrientNormal && o <= OrientRotate270CW
}

// FindOrientation scans data for an EXIF TIFF block and returns the
// Orientation entry of IFD0. ok is false when data has no EXIF marker or
// IFD0 has no usable Orientation entry. A marker followed by a malformed
// block is reported as a FormatError.
func FindOrientation(data []byte) (o Orientation, ok bool, err error) {
	block, order, offset, found, err := Header(data)
	if err != nil || !found {
		return 0, false, err
	}

	entries, err := ReadIFD(block, order, offset)
	if err != nil {
		return 0, false, err
	}

	for _, e := range entries {
		if e.Tag == TagOrientation && e.Type == TypeShort && e.Count == 1 {
			v, _ := e.Uint()
			return Orientation(v), true, nil
		}
	}
	return 0, false, nil
}
