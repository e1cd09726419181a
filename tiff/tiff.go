// Package tiff reads the small subset of TIFF structure needed to orient
// camera images: the byte order header, IFD0 and its Orientation entry.
//
// Only IFD0 is decoded. Sub-IFD and next-IFD pointers are never followed.
package tiff

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// A FormatError reports that the input is not a valid TIFF block.
type FormatError string

func (e FormatError) Error() string { return "tiff: invalid format: " + string(e) }

// ByteOrder selects how multi-byte fields of a TIFF block are decoded.
type ByteOrder int

const (
	LittleEndian ByteOrder = iota // "II"
	BigEndian                     // "MM"
)

func (o ByteOrder) String() string {
	if o == BigEndian {
		return "big-endian"
	}
	return "little-endian"
}

func (o ByteOrder) binary() binary.ByteOrder {
	if o == BigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// ReadUint decodes a 1, 2 or 4 byte unsigned integer from b.
// Any other length is a programming error and panics.
func ReadUint(b []byte, order ByteOrder) uint32 {
	switch len(b) {
	case 1:
		return uint32(b[0])
	case 2:
		return uint32(order.binary().Uint16(b))
	case 4:
		return order.binary().Uint32(b)
	}
	panic(fmt.Sprintf("tiff: ReadUint on %d byte slice", len(b)))
}

// exifHeader precedes the TIFF block inside a JPEG APP1 segment.
var exifHeader = []byte("Exif\x00\x00")

const headerLen = 8

// Header locates the TIFF block following the EXIF marker in data and
// validates its byte order and magic number. ok is false when no marker is
// present; that is not an error.
func Header(data []byte) (block []byte, order ByteOrder, ifdOffset uint32, ok bool, err error) {
	i := bytes.Index(data, exifHeader)
	if i < 0 {
		return nil, 0, 0, false, nil
	}
	block = data[i+len(exifHeader):]
	if len(block) < headerLen {
		return nil, 0, 0, true, FormatError("truncated header")
	}

	switch string(block[0:2]) {
	case "II":
		order = LittleEndian
	case "MM":
		order = BigEndian
	default:
		return nil, 0, 0, true, FormatError(fmt.Sprintf("unknown byte order %q", block[0:2]))
	}

	if ReadUint(block[2:4], order) != 42 {
		return nil, 0, 0, true, FormatError("missing magic number 42")
	}

	return block, order, ReadUint(block[4:8], order), true, nil
}
