package tiff

import "fmt"

// Tags.
const (
	TagImageWidth  = 0x0100
	TagImageLength = 0x0101
	TagOrientation = 0x0112
	TagExifIFD     = 0x8769
)

// Data types.
const (
	TypeByte  = 1
	TypeASCII = 2
	TypeShort = 3
	TypeLong  = 4
)

// EntryLen is the size of one IFD entry in bytes.
const EntryLen = 12

// Entry is a single 12 byte IFD entry. Value holds the raw value/offset
// field; for inline values it is left-justified as stored in the file.
type Entry struct {
	Tag   uint16
	Type  uint16
	Count uint32
	Value [4]byte
	order ByteOrder
}

// ParseEntry decodes the entry at the start of b.
func ParseEntry(b []byte, order ByteOrder) (Entry, error) {
	if len(b) < EntryLen {
		return Entry{}, FormatError("truncated IFD entry")
	}
	e := Entry{
		Tag:   uint16(ReadUint(b[0:2], order)),
		Type:  uint16(ReadUint(b[2:4], order)),
		Count: ReadUint(b[4:8], order),
		order: order,
	}
	copy(e.Value[:], b[8:12])
	return e, nil
}

// Uint returns the first inline value of a Byte, Short or Long entry.
// ok is false for other types.
func (e Entry) Uint() (v uint32, ok bool) {
	switch e.Type {
	case TypeByte:
		return ReadUint(e.Value[0:1], e.order), true
	case TypeShort:
		return ReadUint(e.Value[0:2], e.order), true
	case TypeLong:
		return ReadUint(e.Value[0:4], e.order), true
	}
	return 0, false
}

// ReadIFD decodes every entry of the directory at offset within block.
// offset is relative to the start of block.
func ReadIFD(block []byte, order ByteOrder, offset uint32) ([]Entry, error) {
	if uint64(offset)+2 > uint64(len(block)) {
		return nil, FormatError(fmt.Sprintf("IFD offset %d out of range", offset))
	}
	n := int(ReadUint(block[offset:offset+2], order))

	start := int(offset) + 2
	if start+n*EntryLen > len(block) {
		return nil, FormatError(fmt.Sprintf("IFD with %d entries truncated", n))
	}

	entries := make([]Entry, 0, n)
	for i := 0; i < n; i++ {
		off := start + i*EntryLen
		e, err := ParseEntry(block[off:off+EntryLen], order)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}
