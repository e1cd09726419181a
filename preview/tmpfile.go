package preview

import (
	"fmt"
	"os"
)

// DefaultTempPrefix names preview payload files. Kitty only deletes t=t
// files that live in a temp directory and contain "tty-graphics-protocol".
const DefaultTempPrefix = "tty-graphics-protocol.rolf."

// storeInTempFile writes buf to a new uniquely named file in dir (the
// system temp dir when empty) and returns its path. The file is kept; the
// terminal deletes it after reading.
func storeInTempFile(dir, prefix string, buf []byte) (string, error) {
	if prefix == "" {
		prefix = DefaultTempPrefix
	}
	f, err := os.CreateTemp(dir, prefix+"*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	if _, err := f.Write(buf); err != nil {
		f.Close()
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close temp file: %w", err)
	}
	return f.Name(), nil
}
