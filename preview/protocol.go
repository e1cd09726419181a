package preview

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"io"
	"strings"

	"github.com/soniakeys/quant/median"
)

// Protocol is the terminal graphics protocol used to display a preview.
type Protocol int

const (
	ProtoKitty  Protocol = iota // Kitty graphics protocol, file transport (Kitty, WezTerm, Ghostty)
	ProtoSixel                  // Sixel graphics (foot, Konsole, Windows Terminal, xterm)
	ProtoITerm2                 // iTerm2 inline images (iTerm2, mintty)
)

func (p Protocol) String() string {
	switch p {
	case ProtoSixel:
		return "sixel"
	case ProtoITerm2:
		return "iterm2"
	}
	return "kitty"
}

// ParseProtocol maps a protocol name to a Protocol. ok is false for empty,
// "auto" or unknown names.
func ParseProtocol(name string) (p Protocol, ok bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "kitty":
		return ProtoKitty, true
	case "sixel":
		return ProtoSixel, true
	case "iterm2", "iterm":
		return ProtoITerm2, true
	}
	return ProtoKitty, false
}

// EncodeKitty writes the Kitty sequence telling the terminal to display the
// raw RGBA file at path, width×height pixels. The terminal owns the file
// once it has read it.
func EncodeKitty(w io.Writer, path string, width, height int) error {
	_, err := fmt.Fprintf(w, "\033_Gf=32,s=%d,v=%d,a=T,t=t;%s\033\\",
		width, height, base64.StdEncoding.EncodeToString([]byte(path)))
	return err
}

// EncodeITerm2 writes img as an iTerm2 inline PNG at its native pixel size.
func EncodeITerm2(w io.Writer, img image.Image) error {
	var pngBuf bytes.Buffer
	if err := png.Encode(&pngBuf, img); err != nil {
		return err
	}
	b64 := base64.StdEncoding.EncodeToString(pngBuf.Bytes())
	b := img.Bounds()
	_, err := fmt.Fprintf(w, "\033]1337;File=inline=1;width=%dpx;height=%dpx;preserveAspectRatio=0:%s\a",
		b.Dx(), b.Dy(), b64)
	return err
}

// EncodeSixel writes img as a Sixel image with P2=1 (transparent
// background): pixels with alpha below 128 are left unset.
func EncodeSixel(w io.Writer, img *image.NRGBA) error {
	width := img.Bounds().Dx()
	height := img.Bounds().Dy()
	if width == 0 || height == 0 {
		return nil
	}

	var out bytes.Buffer

	// Scrolling mode anchors the image at the cursor.
	out.WriteString("\033[?80l")

	// Palette entries 1..254; entry 0 is unused.
	const nc = 255
	q := median.Quantizer(nc - 1)
	paletted := q.Paletted(img)
	draw.Draw(paletted, img.Bounds(), img, image.Point{}, draw.Over)

	fmt.Fprintf(&out, "\033P0;1;8q\"1;1;%d;%d", width, height)

	for n, v := range paletted.Palette {
		r, g, b, _ := v.RGBA()
		rp := (r*100 + 0x7FFF) / 0xFFFF
		gp := (g*100 + 0x7FFF) / 0xFFFF
		bp := (b*100 + 0x7FFF) / 0xFFFF
		fmt.Fprintf(&out, "#%d;2;%d;%d;%d", n+1, rp, gp, bp)
	}

	bits := make([]byte, width*nc)
	used := make([]bool, nc)
	for z := 0; z < (height+5)/6; z++ {
		if z > 0 {
			out.WriteByte('-') // DECGNL
		}

		for p := 0; p < 6; p++ {
			y := z*6 + p
			if y >= height {
				break
			}
			for x := 0; x < width; x++ {
				if img.NRGBAAt(x, y).A < 128 {
					continue
				}
				idx := int(paletted.ColorIndexAt(x, y)) + 1
				if idx >= nc {
					continue
				}
				used[idx] = true
				bits[width*idx+x] |= 1 << uint(p)
			}
		}

		firstColor := true
		for n := 1; n < nc; n++ {
			if !used[n] {
				continue
			}
			used[n] = false

			if !firstColor {
				out.WriteByte('$') // DECGCR
			}
			firstColor = false
			fmt.Fprintf(&out, "#%d", n)

			cnt := 0
			var prev byte = 0xFF
			for x := 0; x < width; x++ {
				ch := bits[width*n+x]
				bits[width*n+x] = 0
				if ch == prev {
					cnt++
					continue
				}
				if cnt > 0 {
					writeSixelRun(&out, prev, cnt)
				}
				prev = ch
				cnt = 1
			}
			if cnt > 0 {
				writeSixelRun(&out, prev, cnt)
			}
		}
	}

	out.WriteString("\033\\")
	_, err := w.Write(out.Bytes())
	return err
}

func writeSixelRun(w *bytes.Buffer, ch byte, count int) {
	s := byte(63 + ch)
	if count <= 3 {
		for i := 0; i < count; i++ {
			w.WriteByte(s)
		}
		return
	}
	fmt.Fprintf(w, "!%d%c", count, s)
}

// ClearKitty deletes every image placed with the Kitty protocol.
func ClearKitty(w io.Writer) error {
	_, err := io.WriteString(w, "\033_Ga=d;\033\\")
	return err
}
