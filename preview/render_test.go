package preview

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"rolf/tiff"

	"github.com/disintegration/imaging"
)

// withOrientation splices an APP1 EXIF segment with the given orientation
// right after the JPEG SOI marker.
func withOrientation(t *testing.T, jpg []byte, o uint16) []byte {
	t.Helper()
	var app1 []byte
	app1 = append(app1, "Exif\x00\x00"...)
	app1 = append(app1, 'M', 'M')
	app1 = binary.BigEndian.AppendUint16(app1, 42)
	app1 = binary.BigEndian.AppendUint32(app1, 8)
	app1 = binary.BigEndian.AppendUint16(app1, 1)
	app1 = binary.BigEndian.AppendUint16(app1, tiff.TagOrientation)
	app1 = binary.BigEndian.AppendUint16(app1, tiff.TypeShort)
	app1 = binary.BigEndian.AppendUint32(app1, 1)
	app1 = binary.BigEndian.AppendUint16(app1, o)
	app1 = append(app1, 0, 0)
	app1 = binary.BigEndian.AppendUint32(app1, 0)

	out := append([]byte{}, jpg[:2]...)
	out = append(out, 0xFF, 0xE1)
	out = binary.BigEndian.AppendUint16(out, uint16(len(app1)+2))
	out = append(out, app1...)
	return append(out, jpg[2:]...)
}

func grayJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8((y*w + x) * 255 / (w * h))})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 100}); err != nil {
		t.Fatalf("jpeg encode failed: %v", err)
	}
	return buf.Bytes()
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s failed: %v", name, err)
	}
	return path
}

var kittyRe = regexp.MustCompile("^\033\\[(\\d+);(\\d+)H\033_Gf=32,s=(\\d+),v=(\\d+),a=T,t=t;([A-Za-z0-9+/=]+)\033\\\\$")

type kittyOut struct {
	row, col      int
	width, height int
	path          string
}

func parseKitty(t *testing.T, out string) kittyOut {
	t.Helper()
	m := kittyRe.FindStringSubmatch(out)
	if m == nil {
		t.Fatalf("output is not a single kitty sequence: %q", out)
	}
	path, err := base64.StdEncoding.DecodeString(m[5])
	if err != nil {
		t.Fatalf("payload is not base64: %v", err)
	}
	atoi := func(s string) int {
		n, _ := strconv.Atoi(s)
		return n
	}
	return kittyOut{row: atoi(m[1]), col: atoi(m[2]), width: atoi(m[3]), height: atoi(m[4]), path: string(path)}
}

func newRequest(path string) Request {
	return Request{
		Path:    path,
		Ext:     Ext(path),
		Cells:   Cells{Cols: 100, Rows: 40},
		Window:  WindowPixels{Width: 1000, Height: 400},
		OriginX: 50,
		Gate:    NewGate(),
	}
}

func TestRenderRotate180EndToEnd(t *testing.T) {
	raw := grayJPEG(t, 4, 4)
	path := writeFile(t, "photo.jpg", withOrientation(t, raw, 3))

	var out bytes.Buffer
	var statuses []string
	r := &Renderer{
		Out:     &out,
		TempDir: t.TempDir(),
		Status:  func(msg string) { statuses = append(statuses, msg) },
	}
	if err := r.Render(context.Background(), newRequest(path)); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if len(statuses) == 0 || statuses[0] != "Loading..." {
		t.Fatalf("expected Loading... status first, got %v", statuses)
	}

	k := parseKitty(t, out.String())
	if k.row != 2 || k.col != 51 {
		t.Fatalf("expected cursor at row 2 col 51, got %d;%d", k.row, k.col)
	}
	if k.width != 4 || k.height != 4 {
		t.Fatalf("expected 4x4 bitmap, got %dx%d", k.width, k.height)
	}
	if !strings.HasPrefix(filepath.Base(k.path), DefaultTempPrefix) {
		t.Fatalf("expected temp file prefix %q, got %s", DefaultTempPrefix, k.path)
	}

	data, err := os.ReadFile(k.path)
	if err != nil {
		t.Fatalf("read payload: %v", err)
	}
	if len(data) != 64 {
		t.Fatalf("expected 64 byte payload, got %d", len(data))
	}

	src, err := jpeg.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("decode source: %v", err)
	}
	want := color.NRGBAModel.Convert(src.At(3, 3)).(color.NRGBA)
	got := color.NRGBA{R: data[0], G: data[1], B: data[2], A: data[3]}
	if got != want {
		t.Fatalf("expected output (0,0) = source (3,3) %v, got %v", want, got)
	}
}

func TestRenderRotate90ForOrientation6(t *testing.T) {
	path := writeFile(t, "wide.jpeg", withOrientation(t, grayJPEG(t, 4, 2), 6))

	var out bytes.Buffer
	r := &Renderer{Out: &out, TempDir: t.TempDir()}
	if err := r.Render(context.Background(), newRequest(path)); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	k := parseKitty(t, out.String())
	if k.width != 2 || k.height != 4 {
		t.Fatalf("expected a single 90 degree turn to 2x4, got %dx%d", k.width, k.height)
	}
}

func TestRenderSkipsOrientationForNonJPEG(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 2))
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png encode: %v", err)
	}
	path := writeFile(t, "wide.png", buf.Bytes())

	var out bytes.Buffer
	r := &Renderer{Out: &out, TempDir: t.TempDir()}
	if err := r.Render(context.Background(), newRequest(path)); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	k := parseKitty(t, out.String())
	if k.width != 4 || k.height != 2 {
		t.Fatalf("expected untouched 4x2, got %dx%d", k.width, k.height)
	}
}

func TestRenderRescalesClampedImage(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2000, 1000))
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png encode: %v", err)
	}
	path := writeFile(t, "big.png", buf.Bytes())

	var out bytes.Buffer
	r := &Renderer{Out: &out, TempDir: t.TempDir(), Filter: imaging.NearestNeighbor}
	req := newRequest(path)
	req.Cells = Cells{Cols: 80, Rows: 24}
	req.Window = WindowPixels{Width: 800, Height: 480}
	req.OriginX = 40
	if err := r.Render(context.Background(), req); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	// 38x9 cells -> 380x180 px bound -> 360x180 preserving 2:1
	k := parseKitty(t, out.String())
	if k.width != 360 || k.height != 180 {
		t.Fatalf("expected 360x180, got %dx%d", k.width, k.height)
	}
	info, err := os.Stat(k.path)
	if err != nil {
		t.Fatalf("stat payload: %v", err)
	}
	if info.Size() != 360*180*4 {
		t.Fatalf("expected %d byte payload, got %d", 360*180*4, info.Size())
	}
}

func TestRenderClosedGateWritesNothing(t *testing.T) {
	path := writeFile(t, "photo.jpg", grayJPEG(t, 4, 4))

	var out bytes.Buffer
	r := &Renderer{Out: &out, TempDir: t.TempDir()}
	req := newRequest(path)
	req.Gate.SetAllowed(false)
	if err := r.Render(context.Background(), req); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if out.Len() != 0 {
		t.Fatalf("expected zero bytes with closed gate, got %d", out.Len())
	}
}

func TestRenderGateClosedAfterDecode(t *testing.T) {
	path := writeFile(t, "photo.jpg", grayJPEG(t, 4, 4))

	var out bytes.Buffer
	req := newRequest(path)
	r := &Renderer{
		Out:     &out,
		TempDir: t.TempDir(),
		Decode: func(p string) (image.Image, error) {
			img, err := DecodeFile(p)
			// The abort arrives once the expensive work is already done.
			req.Gate.SetAllowed(false)
			return img, err
		},
	}
	if err := r.Render(context.Background(), req); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if out.Len() != 0 {
		t.Fatalf("expected zero bytes after late cancel, got %q", out.String())
	}
}

func TestRenderCancelledContext(t *testing.T) {
	path := writeFile(t, "photo.jpg", grayJPEG(t, 4, 4))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	r := &Renderer{Out: &out, TempDir: t.TempDir()}
	err := r.Render(ctx, newRequest(path))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if out.Len() != 0 {
		t.Fatalf("expected no output from cancelled render")
	}
}

func TestRenderZeroWindowPixels(t *testing.T) {
	path := writeFile(t, "photo.jpg", grayJPEG(t, 4, 4))
	req := newRequest(path)
	req.Window = WindowPixels{}

	r := &Renderer{Out: &bytes.Buffer{}, TempDir: t.TempDir()}
	if err := r.Render(context.Background(), req); !errors.Is(err, ErrNoPixelGeometry) {
		t.Fatalf("expected ErrNoPixelGeometry, got %v", err)
	}
}

func TestRenderMalformedExif(t *testing.T) {
	data := withOrientation(t, grayJPEG(t, 4, 4), 3)
	i := bytes.Index(data, []byte("Exif\x00\x00")) + 6
	data[i], data[i+1] = 'Q', 'Q'
	path := writeFile(t, "broken.jpg", data)

	r := &Renderer{Out: &bytes.Buffer{}, TempDir: t.TempDir()}
	err := r.Render(context.Background(), newRequest(path))
	var fe tiff.FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("expected tiff.FormatError, got %v", err)
	}
}

func TestRenderDecodeFailure(t *testing.T) {
	path := writeFile(t, "not-an-image.png", []byte("hello"))
	r := &Renderer{Out: &bytes.Buffer{}, TempDir: t.TempDir()}
	if err := r.Render(context.Background(), newRequest(path)); err == nil {
		t.Fatalf("expected decode error")
	}
	if err := r.Render(context.Background(), newRequest(filepath.Join(t.TempDir(), "missing.jpg"))); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestRenderInlineProtocols(t *testing.T) {
	path := writeFile(t, "photo.jpg", grayJPEG(t, 4, 4))

	tests := []struct {
		proto  Protocol
		prefix string
		suffix string
	}{
		{ProtoSixel, "\033[2;51H\033[?80l\033P0;1;8q\"1;1;4;4", "\033\\"},
		{ProtoITerm2, "\033[2;51H\033]1337;File=inline=1;width=4px;height=4px;", "\a"},
	}
	for _, tt := range tests {
		var out bytes.Buffer
		r := &Renderer{Out: &out, Protocol: tt.proto}
		if err := r.Render(context.Background(), newRequest(path)); err != nil {
			t.Fatalf("%v: Render failed: %v", tt.proto, err)
		}
		s := out.String()
		if !strings.HasPrefix(s, tt.prefix) || !strings.HasSuffix(s, tt.suffix) {
			t.Fatalf("%v: unexpected output %q", tt.proto, s)
		}
	}
}
