package imagemeta

import (
	"bytes"
	"context"
	"encoding/binary"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writePNG encodes a real PNG with the given dimensions.
func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

// rawPNGHeader builds just the signature plus IHDR chunk, enough for the
// manual header parser but not for a full decode.
func rawPNGHeader(w, h uint32) []byte {
	buf := append([]byte{}, pngSignature...)
	buf = append(buf, 0, 0, 0, 13)
	buf = append(buf, []byte("IHDR")...)
	buf = binary.BigEndian.AppendUint32(buf, w)
	buf = binary.BigEndian.AppendUint32(buf, h)
	// bit depth, color type, compression, filter, interlace + bogus CRC
	buf = append(buf, 8, 6, 0, 0, 0, 0, 0, 0, 0)
	return buf
}

func TestParseHeader_PNG(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "logo.png")
	require.NoError(t, os.WriteFile(path, rawPNGHeader(320, 80), 0o644))

	w, h, err := ParseHeader(path)
	require.NoError(t, err)
	assert.Equal(t, 320, w)
	assert.Equal(t, 80, h)
}

func TestParseHeader_JPEG(t *testing.T) {
	// SOI, APP0 stub, SOF0 with height 100 width 250
	data := []byte{0xFF, 0xD8}
	data = append(data, 0xFF, 0xE0, 0x00, 0x04, 0x00, 0x00)
	data = append(data, 0xFF, 0xC0, 0x00, 0x11, 0x08)
	data = binary.BigEndian.AppendUint16(data, 100)
	data = binary.BigEndian.AppendUint16(data, 250)
	data = append(data, 0x03)

	dir := t.TempDir()
	path := filepath.Join(dir, "logo.jpg")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	w, h, err := ParseHeader(path)
	require.NoError(t, err)
	assert.Equal(t, 250, w)
	assert.Equal(t, 100, h)
}

func TestParseHeader_Unrecognized(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "logo.bin")
	require.NoError(t, os.WriteFile(path, []byte("not an image at all"), 0o644))

	_, _, err := ParseHeader(path)
	require.Error(t, err)
}

func TestDetect_DecodeStage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "logo.png")
	writePNG(t, path, 200, 50)

	e := Detect(context.Background(), path, nil)
	assert.Equal(t, "decode", e.Source)
	assert.Equal(t, 200, e.WidthPx)
	assert.Equal(t, 50, e.HeightPx)
}

func TestDetect_NativeStage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "logo.bin")
	require.NoError(t, os.WriteFile(path, []byte("opaque host-only format"), 0o644))

	native := func(ctx context.Context, p string) (int, int, error) {
		return 640, 160, nil
	}
	e := Detect(context.Background(), path, native)
	assert.Equal(t, "native", e.Source)
	assert.Equal(t, 640, e.WidthPx)
}

func TestDetect_HeaderStage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "logo.png")
	// header-only PNG: DecodeConfig wants a valid stream layout, the
	// truncated chunk list still satisfies the manual parser
	require.NoError(t, os.WriteFile(path, rawPNGHeader(0, 0), 0o644))
	// zero dims fail both decode and header, dropping to filesize
	e := Detect(context.Background(), path, nil)
	assert.Equal(t, "filesize", e.Source)
}

func TestDetect_FileSizeStage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "logo.xyz")
	require.NoError(t, os.WriteFile(path, []byte("tiny"), 0o644))

	e := Detect(context.Background(), path, nil)
	assert.Equal(t, "filesize", e.Source)
	assert.Equal(t, 2, e.WidthPx)
	assert.Equal(t, 1, e.HeightPx)
}

func TestDetect_DefaultStage(t *testing.T) {
	e := Detect(context.Background(), filepath.Join(t.TempDir(), "missing.png"), nil)
	assert.Equal(t, "default", e.Source)
	assert.Equal(t, 1, e.WidthPx)
	assert.Equal(t, 1, e.HeightPx)
}

func TestGeometry(t *testing.T) {
	tests := []struct {
		name      string
		estimate  Estimate
		target    int
		wantWidth int
	}{
		{
			name:      "four_to_one_aspect",
			estimate:  Estimate{WidthPx: 400, HeightPx: 100},
			target:    1100,
			wantWidth: 4400,
		},
		{
			name:      "square",
			estimate:  Estimate{WidthPx: 64, HeightPx: 64},
			target:    1100,
			wantWidth: 1100,
		},
		{
			name:      "clamped_wide",
			estimate:  Estimate{WidthPx: 10000, HeightPx: 10},
			target:    1100,
			wantWidth: 11000,
		},
		{
			name:      "clamped_narrow",
			estimate:  Estimate{WidthPx: 1, HeightPx: 1000},
			target:    1100,
			wantWidth: 110,
		},
		{
			name:      "zero_target_uses_default",
			estimate:  Estimate{WidthPx: 100, HeightPx: 100},
			target:    0,
			wantWidth: DefaultTargetHeight,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := Geometry(tt.estimate, tt.target)
			assert.Equal(t, tt.wantWidth, w)
			if tt.target > 0 {
				assert.Equal(t, tt.target, h)
			}
		})
	}
}
