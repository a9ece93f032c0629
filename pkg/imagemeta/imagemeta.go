// Package imagemeta estimates pixel dimensions of a logo image and turns
// them into document geometry. Detection walks a fixed cascade: decode the
// image config, ask the document backend for the natural size, parse the
// file header by hand, bucket by file size, and finally assume a square.
package imagemeta

import (
	"context"
	"encoding/binary"
	"image"
	"os"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	// formats for image.DecodeConfig
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// DefaultTargetHeight is the fixed logo height in hundredths of a
// millimeter (11 mm).
const DefaultTargetHeight = 1100

// 📐 Estimate is the detected pixel size plus which cascade stage
// produced it.
type Estimate struct {
	WidthPx  int
	HeightPx int
	Source   string // decode, native, header, filesize, default
}

// NativeSizer asks an external backend (the automation host) for an
// image's natural pixel size. (0, 0, nil) means the backend cannot tell.
type NativeSizer func(ctx context.Context, path string) (int, int, error)

// 🎯 Detect runs the estimation cascade. Each stage is attempted only
// when the previous one failed or was unavailable. Detect never fails:
// the floor is a square default.
func Detect(ctx context.Context, path string, native NativeSizer) Estimate {
	logger := zerolog.Ctx(ctx)

	if w, h, err := decodeConfig(path); err == nil {
		return Estimate{WidthPx: w, HeightPx: h, Source: "decode"}
	} else {
		logger.Debug().Err(err).Str("path", path).Msg("image decode failed, falling back")
	}

	if native != nil {
		if w, h, err := native(ctx, path); err == nil && w > 0 && h > 0 {
			return Estimate{WidthPx: w, HeightPx: h, Source: "native"}
		}
	}

	if w, h, err := ParseHeader(path); err == nil {
		return Estimate{WidthPx: w, HeightPx: h, Source: "header"}
	} else {
		logger.Debug().Err(err).Str("path", path).Msg("header parse failed, falling back")
	}

	if w, h, ok := sizeBucket(path); ok {
		return Estimate{WidthPx: w, HeightPx: h, Source: "filesize"}
	}

	return Estimate{WidthPx: 1, HeightPx: 1, Source: "default"}
}

func decodeConfig(path string) (int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, errors.Errorf("opening image: %w", err)
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, errors.Errorf("decoding image config: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return 0, 0, errors.Errorf("decoded non-positive dimensions")
	}
	return cfg.Width, cfg.Height, nil
}

// ParseHeader reads dimensions straight out of the file header: the PNG
// IHDR chunk or the first JPEG SOF segment.
func ParseHeader(path string) (int, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, 0, errors.Errorf("reading image file: %w", err)
	}
	if w, h, ok := parsePNG(data); ok {
		return w, h, nil
	}
	if w, h, ok := parseJPEG(data); ok {
		return w, h, nil
	}
	return 0, 0, errors.Errorf("no recognizable PNG or JPEG header")
}

var pngSignature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// parsePNG pulls width/height from the IHDR chunk, which the format pins
// at a fixed offset right after the signature.
func parsePNG(data []byte) (int, int, bool) {
	if len(data) < 24 {
		return 0, 0, false
	}
	for i, b := range pngSignature {
		if data[i] != b {
			return 0, 0, false
		}
	}
	if string(data[12:16]) != "IHDR" {
		return 0, 0, false
	}
	w := int(binary.BigEndian.Uint32(data[16:20]))
	h := int(binary.BigEndian.Uint32(data[20:24]))
	if w <= 0 || h <= 0 {
		return 0, 0, false
	}
	return w, h, true
}

// parseJPEG scans segment markers until a start-of-frame carrying the
// frame dimensions.
func parseJPEG(data []byte) (int, int, bool) {
	if len(data) < 4 || data[0] != 0xFF || data[1] != 0xD8 {
		return 0, 0, false
	}
	i := 2
	for i+4 <= len(data) {
		if data[i] != 0xFF {
			i++
			continue
		}
		marker := data[i+1]
		// standalone markers without a length payload
		if marker == 0xD8 || (marker >= 0xD0 && marker <= 0xD7) || marker == 0x01 {
			i += 2
			continue
		}
		if i+4 > len(data) {
			return 0, 0, false
		}
		segLen := int(binary.BigEndian.Uint16(data[i+2 : i+4]))
		if isSOF(marker) {
			if i+9 > len(data) {
				return 0, 0, false
			}
			h := int(binary.BigEndian.Uint16(data[i+5 : i+7]))
			w := int(binary.BigEndian.Uint16(data[i+7 : i+9]))
			if w <= 0 || h <= 0 {
				return 0, 0, false
			}
			return w, h, true
		}
		i += 2 + segLen
	}
	return 0, 0, false
}

func isSOF(marker byte) bool {
	switch marker {
	case 0xC0, 0xC1, 0xC2, 0xC3, 0xC5, 0xC6, 0xC7, 0xC9, 0xCA, 0xCB, 0xCD, 0xCE, 0xCF:
		return true
	}
	return false
}

// sizeBucket guesses a typical logo aspect from file size alone: small
// files are simple marks, medium ones wordmarks, large ones banners.
func sizeBucket(path string) (int, int, bool) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, 0, false
	}
	switch size := info.Size(); {
	case size < 32<<10:
		return 2, 1, true
	case size < 512<<10:
		return 3, 1, true
	default:
		return 4, 1, true
	}
}

// 📏 Geometry converts an estimate into document dimensions in hundredths
// of a millimeter: height is fixed, width follows the aspect ratio and is
// clamped to between 0.1x and 10x the target height as a sanity bound.
func Geometry(e Estimate, targetHeight int) (width, height int) {
	if targetHeight <= 0 {
		targetHeight = DefaultTargetHeight
	}
	height = targetHeight
	if e.HeightPx <= 0 || e.WidthPx <= 0 {
		return targetHeight, height
	}
	width = int(float64(targetHeight)*float64(e.WidthPx)/float64(e.HeightPx) + 0.5)
	if min := targetHeight / 10; width < min {
		width = min
	}
	if max := targetHeight * 10; width > max {
		width = max
	}
	return width, height
}
