// ABOUTME: Pixel format definitions for engine-produced rasters
// ABOUTME: Mirrors the engine's pixel format enum and per-format byte sizes
package pixel

import (
	"errors"
	"fmt"
)

// ErrInvalidFormat is returned for pixel format values outside the known set
var ErrInvalidFormat = errors.New("invalid pixel format")

// Format identifies the layout of a source pixel.
// Values match the enum engines pass through the pixel format callback.
type Format int

const (
	// ARGB1555 is 1-5-5-5, little-endian 16-bit
	ARGB1555 Format = 0
	// ARGB8888 is 8-8-8-8, little-endian 32-bit (0xAARRGGBB)
	ARGB8888 Format = 1
	// RGB565 is 5-6-5, little-endian 16-bit
	RGB565 Format = 2
)

// DefaultFormat is assumed when an engine never declares its format
const DefaultFormat = ARGB1555

// Valid reports whether f is a known format
func (f Format) Valid() bool {
	switch f {
	case ARGB1555, ARGB8888, RGB565:
		return true
	}
	return false
}

// BytesPerPixel returns the source pixel size in bytes
func (f Format) BytesPerPixel() int {
	if f == ARGB8888 {
		return 4
	}
	return 2
}

func (f Format) String() string {
	switch f {
	case ARGB1555:
		return "ARGB1555"
	case ARGB8888:
		return "ARGB8888"
	case RGB565:
		return "RGB565"
	default:
		return fmt.Sprintf("Unknown(%d)", int(f))
	}
}

// ParseFormat converts a format name to a Format
func ParseFormat(name string) (Format, error) {
	switch name {
	case "ARGB1555", "argb1555", "1555":
		return ARGB1555, nil
	case "ARGB8888", "argb8888", "8888":
		return ARGB8888, nil
	case "RGB565", "rgb565", "565":
		return RGB565, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidFormat, name)
}
