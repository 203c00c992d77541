// ABOUTME: Table-driven pixel conversion to ARGB8888
// ABOUTME: Builds 565/1555 lookup tables once per converter and blits whole rasters
package pixel

import (
	"encoding/binary"
	"sync"
)

const (
	lut565Size  = 1 << 16
	lut1555Size = 1 << 15

	opaque = 0xFF000000
)

// Converter converts pixels of one source format to ARGB8888.
// A Converter is not safe for concurrent Blit calls; the dominant colour
// histogram is reused between frames.
type Converter struct {
	format Format
	bpp    int
	lut    []uint32
	dom    dominantTracker
}

// NewConverter builds the lookup table for format
func NewConverter(format Format) *Converter {
	if !format.Valid() {
		format = DefaultFormat
	}

	c := &Converter{
		format: format,
		bpp:    format.BytesPerPixel(),
	}

	switch format {
	case RGB565:
		c.lut = build565()
	case ARGB1555:
		c.lut = build1555()
	}

	return c
}

// Format returns the source format of the converter
func (c *Converter) Format() Format {
	return c.format
}

// Convert converts a single raw pixel value. For 16-bit formats only the low
// 16 bits of raw are used.
func (c *Converter) Convert(raw uint32) uint32 {
	switch c.format {
	case RGB565:
		return c.lut[uint16(raw)]
	case ARGB1555:
		v := uint16(raw)
		return c.lut[v&0x7FFF] | uint32(v>>15)*opaque
	default:
		return raw
	}
}

// ConvertBytes converts the pixel stored little-endian at the start of src
func (c *Converter) ConvertBytes(src []byte) uint32 {
	if c.bpp == 4 {
		return binary.LittleEndian.Uint32(src)
	}
	return c.Convert(uint32(binary.LittleEndian.Uint16(src)))
}

// BlitResult describes one Blit pass
type BlitResult struct {
	Pixels      int    // pixels written to the destination
	ClippedRows int    // rows that stopped early on a bounds check
	Dominant    uint32 // most common colour of the written pixels, ARGB8888
}

// Blit converts a width x height raster with the given pitch into dst, an
// ARGB8888 buffer dstWidth pixels wide. A row stops early when the next
// source or destination pixel would fall outside its buffer.
func (c *Converter) Blit(src []byte, width, height, pitch int, dst []byte, dstWidth int) BlitResult {
	var res BlitResult

	c.dom.reset()
	dstStride := dstWidth * 4

	for y := 0; y < height; y++ {
		srcRow := y * pitch
		dstRow := y * dstStride

		for x := 0; x < width; x++ {
			si := srcRow + x*c.bpp
			di := dstRow + x*4

			if x >= dstWidth || si+c.bpp > len(src) || di+4 > len(dst) {
				res.ClippedRows++
				break
			}

			var argb uint32
			if c.bpp == 4 {
				copy(dst[di:di+4], src[si:si+4])
				argb = binary.LittleEndian.Uint32(src[si:])
			} else {
				argb = c.Convert(uint32(src[si]) | uint32(src[si+1])<<8)
				binary.LittleEndian.PutUint32(dst[di:], argb)
			}

			c.dom.add(argb)
			res.Pixels++
		}
	}

	res.Dominant = c.dom.color()
	return res
}

// Fill paints every whole pixel of an ARGB8888 buffer with argb
func Fill(dst []byte, argb uint32) {
	n := len(dst) &^ 3
	if n == 0 {
		return
	}
	binary.LittleEndian.PutUint32(dst, argb)
	for filled := 4; filled < n; filled *= 2 {
		copy(dst[filled:n], dst[:filled])
	}
}

var (
	sharedOnce       [3]sync.Once
	sharedConverters [3]*Converter
)

// Convert converts one pixel stored little-endian in src using a shared,
// lazily built converter for format
func Convert(format Format, src []byte) uint32 {
	if !format.Valid() {
		format = DefaultFormat
	}
	sharedOnce[format].Do(func() {
		sharedConverters[format] = NewConverter(format)
	})
	return sharedConverters[format].ConvertBytes(src)
}

// Reference565 converts RGB565 with direct bit arithmetic
func Reference565(v uint16) uint32 {
	r := uint32(v>>11) & 0x1F
	g := uint32(v>>5) & 0x3F
	b := uint32(v) & 0x1F

	r = (r*527 + 23) >> 6
	g = (g*259 + 33) >> 6
	b = (b*527 + 23) >> 6

	return opaque | r<<16 | g<<8 | b
}

// Reference1555 converts ARGB1555 with direct bit arithmetic
func Reference1555(v uint16) uint32 {
	a := uint32(v>>15) & 0x01
	r := uint32(v>>10) & 0x1F
	g := uint32(v>>5) & 0x1F
	b := uint32(v) & 0x1F

	a *= 255
	r = (r*527 + 23) >> 6
	g = (g*527 + 23) >> 6
	b = (b*527 + 23) >> 6

	return a<<24 | r<<16 | g<<8 | b
}

// expand5/expand6 scale 5- and 6-bit channels to 8 bits
var expand5, expand6 = func() ([32]uint32, [64]uint32) {
	var e5 [32]uint32
	var e6 [64]uint32
	for i := range e5 {
		e5[i] = (uint32(i)*527 + 23) >> 6
	}
	for i := range e6 {
		e6[i] = (uint32(i)*259 + 33) >> 6
	}
	return e5, e6
}()

func build565() []uint32 {
	lut := make([]uint32, lut565Size)
	for i := range lut {
		lut[i] = opaque | expand5[(i>>11)&0x1F]<<16 | expand6[(i>>5)&0x3F]<<8 | expand5[i&0x1F]
	}
	return lut
}

// build1555 covers the 15 colour bits; alpha is applied in Convert
func build1555() []uint32 {
	lut := make([]uint32, lut1555Size)
	for i := range lut {
		lut[i] = expand5[(i>>10)&0x1F]<<16 | expand5[(i>>5)&0x1F]<<8 | expand5[i&0x1F]
	}
	return lut
}
