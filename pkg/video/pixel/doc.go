// ABOUTME: Pixel format conversion package
// ABOUTME: Converts engine rasters to the ARGB8888 presentation layout
// Package pixel converts engine-produced pixels to ARGB8888.
//
// RGB565 and ARGB1555 go through lookup tables of 65536 and 32768 entries
// built once per Converter; ARGB8888 is copied through unchanged. Output
// pixels are 0xAARRGGBB words stored little-endian.
//
// Example:
//
//	conv := pixel.NewConverter(pixel.RGB565)
//	res := conv.Blit(frame, 256, 224, 512, surface, 256)
//	fmt.Printf("dominant=%08x\n", res.Dominant)
package pixel
