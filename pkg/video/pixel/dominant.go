// ABOUTME: Incremental most-common-colour statistic
// ABOUTME: Quantizes to 5-6-5 buckets while a frame is being converted
package pixel

const buckets = 1 << 16

// dominantTracker keeps a generation-stamped histogram so a new frame does not
// need a clearing pass over all buckets.
type dominantTracker struct {
	counts    []uint32
	stamps    []uint32
	gen       uint32
	best      uint16
	bestCount uint32
}

func (d *dominantTracker) reset() {
	if d.counts == nil {
		d.counts = make([]uint32, buckets)
		d.stamps = make([]uint32, buckets)
	}

	d.gen++
	if d.gen == 0 {
		for i := range d.stamps {
			d.stamps[i] = 0
		}
		d.gen = 1
	}
	d.best = 0
	d.bestCount = 0
}

func (d *dominantTracker) add(argb uint32) {
	k := Quantize(argb)
	if d.stamps[k] != d.gen {
		d.stamps[k] = d.gen
		d.counts[k] = 0
	}
	d.counts[k]++
	if d.counts[k] > d.bestCount {
		d.bestCount = d.counts[k]
		d.best = k
	}
}

// color returns opaque black when nothing was counted
func (d *dominantTracker) color() uint32 {
	if d.bestCount == 0 {
		return opaque
	}
	return Reference565(d.best)
}

// Quantize maps an ARGB8888 colour to its 5-6-5 bucket, ignoring alpha
func Quantize(argb uint32) uint16 {
	r := (argb >> 16) & 0xFF
	g := (argb >> 8) & 0xFF
	b := argb & 0xFF
	return uint16((r>>3)<<11 | (g>>2)<<5 | b>>3)
}

// DominantColor scans an ARGB8888 buffer and returns its most common
// quantized colour
func DominantColor(argbPixels []byte) uint32 {
	var d dominantTracker
	d.reset()
	for i := 0; i+4 <= len(argbPixels); i += 4 {
		d.add(uint32(argbPixels[i]) | uint32(argbPixels[i+1])<<8 |
			uint32(argbPixels[i+2])<<16 | uint32(argbPixels[i+3])<<24)
	}
	return d.color()
}
