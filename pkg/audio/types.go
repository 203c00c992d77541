// ABOUTME: Audio type definitions shared by the buffer manager and outputs
// ABOUTME: Interleaved stereo int16 PCM and frame/duration helpers
package audio

import (
	"encoding/binary"
	"time"
)

const (
	// Channels is the channel count used throughout the pipeline (interleaved L/R)
	Channels = 2

	// BytesPerSample is the size of one int16 sample
	BytesPerSample = 2
)

// Format describes a PCM stream
type Format struct {
	SampleRate int
	Channels   int
}

// Stereo returns the pipeline format at the given rate
func Stereo(sampleRate int) Format {
	return Format{SampleRate: sampleRate, Channels: Channels}
}

// FramesIn returns how many whole frames fit in d at this format's rate
func (f Format) FramesIn(d time.Duration) int {
	return int(int64(f.SampleRate) * int64(d) / int64(time.Second))
}

// Duration returns the playback time of the given frame count
func (f Format) Duration(frames int) time.Duration {
	if f.SampleRate <= 0 {
		return 0
	}
	return time.Duration(int64(frames) * int64(time.Second) / int64(f.SampleRate))
}

// Frames returns the number of whole frames in an interleaved sample slice
func Frames(samples []int16) int {
	return len(samples) / Channels
}

// ClampInt16 saturates a wider sample to the int16 range
func ClampInt16(v int32) int16 {
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return int16(v)
}

// PutInt16LE writes samples as little-endian bytes into dst, growing it as needed
func PutInt16LE(dst []byte, samples []int16) []byte {
	need := len(samples) * BytesPerSample
	if cap(dst) < need {
		dst = make([]byte, need)
	}
	dst = dst[:need]
	for i, s := range samples {
		binary.LittleEndian.PutUint16(dst[i*BytesPerSample:], uint16(s))
	}
	return dst
}
