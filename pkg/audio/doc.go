// ABOUTME: Audio fundamentals package providing core types and utilities
// ABOUTME: Defines the stereo int16 format and sample helpers
// Package audio provides the PCM conventions shared by the audio pipeline.
//
// All audio moves as interleaved stereo int16 samples. A frame is one
// left/right pair, so a slice of n samples holds n/2 frames.
//
// Example:
//
//	f := audio.Stereo(48000)
//	frames := f.FramesIn(64 * time.Millisecond) // 3072
//	buf := audio.PutInt16LE(nil, samples)
package audio
