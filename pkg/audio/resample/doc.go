// ABOUTME: Audio resampling package using linear interpolation
// ABOUTME: Stretches per-frame audio batches to the effective device rate
// Package resample provides audio sample rate conversion.
//
// Uses linear interpolation for converting between sample rates. A
// Resampler also serves as the buffer manager's Stretcher: when each real
// video frame is shown for several display refreshes, its audio is
// stretched by the same factor.
//
// Example:
//
//	r := resample.New(32000, 64000, 2)
//	doubled := r.Process(batch)
package resample
