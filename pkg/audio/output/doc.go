// ABOUTME: Audio output package for playing audio
// ABOUTME: Provides the Output interface with oto, malgo and null backends
// Package output provides audio playback backends.
//
// Every backend accepts interleaved int16 samples and applies software
// volume and mute. Oto blocks on Write until the player takes the data;
// Malgo queues into a ring buffer drained by the device callback; Null
// discards everything.
//
// Example:
//
//	out, err := output.New("oto")
//	err = out.Open(48000, 2)
//	err = out.Write(samples)
package output
