// ABOUTME: Media file engine package
// ABOUTME: Plays MP3/FLAC audio with a level-meter video track
// Package media implements engine.Engine on top of an audio file.
//
// The file loops forever. Each tick decodes the audio belonging to one
// content frame and renders an ARGB8888 stereo level meter, so the pacer
// sees the same push-model cadence a real emulator core would produce.
package media
