// ABOUTME: Test pattern engine package
// ABOUTME: Tone plus colour bars in any supported pixel format
// Package testpattern implements engine.Engine with generated content.
//
// Each tick emits SampleRate/FPS stereo frames of a sine tone (fractional
// remainders carry over) and a raster of eight scrolling colour bars. The
// pixel format is declared on the first tick. SkipEvery drops video on
// every Nth tick to mimic an engine that repeats frames.
package testpattern
