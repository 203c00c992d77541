// ABOUTME: Engine boundary package
// ABOUTME: The narrow interface a media engine implements to be paced
// Package engine defines how the synchronization core drives a media engine.
//
// An engine pushes data through three callbacks registered with
// SetCallbacks. All of them fire on the caller's goroutine during
// RunOneTick, so an engine never needs its own locking.
//
// The testpattern and media subpackages provide ready-made engines.
package engine
