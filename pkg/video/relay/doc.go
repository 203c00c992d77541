// ABOUTME: Video frame relay package
// ABOUTME: Single-slot, latest-wins frame hand-off with pixel format state
// Package relay hands video frames from an engine callback to the pacer.
//
// Only the most recent frame is kept: a frame published before the previous
// one was taken replaces it. Take never blocks and returns false when the
// engine produced nothing since the last tick.
//
// Example:
//
//	r := relay.New(pixel.DefaultFormat)
//	r.Publish(buf, 256, 224, 512) // from the engine's video callback
//	if frame, ok := r.Take(); ok {
//	    r.Converter().Blit(frame.Data, frame.Width, frame.Height, frame.Pitch, dst, 256)
//	    r.Recycle(frame)
//	}
package relay
