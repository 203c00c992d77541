// ABOUTME: Audio buffer manager package
// ABOUTME: Bridges push-model engine audio to a pull-model audio device
// Package buffer decouples engine audio production from device playback.
//
// The engine's audio callback calls Submit, which appends into a pending
// batch with drop-oldest eviction and never blocks for space. After each real
// video frame the pacer calls Commit, sealing that frame's audio onto a
// bounded delivery queue. A consumer goroutine running Run drains the queue,
// optionally time-stretches each batch and writes it to a Sink.
//
// Batches come from a fixed-size Pool, so steady-state operation does not
// allocate. The lock Policy decides what Submit does when the consumer holds
// the lock: PolicyStrict waits, PolicyLossy skips the batch.
//
// Example:
//
//	m, err := buffer.NewManager(buffer.DefaultConfig(48000))
//	go m.Run(ctx, out, nil)
//	m.Submit(samples) // from the engine callback
//	m.Commit()        // after the frame is presented
package buffer
