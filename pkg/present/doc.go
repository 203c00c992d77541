// ABOUTME: Presentation surfaces package
// ABOUTME: Headless surface implementations for the pacer
// Package present provides presentation surfaces that need no window.
//
// Memory double-buffers an ARGB8888 raster: the pacer draws into Pixels and
// Present publishes a copy that readers such as the status UI can sample
// with At or Snapshot from other goroutines.
package present
