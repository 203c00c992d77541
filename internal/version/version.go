// ABOUTME: Version information for avsync
// ABOUTME: Reported by the status API and the startup log
package version

const (
	Version      = "0.3.0"
	Product      = "avsync"
	Manufacturer = "Resonate"
)
