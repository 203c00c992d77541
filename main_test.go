// ABOUTME: Tests for the avsync entry point
// ABOUTME: Runs headless sessions and checks exit codes and the log file
package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunRejectsInvalidFlags(t *testing.T) {
	assert.Equal(t, 2, run([]string{"-engine", "emulator"}))
	assert.Equal(t, 2, run([]string{"-no-such-flag"}))
}

func TestRunHeadlessCompletes(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "avsync.log")

	code := run([]string{
		"-no-tui", "-output", "null", "-duration", "100ms",
		"-width", "16", "-height", "8", "-log-file", logFile,
	})
	assert.Equal(t, 0, code)

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "avsync stopped")
}

func TestRunSessionFailureWritesLog(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "avsync.log")

	code := run([]string{
		"-no-tui", "-output", "null", "-engine", "media",
		"-media", filepath.Join(t.TempDir(), "missing.flac"), "-log-file", logFile,
	})
	assert.Equal(t, 1, code)

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Failed to create session")
}
