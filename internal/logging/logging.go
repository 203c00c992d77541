// ABOUTME: Logrus setup shared by the executables
// ABOUTME: File-only output under the TUI, file plus stdout otherwise
package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Options controls where and how much is logged
type Options struct {
	Level   string
	File    string // empty disables the log file
	Console bool   // also write to stdout
}

// Setup configures the standard logrus logger. The returned closer releases
// the log file.
func Setup(opts Options) (io.Closer, error) {
	return setup(logrus.StandardLogger(), opts)
}

func setup(logger *logrus.Logger, opts Options) (io.Closer, error) {
	level := logrus.InfoLevel
	if opts.Level != "" {
		parsed, err := logrus.ParseLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		level = parsed
	}
	logger.SetLevel(level)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "15:04:05.000",
	})

	var writers []io.Writer
	var closer io.Closer = nopCloser{}

	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o666)
		if err != nil {
			return nil, fmt.Errorf("error opening log file: %w", err)
		}
		writers = append(writers, f)
		closer = f
	}
	if opts.Console || len(writers) == 0 {
		writers = append(writers, os.Stdout)
	}

	logger.SetOutput(io.MultiWriter(writers...))
	return closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
