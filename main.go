// ABOUTME: Entry point for the avsync frontend
// ABOUTME: Parses flags, builds a session and runs it with or without the TUI
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Resonate-Protocol/avsync/internal/config"
	"github.com/Resonate-Protocol/avsync/internal/logging"
	"github.com/Resonate-Protocol/avsync/internal/session"
	"github.com/Resonate-Protocol/avsync/internal/ui"
	"github.com/Resonate-Protocol/avsync/internal/version"
	"github.com/Resonate-Protocol/avsync/pkg/present"
	"github.com/sirupsen/logrus"
)

const (
	previewCols = 48
	previewRows = 12
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run returns the process exit code. Deferred cleanup always runs before it
// returns, so the log file is closed on every path.
func run(args []string) int {
	cfg := config.Load()
	fs := flag.NewFlagSet("avsync", flag.ContinueOnError)
	cfg.Bind(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	useTUI := !cfg.NoTUI

	// Under the TUI logs go only to the file
	closer, err := logging.Setup(logging.Options{
		Level:   cfg.LogLevel,
		File:    cfg.LogFile,
		Console: !useTUI,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer func() { _ = closer.Close() }()

	logrus.WithFields(logrus.Fields{
		"version": version.Version,
		"engine":  cfg.Engine,
		"output":  cfg.Output,
	}).Info("Starting avsync")

	sess, err := session.New(cfg, session.Deps{})
	if err != nil {
		logrus.WithError(err).Error("Failed to create session")
		return 1
	}
	defer func() {
		if err := sess.Close(); err != nil {
			logrus.WithError(err).Warn("Error closing session")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if useTUI {
		err = runWithTUI(ctx, sess)
	} else {
		err = runHeadless(ctx, sess)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		logrus.WithError(err).Error("Session failed")
		return 1
	}

	logrus.Info("avsync stopped")
	return 0
}

func runHeadless(ctx context.Context, sess *session.Session) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go statsLogLoop(ctx, sess)
	return sess.Run(ctx)
}

func runWithTUI(ctx context.Context, sess *session.Session) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	controls := ui.NewControls()
	tui := ui.New(controls)

	done := make(chan error, 1)
	go func() {
		done <- sess.Run(ctx)
	}()

	go handleControls(ctx, sess, controls, cancel)
	updatesDone := make(chan struct{})
	go func() {
		defer close(updatesDone)
		statusUpdateLoop(ctx, sess, tui)
	}()

	// Quit the TUI when the session ends on its own
	go func() {
		<-ctx.Done()
		<-updatesDone
		tui.Stop()
	}()

	if err := tui.Run(); err != nil {
		logrus.WithError(err).Error("TUI failed")
	}
	cancel()

	return <-done
}

// handleControls applies TUI input to the session
func handleControls(ctx context.Context, sess *session.Session, controls *ui.Controls, quit context.CancelFunc) {
	for {
		select {
		case v := <-controls.Volume:
			logrus.WithField("volume", v).Debug("Volume change")
			sess.SetVolume(v)
		case muted := <-controls.Muted:
			sess.SetMuted(muted)
		case enabled := <-controls.BFI:
			sess.SetBFIEnabled(enabled)
		case <-controls.Quit:
			logrus.Info("Received quit signal from TUI")
			quit()
			return
		case <-ctx.Done():
			return
		}
	}
}

// statusUpdateLoop pushes session status and a frame preview to the TUI
func statusUpdateLoop(ctx context.Context, sess *session.Session, tui *ui.TUI) {
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	mem, _ := sess.Surface().(*present.Memory)
	var snapshot []byte

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			msg := ui.StatusMsg{Status: sess.Status()}
			if mem != nil {
				snapshot = mem.Snapshot(snapshot)
				msg.Preview = ui.RenderPreview(snapshot, mem.Width(), mem.Height(), previewCols, previewRows)
			}
			tui.Update(msg)
		}
	}
}

// statsLogLoop logs a status line every few seconds in headless mode
func statsLogLoop(ctx context.Context, sess *session.Session) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			st := sess.Status()
			logrus.WithFields(logrus.Fields{
				"real":       st.Pacer.Real,
				"repeated":   st.Pacer.Repeated,
				"synthetic":  st.Pacer.Synthetic,
				"held":       st.Pacer.Held,
				"superseded": st.Relay.Superseded,
				"played":     st.Buffer.PlayedBatches,
				"dropped":    st.Buffer.DroppedSamples,
				"skipped":    st.Buffer.SkippedBatches,
				"evicted":    st.Buffer.QueueEvicted,
				"queue":      st.Buffer.QueueDepth,
			}).Info("Session stats")
		}
	}
}
