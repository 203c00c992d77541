// ABOUTME: TUI initialization and control
// ABOUTME: Wraps the bubbletea program and the control channels back to the session
package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Controls carries user input from the TUI to the session. Sends never
// block; a full channel drops the change.
type Controls struct {
	Volume chan int
	Muted  chan bool
	BFI    chan bool
	Quit   chan struct{}
}

// NewControls creates the control channels
func NewControls() *Controls {
	return &Controls{
		Volume: make(chan int, 10),
		Muted:  make(chan bool, 10),
		BFI:    make(chan bool, 10),
		Quit:   make(chan struct{}, 1),
	}
}

func (c *Controls) setVolume(v int) {
	if c == nil {
		return
	}
	select {
	case c.Volume <- v:
	default:
	}
}

func (c *Controls) setMuted(muted bool) {
	if c == nil {
		return
	}
	select {
	case c.Muted <- muted:
	default:
	}
}

func (c *Controls) setBFI(enabled bool) {
	if c == nil {
		return
	}
	select {
	case c.BFI <- enabled:
	default:
	}
}

func (c *Controls) quit() {
	if c == nil {
		return
	}
	select {
	case c.Quit <- struct{}{}:
	default:
	}
}

// NewModel creates a new TUI model
func NewModel(controls *Controls) Model {
	return Model{
		volume:      100,
		showPreview: true,
		controls:    controls,
	}
}

// TUI manages the bubbletea program
type TUI struct {
	program  *tea.Program
	updates  chan StatusMsg
	controls *Controls
}

// New creates a TUI bound to controls
func New(controls *Controls) *TUI {
	t := &TUI{
		program:  tea.NewProgram(NewModel(controls), tea.WithAltScreen()),
		updates:  make(chan StatusMsg, 10),
		controls: controls,
	}

	go func() {
		for msg := range t.updates {
			t.program.Send(msg)
		}
	}()

	return t
}

// Run blocks until the user quits or Stop is called
func (t *TUI) Run() error {
	_, err := t.program.Run()
	return err
}

// Update sends a status update to the TUI
func (t *TUI) Update(msg StatusMsg) {
	select {
	case t.updates <- msg:
	default:
		// Don't block if channel is full
	}
}

// Stop quits the program. Update must not be called afterwards.
func (t *TUI) Stop() {
	t.program.Quit()
	close(t.updates)
}
