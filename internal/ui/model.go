// ABOUTME: Bubbletea model for the session TUI
// ABOUTME: Shows pacing state, buffer health and a preview of the presented frame
package ui

import (
	"fmt"
	"strings"

	"github.com/Resonate-Protocol/avsync/internal/httpapi"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			MarginBottom(1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250"))

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("220"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("208"))

	helpStyle = lipgloss.NewStyle().Faint(true)
)

// StatusMsg updates TUI state
type StatusMsg struct {
	Status  httpapi.Status
	Preview []string // rendered preview rows, may be empty
}

// Model represents the TUI state
type Model struct {
	status  httpapi.Status
	preview []string

	// Local control state, pushed to the session through Controls
	volume     int
	muted      bool
	bfiEnabled bool

	showPreview bool
	quitting    bool

	width  int
	height int

	controls *Controls
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case StatusMsg:
		m.applyStatus(msg)
	}

	return m, nil
}

// View renders the TUI
func (m Model) View() string {
	if m.quitting {
		return "Stopping session...\n"
	}
	if m.width == 0 {
		return "Loading..."
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("avsync"))
	b.WriteString("\n")
	m.renderPacing(&b)
	b.WriteString("\n")
	m.renderAudio(&b)
	b.WriteString("\n")
	m.renderVideo(&b)

	if m.showPreview && len(m.preview) > 0 {
		b.WriteString("\n")
		for _, row := range m.preview {
			b.WriteString(row)
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("↑/↓:Volume  m:Mute  b:BFI  p:Preview  q:Quit"))

	return b.String()
}

func field(b *strings.Builder, name, value string) {
	b.WriteString(headerStyle.Render(fmt.Sprintf("%-10s", name+":")))
	b.WriteString(valueStyle.Render(value))
	b.WriteString("\n")
}

func (m Model) renderPacing(b *strings.Builder) {
	st := m.status.State
	b.WriteString(sectionStyle.Render("Pacing"))
	b.WriteString("\n")

	mode := "fixed refresh"
	if st.VRR {
		mode = "variable refresh"
	}
	field(b, "Display", fmt.Sprintf("%.2fHz (%s)", st.MonitorHz, mode))
	field(b, "Content", fmt.Sprintf("%.4f fps", st.ContentFPS))
	field(b, "Target", fmt.Sprintf("%.2f fps, swap %d", st.TargetFPS, st.SwapInterval))

	bfi := "off"
	switch {
	case st.BFIFactor == 0:
		bfi = "n/a"
	case m.bfiEnabled:
		bfi = fmt.Sprintf("on (%d per frame)", st.BFIFactor)
	}
	field(b, "BFI", bfi)
	field(b, "Uptime", m.status.Uptime)
}

func (m Model) renderAudio(b *strings.Builder) {
	st := m.status
	b.WriteString(sectionStyle.Render("Audio"))
	b.WriteString("\n")

	muteIcon := ""
	if m.muted {
		muteIcon = " (muted)"
	}
	field(b, "Volume", fmt.Sprintf("[%s] %d%%%s", renderBar(m.volume, 100, 10), m.volume, muteIcon))
	field(b, "Rate", fmt.Sprintf("%.0fHz -> %.0fHz", st.State.ContentSampleRate, st.State.EffectiveSampleRate))
	field(b, "Queue", fmt.Sprintf("%d batches, %d free", st.Buffer.QueueDepth, st.Buffer.PoolFree))
	field(b, "Played", fmt.Sprintf("%d batches", st.Buffer.PlayedBatches))

	losses := fmt.Sprintf("%d samples dropped, %d batches skipped, %d evicted",
		st.Buffer.DroppedSamples, st.Buffer.SkippedBatches, st.Buffer.QueueEvicted)
	if st.Buffer.DroppedSamples > 0 || st.Buffer.SkippedBatches > 0 || st.Buffer.QueueEvicted > 0 {
		losses = warnStyle.Render(losses)
	}
	field(b, "Loss", losses)
}

func (m Model) renderVideo(b *strings.Builder) {
	st := m.status
	b.WriteString(sectionStyle.Render("Video"))
	b.WriteString("\n")

	field(b, "Format", st.PixelFormat)
	field(b, "Frames", fmt.Sprintf("%d real, %d repeated, %d synthetic, %d held",
		st.Pacer.Real, st.Pacer.Repeated, st.Pacer.Synthetic, st.Pacer.Held))
	field(b, "Relay", fmt.Sprintf("%d published, %d superseded, %d rejected",
		st.Relay.Published, st.Relay.Superseded, st.Relay.Rejected))
	field(b, "Dominant", fmt.Sprintf("#%06X", st.Pacer.Dominant&0xFFFFFF))
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		m.controls.quit()
		return m, tea.Quit
	case "up":
		m.volume = min(100, m.volume+5)
		m.controls.setVolume(m.volume)
	case "down":
		m.volume = max(0, m.volume-5)
		m.controls.setVolume(m.volume)
	case "m":
		m.muted = !m.muted
		m.controls.setMuted(m.muted)
	case "b":
		if m.status.State.BFIFactor > 0 {
			m.bfiEnabled = !m.bfiEnabled
			m.controls.setBFI(m.bfiEnabled)
		}
	case "p":
		m.showPreview = !m.showPreview
	}

	return m, nil
}

// applyStatus updates model from status message
func (m *Model) applyStatus(msg StatusMsg) {
	first := m.status.SessionID == ""
	m.status = msg.Status
	if len(msg.Preview) > 0 {
		m.preview = msg.Preview
	}

	// The session is authoritative until the user first changes something
	if first {
		m.volume = msg.Status.Volume
		m.muted = msg.Status.Muted
		m.bfiEnabled = msg.Status.BFIEnabled
	}
}

// Utility functions
func renderBar(value, limit, width int) string {
	if limit <= 0 {
		return strings.Repeat("░", width)
	}
	filled := min(width, max(0, value)*width/limit)
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}
