// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Thermoquad/teamlink/pkg/teamlink"
)

// Event log entry
type logEntry struct {
	timestamp time.Time
	message   string
	isError   bool
}

// Rows taken by everything except the event log.
const monitorChromeHeight = 16

// TUI model
type monitorModel struct {
	connInfo   string
	roster     *teamlink.Roster
	showStarts bool
	stats      *teamlink.Statistics
	inject     func([]byte) error

	eventLog      []logEntry
	maxLogEntries int
	logView       viewport.Model
	input         textinput.Model

	lastHeartbeat  time.Time
	width          int
	height         int
	quitting       bool
	connectionLost bool
}

// Messages
type monitorTickMsg time.Time

type busEventMsg struct {
	event teamlink.Event
}

type nodeStoppedMsg struct {
	err error
}

func newMonitorModel(connInfo string, roster *teamlink.Roster, stats *teamlink.Statistics, showStarts bool, inject func([]byte) error) monitorModel {
	ti := textinput.New()
	ti.Prompt = "inject> "
	ti.Placeholder = `AZhelloWDYB or MotorSpeed40YB`
	ti.CharLimit = teamlink.MaxMessageLen * 4
	ti.Width = 60
	ti.Focus()

	vp := viewport.New(76, 8)
	// Only paging keys; everything else goes to the prompt
	vp.KeyMap = viewport.KeyMap{
		PageDown: key.NewBinding(key.WithKeys("pgdown")),
		PageUp:   key.NewBinding(key.WithKeys("pgup")),
	}

	return monitorModel{
		connInfo:      connInfo,
		roster:        roster,
		showStarts:    showStarts,
		stats:         stats,
		inject:        inject,
		eventLog:      make([]logEntry, 0),
		maxLogEntries: 500,
		logView:       vp,
		input:         ti,
		width:         80,
		height:        24,
	}
}

func (m monitorModel) Init() tea.Cmd {
	return tea.Batch(monitorTickCmd(), textinput.Blink)
}

func monitorTickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return monitorTickMsg(t)
	})
}

func (m monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.quitting = true
			return m, tea.Quit
		case tea.KeyEnter:
			m.submit()
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.logView.Width = max(m.width-4, 20)
		m.logView.Height = max(m.height-monitorChromeHeight, 5)
		m.refreshLog()

	case monitorTickMsg:
		// Redraws rates
		return m, monitorTickCmd()

	case busEventMsg:
		m.handleEvent(msg.event)
		return m, nil

	case nodeStoppedMsg:
		m.connectionLost = true
		if msg.err != nil {
			m.addLogEntry(fmt.Sprintf("Node stopped: %v", msg.err), true)
		} else {
			m.addLogEntry("Node stopped", false)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.logView, cmd = m.logView.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m *monitorModel) handleEvent(e teamlink.Event) {
	if e.Kind == teamlink.EventFrameStart && !m.showStarts {
		return
	}
	if e.Kind == teamlink.EventHeartbeat {
		m.lastHeartbeat = e.Timestamp
	}
	m.addLogEntry(teamlink.FormatEvent(e), e.Kind.IsError())
}

// submit writes the prompt's contents onto the bus.
func (m *monitorModel) submit() {
	text := m.input.Value()
	if text == "" {
		return
	}
	m.input.Reset()

	data, err := unescape(text)
	if err != nil {
		m.addLogEntry(err.Error(), true)
		return
	}
	if m.connectionLost {
		m.addLogEntry("Not connected, nothing sent", true)
		return
	}
	if err := m.inject(data); err != nil {
		m.addLogEntry(fmt.Sprintf("Inject failed: %v", err), true)
		return
	}
	m.addLogEntry(fmt.Sprintf("Injected: %s", teamlink.FormatBytes(data)), false)
}

func (m *monitorModel) addLogEntry(message string, isError bool) {
	m.eventLog = append(m.eventLog, logEntry{
		timestamp: time.Now(),
		message:   message,
		isError:   isError,
	})

	// Keep only last N entries
	if len(m.eventLog) > m.maxLogEntries {
		m.eventLog = m.eventLog[len(m.eventLog)-m.maxLogEntries:]
	}
	m.refreshLog()
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")).
			Background(lipgloss.Color("235")).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	statsLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("12")).
			Bold(true)

	statsValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
)

func (m *monitorModel) refreshLog() {
	follow := m.logView.AtBottom()

	var b strings.Builder
	if len(m.eventLog) == 0 {
		b.WriteString(headerStyle.Render("  (no events yet)"))
	}
	for i, entry := range m.eventLog {
		if i > 0 {
			b.WriteString("\n")
		}
		timestamp := headerStyle.Render(entry.timestamp.Format("15:04:05.000"))
		if entry.isError {
			b.WriteString(timestamp + " " + errorStyle.Render("✗ "+entry.message))
		} else {
			b.WriteString(timestamp + " " + infoStyle.Render("ℹ "+entry.message))
		}
	}
	m.logView.SetContent(b.String())

	if follow {
		m.logView.GotoBottom()
	}
}

func (m monitorModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	var s strings.Builder
	s.WriteString(titleStyle.Render("TEAMLINK - BUS MONITOR"))
	s.WriteString("\n")
	s.WriteString(headerStyle.Render(fmt.Sprintf("%s | Node %s, broadcast %s, team %s | Esc to quit",
		m.connInfo,
		teamlink.FormatID(m.roster.Self()),
		teamlink.FormatID(m.roster.Broadcast()),
		string(m.roster.Members()),
	)))
	s.WriteString("\n\n")

	if m.connectionLost {
		s.WriteString(errorStyle.Render("✗ Disconnected"))
	} else {
		s.WriteString(statsValueStyle.Render("✓ Connected"))
	}
	s.WriteString("\n\n")

	c := m.stats.Snapshot()
	statsContent := strings.Builder{}
	statsContent.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s   %s %s\n",
		statsLabelStyle.Render("Bytes:"), statsValueStyle.Render(fmt.Sprintf("%d", c.BytesReceived)),
		statsLabelStyle.Render("Forwarded:"), statsValueStyle.Render(fmt.Sprintf("%d", c.Forwarded)),
		statsLabelStyle.Render("Commands:"), statsValueStyle.Render(fmt.Sprintf("%d", c.Commands)),
		statsLabelStyle.Render("Heartbeats:"), statsValueStyle.Render(fmt.Sprintf("%d", c.Heartbeats)),
	))

	if c.Errors() > 0 {
		statsContent.WriteString(fmt.Sprintf("%s %s (%s: %d, %s: %d, %s: %d, %s: %d, %s: %d)\n",
			statsLabelStyle.Render("Errors:"), errorStyle.Render(fmt.Sprintf("%d", c.Errors())),
			headerStyle.Render("rejected"), c.Rejected,
			headerStyle.Render("short"), c.ShortFrames,
			headerStyle.Render("overflow"), c.Overflows,
			headerStyle.Render("motor"), c.ActuatorErrors,
			headerStyle.Render("write"), c.WriteErrors,
		))
	}

	motor := "--"
	if c.HasMotorSpeed {
		motor = fmt.Sprintf("%d%%", c.LastMotorSpeed)
	}
	heartbeat := "--"
	if !m.lastHeartbeat.IsZero() {
		heartbeat = fmt.Sprintf("%.0fs ago", time.Since(m.lastHeartbeat).Seconds())
	}
	statsContent.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s   %s %s",
		statsLabelStyle.Render("Motor Speed:"), statsValueStyle.Render(motor),
		statsLabelStyle.Render("Heartbeat:"), statsValueStyle.Render(heartbeat),
		statsLabelStyle.Render("Frame Rate:"), statsValueStyle.Render(fmt.Sprintf("%.1f/s", c.FrameRate)),
		statsLabelStyle.Render("Error Rate:"), func() string {
			if c.ErrorRate > 0 {
				return errorStyle.Render(fmt.Sprintf("%.1f/s", c.ErrorRate))
			}
			return statsValueStyle.Render(fmt.Sprintf("%.1f/s", c.ErrorRate))
		}(),
	))

	s.WriteString(boxStyle.Render(statsContent.String()))
	s.WriteString("\n\n")

	s.WriteString(statsLabelStyle.Render("Recent Events:"))
	s.WriteString("\n")
	s.WriteString(boxStyle.Width(m.width - 4).Render(m.logView.View()))
	s.WriteString("\n")
	s.WriteString(m.input.View())

	return s.String()
}
