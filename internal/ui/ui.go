// Package ui provides the terminal user interface using Bubble Tea.
package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/litescript/ls-orrery/internal/bodies"
	"github.com/litescript/ls-orrery/internal/logging"
	"github.com/litescript/ls-orrery/internal/state"
	"github.com/litescript/ls-orrery/internal/trajectory"
	"github.com/litescript/ls-orrery/internal/version"
)

const (
	dayStep   = 24 * time.Hour
	monthStep = 30 * dayStep
)

// Msg types for Bubble Tea
type (
	// TickMsg triggers periodic state polling.
	TickMsg time.Time

	// AnimTickMsg triggers fast animation updates.
	AnimTickMsg time.Time

	// positionsMsg carries a finished position query.
	positionsMsg struct {
		gen       int
		selected  bodies.CelestialBody
		positions []state.BodyPosition
		err       error
	}

	// trajectoriesMsg carries a finished trajectory query.
	trajectoriesMsg struct {
		gen          int
		trajectories []trajectory.Trajectory
		err          error
	}
)

// Model is the root Bubble Tea model.
type Model struct {
	state  *state.Manager
	logger *logging.Logger

	width     int
	height    int
	ready     bool
	animTick  int
	statusMsg string

	orrery   OrreryModel
	snapshot state.Snapshot
	registry *bodies.SolarSystem

	// Generations increase with every query so stale results are dropped.
	posGen  int
	pathGen int
	err     error
}

// New creates a new root UI model.
func New(stateMgr *state.Manager, logger *logging.Logger) Model {
	if logger == nil {
		logger = logging.Discard()
	}
	return Model{
		state:    stateMgr,
		logger:   logger.With("component", "ui"),
		orrery:   NewOrreryModel(stateMgr.Sampler().Resolver().Scale()),
		snapshot: stateMgr.Snapshot(),
		registry: stateMgr.Registry(),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{tickCmd(), animTickCmd(), m.positionsCmd(m.posGen)}
	if m.orrery.ShowPaths() {
		cmds = append(cmds, m.trajectoriesCmd(m.pathGen))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit

		case "j":
			cmds = append(cmds, m.selectStep(-1))
		case "k":
			cmds = append(cmds, m.selectStep(1))

		case "[":
			cmds = append(cmds, m.advance(-dayStep))
		case "]":
			cmds = append(cmds, m.advance(dayStep))
		case "{":
			cmds = append(cmds, m.advance(-monthStep))
		case "}":
			cmds = append(cmds, m.advance(monthStep))

		case "t":
			var on bool
			m.orrery, on = m.orrery.TogglePaths()
			if on {
				m.pathGen++
				cmds = append(cmds, m.trajectoriesCmd(m.pathGen))
			}

		default:
			var cmd tea.Cmd
			m.orrery, cmd = m.orrery.Update(msg)
			cmds = append(cmds, cmd)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		// Logo takes ~10 lines, footer ~2 lines
		m.orrery = m.orrery.SetSize(msg.Width, msg.Height-12)

	case TickMsg:
		cmds = append(cmds, tickCmd())
		m.snapshot = m.state.Snapshot()
		if reg := m.state.Registry(); reg != m.registry {
			m.registry = reg
			m.statusMsg = fmt.Sprintf("Catalog reloaded: %d bodies", reg.Len())
			cmds = append(cmds, m.refresh())
		}

	case AnimTickMsg:
		cmds = append(cmds, animTickCmd())
		m.animTick++

	case positionsMsg:
		if msg.gen != m.posGen {
			break
		}
		m.err = msg.err
		if msg.err == nil {
			m.orrery = m.orrery.SetPositions(msg.selected, msg.positions)
		} else {
			m.logger.Debug("positions: %v", msg.err)
		}
		m.snapshot = m.state.Snapshot()

	case trajectoriesMsg:
		if msg.gen != m.pathGen {
			break
		}
		if msg.err != nil {
			m.err = msg.err
			m.logger.Debug("trajectories: %v", msg.err)
			break
		}
		m.orrery = m.orrery.SetTrajectories(msg.trajectories)
	}

	return m, tea.Batch(cmds...)
}

// selectStep moves the selection d bodies along the catalog order.
func (m *Model) selectStep(d int) tea.Cmd {
	all := m.state.Registry().Bodies()
	if len(all) == 0 {
		return nil
	}
	cur := 0
	for i, b := range all {
		if b.ID == m.snapshot.Selected.ID {
			cur = i
			break
		}
	}
	next := all[((cur+d)%len(all)+len(all))%len(all)]
	if err := m.state.Select(next.ID); err != nil {
		m.err = err
		return nil
	}
	m.snapshot = m.state.Snapshot()
	return m.refresh()
}

func (m *Model) advance(d time.Duration) tea.Cmd {
	m.state.Advance(d)
	m.snapshot = m.state.Snapshot()
	return m.refresh()
}

// refresh re-queries positions and, when shown, trajectories.
func (m *Model) refresh() tea.Cmd {
	m.posGen++
	cmds := []tea.Cmd{m.positionsCmd(m.posGen)}
	if m.orrery.ShowPaths() {
		m.pathGen++
		cmds = append(cmds, m.trajectoriesCmd(m.pathGen))
	}
	return tea.Batch(cmds...)
}

func (m Model) positionsCmd(gen int) tea.Cmd {
	mgr := m.state
	return func() tea.Msg {
		selected := mgr.Snapshot().Selected
		ps, err := mgr.VisiblePositions()
		return positionsMsg{gen: gen, selected: selected, positions: ps, err: err}
	}
}

func (m Model) trajectoriesCmd(gen int) tea.Cmd {
	mgr := m.state
	return func() tea.Msg {
		trs, err := mgr.VisibleTrajectories(context.Background())
		return trajectoriesMsg{gen: gen, trajectories: trs, err: err}
	}
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}
	return m.renderLogo() + m.orrery.View() + "\n" + m.renderFooter()
}

func (m Model) renderLogo() string {
	// ASCII art with smooth truecolor gradient
	logo := []string{
		`  ██╗     ███████╗       ██████╗ ██████╗ ██████╗ ███████╗██████╗ ██╗   ██╗`,
		`  ██║     ██╔════╝      ██╔═══██╗██╔══██╗██╔══██╗██╔════╝██╔══██╗╚██╗ ██╔╝`,
		`  ██║     ███████╗█████╗██║   ██║██████╔╝██████╔╝█████╗  ██████╔╝ ╚████╔╝`,
		`  ██║     ╚════██║╚════╝██║   ██║██╔══██╗██╔══██╗██╔══╝  ██╔══██╗  ╚██╔╝`,
		`  ███████╗███████║      ╚██████╔╝██║  ██║██║  ██║███████╗██║  ██║   ██║`,
		`  ╚══════╝╚══════╝       ╚═════╝ ╚═╝  ╚═╝╚═╝  ╚═╝╚══════╝╚═╝  ╚═╝   ╚═╝`,
	}

	var b strings.Builder
	b.WriteString("\n")

	for row, line := range logo {
		runes := []rune(line)
		for col, r := range runes {
			color := gradientColor(col, row, len(runes), len(logo))
			style := lipgloss.NewStyle().Foreground(lipgloss.Color(color))
			b.WriteString(style.Render(string(r)))
		}
		b.WriteString("\n")
	}

	muted := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))
	b.WriteString(muted.Render(fmt.Sprintf("  Solar System Orrery · v%s", version.Version)))
	b.WriteString("\n\n")

	return b.String()
}

// gradientColor returns a hex color for a position in the logo gradient.
// Blue -> purple -> magenta -> pink, darker toward the bottom.
func gradientColor(col, row, width, height int) string {
	xRatio := float64(col) / float64(width)
	yRatio := float64(row) / float64(height)

	var r, g, b float64
	if xRatio < 0.33 {
		t := xRatio / 0.33
		r = 59 + t*(139-59)
		g = 130 + t*(92-130)
		b = 246
	} else if xRatio < 0.66 {
		t := (xRatio - 0.33) / 0.33
		r = 139 + t*(217-139)
		g = 92 + t*(70-92)
		b = 246 + t*(239-246)
	} else {
		t := (xRatio - 0.66) / 0.34
		r = 217 + t*(236-217)
		g = 70 + t*(72-70)
		b = 239 + t*(153-239)
	}

	brightness := 1.0 - (yRatio * 0.5)
	return fmt.Sprintf("#%02X%02X%02X", clampByte(r*brightness), clampByte(g*brightness), clampByte(b*brightness))
}

func clampByte(v float64) int {
	switch {
	case v < 0:
		return 0
	case v > 255:
		return 255
	default:
		return int(v)
	}
}

func (m Model) renderFooter() string {
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#E84A27"))
	accentStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#7B2CBF"))

	spinnerFrames := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	spinner := spinnerFrames[m.animTick%len(spinnerFrames)]

	var status string
	if err := m.statusError(); err != nil {
		status = errorStyle.Render("ERROR: " + err.Error())
	} else {
		status = accentStyle.Render(spinner) + dimStyle.Render(fmt.Sprintf(" %s · %s",
			m.snapshot.Epoch.Format("2006-01-02 15:04 MST"), m.snapshot.Selected))
	}

	help := dimStyle.Render("j/k: body | [/]: ±1d | {/}: ±30d | t: paths | n/N: focus | +/-: zoom | z: scale | l: labels | q: quit")
	footer := "  " + status + "  " + dimStyle.Render("|") + "  " + help

	if m.statusMsg != "" {
		footer += "\n  " + dimStyle.Render(m.statusMsg)
	}
	return footer
}

// statusError is the error to show: the last query's, else the state's.
func (m Model) statusError() error {
	if m.err != nil {
		return m.err
	}
	return m.snapshot.LastError
}

func tickCmd() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func animTickCmd() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(t time.Time) tea.Msg {
		return AnimTickMsg(t)
	})
}
