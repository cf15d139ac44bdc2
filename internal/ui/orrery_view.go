package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/litescript/ls-orrery/internal/astro"
	"github.com/litescript/ls-orrery/internal/bodies"
	"github.com/litescript/ls-orrery/internal/state"
	"github.com/litescript/ls-orrery/internal/trajectory"
)

// LabelMode controls which bodies get a name label.
type LabelMode int

const (
	LabelNone LabelMode = iota
	LabelFocused
	LabelAll
)

func (l LabelMode) String() string {
	switch l {
	case LabelNone:
		return "off"
	case LabelFocused:
		return "focus"
	default:
		return "all"
	}
}

// OrreryModel renders a top-down view of the visible set around the
// selected body, which sits at the origin.
type OrreryModel struct {
	width  int
	height int

	selected     bodies.CelestialBody
	positions    []state.BodyPosition
	trajectories []trajectory.Trajectory
	unitScale    float64 // display units per km

	// View state
	focusIdx   int // Index into positions, 0 is the selected body
	zoomLevel  int // Index into zoomLevels
	panX       float64
	panY       float64
	scaleMode  astro.ScaleMode
	labelMode  LabelMode
	userPanned bool
	showPaths  bool
}

// Discrete zoom levels for clean stepping
var zoomLevels = []float64{0.25, 0.5, 0.75, 1.0, 1.5, 2.0, 3.0, 5.0, 10.0}

const defaultZoom = 3

// NewOrreryModel creates an orrery view for positions in display units of
// unitScale per km.
func NewOrreryModel(unitScale float64) OrreryModel {
	return OrreryModel{
		unitScale: unitScale,
		zoomLevel: defaultZoom,
		scaleMode: astro.ScaleLogR,
		labelMode: LabelAll,
		showPaths: true,
	}
}

func (m OrreryModel) scale() float64 {
	if m.zoomLevel < 0 || m.zoomLevel >= len(zoomLevels) {
		return 1.0
	}
	return zoomLevels[m.zoomLevel]
}

// SetSize updates the viewport size.
func (m OrreryModel) SetSize(width, height int) OrreryModel {
	m.width = width
	m.height = height
	return m
}

// SetPositions replaces the visible set. Focus resets when the selected
// body changes.
func (m OrreryModel) SetPositions(selected bodies.CelestialBody, positions []state.BodyPosition) OrreryModel {
	if selected.ID != m.selected.ID {
		m.focusIdx = 0
		m.panX, m.panY = 0, 0
		m.userPanned = false
	}
	m.selected = selected
	m.positions = positions
	if m.focusIdx >= len(positions) {
		m.focusIdx = 0
	}
	return m
}

// SetTrajectories replaces the orbit paths.
func (m OrreryModel) SetTrajectories(trs []trajectory.Trajectory) OrreryModel {
	m.trajectories = trs
	return m
}

// TogglePaths flips orbit path drawing and reports the new setting.
func (m OrreryModel) TogglePaths() (OrreryModel, bool) {
	m.showPaths = !m.showPaths
	return m, m.showPaths
}

// ShowPaths reports whether orbit paths are drawn.
func (m OrreryModel) ShowPaths() bool {
	return m.showPaths
}

// Update handles view-local input.
func (m OrreryModel) Update(msg tea.Msg) (OrreryModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "n":
			m.focusStep(1)
		case "N":
			m.focusStep(-1)

		case "up":
			m.panY -= 0.1 / m.scale()
			m.userPanned = true
		case "down":
			m.panY += 0.1 / m.scale()
			m.userPanned = true
		case "left":
			m.panX -= 0.1 / m.scale()
			m.userPanned = true
		case "right":
			m.panX += 0.1 / m.scale()
			m.userPanned = true
		case "c":
			m.panX, m.panY = 0, 0
			m.userPanned = false
		case "f":
			m.centerOnFocused()
			m.userPanned = false

		case "+", "=":
			if m.zoomLevel < len(zoomLevels)-1 {
				m.zoomLevel++
				if !m.userPanned {
					m.centerOnFocused()
				}
			}
		case "-":
			if m.zoomLevel > 0 {
				m.zoomLevel--
				if !m.userPanned {
					m.centerOnFocused()
				}
			}
		case "0":
			m.zoomLevel = defaultZoom
			if !m.userPanned {
				m.centerOnFocused()
			}

		case "z":
			m.scaleMode = m.scaleMode.Next()
			if !m.userPanned {
				m.centerOnFocused()
			}
		case "l":
			m.labelMode = (m.labelMode + 1) % 3

		case "r":
			m.panX, m.panY = 0, 0
			m.zoomLevel = defaultZoom
			m.userPanned = false
		}
	}
	return m, nil
}

func (m *OrreryModel) focusStep(d int) {
	n := len(m.positions)
	if n == 0 {
		return
	}
	m.focusIdx = ((m.focusIdx+d)%n + n) % n
	m.centerOnFocused()
	m.userPanned = false
}

// toAU converts a display-unit vector back to AU for projection.
func (m OrreryModel) toAU(v astro.Vec3) astro.Vec3 {
	if m.unitScale <= 0 {
		return astro.Vec3{}
	}
	return v.Scale(1 / (m.unitScale * astro.AU))
}

func (m OrreryModel) projection() astro.ProjectionConfig {
	return astro.ProjectionConfig{Scale: m.scale(), Mode: m.scaleMode}
}

// centerOnFocused pans so the focused body is at the screen centre.
func (m *OrreryModel) centerOnFocused() {
	if m.focusIdx <= 0 || m.focusIdx >= len(m.positions) {
		m.panX, m.panY = 0, 0
		return
	}
	proj := astro.ProjectTopDown(m.toAU(m.positions[m.focusIdx].Position), m.projection())
	m.panX = -proj.X
	m.panY = -proj.Y
}

// extent is the largest projected radius each scale mode produces for the
// outer planets, used to fit the view.
func extent(mode astro.ScaleMode) float64 {
	switch mode {
	case astro.ScaleInner:
		return 5
	case astro.ScaleOuter, astro.ScaleLocal:
		return 1
	default:
		return 1.5
	}
}

// View renders the orrery.
func (m OrreryModel) View() string {
	if m.width < 40 || m.height < 10 {
		return "Terminal too small for orrery view"
	}
	return lipgloss.JoinVertical(lipgloss.Left, m.buildCanvas(), m.renderHUD())
}

// bodyPos tracks a body's screen position for label rendering.
type bodyPos struct {
	x, y      int
	name      string
	isFocused bool
}

// Glyphs
const (
	glyphPath     = '·'
	glyphStar     = '☉'
	glyphPlanet   = '•'
	glyphMoon     = '∘'
	glyphAsteroid = '⋅'
	glyphFocused  = '●'
	glyphOrigin   = '◉'
)

func (m OrreryModel) buildCanvas() string {
	canvasH := m.height - 5
	if canvasH < 5 {
		canvasH = 5
	}
	canvasW := m.width

	grid := make([][]rune, canvasH)
	for y := range grid {
		grid[y] = make([]rune, canvasW)
		for x := range grid[y] {
			grid[y][x] = ' '
		}
	}

	cfg := m.projection()
	screenCenterX := canvasW / 2
	screenCenterY := canvasH / 2
	maxDisplayR := float64(min(screenCenterX, screenCenterY*2)) * 0.9
	displayScale := maxDisplayR / extent(m.scaleMode)

	originX := screenCenterX + int(m.panX*displayScale)
	originY := screenCenterY - int(m.panY*displayScale*0.5)

	plot := func(v astro.Vec3) (int, int, bool) {
		proj := astro.ProjectTopDown(m.toAU(v), cfg)
		sx := originX + int(proj.X*displayScale)
		sy := originY - int(proj.Y*displayScale*0.5) // Aspect ratio correction
		return sx, sy, sx >= 0 && sx < canvasW && sy >= 0 && sy < canvasH
	}

	if m.showPaths {
		for _, tr := range m.trajectories {
			for _, p := range tr.Points {
				if sx, sy, ok := plot(p); ok && grid[sy][sx] == ' ' {
					grid[sy][sx] = glyphPath
				}
			}
		}
	}

	var positions []bodyPos
	// Draw in reverse so the selected body lands on top.
	for i := len(m.positions) - 1; i >= 0; i-- {
		bp := m.positions[i]
		sx, sy, ok := plot(bp.Position)
		if !ok {
			continue
		}
		grid[sy][sx] = m.glyph(bp.Body, i)
		positions = append(positions, bodyPos{x: sx, y: sy, name: bp.Body.String(), isFocused: i == m.focusIdx})
	}

	m.renderLabels(grid, canvasW, canvasH, positions)
	return m.renderGrid(grid)
}

func (m OrreryModel) glyph(b bodies.CelestialBody, idx int) rune {
	switch {
	case idx == 0:
		return glyphOrigin
	case idx == m.focusIdx:
		return glyphFocused
	}
	switch b.Type {
	case bodies.Star:
		return glyphStar
	case bodies.Satellite:
		return glyphMoon
	case bodies.Asteroid:
		return glyphAsteroid
	default:
		return glyphPlanet
	}
}

func (m OrreryModel) renderLabels(grid [][]rune, width, height int, positions []bodyPos) {
	if m.labelMode == LabelNone {
		return
	}
	for _, pos := range positions {
		if m.labelMode == LabelFocused && !pos.isFocused {
			continue
		}
		labelX := pos.x + 2
		if pos.y < 0 || pos.y >= height || labelX >= width {
			continue
		}
		text := pos.name
		if pos.isFocused {
			text = "◄ " + pos.name
		}
		for i, r := range []rune(text) {
			x := labelX + i
			if x >= width {
				break
			}
			if grid[pos.y][x] == ' ' || grid[pos.y][x] == glyphPath {
				grid[pos.y][x] = r
			}
		}
	}
}

func (m OrreryModel) renderGrid(grid [][]rune) string {
	var b strings.Builder

	pathStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	sunStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("220")).Bold(true)
	planetStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	moonStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	focusStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Bold(true)
	originStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#9D4EDD")).Bold(true)
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("249"))

	for _, row := range grid {
		for _, ch := range row {
			var style lipgloss.Style
			switch ch {
			case ' ':
				b.WriteRune(ch)
				continue
			case glyphPath:
				style = pathStyle
			case glyphStar:
				style = sunStyle
			case glyphPlanet, glyphAsteroid:
				style = planetStyle
			case glyphMoon:
				style = moonStyle
			case glyphFocused, '◄':
				style = focusStyle
			case glyphOrigin:
				style = originStyle
			default:
				style = labelStyle
			}
			b.WriteString(style.Render(string(ch)))
		}
		b.WriteRune('\n')
	}
	return b.String()
}

func (m OrreryModel) renderHUD() string {
	var b strings.Builder

	headerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Width(12)
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	b.WriteString(headerStyle.Render(fmt.Sprintf("◉ %s", m.selected)))
	b.WriteString("  ")
	b.WriteString(dimStyle.Render(fmt.Sprintf("%s, r=%.0f km, tilt %.2f°", m.selected.Type, m.selected.Radius, m.selected.AxialTilt())))
	b.WriteString("\n")

	if m.focusIdx > 0 && m.focusIdx < len(m.positions) {
		focused := m.positions[m.focusIdx]
		au := m.toAU(focused.Position)
		km := au.Norm() * astro.AU
		ecl := au.SwapYZ() // back to z-up for latitude and longitude
		b.WriteString(headerStyle.Render(fmt.Sprintf("● %s", focused.Body)))
		b.WriteString("  ")
		b.WriteString(labelStyle.Render("Distance:"))
		b.WriteString(valueStyle.Render(fmt.Sprintf("%.4f AU", au.Norm())))
		b.WriteString("  ")
		b.WriteString(labelStyle.Render("Light Time:"))
		b.WriteString(valueStyle.Render(astro.FormatLightTime(astro.LightTime(km))))
		b.WriteString("  ")
		b.WriteString(labelStyle.Render("Ecl Lon:"))
		b.WriteString(valueStyle.Render(fmt.Sprintf("%.1f°", astro.EclipticLongitude(ecl))))
		b.WriteString("  ")
		b.WriteString(labelStyle.Render("Ecl Lat:"))
		b.WriteString(valueStyle.Render(fmt.Sprintf("%.1f°", astro.EclipticLatitude(ecl))))
	} else {
		b.WriteString(dimStyle.Render(fmt.Sprintf("%d bodies visible", len(m.positions))))
	}
	b.WriteString("\n")

	paths := "off"
	if m.showPaths {
		paths = "on"
	}
	b.WriteString(dimStyle.Render("Mode:"))
	b.WriteString(valueStyle.Render(m.scaleMode.String()))
	b.WriteString("  ")
	b.WriteString(dimStyle.Render("Zoom:"))
	b.WriteString(valueStyle.Render(fmt.Sprintf("%.2gx", m.scale())))
	b.WriteString("  ")
	b.WriteString(dimStyle.Render("Labels:"))
	b.WriteString(valueStyle.Render(m.labelMode.String()))
	b.WriteString("  ")
	b.WriteString(dimStyle.Render("Paths:"))
	b.WriteString(valueStyle.Render(paths))

	return b.String()
}

// FocusedBody returns the body the HUD is describing.
func (m OrreryModel) FocusedBody() (bodies.CelestialBody, bool) {
	if m.focusIdx >= 0 && m.focusIdx < len(m.positions) {
		return m.positions[m.focusIdx].Body, true
	}
	return bodies.CelestialBody{}, false
}
