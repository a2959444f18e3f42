package cli

import (
	"context"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/matzehuels/meshmap/pkg/mapview"
	"github.com/matzehuels/meshmap/pkg/render/links"
	"github.com/matzehuels/meshmap/pkg/render/scene"
	"github.com/matzehuels/meshmap/pkg/topology"
)

// tuiPointer is the pointer ID of the terminal mouse. Browser sessions
// start at slot 1 of the pointer space, so slot 0 never collides.
const tuiPointer = 0

// statusLines is the height of the status bar below the canvas.
const statusLines = 2

var styleStatus = lipgloss.NewStyle().Foreground(colorDim)

// tuiCommand creates the tui command, the terminal counterpart of serve.
func (c *CLI) tuiCommand() *cobra.Command {
	var flags sourceFlags

	cmd := &cobra.Command{
		Use:   "tui [topology]",
		Short: "Explore the live map in the terminal",
		Long: `Tui runs the force simulation in the terminal. Drag devices with the mouse;
hover a device to see its details. Press q to quit.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runTUI(cmd, args, &flags)
		},
	}
	cmd.ValidArgsFunction = completeTopologyFile
	flags.register(cmd, "source")
	return cmd
}

func (c *CLI) runTUI(cmd *cobra.Command, args []string, flags *sourceFlags) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	src, err := c.openSource(ctx, flags, args)
	if err != nil {
		return err
	}
	defer src.Close()

	runner, err := c.newRunner(ctx, false)
	if err != nil {
		return err
	}
	defer runner.Close()

	g, _, err := runner.Load(ctx, src)
	if err != nil {
		return err
	}

	// The alternate screen owns the terminal; logs would tear it.
	opts := c.mapOptions()
	opts.Logger = log.New(io.Discard)
	m := mapview.New(g, opts)
	defer m.Close()
	go m.Run(ctx)

	model := newMapModel(ctx, m, g)
	defer model.unsubscribe()

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseAllMotion(), tea.WithContext(ctx))
	_, err = p.Run()
	return err
}

// =============================================================================
// mapModel - Live terminal map
// =============================================================================

type frameMsg mapview.Frame

type mapErrMsg struct{ err error }

// mapModel renders map frames onto a character grid and turns mouse input
// into pointer events.
type mapModel struct {
	ctx         context.Context
	m           *mapview.Map
	frames      <-chan mapview.Frame
	unsubscribe func()

	links   []topology.Link
	devices map[string]topology.Device
	now     func() time.Time

	frame   mapview.Frame
	cols    int
	rows    int
	mapW    float64
	mapH    float64
	pressed bool
	err     error
}

// newMapModel subscribes to m. Links and device details are copied from g
// before the map starts mutating it.
func newMapModel(ctx context.Context, m *mapview.Map, g *topology.Graph) *mapModel {
	frames, unsubscribe := m.Subscribe()
	w, h := m.Size()
	mm := &mapModel{
		ctx:         ctx,
		m:           m,
		frames:      frames,
		unsubscribe: unsubscribe,
		devices:     make(map[string]topology.Device, len(g.Nodes)),
		now:         time.Now,
		mapW:        w,
		mapH:        h,
	}
	for _, l := range g.Links {
		mm.links = append(mm.links, *l)
	}
	for _, n := range g.Nodes {
		mm.devices[n.ID] = n.Device
	}
	return mm
}

func (mm *mapModel) Init() tea.Cmd {
	return tea.Batch(mm.snapshot, mm.waitFrame)
}

func (mm *mapModel) snapshot() tea.Msg {
	f, err := mm.m.Snapshot(mm.ctx)
	if err != nil {
		return mapErrMsg{err}
	}
	return frameMsg(f)
}

func (mm *mapModel) waitFrame() tea.Msg {
	f, ok := <-mm.frames
	if !ok {
		return nil
	}
	return frameMsg(f)
}

func (mm *mapModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		mm.cols = msg.Width
		mm.rows = max(msg.Height-statusLines, 1)
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return mm, tea.Quit
		}
	case frameMsg:
		mm.frame = mapview.Frame(msg)
		return mm, mm.waitFrame
	case mapErrMsg:
		mm.err = msg.err
	case tea.MouseMsg:
		mm.handleMouse(msg)
	}
	return mm, nil
}

// handleMouse maps a terminal mouse event to pointer events. Presses target
// the nearest device glyph directly; glyphs are a cell wide while the
// circles they stand for are a fraction of one.
func (mm *mapModel) handleMouse(msg tea.MouseMsg) {
	if mm.cols == 0 {
		return
	}
	x, y := mm.toMap(msg.X, msg.Y)
	ev := scene.PointerEvent{PointerID: tuiPointer, X: x, Y: y}

	var err error
	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft {
			return
		}
		id := mm.nodeAt(msg.X, msg.Y)
		if id == "" {
			return
		}
		ev.Type = scene.PointerDown
		mm.pressed = true
		_, err = mm.m.DispatchOn(mm.ctx, id, ev)
	case tea.MouseActionMotion:
		ev.Type = scene.PointerMove
		if mm.pressed {
			_, err = mm.m.Dispatch(mm.ctx, ev)
		} else if id := mm.nodeAt(msg.X, msg.Y); id != "" {
			_, err = mm.m.DispatchOn(mm.ctx, id, ev)
		} else {
			ev.Type = scene.PointerOut
			_, err = mm.m.DispatchOn(mm.ctx, "", ev)
		}
	case tea.MouseActionRelease:
		if !mm.pressed {
			return
		}
		mm.pressed = false
		ev.Type = scene.PointerUp
		_, err = mm.m.Dispatch(mm.ctx, ev)
	}
	if err != nil && mm.ctx.Err() == nil {
		mm.err = err
	}
}

// toMap converts a cell to the map coordinates of its center.
func (mm *mapModel) toMap(col, row int) (x, y float64) {
	row = min(row, mm.rows-1)
	return (float64(col) + 0.5) * mm.mapW / float64(mm.cols),
		(float64(row) + 0.5) * mm.mapH / float64(mm.rows)
}

// toCell converts map coordinates to a cell, clamped to the canvas.
func (mm *mapModel) toCell(x, y float64) (col, row int) {
	col = int(math.Floor(x / mm.mapW * float64(mm.cols)))
	row = int(math.Floor(y / mm.mapH * float64(mm.rows)))
	return clampInt(col, 0, mm.cols-1), clampInt(row, 0, mm.rows-1)
}

// nodeAt returns the device drawn at or next to a cell, nearest first.
func (mm *mapModel) nodeAt(col, row int) string {
	x, y := mm.toMap(col, row)
	best, bestDist := "", math.Inf(1)
	for _, n := range mm.frame.Nodes {
		c, r := mm.toCell(n.X, n.Y)
		if abs(c-col) > 1 || abs(r-row) > 1 {
			continue
		}
		if d := math.Hypot(n.X-x, n.Y-y); d < bestDist {
			best, bestDist = n.ID, d
		}
	}
	return best
}

func (mm *mapModel) View() string {
	if mm.cols == 0 {
		return "Loading map..."
	}
	var b strings.Builder
	b.WriteString(mm.canvas().String())
	b.WriteString(mm.statusBar())
	return b.String()
}

// canvas draws links first, then devices on top.
func (mm *mapModel) canvas() *canvas {
	cv := newCanvas(mm.cols, mm.rows)
	pos := make(map[string]mapview.NodeState, len(mm.frame.Nodes))
	for _, n := range mm.frame.Nodes {
		pos[n.ID] = n
	}
	for i := range mm.links {
		l := &mm.links[i]
		a, okA := pos[l.Source]
		b, okB := pos[l.Target]
		if !okA || !okB {
			continue
		}
		style := styleLink
		if links.Weak(l) {
			style = styleWeakLink
		}
		c0, r0 := mm.toCell(a.X, a.Y)
		c1, r1 := mm.toCell(b.X, b.Y)
		cv.line(c0, r0, c1, r1, '·', style)
	}
	for _, n := range mm.frame.Nodes {
		style := deviceStyle(n.Type)
		if n.Pinned || n.ID == mm.frame.Hovered {
			style = style.Bold(true).Underline(true)
		}
		c, r := mm.toCell(n.X, n.Y)
		cv.set(c, r, deviceGlyph(n.Type), style)
	}
	return cv
}

func (mm *mapModel) statusBar() string {
	info := "drag a device with the mouse · hover for details"
	if d, ok := mm.devices[mm.frame.Hovered]; ok {
		info = mm.describe(d)
	}
	if mm.err != nil {
		info = styleIconError.Render(iconError) + " " + mm.err.Error()
	}
	state := fmt.Sprintf("tick %d · α %.3f · dragging %d · %d devices · q quit",
		mm.frame.Tick, mm.frame.Alpha, mm.frame.Dragging, len(mm.frame.Nodes))
	return "\n" + info + "\n" + styleStatus.Render(state)
}

// describe formats the hovered device for the status bar.
func (mm *mapModel) describe(d topology.Device) string {
	parts := []string{
		StyleTitle.Render(d.DisplayName()),
		deviceStyle(d.Type).Render(string(d.Type)),
		StyleDim.Render(d.IEEEAddr),
	}
	if d.ModelID != "" {
		parts = append(parts, StyleDim.Render(strings.TrimSpace(d.ManufacturerName+" "+d.ModelID)))
	}
	if d.LastSeen != nil {
		parts = append(parts, StyleDim.Render("seen "+humanize.RelTime(*d.LastSeen, mm.now(), "ago", "from now")))
	}
	return strings.Join(parts, " ")
}

// =============================================================================
// canvas - Character grid
// =============================================================================

type cell struct {
	r     rune
	style lipgloss.Style
	set   bool
}

type canvas struct {
	cols, rows int
	cells      []cell
}

func newCanvas(cols, rows int) *canvas {
	return &canvas{cols: cols, rows: rows, cells: make([]cell, cols*rows)}
}

func (cv *canvas) set(col, row int, r rune, style lipgloss.Style) {
	if col < 0 || row < 0 || col >= cv.cols || row >= cv.rows {
		return
	}
	cv.cells[row*cv.cols+col] = cell{r: r, style: style, set: true}
}

func (cv *canvas) at(col, row int) rune {
	c := cv.cells[row*cv.cols+col]
	if !c.set {
		return ' '
	}
	return c.r
}

// line samples the segment between two cells, skipping its endpoints so
// glyphs stay readable.
func (cv *canvas) line(c0, r0, c1, r1 int, r rune, style lipgloss.Style) {
	steps := max(abs(c1-c0), abs(r1-r0))
	for i := 1; i < steps; i++ {
		t := float64(i) / float64(steps)
		c := int(math.Round(float64(c0) + t*float64(c1-c0)))
		rr := int(math.Round(float64(r0) + t*float64(r1-r0)))
		cv.set(c, rr, r, style)
	}
}

func (cv *canvas) String() string {
	var b strings.Builder
	for row := 0; row < cv.rows; row++ {
		if row > 0 {
			b.WriteByte('\n')
		}
		for col := 0; col < cv.cols; col++ {
			c := cv.cells[row*cv.cols+col]
			if !c.set {
				b.WriteByte(' ')
				continue
			}
			b.WriteString(c.style.Render(string(c.r)))
		}
	}
	return b.String()
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func clampInt(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
