// Command weft-demo renders a weft document in the terminal, one layout
// unit per cell. The mouse drives hover and click state, markup edits hot
// reload when -watch is set, and bound data comes from an optional YAML
// scene file.
//
//	weft-demo [-page name] [-scene data.yaml] [-watch] [-debug] [markup.xml]
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"weft"
)

const defaultMarkup = `
<reusable name="menu-item">
  <local name="label"/>
  <local name="action"/>
  <element id="item">
    <element-config>
      <width-grow/>
      <height-fixed at="1"/>
      <padding-left is="2"/>
      <hovered><color is="#3a3a5c"/></hovered>
      <clicked emit="action"><color is="#5f5fd7"/></clicked>
    </element-config>
    <text-element>
      <text-config>
        <color is="#e4e4e4"/>
        <dyn-content from="label"/>
      </text-config>
    </text-element>
  </element>
</reusable>

<page name="main">
  <element id="root">
    <element-config>
      <grow/>
      <direction is="ttb"/>
      <color is="#1c1c28"/>
      <padding-all is="1"/>
      <child-gap is="1"/>
    </element-config>

    <element id="header">
      <element-config>
        <width-grow/>
        <height-fixed at="3"/>
        <color is="#262636"/>
        <padding-all is="1"/>
      </element-config>
      <text-element>
        <text-config>
          <color is="#87d7ff"/>
          <dyn-content from="title"/>
        </text-config>
      </text-element>
    </element>

    <element id="body">
      <element-config><grow/><child-gap is="2"/></element-config>

      <element id="sidebar">
        <element-config>
          <width-fixed at="24"/>
          <height-grow/>
          <direction is="ttb"/>
          <color is="#202030"/>
          <padding-top is="1"/>
        </element-config>
        <use name="menu-item">
          <set-text local="label" to="Overview"/>
          <set-text local="action" to="ShowOverview"/>
        </use>
        <use name="menu-item">
          <set-text local="label" to="Services"/>
          <set-text local="action" to="ShowServices"/>
        </use>
        <use name="menu-item">
          <set-text local="label" to="Quit"/>
          <set-text local="action" to="Quit"/>
        </use>
      </element>

      <element id="content">
        <element-config>
          <grow/>
          <direction is="ttb"/>
          <padding-all is="1"/>
          <child-gap is="1"/>
        </element-config>
        <list src="services">
          <get-text local="name" from="name"/>
          <get-text local="state" from="state"/>
          <get-color local="tone" from="tone"/>
          <element id="service">
            <element-config>
              <width-grow/>
              <height-fixed at="1"/>
              <padding-left is="1"/>
              <dyn-color from="tone"/>
              <hovered><color is="#444466"/></hovered>
              <clicked emit="Inspect"/>
            </element-config>
            <text-element><dyn-content from="name"/></text-element>
          </element>
        </list>
      </element>
    </element>

    <element id="status" if="hasStatus">
      <element-config>
        <width-grow/>
        <height-fixed at="1"/>
        <color is="#303048"/>
        <padding-left is="1"/>
      </element-config>
      <text-element><dyn-content from="status"/></text-element>
    </element>
  </element>
</page>`

func defaultScene() weft.MapSource {
	return weft.MapSource{
		"title":     "weft demo",
		"hasStatus": true,
		"status":    "click a service, or Quit to exit",
		"services": []weft.MapSource{
			{"name": "api-gateway", "state": "up", "tone": "#1f3d2a"},
			{"name": "billing", "state": "up", "tone": "#1f3d2a"},
			{"name": "search", "state": "degraded", "tone": "#4d3a1f"},
			{"name": "mailer", "state": "down", "tone": "#4d1f1f"},
		},
	}
}

// cellMeasurer sizes text for a terminal: one cell per rune, one row per
// line.
type cellMeasurer struct{}

func (cellMeasurer) Measure(text string, _ weft.TextStyle) weft.Size {
	var w, line float32
	lines := float32(1)
	for _, r := range text {
		if r == '\n' {
			lines++
			line = 0
			continue
		}
		line++
		if line > w {
			w = line
		}
	}
	return weft.Size{W: w, H: lines}
}

type model struct {
	engine  *weft.Engine
	scene   weft.MapSource
	frame   *weft.Frame
	pointer weft.Pointer
	w, h    int
	status  string
	quit    bool
}

type reloadedMsg struct{ err error }

func (m *model) step() {
	if m.w == 0 || m.h == 0 {
		return
	}
	m.scene["status"] = m.status
	m.frame = m.engine.Step(weft.Input{
		Data:     m.scene,
		Viewport: weft.Size{W: float32(m.w), H: float32(m.h)},
		Pointer:  m.pointer,
		Sink:     weft.EventFunc(m.handleEvent),
	})
}

func (m *model) handleEvent(name, id string) {
	log.Printf("event %s from %s", name, id)
	switch name {
	case "Quit":
		m.quit = true
	case "Inspect":
		m.status = "inspecting " + id
	default:
		m.status = name
	}
}

func (m *model) Init() tea.Cmd { return nil }

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.w, m.h = msg.Width, msg.Height
	case tea.MouseMsg:
		m.pointer.X = float32(msg.X)
		m.pointer.Y = float32(msg.Y)
		switch msg.Action {
		case tea.MouseActionPress:
			if msg.Button == tea.MouseButtonLeft {
				m.pointer.Pressed = true
			}
		case tea.MouseActionRelease:
			m.pointer.Pressed = false
		}
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	case reloadedMsg:
		if msg.err != nil {
			m.status = "reload failed: " + msg.err.Error()
		} else {
			m.status = "reloaded"
		}
	}
	m.step()
	if m.quit {
		return m, tea.Quit
	}
	return m, nil
}

func (m *model) View() string {
	if m.frame == nil {
		return "loading..."
	}
	return render(m.frame, m.w, m.h)
}

// render paints the frame's draw list onto a cell grid and folds runs of
// equally-styled cells into lipgloss spans.
func render(f *weft.Frame, w, h int) string {
	if w <= 0 || h <= 0 {
		return ""
	}
	type cell struct {
		r      rune
		fg, bg weft.Color
		hasBG  bool
	}
	grid := make([]cell, w*h)
	for i := range grid {
		grid[i].r = ' '
	}

	clamp := func(v, lo, hi int) int {
		if v < lo {
			return lo
		}
		if v > hi {
			return hi
		}
		return v
	}

	for _, b := range f.Boxes {
		r := b.Rect
		if b.Clip != nil {
			x1 := max(r.X, b.Clip.X)
			y1 := max(r.Y, b.Clip.Y)
			x2 := min(r.X+r.W, b.Clip.X+b.Clip.W)
			y2 := min(r.Y+r.H, b.Clip.Y+b.Clip.H)
			r = weft.Rect{X: x1, Y: y1, W: max(x2-x1, 0), H: max(y2-y1, 0)}
		}
		x0 := clamp(int(r.X), 0, w)
		y0 := clamp(int(r.Y), 0, h)
		x1 := clamp(int(r.X+r.W), 0, w)
		y1 := clamp(int(r.Y+r.H), 0, h)

		if b.Text != "" {
			x, y := x0, y0
			for _, ch := range b.Text {
				if ch == '\n' {
					x, y = x0, y+1
					continue
				}
				if x < x1 && y < y1 {
					c := &grid[y*w+x]
					c.r = ch
					c.fg = b.TextStyle.Color
				}
				x++
			}
			continue
		}
		if !b.Paint.HasBackground {
			continue
		}
		for y := y0; y < y1; y++ {
			for x := x0; x < x1; x++ {
				c := &grid[y*w+x]
				c.r = ' '
				c.bg = b.Paint.Background
				c.hasBG = true
			}
		}
	}

	// Text cells inherit the background painted beneath them.
	var sb strings.Builder
	for y := 0; y < h; y++ {
		var run strings.Builder
		var cur cell
		flush := func() {
			if run.Len() == 0 {
				return
			}
			st := lipgloss.NewStyle()
			if cur.hasBG {
				st = st.Background(lipgloss.Color(hexColor(cur.bg)))
			}
			if cur.fg != (weft.Color{}) {
				st = st.Foreground(lipgloss.Color(hexColor(cur.fg)))
			}
			sb.WriteString(st.Render(run.String()))
			run.Reset()
		}
		for x := 0; x < w; x++ {
			c := grid[y*w+x]
			if x == 0 || c.bg != cur.bg || c.hasBG != cur.hasBG || c.fg != cur.fg {
				flush()
				cur = c
			}
			run.WriteRune(c.r)
		}
		flush()
		if y < h-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

func hexColor(c weft.Color) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func loadScene(path string) (weft.MapSource, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var data map[string]any
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("scene %s: %w", path, err)
	}
	return weft.MapSource(data), nil
}

func main() {
	page := flag.String("page", "", "page to show (default: first declared)")
	scenePath := flag.String("scene", "", "YAML file with bound data")
	watch := flag.Bool("watch", false, "hot reload the markup file on change")
	debug := flag.Bool("debug", false, "log to weft-demo.log")
	flag.Parse()

	if *debug {
		f, err := tea.LogToFile("weft-demo.log", "weft")
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		defer f.Close()
	} else {
		log.SetOutput(io.Discard)
	}

	engine := weft.New(weft.Options{Measurer: cellMeasurer{}, Page: *page})

	markupPath := flag.Arg(0)
	if markupPath == "" {
		if err := engine.Load(defaultMarkup); err != nil {
			fmt.Fprintln(os.Stderr, "built-in markup:", err)
			os.Exit(1)
		}
	} else if *watch {
		// Watch performs the initial load; reload results surface in the
		// status line via the program handle below.
	} else {
		src, err := os.ReadFile(markupPath)
		if err == nil {
			err = engine.Load(string(src))
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}

	scene := defaultScene()
	if *scenePath != "" {
		loaded, err := loadScene(*scenePath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		scene = loaded
	}

	m := &model{engine: engine, scene: scene, status: "ready"}
	if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		m.w, m.h = w, h
	}

	prog := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseAllMotion())

	if markupPath != "" && *watch {
		w, err := weft.Watch(markupPath, engine, func(err error) {
			prog.Send(reloadedMsg{err: err})
		})
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		defer w.Stop()
	}

	if _, err := prog.Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
