// Package weft compiles a declarative markup description of a user
// interface into a tree of styled boxes, resolves a flexbox-like layout
// over that tree every frame against host-supplied data, tracks per-element
// hover/click state across frames, and emits named events back to the host.
//
// The engine is immediate-mode: every frame rebuilds the full layout tree
// from the compiled template and the current binding context. The only
// state carried between frames is the interaction tracker, keyed by stable
// element ids. Rendering, windowing and text shaping stay outside; the
// engine hands the host an ordered list of resolved rectangles and calls
// back into a host-owned event sink.
package weft

import (
	"fmt"
	"sync/atomic"
)

// Options configures an Engine. The zero value is usable: fixed-advance
// text measurement and the first declared page.
type Options struct {
	// Measurer supplies text extents during intrinsic sizing. Nil selects
	// FixedMeasurer.
	Measurer Measurer
	// Page selects the active page by name. Empty selects the first page
	// declared in the markup.
	Page string
}

// Engine drives the per-frame pipeline: rebind the compiled template,
// solve layout, update interaction state, emit events. All methods except
// Load must be called from the host's frame loop goroutine; Load may run
// concurrently (a file watcher, typically) and publishes its result
// atomically, so a frame in progress always sees a complete document.
type Engine struct {
	doc      atomic.Pointer[Document]
	measurer Measurer
	page     string
	tracker  *Tracker
	scroll   map[string]Offset
}

// New creates an engine with no document loaded. Step before Load yields
// empty frames.
func New(opts Options) *Engine {
	m := opts.Measurer
	if m == nil {
		m = FixedMeasurer{}
	}
	return &Engine{
		measurer: m,
		page:     opts.Page,
		tracker:  NewTracker(),
		scroll:   make(map[string]Offset),
	}
}

// Load compiles markup and swaps it in as the active document. On error
// the previous document stays active, so a broken hot reload never takes
// the running UI down.
func (e *Engine) Load(markup string) error {
	doc, err := Compile(markup)
	if err != nil {
		return err
	}
	e.doc.Store(doc)
	return nil
}

// Document returns the active compiled document, or nil before the first
// successful Load.
func (e *Engine) Document() *Document {
	return e.doc.Load()
}

// UsePage switches the active page. It fails when the active document
// declares no such page; with no document loaded it just records the name
// for the document to come.
func (e *Engine) UsePage(name string) error {
	if doc := e.doc.Load(); doc != nil {
		if _, ok := doc.Page(name); !ok {
			return fmt.Errorf("weft: no page %q", name)
		}
	}
	e.page = name
	return nil
}

// SetScroll records the host-owned scroll offset for a scroll container.
// Offsets shift child placement on the enabled axes only and never affect
// sizing.
func (e *Engine) SetScroll(id string, off Offset) {
	e.scroll[id] = off
}

// State exposes the tracked interaction state for an element, letting the
// host style cursors or debug overlays off the same source of truth.
func (e *Engine) State(id string) State {
	return e.tracker.State(id)
}

// Input is everything the host supplies for one frame.
type Input struct {
	// Data is the binding context for this frame. The engine does not
	// retain it past Step.
	Data DataSource
	// Viewport is the root extent in layout units.
	Viewport Size
	// Pointer is the current pointer state.
	Pointer Pointer
	// Sink receives named events; nil disables emission.
	Sink EventSink
}

// Step runs one frame: solve layout against the current document and
// data, update hover/click state against the fresh geometry, fire events
// for click transitions, and return the frame for the rendering backend.
func (e *Engine) Step(in Input) *Frame {
	doc := e.doc.Load()
	if doc == nil {
		return &Frame{Viewport: in.Viewport}
	}
	page, ok := doc.Page(e.page)
	if !ok {
		f := &Frame{Viewport: in.Viewport}
		f.diag(e.page, "page")
		return f
	}

	data := in.Data
	if data == nil {
		data = MapSource(nil)
	}

	frame := solve(page, data, in.Viewport, e.tracker, e.scroll, e.measurer)
	transitions := e.tracker.Update(frame, in.Pointer)
	if in.Sink != nil {
		emitEvents(frame, transitions, in.Sink)
	}
	return frame
}
