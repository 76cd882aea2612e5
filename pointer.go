package weft

// Pointer is the host-supplied pointer state for one frame.
type Pointer struct {
	X, Y    float32
	Pressed bool // primary button held
}

// State is the interaction state of one element.
type State struct {
	Hovered bool
	Clicked bool
}

// Tracker is the one piece of state that persists across immediate-mode
// rebuilds: a map from stable element id to hover/click state. It is
// mutated only inside Update, never while a solve is reading it.
type Tracker struct {
	entries     map[string]*trackEntry
	prevPressed bool
}

type trackEntry struct {
	state State
	seen  bool
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{entries: make(map[string]*trackEntry)}
}

// State returns the tracked state for an element id. Unknown ids report
// the zero state.
func (t *Tracker) State(id string) State {
	if e, ok := t.entries[id]; ok {
		return e.state
	}
	return State{}
}

// Len reports how many element ids are currently tracked.
func (t *Tracker) Len() int {
	return len(t.entries)
}

// hitTest returns the id of the topmost box containing the point: later
// draw order wins, which also makes the deepest node win since children
// draw after their parents and floating content draws last. Boxes inside
// a scroll container only hit within their clip rect.
func hitTest(f *Frame, x, y float32) (string, bool) {
	for i := len(f.Boxes) - 1; i >= 0; i-- {
		b := &f.Boxes[i]
		if b.Clip != nil && !b.Clip.Contains(x, y) {
			continue
		}
		if b.Rect.Contains(x, y) {
			return b.ID, true
		}
	}
	return "", false
}

// Update reconciles interaction state against the new frame's geometry.
// It returns the ids whose clicked state transitioned on this frame, for
// the event emitter. Ids absent from the frame are pruned before Update
// returns, so no entry survives an absent frame.
func (t *Tracker) Update(f *Frame, p Pointer) []string {
	hit, hitOK := hitTest(f, p.X, p.Y)
	pressEdge := p.Pressed && !t.prevPressed
	t.prevPressed = p.Pressed

	for i := range f.Boxes {
		id := f.Boxes[i].ID
		e, ok := t.entries[id]
		if !ok {
			e = &trackEntry{}
			t.entries[id] = e
		}
		e.seen = true
	}

	var transitions []string
	for id, e := range t.entries {
		hovered := hitOK && id == hit
		e.state.Hovered = hovered
		if e.state.Clicked {
			// Held clicks survive only while the button stays down over
			// the same element.
			e.state.Clicked = p.Pressed && hovered
		} else if pressEdge && hovered {
			e.state.Clicked = true
			transitions = append(transitions, id)
		}
	}

	for id, e := range t.entries {
		if !e.seen {
			delete(t.entries, id)
			continue
		}
		e.seen = false
	}
	return transitions
}
