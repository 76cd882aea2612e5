package weft

import "testing"

// frameOf builds a minimal frame straight from boxes, bypassing the
// solver, so tracker behavior can be pinned against exact geometry.
func frameOf(boxes ...Box) *Frame {
	return &Frame{Boxes: boxes, handlers: make(map[string]string)}
}

func TestHoverIsExclusive(t *testing.T) {
	f := frameOf(
		Box{ID: "a", Rect: Rect{0, 0, 50, 50}},
		Box{ID: "b", Rect: Rect{50, 0, 50, 50}},
	)
	tr := NewTracker()

	tr.Update(f, Pointer{X: 25, Y: 25})
	if s := tr.State("a"); !s.Hovered {
		t.Error("a not hovered under the pointer")
	}
	if s := tr.State("b"); s.Hovered {
		t.Error("b hovered without the pointer")
	}

	tr.Update(f, Pointer{X: 75, Y: 25})
	if tr.State("a").Hovered || !tr.State("b").Hovered {
		t.Error("hover did not move with the pointer")
	}
}

func TestDeepestBoxWinsHover(t *testing.T) {
	// Children draw after parents, so the overlapping later box is the
	// deeper one and must take the hover.
	f := frameOf(
		Box{ID: "parent", Rect: Rect{0, 0, 100, 100}},
		Box{ID: "child", Rect: Rect{20, 20, 40, 40}},
	)
	tr := NewTracker()

	tr.Update(f, Pointer{X: 30, Y: 30})
	if tr.State("parent").Hovered {
		t.Error("parent hovered through its child")
	}
	if !tr.State("child").Hovered {
		t.Error("child not hovered")
	}

	tr.Update(f, Pointer{X: 80, Y: 80})
	if !tr.State("parent").Hovered {
		t.Error("parent not hovered outside the child")
	}
}

func TestClickRequiresPressEdge(t *testing.T) {
	f := frameOf(Box{ID: "btn", Rect: Rect{0, 0, 50, 20}})
	tr := NewTracker()

	// Button already held when the pointer arrives: no new click.
	tr.Update(f, Pointer{X: 100, Y: 100, Pressed: true})
	if got := tr.Update(f, Pointer{X: 10, Y: 10, Pressed: true}); len(got) != 0 {
		t.Errorf("drag onto the element clicked it: %v", got)
	}

	// Release, then press over the element: exactly one transition.
	tr.Update(f, Pointer{X: 10, Y: 10})
	got := tr.Update(f, Pointer{X: 10, Y: 10, Pressed: true})
	if len(got) != 1 || got[0] != "btn" {
		t.Fatalf("transitions = %v, want [btn]", got)
	}
	if !tr.State("btn").Clicked {
		t.Error("clicked state not set on press edge")
	}

	// Holding does not re-fire.
	if got := tr.Update(f, Pointer{X: 10, Y: 10, Pressed: true}); len(got) != 0 {
		t.Errorf("held press re-fired: %v", got)
	}

	// Release clears it.
	tr.Update(f, Pointer{X: 10, Y: 10})
	if tr.State("btn").Clicked {
		t.Error("clicked survived release")
	}
}

func TestClickDropsWhenPointerLeaves(t *testing.T) {
	f := frameOf(Box{ID: "btn", Rect: Rect{0, 0, 50, 20}})
	tr := NewTracker()

	tr.Update(f, Pointer{X: 10, Y: 10, Pressed: true})
	if !tr.State("btn").Clicked {
		t.Fatal("press over the element did not click it")
	}
	// Still pressed, but the pointer slid off.
	tr.Update(f, Pointer{X: 200, Y: 10, Pressed: true})
	if tr.State("btn").Clicked {
		t.Error("clicked survived the pointer leaving")
	}
}

func TestAbsentIDsArePruned(t *testing.T) {
	full := frameOf(
		Box{ID: "row:0", Rect: Rect{0, 0, 100, 20}},
		Box{ID: "row:1", Rect: Rect{0, 20, 100, 20}},
		Box{ID: "row:2", Rect: Rect{0, 40, 100, 20}},
	)
	tr := NewTracker()
	tr.Update(full, Pointer{X: 50, Y: 30})
	if tr.Len() != 3 {
		t.Fatalf("tracking %d ids, want 3", tr.Len())
	}

	// The list shrank: the stale id must not linger.
	short := frameOf(
		Box{ID: "row:0", Rect: Rect{0, 0, 100, 20}},
		Box{ID: "row:1", Rect: Rect{0, 20, 100, 20}},
	)
	tr.Update(short, Pointer{X: 50, Y: 30})
	if tr.Len() != 2 {
		t.Errorf("tracking %d ids after shrink, want 2", tr.Len())
	}
	if tr.State("row:2") != (State{}) {
		t.Error("pruned id still reports state")
	}
}

func TestHitTestHonorsClipRects(t *testing.T) {
	clip := Rect{0, 0, 100, 100}
	f := frameOf(
		Box{ID: "pane", Rect: Rect{0, 0, 100, 100}},
		// Scrolled partly out of view: only the visible part may hit.
		Box{ID: "inner", Rect: Rect{0, -50, 100, 200}, Clip: &clip},
	)

	if id, ok := hitTest(f, 50, 50); !ok || id != "inner" {
		t.Errorf("hit inside clip = %q, want inner", id)
	}
	if id, _ := hitTest(f, 50, 120); id == "inner" {
		t.Error("clipped-away region still hit the inner box")
	}
}

func TestListItemsTrackIndependently(t *testing.T) {
	const markup = `
<page name="main">
  <element id="col">
    <element-config><direction is="ttb"/></element-config>
    <list src="items">
      <element id="row">
        <element-config><width-fixed at="100"/><height-fixed at="20"/></element-config>
      </element>
    </list>
  </element>
</page>`
	data := MapSource{"items": []MapSource{{}, {}, {}}}
	doc := mustCompile(t, markup)
	page, _ := doc.Page("")
	tr := NewTracker()

	f := solve(page, data, Size{800, 600}, tr, nil, FixedMeasurer{})
	tr.Update(f, Pointer{X: 50, Y: 30})

	// col plus three rows.
	if tr.Len() != 4 {
		t.Fatalf("tracking %d ids, want 4", tr.Len())
	}
	for id, want := range map[string]bool{"row:0": false, "row:1": true, "row:2": false} {
		if got := tr.State(id).Hovered; got != want {
			t.Errorf("%s hovered = %v, want %v", id, got, want)
		}
	}
}
