package weft

import "testing"

func TestParseColor(t *testing.T) {
	cases := []struct {
		in   string
		want Color
		ok   bool
	}{
		{"#ff0000", Color{255, 0, 0, 255}, true},
		{"#80808080", Color{128, 128, 128, 128}, true},
		{"rebeccapurple", Color{102, 51, 153, 255}, true},
		{"rgb(1,2,3)", Color{1, 2, 3, 255}, true},
		{"", Color{}, false},
		{"#zz0000", Color{}, false},
	}
	for _, tc := range cases {
		got, err := ParseColor(tc.in)
		if (err == nil) != tc.ok {
			t.Errorf("ParseColor(%q) err = %v, want ok=%v", tc.in, err, tc.ok)
			continue
		}
		if tc.ok && got != tc.want {
			t.Errorf("ParseColor(%q) = %+v, want %+v", tc.in, got, tc.want)
		}
	}
}

func TestAnchorFactors(t *testing.T) {
	cases := []struct {
		a      Anchor
		fx, fy float32
	}{
		{AnchorTopLeft, 0, 0},
		{AnchorCenter, 0.5, 0.5},
		{AnchorTopRight, 1, 0},
		{AnchorBottomLeft, 0, 1},
		{AnchorBottomRight, 1, 1},
		{AnchorCenterRight, 1, 0.5},
	}
	for _, tc := range cases {
		if fx, fy := tc.a.factors(); fx != tc.fx || fy != tc.fy {
			t.Errorf("anchor %d factors = (%v,%v), want (%v,%v)", tc.a, fx, fy, tc.fx, tc.fy)
		}
	}
}

func TestSizeAxisClamp(t *testing.T) {
	a := SizeAxis{Min: 10, Max: 100}
	for _, tc := range []struct{ in, want float32 }{
		{5, 10}, {50, 50}, {500, 100},
	} {
		if got := a.clamp(tc.in); got != tc.want {
			t.Errorf("clamp(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
	// Zero max means unbounded.
	open := SizeAxis{Min: 10}
	if got := open.clamp(500); got != 500 {
		t.Errorf("unbounded clamp(500) = %v", got)
	}
}

func TestStyleSetPicksVariantByState(t *testing.T) {
	base := Style{Gap: 1}
	hov := Style{Gap: 2}
	clk := Style{Gap: 3}
	s := StyleSet{Base: base, Hovered: &hov, Clicked: &clk}

	if got := s.active(State{}); got.Gap != 1 {
		t.Errorf("idle variant gap = %v", got.Gap)
	}
	if got := s.active(State{Hovered: true}); got.Gap != 2 {
		t.Errorf("hovered variant gap = %v", got.Gap)
	}
	// Clicked implies hovered and wins over it.
	if got := s.active(State{Hovered: true, Clicked: true}); got.Gap != 3 {
		t.Errorf("clicked variant gap = %v", got.Gap)
	}

	bare := StyleSet{Base: base}
	if got := bare.active(State{Hovered: true, Clicked: true}); got.Gap != 1 {
		t.Errorf("missing variants must fall back to base, got gap %v", got.Gap)
	}
}

func TestFixedMeasurer(t *testing.T) {
	m := FixedMeasurer{}
	style := TextStyle{FontSize: 10, LineHeight: 12}

	if got := m.Measure("hello", style); got.W != 30 || got.H != 12 {
		t.Errorf("Measure(hello) = %+v, want 30x12", got)
	}
	if got := m.Measure("", style); got.W != 0 || got.H != 12 {
		t.Errorf("empty text = %+v, want one line height", got)
	}
	two := m.Measure("ab\ncdef", style)
	if two.H != 24 {
		t.Errorf("two lines high = %v, want 24", two.H)
	}
	if two.W != 24 {
		t.Errorf("widest line = %v, want 24", two.W)
	}
}
