package weft

import "unicode/utf8"

// Size is a width/height pair in layout units.
type Size struct {
	W, H float32
}

// Measurer reports the natural extent of a piece of text. It is consumed
// during the intrinsic sizing pass and must be a pure function of its
// arguments: identical inputs on consecutive frames must yield identical
// sizes or layout stops being idempotent.
type Measurer interface {
	Measure(text string, style TextStyle) Size
}

// FixedMeasurer is a deterministic measurer that assumes a fixed advance
// per rune. It is the default when the host supplies nothing better and is
// what the tests run against; a real host plugs its shaping engine in here.
type FixedMeasurer struct {
	// Advance is the per-rune width as a fraction of the font size.
	// Zero means 0.6, a typical monospace aspect.
	Advance float32
}

func (m FixedMeasurer) Measure(text string, style TextStyle) Size {
	adv := m.Advance
	if adv == 0 {
		adv = 0.6
	}
	size := style.FontSize
	if size <= 0 {
		size = 16
	}
	lineH := style.LineHeight
	if lineH <= 0 {
		lineH = size * 1.2
	}

	var w, line float32
	lines := float32(1)
	for _, r := range text {
		if r == '\n' {
			lines++
			line = 0
			continue
		}
		line += adv * size
		if line > w {
			w = line
		}
	}
	if utf8.RuneCountInString(text) == 0 {
		return Size{W: 0, H: clampDim(lineH)}
	}
	return Size{W: clampDim(w), H: clampDim(lines * lineH)}
}
