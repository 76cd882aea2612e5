package weft

import (
	"github.com/mazznoer/csscolorparser"
)

// Color is an 8-bit RGBA color as it appears in resolved paint state.
type Color struct {
	R, G, B, A uint8
}

// ParseColor parses any CSS color string ("#ff0080", "rgb(...)", named
// colors, etc) into a Color.
func ParseColor(s string) (Color, error) {
	c, err := csscolorparser.Parse(s)
	if err != nil {
		return Color{}, err
	}
	r, g, b, a := c.RGBA255()
	return Color{R: r, G: g, B: b, A: a}, nil
}

// SizeMode controls how an element participates in layout along one axis.
type SizeMode uint8

const (
	// SizeFit sizes the element to its content.
	SizeFit SizeMode = iota
	// SizeGrow takes an equal share of the parent's remaining space.
	SizeGrow
	// SizeFixed uses an explicit pixel value.
	SizeFixed
	// SizePercent takes a fraction of the parent's content extent.
	SizePercent
)

// SizeAxis is the sizing configuration for one axis of an element.
type SizeAxis struct {
	Mode  SizeMode
	Value float32 // pixel value for SizeFixed, 0-1 fraction for SizePercent
	Min   float32 // lower clamp for fit/grow
	Max   float32 // upper clamp for fit/grow, 0 = unbounded
	Key   string  // binding key for a data-driven fixed size
}

func (a SizeAxis) clamp(v float32) float32 {
	if v < a.Min {
		v = a.Min
	}
	if a.Max > 0 && v > a.Max {
		v = a.Max
	}
	return clampDim(v)
}

// Direction is the main axis of a container.
type Direction uint8

const (
	// LeftToRight lays children out on the x axis.
	LeftToRight Direction = iota
	// TopToBottom lays children out on the y axis.
	TopToBottom
)

// Alignment positions children inside leftover space.
type Alignment uint8

const (
	AlignStart Alignment = iota
	AlignCenter
	AlignEnd
)

// Padding is the inner spacing of a container, one value per side.
type Padding struct {
	Top, Bottom, Left, Right float32
}

// Corners holds per-corner radii.
type Corners struct {
	TopLeft, TopRight, BottomLeft, BottomRight float32
}

// Border is the stroke configuration of an element.
type Border struct {
	Color           Color
	ColorKey        string // binding key for a data-driven border color
	Top             float32
	Bottom          float32
	Left            float32
	Right           float32
	BetweenChildren float32
}

// Anchor names the corner (or edge midpoint) a floating element attaches to.
// The element's own matching corner is placed on the anchor's corner, then
// shifted by the floating offset.
type Anchor uint8

const (
	AnchorTopLeft Anchor = iota
	AnchorTopCenter
	AnchorTopRight
	AnchorCenterLeft
	AnchorCenter
	AnchorCenterRight
	AnchorBottomLeft
	AnchorBottomCenter
	AnchorBottomRight
)

// fractions of the anchor rectangle, x then y
func (a Anchor) factors() (float32, float32) {
	switch a {
	case AnchorTopLeft:
		return 0, 0
	case AnchorTopCenter:
		return 0.5, 0
	case AnchorTopRight:
		return 1, 0
	case AnchorCenterLeft:
		return 0, 0.5
	case AnchorCenter:
		return 0.5, 0.5
	case AnchorCenterRight:
		return 1, 0.5
	case AnchorBottomLeft:
		return 0, 1
	case AnchorBottomCenter:
		return 0.5, 1
	case AnchorBottomRight:
		return 1, 1
	}
	return 0, 0
}

// Floating removes an element from normal flow and positions it against its
// parent's resolved rectangle (or the viewport when ToRoot is set).
type Floating struct {
	Active  bool
	Anchor  Anchor
	OffsetX float32
	OffsetY float32
	ToRoot  bool
}

// Scroll enables host-driven scrolling per axis. Content is clipped to the
// container rectangle; offsets shift child placement but never sizing.
type Scroll struct {
	Vertical   bool
	Horizontal bool
}

// Style is the resolved per-element layout and paint configuration.
type Style struct {
	Width     SizeAxis
	Height    SizeAxis
	Direction Direction
	Padding   Padding
	Gap       float32
	AlignX    Alignment
	AlignY    Alignment

	Background    Color
	HasBackground bool
	BackgroundKey string // binding key for a data-driven background

	Radius   Corners
	Border   Border
	Floating Floating
	Scroll   Scroll
	Image    string // texture name for the backend, empty = plain box
}

// StyleSet is a base style plus optional interaction variants. A variant
// fully replaces the base while the tracker reports that state, clicked
// taking precedence over hovered.
type StyleSet struct {
	Base    Style
	Hovered *Style
	Clicked *Style

	// ClickEvent names the event emitted when this element's clicked state
	// transitions on. Empty ref = no handler.
	ClickEvent Ref
}

// active selects the style variant for the element's current state.
func (s *StyleSet) active(st State) *Style {
	if st.Clicked && s.Clicked != nil {
		return s.Clicked
	}
	if st.Hovered && s.Hovered != nil {
		return s.Hovered
	}
	return &s.Base
}

// TextStyle is the paint configuration of a text element.
type TextStyle struct {
	FontID     uint16
	FontSize   float32
	LineHeight float32 // 0 = derive from font size
	Align      Alignment
	Color      Color
}

func defaultTextStyle() TextStyle {
	return TextStyle{FontSize: 16}
}

// Ref is a value that is either a literal or a lookup into the binding
// context. Compile-time expansion of reusable parameters rewrites Refs.
type Ref struct {
	Lit     string
	Key     string
	Dynamic bool
}

// IsZero reports whether the ref carries neither a literal nor a key.
func (r Ref) IsZero() bool {
	return !r.Dynamic && r.Lit == ""
}

func litRef(s string) Ref { return Ref{Lit: s} }
func keyRef(s string) Ref { return Ref{Key: s, Dynamic: true} }

// clampDim clamps a dimension to a sane non-negative value. NaN collapses
// to zero rather than poisoning the rest of the solve.
func clampDim(v float32) float32 {
	if v != v || v < 0 {
		return 0
	}
	return v
}
