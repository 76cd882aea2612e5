package weft

import "strconv"

// Layout solver. Each frame the compiled template is re-bound against the
// host's data and resolved into a fresh tree of rectangles:
//
//	build (top→down):  expand lists/conditionals, resolve bindings and the
//	                   active style variant for each element
//	fit   (bottom→up): natural sizes; leaves measure, containers aggregate
//	place (top→down):  distribute remaining space to grow children, align,
//	                   apply scroll offsets
//	float (per parent, after its rect is final): anchor+offset placement
//
// Nothing here mutates shared state, so identical inputs always produce
// identical geometry.

// Rect is a resolved rectangle in final coordinate space.
type Rect struct {
	X, Y, W, H float32
}

// Contains reports whether the point lies inside the rectangle.
func (r Rect) Contains(x, y float32) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

func (r Rect) intersect(o Rect) Rect {
	x1, y1 := max32(r.X, o.X), max32(r.Y, o.Y)
	x2, y2 := min32(r.X+r.W, o.X+o.W), min32(r.Y+r.H, o.Y+o.H)
	return Rect{X: x1, Y: y1, W: clampDim(x2 - x1), H: clampDim(y2 - y1)}
}

func max32(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

func min32(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

// BorderPaint is the resolved stroke of a box.
type BorderPaint struct {
	Color           Color
	Top             float32
	Bottom          float32
	Left            float32
	Right           float32
	BetweenChildren float32
}

// Paint is the resolved paint state of a box after applying the active
// interaction variant and any data-driven colors.
type Paint struct {
	Background    Color
	HasBackground bool
	Radius        Corners
	Border        BorderPaint
}

// Box is one drawable rectangle of the layout tree, in draw order
// (parents before children, floating content last). ID refers back to the
// originating stable element identity for interaction correlation.
type Box struct {
	ID    string
	Rect  Rect
	Paint Paint

	// text payload, empty for plain boxes
	Text      string
	TextStyle TextStyle

	// texture name for backends that draw images, empty otherwise
	Image string

	// Clip restricts drawing and hit testing when the box sits inside a
	// scroll container. Nil = unclipped.
	Clip *Rect
}

// Frame is the product of one solve: an ordered draw list plus the
// diagnostics recovered during binding. It is never mutated after solve
// and is owned by the frame that created it.
type Frame struct {
	Viewport    Size
	Boxes       []Box
	Diagnostics []Diagnostic

	handlers map[string]string // element id -> click event name
}

// Handler returns the click event name declared for the element, if any.
func (f *Frame) Handler(id string) (string, bool) {
	name, ok := f.handlers[id]
	return name, ok
}

// Offset is a host-owned scroll displacement for one scroll container.
type Offset struct {
	X, Y float32
}

// interactionView is the read-only slice of interaction state the solver
// needs to pick style variants.
type interactionView interface {
	State(id string) State
}

// inst is one instantiated node: a template node after binding, with
// per-frame geometry attached.
type inst struct {
	kind nodeKind // nodeElement or nodeText
	id   string

	style      Style // resolved active style, dynamic values substituted
	clickEvent string

	text      string
	textStyle TextStyle

	children []*inst

	rect       Rect
	fitW, fitH float32
	clip       *Rect
}

type solver struct {
	frame   *Frame
	data    DataSource
	measure Measurer
	inter   interactionView
	scroll  map[string]Offset
	root    Rect
}

// solve resolves one page against the binding context.
func solve(page *Page, data DataSource, viewport Size, inter interactionView, scroll map[string]Offset, m Measurer) *Frame {
	f := &Frame{
		Viewport: viewport,
		handlers: make(map[string]string),
	}
	s := &solver{
		frame:   f,
		data:    data,
		measure: m,
		inter:   inter,
		scroll:  scroll,
		root:    Rect{W: clampDim(viewport.W), H: clampDim(viewport.H)},
	}

	root := &inst{kind: nodeElement}
	root.children = s.build(page.Nodes, "", "", nil)
	s.fit(root)
	root.rect = s.root
	s.place(root)

	// Flow content first, floating subtrees after all flow geometry, in
	// declaration order. A float inside a float queues behind its host.
	var floats []*inst
	s.emitChildren(root, &floats)
	for i := 0; i < len(floats); i++ {
		s.emitBox(floats[i])
		s.emitChildren(floats[i], &floats)
	}
	return f
}

// --- build ---

func childPath(base string, ord int) string {
	if base == "" {
		return strconv.Itoa(ord)
	}
	return base + "." + strconv.Itoa(ord)
}

// build instantiates template nodes. owner is the id of the nearest
// enclosing element; text boxes inherit it so interaction correlates to
// the element even when the pointer sits over its text.
func (s *solver) build(nodes []*Node, base, owner string, sc *scope) []*inst {
	out := make([]*inst, 0, len(nodes))
	for i, n := range nodes {
		out = append(out, s.buildNode(n, childPath(base, i), owner, sc)...)
	}
	return out
}

func (s *solver) buildNode(n *Node, path, owner string, sc *scope) []*inst {
	switch n.Kind {
	case nodeCond:
		v := s.frame.lookupBool(s.data, sc, n.Predicate)
		if n.Negate {
			v = !v
		}
		if !v {
			// A false predicate contributes nothing: no box, no id.
			return nil
		}
		return s.build(n.Children, path, owner, sc)

	case nodeList:
		items := s.frame.lookupList(s.data, sc, n.SourceKey)
		out := make([]*inst, 0, len(items))
		for idx, item := range items {
			isc := &scope{parent: sc, item: item, bindings: n.Bindings}
			isc.suffix = scopeSuffix(sc) + ":" + strconv.Itoa(idx)
			out = append(out, s.build(n.Children, path+":"+strconv.Itoa(idx), owner, isc)...)
		}
		return out

	case nodeText:
		id := owner
		if id == "" {
			id = path
		}
		in := &inst{kind: nodeText, id: id, textStyle: n.Text}
		if n.Content.Dynamic {
			in.text = s.frame.lookupText(s.data, sc, n.Content.Key)
		} else {
			in.text = n.Content.Lit
		}
		return []*inst{in}

	case nodeElement:
		id := path
		if n.ID != "" {
			id = n.ID + scopeSuffix(sc)
		}
		st := *n.Style.active(s.inter.State(id))
		s.resolveStyle(&st, sc)

		in := &inst{
			kind:       nodeElement,
			id:         id,
			style:      st,
			clickEvent: s.resolveEvent(n.Style.ClickEvent, sc),
		}
		in.children = s.build(n.Children, path, id, sc)
		return []*inst{in}
	}
	return nil
}

// resolveStyle substitutes data-driven style values for this frame.
func (s *solver) resolveStyle(st *Style, sc *scope) {
	if st.BackgroundKey != "" {
		st.Background = s.frame.lookupColor(s.data, sc, st.BackgroundKey)
	}
	if st.Border.ColorKey != "" {
		st.Border.Color = s.frame.lookupColor(s.data, sc, st.Border.ColorKey)
	}
	if st.Width.Key != "" {
		st.Width.Value = s.frame.lookupNumber(s.data, sc, st.Width.Key)
	}
	if st.Height.Key != "" {
		st.Height.Value = s.frame.lookupNumber(s.data, sc, st.Height.Key)
	}
}

// resolveEvent turns a clicked emit ref into an event name. A dynamic ref
// resolves through list bindings, then the root data source; a name the
// host never bound is taken as the literal event name.
func (s *solver) resolveEvent(r Ref, sc *scope) string {
	if r.IsZero() {
		return ""
	}
	if !r.Dynamic {
		return r.Lit
	}
	if src, from, ok := sc.resolve(r.Key, bindEvent); ok {
		if v, ok := src.EventName(from); ok {
			return v
		}
		s.frame.diag(from, "event")
		return ""
	}
	if v, ok := s.data.EventName(r.Key); ok {
		return v
	}
	return r.Key
}

func scopeSuffix(sc *scope) string {
	if sc == nil {
		return ""
	}
	return sc.suffix
}

// --- fit (post-order) ---

// flowBase is a child's pre-distribution extent along one axis.
func flowBase(c *inst, horizontal bool) float32 {
	if c.kind == nodeText {
		if horizontal {
			return c.fitW
		}
		return c.fitH
	}
	a := c.style.Width
	fit := c.fitW
	if !horizontal {
		a = c.style.Height
		fit = c.fitH
	}
	switch a.Mode {
	case SizeFixed:
		return clampDim(a.Value)
	case SizePercent:
		return 0
	case SizeGrow:
		return clampDim(a.Min)
	default:
		return fit
	}
}

func (s *solver) fit(in *inst) {
	for _, c := range in.children {
		s.fit(c)
	}
	if in.kind == nodeText {
		sz := s.measure.Measure(in.text, in.textStyle)
		in.fitW, in.fitH = clampDim(sz.W), clampDim(sz.H)
		return
	}

	horizontal := in.style.Direction == LeftToRight
	var sumMain, maxCross float32
	flow := 0
	for _, c := range in.children {
		if c.style.Floating.Active {
			continue
		}
		sumMain += flowBase(c, horizontal)
		if cross := flowBase(c, !horizontal); cross > maxCross {
			maxCross = cross
		}
		flow++
	}
	if flow > 1 {
		sumMain += in.style.Gap * float32(flow-1)
	}

	pad := in.style.Padding
	var w, h float32
	if horizontal {
		w = sumMain + pad.Left + pad.Right
		h = maxCross + pad.Top + pad.Bottom
	} else {
		w = maxCross + pad.Left + pad.Right
		h = sumMain + pad.Top + pad.Bottom
	}
	in.fitW = fitAxis(in.style.Width, w)
	in.fitH = fitAxis(in.style.Height, h)
}

func fitAxis(a SizeAxis, content float32) float32 {
	switch a.Mode {
	case SizeFixed:
		return clampDim(a.Value)
	case SizePercent:
		return 0
	case SizeGrow:
		return clampDim(a.Min)
	default:
		return a.clamp(content)
	}
}

// --- place (pre-order) ---

func (s *solver) place(in *inst) {
	if in.kind == nodeText {
		return
	}

	pad := in.style.Padding
	content := Rect{
		X: in.rect.X + pad.Left,
		Y: in.rect.Y + pad.Top,
		W: clampDim(in.rect.W - pad.Left - pad.Right),
		H: clampDim(in.rect.H - pad.Top - pad.Bottom),
	}
	horizontal := in.style.Direction == LeftToRight

	contentMain, contentCross := content.W, content.H
	if !horizontal {
		contentMain, contentCross = content.H, content.W
	}

	// First pass over flow children: fixed extents and grow bookkeeping.
	var fixedMain float32
	var grows []*inst
	flow := 0
	for _, c := range in.children {
		if c.style.Floating.Active {
			continue
		}
		flow++
		if c.kind == nodeElement && mainAxis(c, horizontal).Mode == SizeGrow {
			grows = append(grows, c)
			fixedMain += clampDim(mainAxis(c, horizontal).Min)
			continue
		}
		fixedMain += s.mainExtent(c, horizontal, contentMain)
	}
	var gaps float32
	if flow > 1 {
		gaps = in.style.Gap * float32(flow-1)
	}

	// Remaining main-axis space splits equally among grow children; a
	// zero-or-negative remainder resolves every grow child to its minimum.
	var share float32
	if len(grows) > 0 {
		remaining := contentMain - gaps - fixedMain
		if remaining > 0 {
			share = remaining / float32(len(grows))
		}
	}

	// Final extents.
	var usedMain float32
	for _, c := range in.children {
		if c.style.Floating.Active {
			continue
		}
		var main float32
		if c.kind == nodeElement && mainAxis(c, horizontal).Mode == SizeGrow {
			a := mainAxis(c, horizontal)
			main = a.clamp(clampDim(a.Min) + share)
		} else {
			main = s.mainExtent(c, horizontal, contentMain)
		}
		cross := s.crossExtent(c, horizontal, contentCross)
		if horizontal {
			c.rect.W, c.rect.H = main, cross
		} else {
			c.rect.H, c.rect.W = main, cross
		}
		usedMain += main
	}
	usedMain += gaps

	// Alignment shifts the packed run inside leftover space. With a grow
	// child present the leftover is already zero.
	mainAlign, crossAlign := in.style.AlignX, in.style.AlignY
	if !horizontal {
		mainAlign, crossAlign = in.style.AlignY, in.style.AlignX
	}
	cursor := alignOffset(mainAlign, contentMain-usedMain)

	off := s.scrollOffset(in)
	var clip *Rect
	if in.style.Scroll.Vertical || in.style.Scroll.Horizontal {
		r := in.rect
		if in.clip != nil {
			r = r.intersect(*in.clip)
		}
		clip = &r
	} else {
		clip = in.clip
	}

	for _, c := range in.children {
		if c.style.Floating.Active {
			continue
		}
		var main, cross float32
		if horizontal {
			main, cross = c.rect.W, c.rect.H
		} else {
			main, cross = c.rect.H, c.rect.W
		}
		crossOff := alignOffset(crossAlign, contentCross-cross)
		if horizontal {
			c.rect.X = content.X + cursor - off.X
			c.rect.Y = content.Y + crossOff - off.Y
		} else {
			c.rect.X = content.X + crossOff - off.X
			c.rect.Y = content.Y + cursor - off.Y
		}
		cursor += main + in.style.Gap
		c.clip = clip
		s.place(c)
	}

	// Floating children resolve only after this rect is final. Identical
	// anchors resolve in declaration order; later ones draw above.
	for _, c := range in.children {
		if !c.style.Floating.Active {
			continue
		}
		s.placeFloating(c, in)
	}
}

func mainAxis(c *inst, horizontal bool) SizeAxis {
	if horizontal {
		return c.style.Width
	}
	return c.style.Height
}

// mainExtent resolves a non-grow child's main-axis extent.
func (s *solver) mainExtent(c *inst, horizontal bool, contentMain float32) float32 {
	if c.kind == nodeText {
		if horizontal {
			return c.fitW
		}
		return c.fitH
	}
	a := mainAxis(c, horizontal)
	fit := c.fitW
	if !horizontal {
		fit = c.fitH
	}
	switch a.Mode {
	case SizeFixed:
		return clampDim(a.Value)
	case SizePercent:
		return clampDim(a.Value * contentMain)
	default:
		return fit
	}
}

// crossExtent resolves a child's cross-axis extent: grow stretches to the
// container, everything else keeps its own size and gets aligned.
func (s *solver) crossExtent(c *inst, horizontal bool, contentCross float32) float32 {
	if c.kind == nodeText {
		if horizontal {
			return c.fitH
		}
		return c.fitW
	}
	a := c.style.Height
	fit := c.fitH
	if !horizontal {
		a = c.style.Width
		fit = c.fitW
	}
	switch a.Mode {
	case SizeFixed:
		return clampDim(a.Value)
	case SizePercent:
		return clampDim(a.Value * contentCross)
	case SizeGrow:
		return a.clamp(contentCross)
	default:
		return fit
	}
}

func alignOffset(a Alignment, leftover float32) float32 {
	if leftover <= 0 {
		return 0
	}
	switch a {
	case AlignCenter:
		return leftover / 2
	case AlignEnd:
		return leftover
	}
	return 0
}

func (s *solver) scrollOffset(in *inst) Offset {
	if s.scroll == nil {
		return Offset{}
	}
	off, ok := s.scroll[in.id]
	if !ok {
		return Offset{}
	}
	if !in.style.Scroll.Horizontal {
		off.X = 0
	}
	if !in.style.Scroll.Vertical {
		off.Y = 0
	}
	return off
}

// placeFloating positions a floating subtree against its anchor rectangle.
// The element's own anchor corner lands on the matching corner of the
// anchor rect, shifted by the declared offset.
func (s *solver) placeFloating(c *inst, parent *inst) {
	anchor := parent.rect
	if c.style.Floating.ToRoot {
		anchor = s.root
	}

	w := floatExtent(c.style.Width, c.fitW, anchor.W)
	h := floatExtent(c.style.Height, c.fitH, anchor.H)

	fx, fy := c.style.Floating.Anchor.factors()
	c.rect = Rect{
		X: anchor.X + (anchor.W-w)*fx + c.style.Floating.OffsetX,
		Y: anchor.Y + (anchor.H-h)*fy + c.style.Floating.OffsetY,
		W: w,
		H: h,
	}
	// Floating content escapes the parent's scroll clip.
	c.clip = nil
	s.place(c)
}

func floatExtent(a SizeAxis, fit, anchor float32) float32 {
	switch a.Mode {
	case SizeFixed:
		return clampDim(a.Value)
	case SizePercent:
		return clampDim(a.Value * anchor)
	case SizeGrow:
		return a.clamp(anchor)
	default:
		return fit
	}
}

// --- emit ---

func (s *solver) emitChildren(in *inst, floats *[]*inst) {
	for _, c := range in.children {
		if c.style.Floating.Active {
			*floats = append(*floats, c)
			continue
		}
		s.emitBox(c)
		s.emitChildren(c, floats)
	}
}

func (s *solver) emitBox(in *inst) {
	box := Box{
		ID:   in.id,
		Rect: in.rect,
		Clip: in.clip,
	}
	if in.kind == nodeText {
		box.Text = in.text
		box.TextStyle = in.textStyle
	} else {
		box.Paint = Paint{
			Background:    in.style.Background,
			HasBackground: in.style.HasBackground,
			Radius:        in.style.Radius,
			Border: BorderPaint{
				Color:           in.style.Border.Color,
				Top:             in.style.Border.Top,
				Bottom:          in.style.Border.Bottom,
				Left:            in.style.Border.Left,
				Right:           in.style.Border.Right,
				BetweenChildren: in.style.Border.BetweenChildren,
			},
		}
		box.Image = in.style.Image
		if in.clickEvent != "" {
			s.frame.handlers[in.id] = in.clickEvent
		}
	}
	s.frame.Boxes = append(s.frame.Boxes, box)
}
