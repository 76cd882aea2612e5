package weft

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrCode classifies compile failures.
type ErrCode uint8

const (
	ErrMalformed ErrCode = iota
	ErrUnknownTag
	ErrMisplacedTag
	ErrMissingAttr
	ErrBadValue
	ErrUnnamedPage
	ErrUnnamedReusable
	ErrUnnamedUse
	ErrUnnamedLocal
	ErrListWithoutSource
	ErrUnknownReusable
	ErrCyclicReuse
	ErrUnboundLocal
	ErrDuplicateName
)

var errCodeNames = map[ErrCode]string{
	ErrMalformed:         "malformed markup",
	ErrUnknownTag:        "unknown tag",
	ErrMisplacedTag:      "misplaced tag",
	ErrMissingAttr:       "missing attribute",
	ErrBadValue:          "bad value",
	ErrUnnamedPage:       "unnamed page",
	ErrUnnamedReusable:   "unnamed reusable",
	ErrUnnamedUse:        "unnamed use",
	ErrUnnamedLocal:      "unnamed local",
	ErrListWithoutSource: "list without source",
	ErrUnknownReusable:   "unknown reusable",
	ErrCyclicReuse:       "cyclic reuse",
	ErrUnboundLocal:      "unbound local",
	ErrDuplicateName:     "duplicate name",
}

// CompileError is a fatal failure of one compilation attempt. The engine
// keeps the previously loaded document active when Load returns one.
type CompileError struct {
	Code   ErrCode
	Tag    string // tag being parsed, when known
	Name   string // offending name (reusable, local, page...)
	Detail string
	Offset int64 // byte offset into the markup, when known
}

func (e *CompileError) Error() string {
	var b strings.Builder
	b.WriteString(errCodeNames[e.Code])
	if e.Tag != "" {
		fmt.Fprintf(&b, " <%s>", e.Tag)
	}
	if e.Name != "" {
		fmt.Fprintf(&b, " %q", e.Name)
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Offset > 0 {
		fmt.Fprintf(&b, " (at byte %d)", e.Offset)
	}
	return b.String()
}

// Compile parses a markup document into an immutable, fully expanded
// Document. Reusable references are validated, checked for cycles and
// inlined with their parameters substituted; the result is what the layout
// solver binds against every frame.
func Compile(markup string) (*Document, error) {
	p := &parser{
		dec:       xml.NewDecoder(strings.NewReader(markup)),
		doc:       &Document{pages: make(map[string]*Page)},
		reusables: make(map[string]*reusable),
	}
	if err := p.run(); err != nil {
		return nil, err
	}
	return p.link()
}

type pkind uint8

const (
	kPage pkind = iota
	kReusable
	kElement
	kConfig
	kHovered
	kClicked
	kTextEl
	kTextCfg
	kContent
	kList
	kUse
	kCmd // leaf command tag, nothing to do on close
)

type pframe struct {
	kind     pkind
	node     *Node // element / text / list / use being built
	children *[]*Node
	style    *Style // config command target
}

type parser struct {
	dec       *xml.Decoder
	doc       *Document
	reusables map[string]*reusable

	page  *Page
	reuse *reusable
	stack []pframe
	text  strings.Builder // chardata inside <content>
}

func (p *parser) run() error {
	for {
		tok, err := p.dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return &CompileError{Code: ErrMalformed, Detail: err.Error(), Offset: p.dec.InputOffset()}
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if err := p.start(t); err != nil {
				return err
			}
		case xml.EndElement:
			if err := p.end(t); err != nil {
				return err
			}
		case xml.CharData:
			if p.top() != nil && p.top().kind == kContent {
				p.text.Write(t)
			}
		}
	}
	if len(p.stack) != 0 {
		return &CompileError{Code: ErrMalformed, Detail: "unclosed tags"}
	}
	return nil
}

func (p *parser) top() *pframe {
	if len(p.stack) == 0 {
		return nil
	}
	return &p.stack[len(p.stack)-1]
}

func (p *parser) push(f pframe) { p.stack = append(p.stack, f) }

// fail builds a CompileError carrying the current input offset.
func (p *parser) fail(code ErrCode, tag, detail string) error {
	return &CompileError{Code: code, Tag: tag, Detail: detail, Offset: p.dec.InputOffset()}
}

func attr(se xml.StartElement, name string) (string, bool) {
	for _, a := range se.Attr {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

func (p *parser) reqAttr(se xml.StartElement, name string) (string, error) {
	v, ok := attr(se, name)
	if !ok {
		return "", p.fail(ErrMissingAttr, se.Name.Local, name)
	}
	return v, nil
}

func parseFloat(s string) (float32, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 32)
	return float32(v), err
}

func (p *parser) floatAttr(se xml.StartElement, name string) (float32, bool, error) {
	raw, ok := attr(se, name)
	if !ok {
		return 0, false, nil
	}
	v, err := parseFloat(raw)
	if err != nil {
		return 0, false, p.fail(ErrBadValue, se.Name.Local, name+"="+raw)
	}
	return v, true, nil
}

func (p *parser) reqFloatAttr(se xml.StartElement, name string) (float32, error) {
	v, ok, err := p.floatAttr(se, name)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, p.fail(ErrMissingAttr, se.Name.Local, name)
	}
	return v, nil
}

func (p *parser) boolAttr(se xml.StartElement, name string) (bool, error) {
	raw, ok := attr(se, name)
	if !ok {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, p.fail(ErrBadValue, se.Name.Local, name+"="+raw)
	}
	return v, nil
}

// container returns the frame whose child list new nodes append to, or nil
// when the current position cannot hold nodes.
func (p *parser) container() *pframe {
	t := p.top()
	if t == nil || t.children == nil {
		return nil
	}
	return t
}

func (p *parser) start(se xml.StartElement) error {
	tag := se.Name.Local
	switch tag {
	case "page":
		if len(p.stack) != 0 {
			return p.fail(ErrMisplacedTag, tag, "pages must be top level")
		}
		name, ok := attr(se, "name")
		if !ok || name == "" {
			return p.fail(ErrUnnamedPage, tag, "")
		}
		if _, dup := p.doc.pages[name]; dup {
			return &CompileError{Code: ErrDuplicateName, Tag: tag, Name: name}
		}
		p.page = &Page{Name: name}
		p.push(pframe{kind: kPage, children: &p.page.Nodes})

	case "reusable":
		if len(p.stack) != 0 {
			return p.fail(ErrMisplacedTag, tag, "reusables must be top level")
		}
		name, ok := attr(se, "name")
		if !ok || name == "" {
			return p.fail(ErrUnnamedReusable, tag, "")
		}
		if _, dup := p.reusables[name]; dup {
			return &CompileError{Code: ErrDuplicateName, Tag: tag, Name: name}
		}
		p.reuse = &reusable{name: name}
		p.push(pframe{kind: kReusable, children: &p.reuse.nodes})

	case "local":
		t := p.top()
		if t == nil || t.kind != kReusable {
			return p.fail(ErrMisplacedTag, tag, "locals belong directly inside a reusable")
		}
		name, ok := attr(se, "name")
		if !ok || name == "" {
			return p.fail(ErrUnnamedLocal, tag, "")
		}
		def, hasDef := attr(se, "default")
		p.reuse.params = append(p.reuse.params, param{name: name, def: def, hasDefault: hasDef})
		p.push(pframe{kind: kCmd})

	case "element":
		c := p.container()
		if c == nil {
			return p.fail(ErrMisplacedTag, tag, "")
		}
		n := &Node{Kind: nodeElement}
		n.ID, _ = attr(se, "id")
		appended := n
		if cond, ok := attr(se, "if"); ok {
			appended = &Node{Kind: nodeCond, Predicate: cond, Children: []*Node{n}}
		} else if cond, ok := attr(se, "if-not"); ok {
			appended = &Node{Kind: nodeCond, Predicate: cond, Negate: true, Children: []*Node{n}}
		}
		*c.children = append(*c.children, appended)
		p.push(pframe{kind: kElement, node: n, children: &n.Children})

	case "element-config":
		t := p.top()
		if t == nil || t.kind != kElement {
			return p.fail(ErrMisplacedTag, tag, "")
		}
		p.push(pframe{kind: kConfig, node: t.node, style: &t.node.Style.Base})

	case "hovered", "clicked":
		t := p.top()
		if t == nil || t.kind != kConfig {
			return p.fail(ErrMisplacedTag, tag, "state overrides belong inside element-config")
		}
		// The override starts as a snapshot of the base configured so far;
		// commands inside the block then diverge from it.
		n := t.node
		cp := n.Style.Base
		if tag == "hovered" {
			n.Style.Hovered = &cp
			p.push(pframe{kind: kHovered, node: n, style: n.Style.Hovered})
		} else {
			if emit, ok := attr(se, "emit"); ok {
				n.Style.ClickEvent = keyRef(emit)
			}
			n.Style.Clicked = &cp
			p.push(pframe{kind: kClicked, node: n, style: n.Style.Clicked})
		}

	case "text-element":
		c := p.container()
		if c == nil {
			return p.fail(ErrMisplacedTag, tag, "")
		}
		n := &Node{Kind: nodeText, Text: defaultTextStyle()}
		*c.children = append(*c.children, n)
		p.push(pframe{kind: kTextEl, node: n})

	case "text-config":
		t := p.top()
		if t == nil || t.kind != kTextEl {
			return p.fail(ErrMisplacedTag, tag, "")
		}
		p.push(pframe{kind: kTextCfg, node: t.node})

	case "content":
		t := p.top()
		if t == nil || (t.kind != kTextEl && t.kind != kTextCfg) {
			return p.fail(ErrMisplacedTag, tag, "")
		}
		p.text.Reset()
		p.push(pframe{kind: kContent, node: t.node})

	case "dyn-content":
		t := p.top()
		if t == nil || (t.kind != kTextEl && t.kind != kTextCfg) {
			return p.fail(ErrMisplacedTag, tag, "")
		}
		from, err := p.reqAttr(se, "from")
		if err != nil {
			return err
		}
		t.node.Content = keyRef(from)
		p.push(pframe{kind: kCmd})

	case "list":
		c := p.container()
		if c == nil {
			return p.fail(ErrMisplacedTag, tag, "")
		}
		src, ok := attr(se, "src")
		if !ok || src == "" {
			return p.fail(ErrListWithoutSource, tag, "")
		}
		n := &Node{Kind: nodeList, SourceKey: src, Bindings: make(map[string]binding)}
		*c.children = append(*c.children, n)
		p.push(pframe{kind: kList, node: n, children: &n.Children})

	case "use":
		c := p.container()
		if c == nil {
			return p.fail(ErrMisplacedTag, tag, "")
		}
		name, ok := attr(se, "name")
		if !ok || name == "" {
			return p.fail(ErrUnnamedUse, tag, "")
		}
		n := &Node{Kind: nodeUse, UseName: name, Overrides: make(map[string]Ref)}
		*c.children = append(*c.children, n)
		if p.reuse != nil {
			p.reuse.uses = append(p.reuse.uses, name)
		}
		p.push(pframe{kind: kUse, node: n})

	case "get-text", "get-bool", "get-event", "get-numeric", "get-color":
		return p.getDirective(se)

	case "set-text", "set-bool", "set-event", "set-numeric", "set-color":
		return p.setDirective(se)

	default:
		return p.configCommand(se)
	}
	return nil
}

func (p *parser) end(xml.EndElement) error {
	t := p.top()
	if t == nil {
		return &CompileError{Code: ErrMalformed, Detail: "unbalanced close tag", Offset: p.dec.InputOffset()}
	}
	p.stack = p.stack[:len(p.stack)-1]

	switch t.kind {
	case kPage:
		p.doc.pages[p.page.Name] = p.page
		p.doc.order = append(p.doc.order, p.page.Name)
		p.page = nil
	case kReusable:
		p.reusables[p.reuse.name] = p.reuse
		p.reuse = nil
	case kContent:
		t.node.Content = litRef(strings.TrimSpace(p.text.String()))
		p.text.Reset()
	}
	return nil
}

var getKinds = map[string]bindKind{
	"get-text":    bindText,
	"get-bool":    bindBool,
	"get-event":   bindEvent,
	"get-numeric": bindNumber,
	"get-color":   bindColor,
}

// getDirective binds a local name to a remote key: inside a list it scopes
// the name to each item context, inside a use it forwards a parameter to
// the reusable being instantiated.
func (p *parser) getDirective(se xml.StartElement) error {
	tag := se.Name.Local
	local, err := p.reqAttr(se, "local")
	if err != nil {
		return err
	}
	from, err := p.reqAttr(se, "from")
	if err != nil {
		return err
	}
	t := p.top()
	switch {
	case t != nil && t.kind == kList:
		t.node.Bindings[local] = binding{kind: getKinds[tag], from: from}
	case t != nil && t.kind == kUse:
		t.node.Overrides[local] = keyRef(from)
	default:
		return p.fail(ErrMisplacedTag, tag, "bindings belong inside list or use")
	}
	p.push(pframe{kind: kCmd})
	return nil
}

// setDirective supplies a literal override for a reusable parameter.
func (p *parser) setDirective(se xml.StartElement) error {
	tag := se.Name.Local
	t := p.top()
	if t == nil || t.kind != kUse {
		return p.fail(ErrMisplacedTag, tag, "overrides belong inside use")
	}
	local, err := p.reqAttr(se, "local")
	if err != nil {
		return err
	}
	to, err := p.reqAttr(se, "to")
	if err != nil {
		return err
	}
	switch tag {
	case "set-bool":
		if _, err := strconv.ParseBool(to); err != nil {
			return p.fail(ErrBadValue, tag, "to="+to)
		}
	case "set-numeric":
		if _, err := parseFloat(to); err != nil {
			return p.fail(ErrBadValue, tag, "to="+to)
		}
	case "set-color":
		if _, err := ParseColor(to); err != nil {
			return p.fail(ErrBadValue, tag, "to="+to)
		}
	}
	t.node.Overrides[local] = litRef(to)
	p.push(pframe{kind: kCmd})
	return nil
}

// sizing attribute triple shared by the fit/grow tags.
func (p *parser) minMax(se xml.StartElement, a *SizeAxis) error {
	if v, ok, err := p.floatAttr(se, "min"); err != nil {
		return err
	} else if ok {
		a.Min = v
	}
	if v, ok, err := p.floatAttr(se, "max"); err != nil {
		return err
	} else if ok {
		a.Max = v
	}
	return nil
}

var parentAnchors = map[string]Anchor{
	"top-left":      AnchorTopLeft,
	"top-center":    AnchorTopCenter,
	"top-right":     AnchorTopRight,
	"center-left":   AnchorCenterLeft,
	"center":        AnchorCenter,
	"center-right":  AnchorCenterRight,
	"bottom-left":   AnchorBottomLeft,
	"bottom-center": AnchorBottomCenter,
	"bottom-right":  AnchorBottomRight,
}

// configCommand handles the leaf configuration vocabulary. Most tags write
// into the innermost style target (base config, hovered or clicked block);
// text tags write into the enclosing text-config.
func (p *parser) configCommand(se xml.StartElement) error {
	tag := se.Name.Local
	t := p.top()

	// text configuration first, since <color> is shared vocabulary
	if t != nil && t.kind == kTextCfg {
		switch tag {
		case "font-id":
			v, err := p.reqFloatAttr(se, "is")
			if err != nil {
				return err
			}
			t.node.Text.FontID = uint16(v)
		case "font-size":
			v, err := p.reqFloatAttr(se, "is")
			if err != nil {
				return err
			}
			t.node.Text.FontSize = v
		case "line-height":
			v, err := p.reqFloatAttr(se, "is")
			if err != nil {
				return err
			}
			t.node.Text.LineHeight = v
		case "text-align-left":
			t.node.Text.Align = AlignStart
		case "text-align-center":
			t.node.Text.Align = AlignCenter
		case "text-align-right":
			t.node.Text.Align = AlignEnd
		case "color":
			raw, err := p.reqAttr(se, "is")
			if err != nil {
				return err
			}
			c, perr := ParseColor(raw)
			if perr != nil {
				return p.fail(ErrBadValue, tag, raw)
			}
			t.node.Text.Color = c
		default:
			return p.fail(ErrUnknownTag, tag, "")
		}
		p.push(pframe{kind: kCmd})
		return nil
	}

	if t == nil || t.style == nil {
		return p.fail(ErrMisplacedTag, tag, "")
	}
	st := t.style

	switch tag {
	case "grow":
		st.Width.Mode = SizeGrow
		st.Height.Mode = SizeGrow

	case "width-grow", "width-fit", "height-grow", "height-fit":
		a := &st.Width
		if strings.HasPrefix(tag, "height") {
			a = &st.Height
		}
		if strings.HasSuffix(tag, "grow") {
			a.Mode = SizeGrow
		} else {
			a.Mode = SizeFit
		}
		if err := p.minMax(se, a); err != nil {
			return err
		}

	case "width-fixed", "height-fixed":
		a := &st.Width
		if tag == "height-fixed" {
			a = &st.Height
		}
		a.Mode = SizeFixed
		if v, ok, err := p.floatAttr(se, "at"); err != nil {
			return err
		} else if ok {
			a.Value = v
		} else if from, ok := attr(se, "from"); ok {
			a.Key = from
		} else {
			return p.fail(ErrMissingAttr, tag, "at or from")
		}

	case "width-percent", "height-percent":
		a := &st.Width
		if tag == "height-percent" {
			a = &st.Height
		}
		v, err := p.reqFloatAttr(se, "at")
		if err != nil {
			return err
		}
		a.Mode = SizePercent
		a.Value = v

	case "padding-all":
		v, err := p.reqFloatAttr(se, "is")
		if err != nil {
			return err
		}
		st.Padding = Padding{Top: v, Bottom: v, Left: v, Right: v}
	case "padding-top":
		v, err := p.reqFloatAttr(se, "is")
		if err != nil {
			return err
		}
		st.Padding.Top = v
	case "padding-bottom":
		v, err := p.reqFloatAttr(se, "is")
		if err != nil {
			return err
		}
		st.Padding.Bottom = v
	case "padding-left":
		v, err := p.reqFloatAttr(se, "is")
		if err != nil {
			return err
		}
		st.Padding.Left = v
	case "padding-right":
		v, err := p.reqFloatAttr(se, "is")
		if err != nil {
			return err
		}
		st.Padding.Right = v

	case "child-gap":
		v, err := p.reqFloatAttr(se, "is")
		if err != nil {
			return err
		}
		st.Gap = v

	case "direction":
		raw, err := p.reqAttr(se, "is")
		if err != nil {
			return err
		}
		if raw == "ttb" {
			st.Direction = TopToBottom
		} else {
			st.Direction = LeftToRight
		}

	case "align-children-x":
		raw, err := p.reqAttr(se, "to")
		if err != nil {
			return err
		}
		switch raw {
		case "left":
			st.AlignX = AlignStart
		case "center":
			st.AlignX = AlignCenter
		case "right":
			st.AlignX = AlignEnd
		default:
			return p.fail(ErrBadValue, tag, raw)
		}

	case "align-children-y":
		raw, err := p.reqAttr(se, "to")
		if err != nil {
			return err
		}
		switch raw {
		case "top":
			st.AlignY = AlignStart
		case "center":
			st.AlignY = AlignCenter
		case "bottom":
			st.AlignY = AlignEnd
		default:
			return p.fail(ErrBadValue, tag, raw)
		}

	case "color":
		raw, err := p.reqAttr(se, "is")
		if err != nil {
			return err
		}
		c, perr := ParseColor(raw)
		if perr != nil {
			return p.fail(ErrBadValue, tag, raw)
		}
		st.Background = c
		st.HasBackground = true

	case "dyn-color":
		from, err := p.reqAttr(se, "from")
		if err != nil {
			return err
		}
		st.BackgroundKey = from
		st.HasBackground = true

	case "radius-all":
		v, err := p.reqFloatAttr(se, "is")
		if err != nil {
			return err
		}
		st.Radius = Corners{TopLeft: v, TopRight: v, BottomLeft: v, BottomRight: v}
	case "radius-top-left":
		v, err := p.reqFloatAttr(se, "is")
		if err != nil {
			return err
		}
		st.Radius.TopLeft = v
	case "radius-top-right":
		v, err := p.reqFloatAttr(se, "is")
		if err != nil {
			return err
		}
		st.Radius.TopRight = v
	case "radius-bottom-left":
		v, err := p.reqFloatAttr(se, "is")
		if err != nil {
			return err
		}
		st.Radius.BottomLeft = v
	case "radius-bottom-right":
		v, err := p.reqFloatAttr(se, "is")
		if err != nil {
			return err
		}
		st.Radius.BottomRight = v

	case "border-color":
		raw, err := p.reqAttr(se, "is")
		if err != nil {
			return err
		}
		c, perr := ParseColor(raw)
		if perr != nil {
			return p.fail(ErrBadValue, tag, raw)
		}
		st.Border.Color = c
	case "border-dynamic-color":
		from, err := p.reqAttr(se, "from")
		if err != nil {
			return err
		}
		st.Border.ColorKey = from
	case "border-all":
		v, err := p.reqFloatAttr(se, "is")
		if err != nil {
			return err
		}
		st.Border.Top, st.Border.Bottom, st.Border.Left, st.Border.Right = v, v, v, v
	case "border-top":
		v, err := p.reqFloatAttr(se, "is")
		if err != nil {
			return err
		}
		st.Border.Top = v
	case "border-bottom":
		v, err := p.reqFloatAttr(se, "is")
		if err != nil {
			return err
		}
		st.Border.Bottom = v
	case "border-left":
		v, err := p.reqFloatAttr(se, "is")
		if err != nil {
			return err
		}
		st.Border.Left = v
	case "border-right":
		v, err := p.reqFloatAttr(se, "is")
		if err != nil {
			return err
		}
		st.Border.Right = v
	case "border-between-children":
		v, err := p.reqFloatAttr(se, "is")
		if err != nil {
			return err
		}
		st.Border.BetweenChildren = v

	case "scroll":
		v, err := p.boolAttr(se, "vertical")
		if err != nil {
			return err
		}
		h, err := p.boolAttr(se, "horizontal")
		if err != nil {
			return err
		}
		st.Scroll = Scroll{Vertical: v, Horizontal: h}

	case "image":
		src, err := p.reqAttr(se, "src")
		if err != nil {
			return err
		}
		st.Image = src

	case "floating":
		st.Floating.Active = true
	case "floating-offset":
		if v, ok, err := p.floatAttr(se, "x"); err != nil {
			return err
		} else if ok {
			st.Floating.OffsetX = v
		}
		if v, ok, err := p.floatAttr(se, "y"); err != nil {
			return err
		} else if ok {
			st.Floating.OffsetY = v
		}
		st.Floating.Active = true
	case "floating-attach-to-parent":
		found := false
		for _, a := range se.Attr {
			if anchor, ok := parentAnchors[a.Name.Local]; ok {
				st.Floating.Anchor = anchor
				found = true
				break
			}
		}
		if !found {
			return p.fail(ErrMissingAttr, tag, "anchor corner")
		}
		st.Floating.Active = true
	case "floating-attach-to-root":
		st.Floating.ToRoot = true
		st.Floating.Active = true

	default:
		return p.fail(ErrUnknownTag, tag, "")
	}

	p.push(pframe{kind: kCmd})
	return nil
}

// link validates the reusable graph and expands every page.
func (p *parser) link() (*Document, error) {
	if err := detectCycles(p.reusables); err != nil {
		return nil, err
	}
	for _, name := range p.doc.order {
		page := p.doc.pages[name]
		expanded, err := expandNodes(page.Nodes, p.reusables, nil)
		if err != nil {
			return nil, err
		}
		page.Nodes = expanded
	}
	if len(p.doc.order) == 0 {
		return nil, &CompileError{Code: ErrUnnamedPage, Detail: "document declares no pages"}
	}
	return p.doc, nil
}
