package weft

import (
	"errors"
	"testing"
)

func compileErr(t *testing.T, markup string) *CompileError {
	t.Helper()
	_, err := Compile(markup)
	if err == nil {
		t.Fatal("compile succeeded, want error")
	}
	var ce *CompileError
	if !errors.As(err, &ce) {
		t.Fatalf("error %T is not a *CompileError: %v", err, err)
	}
	return ce
}

func TestCompileErrors(t *testing.T) {
	cases := []struct {
		name   string
		markup string
		code   ErrCode
	}{
		{
			"unnamed page",
			`<page><element/></page>`,
			ErrUnnamedPage,
		},
		{
			"no pages",
			`<reusable name="r"><element/></reusable>`,
			ErrUnnamedPage,
		},
		{
			"duplicate page",
			`<page name="a"/><page name="a"/>`,
			ErrDuplicateName,
		},
		{
			"unnamed use",
			`<page name="a"><use/></page>`,
			ErrUnnamedUse,
		},
		{
			"unknown reusable",
			`<page name="a"><use name="nope"/></page>`,
			ErrUnknownReusable,
		},
		{
			"list without source",
			`<page name="a"><list><element/></list></page>`,
			ErrListWithoutSource,
		},
		{
			"unnamed local",
			`<reusable name="r"><local/></reusable><page name="a"/>`,
			ErrUnnamedLocal,
		},
		{
			"misplaced element-config",
			`<page name="a"><element-config/></page>`,
			ErrMisplacedTag,
		},
		{
			"misplaced hovered",
			`<page name="a"><element><hovered/></element></page>`,
			ErrMisplacedTag,
		},
		{
			"unknown config tag",
			`<page name="a"><element><element-config><wobble/></element-config></element></page>`,
			ErrUnknownTag,
		},
		{
			"bad color literal",
			`<page name="a"><element><element-config><color is="not-a-color"/></element-config></element></page>`,
			ErrBadValue,
		},
		{
			"fixed without extent",
			`<page name="a"><element><element-config><width-fixed/></element-config></element></page>`,
			ErrMissingAttr,
		},
		{
			"bad set-numeric override",
			`<reusable name="r"><local name="w"/><element><element-config><width-fixed from="w"/></element-config></element></reusable>` +
				`<page name="a"><use name="r"><set-numeric local="w" to="wide"/></use></page>`,
			ErrBadValue,
		},
		{
			"floating attach without corner",
			`<page name="a"><element><element-config><floating-attach-to-parent/></element-config></element></page>`,
			ErrMissingAttr,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if ce := compileErr(t, tc.markup); ce.Code != tc.code {
				t.Errorf("code = %v, want %v (err: %v)", errCodeNames[ce.Code], errCodeNames[tc.code], ce)
			}
		})
	}
}

func TestCompileMalformedMarkup(t *testing.T) {
	for _, markup := range []string{
		``,
		`<page name="a">`,
		`<page name="a"></element></page>`,
		`not xml at all`,
	} {
		if _, err := Compile(markup); err == nil {
			t.Errorf("compile(%q) succeeded, want error", markup)
		}
	}
}

func TestCompileCyclicReuse(t *testing.T) {
	const markup = `
<reusable name="a"><element><use name="b"/></element></reusable>
<reusable name="b"><use name="a"/></reusable>
<page name="main"><use name="a"/></page>`
	if ce := compileErr(t, markup); ce.Code != ErrCyclicReuse {
		t.Errorf("code = %v, want cyclic reuse", errCodeNames[ce.Code])
	}

	const self = `
<reusable name="loop"><use name="loop"/></reusable>
<page name="main"><use name="loop"/></page>`
	if ce := compileErr(t, self); ce.Code != ErrCyclicReuse {
		t.Errorf("self-reference code = %v, want cyclic reuse", errCodeNames[ce.Code])
	}
}

func TestCompileUnboundLocal(t *testing.T) {
	const markup = `
<reusable name="label">
  <local name="text"/>
  <text-element><dyn-content from="text"/></text-element>
</reusable>
<page name="main"><use name="label"/></page>`
	ce := compileErr(t, markup)
	if ce.Code != ErrUnboundLocal {
		t.Fatalf("code = %v, want unbound local", errCodeNames[ce.Code])
	}
	if ce.Name != "text" {
		t.Errorf("error names %q, want the parameter", ce.Name)
	}
}

func TestCompilePagesInDeclarationOrder(t *testing.T) {
	const markup = `
<page name="settings"><element/></page>
<page name="main"><element/></page>`
	doc := mustCompile(t, markup)

	got := doc.Pages()
	if len(got) != 2 || got[0] != "settings" || got[1] != "main" {
		t.Fatalf("pages = %v, want [settings main]", got)
	}
	if p, ok := doc.Page(""); !ok || p.Name != "settings" {
		t.Errorf("default page = %v, want the first declared", p)
	}
	if _, ok := doc.Page("nope"); ok {
		t.Error("unknown page reported ok")
	}
}

func TestCompileStyleVocabulary(t *testing.T) {
	const markup = `
<page name="main">
  <element id="panel">
    <element-config>
      <direction is="ttb"/>
      <width-fixed at="200"/>
      <height-fit min="50" max="400"/>
      <padding-all is="10"/>
      <padding-left is="20"/>
      <child-gap is="6"/>
      <color is="#336699"/>
      <radius-all is="4"/>
      <border-all is="1"/>
      <border-color is="#000000"/>
      <hovered><color is="#6699cc"/></hovered>
      <clicked emit="PanelTapped"><color is="#d0d0d0"/></clicked>
    </element-config>
  </element>
</page>`
	doc := mustCompile(t, markup)
	page, _ := doc.Page("main")
	n := page.Nodes[0]

	st := n.Style.Base
	if st.Direction != TopToBottom {
		t.Error("direction not ttb")
	}
	if st.Width.Mode != SizeFixed || st.Width.Value != 200 {
		t.Errorf("width = %+v, want fixed 200", st.Width)
	}
	if st.Height.Mode != SizeFit || st.Height.Min != 50 || st.Height.Max != 400 {
		t.Errorf("height = %+v, want fit clamped [50,400]", st.Height)
	}
	if st.Padding != (Padding{Top: 10, Bottom: 10, Left: 20, Right: 10}) {
		t.Errorf("padding = %+v, later command must win on the left", st.Padding)
	}
	if st.Gap != 6 {
		t.Errorf("gap = %v", st.Gap)
	}
	if !st.HasBackground || st.Background != (Color{R: 0x33, G: 0x66, B: 0x99, A: 255}) {
		t.Errorf("background = %+v", st.Background)
	}
	if st.Radius.TopLeft != 4 || st.Border.Top != 1 {
		t.Errorf("radius/border = %+v / %+v", st.Radius, st.Border)
	}

	if n.Style.Hovered == nil || n.Style.Hovered.Background.R != 0x66 {
		t.Error("hovered override missing or wrong")
	}
	// The override inherits everything configured before the block opened.
	if n.Style.Hovered.Padding.Left != 20 || n.Style.Hovered.Width.Value != 200 {
		t.Errorf("hovered did not snapshot the base: %+v", n.Style.Hovered)
	}
	if n.Style.Clicked == nil || n.Style.Clicked.Background.R != 0xd0 {
		t.Error("clicked override missing or wrong")
	}
	if n.Style.ClickEvent != keyRef("PanelTapped") {
		t.Errorf("click event = %+v", n.Style.ClickEvent)
	}
}

func TestCompileTextConfig(t *testing.T) {
	const markup = `
<page name="main">
  <text-element>
    <text-config>
      <font-size is="22"/>
      <line-height is="28"/>
      <text-align-center/>
      <color is="#ffffff"/>
      <content>Hello</content>
    </text-config>
  </text-element>
</page>`
	doc := mustCompile(t, markup)
	page, _ := doc.Page("main")
	n := page.Nodes[0]

	if n.Kind != nodeText {
		t.Fatalf("node kind = %v, want text", n.Kind)
	}
	if n.Text.FontSize != 22 || n.Text.LineHeight != 28 || n.Text.Align != AlignCenter {
		t.Errorf("text style = %+v", n.Text)
	}
	if n.Text.Color != (Color{R: 255, G: 255, B: 255, A: 255}) {
		t.Errorf("text color = %+v", n.Text.Color)
	}
	if n.Content != litRef("Hello") {
		t.Errorf("content = %+v, want literal Hello", n.Content)
	}
}

func TestCompileConditionalAttributes(t *testing.T) {
	const markup = `
<page name="main">
  <element id="yes" if="flag"/>
  <element id="no" if-not="flag"/>
</page>`
	doc := mustCompile(t, markup)
	page, _ := doc.Page("main")

	if len(page.Nodes) != 2 {
		t.Fatalf("got %d nodes", len(page.Nodes))
	}
	pos, neg := page.Nodes[0], page.Nodes[1]
	if pos.Kind != nodeCond || pos.Predicate != "flag" || pos.Negate {
		t.Errorf("if node = %+v", pos)
	}
	if neg.Kind != nodeCond || !neg.Negate {
		t.Errorf("if-not node = %+v", neg)
	}
	if pos.Children[0].ID != "yes" {
		t.Error("conditional lost its wrapped element")
	}
}
