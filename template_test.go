package weft

import "testing"

func TestReusableExpansionInlinesBody(t *testing.T) {
	const markup = `
<reusable name="chip">
  <element id="chip">
    <element-config><width-fixed at="60"/><height-fixed at="24"/></element-config>
  </element>
</reusable>
<page name="main">
  <element id="row">
    <use name="chip"/>
    <use name="chip"/>
  </element>
</page>`
	doc := mustCompile(t, markup)
	page, _ := doc.Page("main")

	row := page.Nodes[0]
	if len(row.Children) != 2 {
		t.Fatalf("row has %d children after expansion, want 2", len(row.Children))
	}
	for i, c := range row.Children {
		if c.Kind != nodeElement || c.ID != "chip" {
			t.Errorf("child %d = %+v, want the inlined chip element", i, c)
		}
		if c.Style.Base.Width.Value != 60 {
			t.Errorf("child %d lost its style in expansion", i)
		}
	}
}

func TestReusableParameterSubstitution(t *testing.T) {
	const markup = `
<reusable name="label">
  <local name="text"/>
  <local name="tone" default="#888888"/>
  <element id="label">
    <element-config><dyn-color from="tone"/></element-config>
    <text-element><dyn-content from="text"/></text-element>
  </element>
</reusable>
<page name="main">
  <use name="label">
    <set-text local="text" to="Ready"/>
  </use>
  <use name="label">
    <get-text local="text" from="status"/>
    <set-color local="tone" to="#00ff00"/>
  </use>
</page>`
	doc := mustCompile(t, markup)
	page, _ := doc.Page("main")

	if len(page.Nodes) != 2 {
		t.Fatalf("page has %d nodes, want 2 expanded labels", len(page.Nodes))
	}

	// First use: literal text, default tone absorbed as a static color.
	first := page.Nodes[0]
	if got := first.Children[0].Content; got != litRef("Ready") {
		t.Errorf("literal override = %+v, want Ready", got)
	}
	if first.Style.Base.BackgroundKey != "" || first.Style.Base.Background.R != 0x88 {
		t.Errorf("default tone not absorbed: %+v", first.Style.Base)
	}

	// Second use: text forwarded to a data key, tone overridden literally.
	second := page.Nodes[1]
	if got := second.Children[0].Content; got != keyRef("status") {
		t.Errorf("forwarded override = %+v, want dynamic status", got)
	}
	if second.Style.Base.Background.G != 255 {
		t.Errorf("literal tone override not absorbed: %+v", second.Style.Base)
	}
}

func TestReusableNesting(t *testing.T) {
	const markup = `
<reusable name="inner">
  <local name="w"/>
  <element id="leaf">
    <element-config><width-fixed from="w"/><height-fixed at="10"/></element-config>
  </element>
</reusable>
<reusable name="outer">
  <local name="size" default="42"/>
  <use name="inner">
    <get-numeric local="w" from="size"/>
  </use>
</reusable>
<page name="main"><use name="outer"/></page>`
	doc := mustCompile(t, markup)
	page, _ := doc.Page("main")

	leaf := page.Nodes[0]
	if leaf.ID != "leaf" {
		t.Fatalf("expansion produced %+v", leaf)
	}
	// The outer default travels through the forwarding get-numeric and
	// lands as a static width on the innermost element.
	if leaf.Style.Base.Width.Key != "" || leaf.Style.Base.Width.Value != 42 {
		t.Errorf("width = %+v, want literal 42", leaf.Style.Base.Width)
	}
}

func TestLiteralPredicateDecidedAtCompileTime(t *testing.T) {
	const markup = `
<reusable name="panel">
  <local name="debug" default="false"/>
  <element id="body">
    <element-config><width-fixed at="10"/><height-fixed at="10"/></element-config>
  </element>
  <element id="dbg" if="debug">
    <element-config><width-fixed at="10"/><height-fixed at="10"/></element-config>
  </element>
</reusable>
<page name="main">
  <use name="panel"/>
  <use name="panel"><set-bool local="debug" to="true"/></use>
</page>`
	doc := mustCompile(t, markup)
	page, _ := doc.Page("main")

	// First instance drops the subtree entirely, second bakes it in
	// unwrapped; neither keeps a runtime conditional.
	if len(page.Nodes) != 3 {
		t.Fatalf("page has %d nodes, want 3 (body, body, dbg)", len(page.Nodes))
	}
	for i, n := range page.Nodes {
		if n.Kind == nodeCond {
			t.Errorf("node %d is still a conditional after literal baking", i)
		}
	}
	if page.Nodes[2].ID != "dbg" {
		t.Errorf("last node = %q, want the baked-in dbg element", page.Nodes[2].ID)
	}
}

func TestDetectCyclesIgnoresDiamonds(t *testing.T) {
	// a uses b and c, both of which use d: a diamond, not a cycle.
	reusables := map[string]*reusable{
		"a": {name: "a", uses: []string{"b", "c"}},
		"b": {name: "b", uses: []string{"d"}},
		"c": {name: "c", uses: []string{"d"}},
		"d": {name: "d"},
	}
	if err := detectCycles(reusables); err != nil {
		t.Errorf("diamond reported as cycle: %v", err)
	}

	reusables["d"].uses = []string{"a"}
	if err := detectCycles(reusables); err == nil {
		t.Error("cycle through the diamond not detected")
	}
}
