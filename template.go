package weft

// Compiled template representation. A Document is immutable once Compile
// returns; hot reload produces a brand-new Document that the engine swaps
// in atomically. Nothing in this file mutates after compilation.

type nodeKind uint8

const (
	nodeElement nodeKind = iota
	nodeText
	nodeList
	nodeCond
	nodeUse // only present before reusable expansion
)

// Node is one template node. Which fields are meaningful depends on Kind;
// the variants are kept in one struct so the tree can be cloned and walked
// without type switches on interfaces.
type Node struct {
	Kind nodeKind

	// element
	ID       string
	Style    StyleSet
	Children []*Node

	// text
	Text    TextStyle
	Content Ref

	// list
	SourceKey string
	Bindings  map[string]binding

	// conditional: Children[0] is the body
	Predicate string
	Negate    bool

	// use, pre-expansion only
	UseName   string
	Overrides map[string]Ref
}

// Page is one named page of a compilation unit: an ordered sequence of root
// nodes laid out against the viewport.
type Page struct {
	Name  string
	Nodes []*Node
}

// Document is a compiled, fully expanded template: every reusable reference
// is inlined and every local parameter is substituted.
type Document struct {
	pages map[string]*Page
	order []string // declaration order; first page is the default
}

// Page returns the named page, or the first declared page when name is
// empty. ok is false when the document has no such page.
func (d *Document) Page(name string) (*Page, bool) {
	if name == "" {
		if len(d.order) == 0 {
			return nil, false
		}
		name = d.order[0]
	}
	p, ok := d.pages[name]
	return p, ok
}

// Pages returns page names in declaration order.
func (d *Document) Pages() []string {
	out := make([]string, len(d.order))
	copy(out, d.order)
	return out
}

// param is one declared local of a reusable.
type param struct {
	name       string
	def        string
	hasDefault bool
}

// reusable is a named template fragment prior to expansion. The body may
// itself contain use nodes; uses records them for cycle detection.
type reusable struct {
	name   string
	params []param
	nodes  []*Node
	uses   []string
}

// detectCycles walks the reusable-reference graph and fails on the first
// cycle found, naming the reusable that closes it.
func detectCycles(reusables map[string]*reusable) error {
	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	state := make(map[string]int, len(reusables))

	var visit func(name string) error
	visit = func(name string) error {
		switch state[name] {
		case visiting:
			return &CompileError{Code: ErrCyclicReuse, Name: name}
		case done:
			return nil
		}
		state[name] = visiting
		r := reusables[name]
		for _, used := range r.uses {
			if _, ok := reusables[used]; !ok {
				return &CompileError{Code: ErrUnknownReusable, Name: used}
			}
			if err := visit(used); err != nil {
				return err
			}
		}
		state[name] = done
		return nil
	}

	for name := range reusables {
		if err := visit(name); err != nil {
			return err
		}
	}
	return nil
}

// locals is the substitution context while expanding one reusable body.
type locals struct {
	params map[string]param
	values map[string]Ref
}

func (lc *locals) isParam(name string) bool {
	if lc == nil {
		return false
	}
	_, ok := lc.params[name]
	return ok
}

// substRef rewrites a dynamic ref that names a declared parameter into the
// value bound at the use site. Unbound parameters with no default fail.
func (lc *locals) substRef(r Ref) (Ref, error) {
	if lc == nil || !r.Dynamic || !lc.isParam(r.Key) {
		return r, nil
	}
	if v, ok := lc.values[r.Key]; ok {
		return v, nil
	}
	return Ref{}, &CompileError{Code: ErrUnboundLocal, Name: r.Key}
}

// substKey is substRef for plain key fields (predicates, list sources,
// dynamic style keys). A parameter may be bound to a literal, so the caller
// decides how literals are absorbed.
func (lc *locals) substKey(key string) (Ref, bool, error) {
	if lc == nil || key == "" || !lc.isParam(key) {
		return Ref{}, false, nil
	}
	if v, ok := lc.values[key]; ok {
		return v, true, nil
	}
	return Ref{}, false, &CompileError{Code: ErrUnboundLocal, Name: key}
}

// expandNodes deep-copies nodes, inlining use nodes and substituting
// declared parameters. A use expands to its reusable's body, so one node
// may expand to several.
func expandNodes(nodes []*Node, reusables map[string]*reusable, lc *locals) ([]*Node, error) {
	out := make([]*Node, 0, len(nodes))
	for _, n := range nodes {
		expanded, err := expandNode(n, reusables, lc)
		if err != nil {
			return nil, err
		}
		out = append(out, expanded...)
	}
	return out, nil
}

func expandNode(n *Node, reusables map[string]*reusable, lc *locals) ([]*Node, error) {
	if n.Kind == nodeUse {
		r, ok := reusables[n.UseName]
		if !ok {
			return nil, &CompileError{Code: ErrUnknownReusable, Name: n.UseName}
		}
		inner := &locals{
			params: make(map[string]param, len(r.params)),
			values: make(map[string]Ref, len(n.Overrides)),
		}
		for _, p := range r.params {
			inner.params[p.name] = p
			if p.hasDefault {
				inner.values[p.name] = litRef(p.def)
			}
		}
		for name, ref := range n.Overrides {
			// Overrides referencing the surrounding scope's parameters are
			// resolved before binding them into the inner scope.
			resolved, err := lc.substRef(ref)
			if err != nil {
				return nil, err
			}
			inner.values[name] = resolved
		}
		return expandNodes(r.nodes, reusables, inner)
	}

	cp := *n
	var err error

	switch n.Kind {
	case nodeElement:
		if err = expandStyleSet(&cp.Style, lc); err != nil {
			return nil, err
		}
	case nodeText:
		if cp.Content, err = lc.substRef(n.Content); err != nil {
			return nil, err
		}
	case nodeList:
		if ref, ok, err := lc.substKey(n.SourceKey); err != nil {
			return nil, err
		} else if ok {
			if !ref.Dynamic {
				return nil, &CompileError{Code: ErrBadValue, Name: n.SourceKey, Detail: "list source bound to a literal"}
			}
			cp.SourceKey = ref.Key
		}
		cp.Bindings = make(map[string]binding, len(n.Bindings))
		for name, b := range n.Bindings {
			if ref, ok, err := lc.substKey(b.from); err != nil {
				return nil, err
			} else if ok && ref.Dynamic {
				b.from = ref.Key
			}
			cp.Bindings[name] = b
		}
	case nodeCond:
		if ref, ok, err := lc.substKey(n.Predicate); err != nil {
			return nil, err
		} else if ok {
			if !ref.Dynamic {
				// Literal bool override: the branch is decided at compile
				// time. True unwraps the body, false drops the subtree.
				keep := ref.Lit == "true"
				if n.Negate {
					keep = !keep
				}
				if !keep {
					return nil, nil
				}
				return expandNodes(n.Children, reusables, lc)
			}
			cp.Predicate = ref.Key
		}
	}

	cp.Children, err = expandNodes(n.Children, reusables, lc)
	if err != nil {
		return nil, err
	}
	if cp.Kind == nodeCond && len(cp.Children) == 0 {
		// The conditional's body itself expanded to nothing.
		return nil, nil
	}
	return []*Node{&cp}, nil
}

func expandStyleSet(s *StyleSet, lc *locals) error {
	var err error
	if s.ClickEvent, err = lc.substRef(s.ClickEvent); err != nil {
		return err
	}
	if err = expandStyle(&s.Base, lc); err != nil {
		return err
	}
	if s.Hovered != nil {
		cp := *s.Hovered
		if err = expandStyle(&cp, lc); err != nil {
			return err
		}
		s.Hovered = &cp
	}
	if s.Clicked != nil {
		cp := *s.Clicked
		if err = expandStyle(&cp, lc); err != nil {
			return err
		}
		s.Clicked = &cp
	}
	return nil
}

// expandStyle rewrites data-driven style keys that name parameters.
// Literal overrides are absorbed into the static fields.
func expandStyle(st *Style, lc *locals) error {
	if ref, ok, err := lc.substKey(st.BackgroundKey); err != nil {
		return err
	} else if ok {
		if ref.Dynamic {
			st.BackgroundKey = ref.Key
		} else {
			c, perr := ParseColor(ref.Lit)
			if perr != nil {
				return &CompileError{Code: ErrBadValue, Name: st.BackgroundKey, Detail: perr.Error()}
			}
			st.Background = c
			st.HasBackground = true
			st.BackgroundKey = ""
		}
	}
	if ref, ok, err := lc.substKey(st.Border.ColorKey); err != nil {
		return err
	} else if ok {
		if ref.Dynamic {
			st.Border.ColorKey = ref.Key
		} else {
			c, perr := ParseColor(ref.Lit)
			if perr != nil {
				return &CompileError{Code: ErrBadValue, Name: st.Border.ColorKey, Detail: perr.Error()}
			}
			st.Border.Color = c
			st.Border.ColorKey = ""
		}
	}
	if err := expandSizeAxis(&st.Width, lc); err != nil {
		return err
	}
	return expandSizeAxis(&st.Height, lc)
}

func expandSizeAxis(a *SizeAxis, lc *locals) error {
	ref, ok, err := lc.substKey(a.Key)
	if err != nil || !ok {
		return err
	}
	if ref.Dynamic {
		a.Key = ref.Key
		return nil
	}
	v, perr := parseFloat(ref.Lit)
	if perr != nil {
		return &CompileError{Code: ErrBadValue, Name: a.Key, Detail: perr.Error()}
	}
	a.Value = v
	a.Key = ""
	return nil
}
