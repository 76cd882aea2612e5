package weft

import "fmt"

// DataSource is the read-only view the host exposes to the engine each
// frame. The engine never retains it past the frame boundary and never
// inspects the host's internal representation.
//
// The second return reports whether the key resolved. Missing keys are not
// fatal: the solver substitutes a zero value and records a Diagnostic on
// the frame.
type DataSource interface {
	// Text resolves a string value.
	Text(key string) (string, bool)
	// Bool resolves a boolean value.
	Bool(key string) (bool, bool)
	// List resolves an ordered sequence of per-item contexts. Item order is
	// the instantiation order of list bodies and the basis of stable ids.
	List(key string) ([]DataSource, bool)
	// EventName resolves the name of the event to emit for a bound handler.
	EventName(key string) (string, bool)
}

// NumberSource is an optional DataSource upgrade for data-driven sizes
// (width-fixed from=...).
type NumberSource interface {
	Number(key string) (float32, bool)
}

// ColorSource is an optional DataSource upgrade for data-driven colors
// (dyn-color from=...).
type ColorSource interface {
	ColorVal(key string) (Color, bool)
}

// Diagnostic records a binding failure that was recovered with a fallback
// value. The frame completes regardless.
type Diagnostic struct {
	Key  string
	Want string // "text", "bool", "list", "event", "number", "color"
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("unbound %s key %q", d.Want, d.Key)
}

// MapSource is a map-backed DataSource for tests, demos and hosts whose
// state is already key-value shaped. Values are converted loosely:
// text accepts string and fmt.Stringer, bool accepts bool, lists accept
// []MapSource, []DataSource or []map[string]any.
type MapSource map[string]any

var _ DataSource = MapSource(nil)
var _ NumberSource = MapSource(nil)
var _ ColorSource = MapSource(nil)

func (m MapSource) Text(key string) (string, bool) {
	switch v := m[key].(type) {
	case string:
		return v, true
	case fmt.Stringer:
		return v.String(), true
	}
	return "", false
}

func (m MapSource) Bool(key string) (bool, bool) {
	v, ok := m[key].(bool)
	return v, ok
}

func (m MapSource) List(key string) ([]DataSource, bool) {
	switch v := m[key].(type) {
	case []DataSource:
		return v, true
	case []MapSource:
		out := make([]DataSource, len(v))
		for i, item := range v {
			out[i] = item
		}
		return out, true
	case []map[string]any:
		out := make([]DataSource, len(v))
		for i, item := range v {
			out[i] = MapSource(item)
		}
		return out, true
	case []any:
		out := make([]DataSource, 0, len(v))
		for _, raw := range v {
			switch item := raw.(type) {
			case DataSource:
				out = append(out, item)
			case map[string]any:
				out = append(out, MapSource(item))
			default:
				return nil, false
			}
		}
		return out, true
	}
	return nil, false
}

func (m MapSource) EventName(key string) (string, bool) {
	v, ok := m[key].(string)
	return v, ok
}

func (m MapSource) Number(key string) (float32, bool) {
	switch v := m[key].(type) {
	case float32:
		return v, true
	case float64:
		return float32(v), true
	case int:
		return float32(v), true
	}
	return 0, false
}

func (m MapSource) ColorVal(key string) (Color, bool) {
	switch v := m[key].(type) {
	case Color:
		return v, true
	case string:
		c, err := ParseColor(v)
		if err != nil {
			return Color{}, false
		}
		return c, true
	}
	return Color{}, false
}

// binding maps a list-local name onto a key in the item context.
type binding struct {
	kind bindKind
	from string
}

type bindKind uint8

const (
	bindText bindKind = iota
	bindBool
	bindEvent
	bindNumber
	bindColor
)

// scope chains list-local bindings over the frame's root data source.
// Lookups walk inner scopes first; unbound names fall through to the host
// data; misses record a diagnostic and return the zero value.
type scope struct {
	parent   *scope
	item     DataSource
	bindings map[string]binding
	suffix   string // accumulated list-index suffix for declared ids
}

func (sc *scope) resolve(key string, kind bindKind) (DataSource, string, bool) {
	for s := sc; s != nil; s = s.parent {
		if b, ok := s.bindings[key]; ok && b.kind == kind {
			return s.item, b.from, true
		}
	}
	return nil, "", false
}

// lookup helpers used by the solver; each records a diagnostic on miss.

func (f *Frame) lookupText(data DataSource, sc *scope, key string) string {
	if src, from, ok := sc.resolve(key, bindText); ok {
		if v, ok := src.Text(from); ok {
			return v
		}
		f.diag(from, "text")
		return ""
	}
	if v, ok := data.Text(key); ok {
		return v
	}
	f.diag(key, "text")
	return ""
}

func (f *Frame) lookupBool(data DataSource, sc *scope, key string) bool {
	if src, from, ok := sc.resolve(key, bindBool); ok {
		if v, ok := src.Bool(from); ok {
			return v
		}
		f.diag(from, "bool")
		return false
	}
	if v, ok := data.Bool(key); ok {
		return v
	}
	f.diag(key, "bool")
	return false
}

func (f *Frame) lookupList(data DataSource, sc *scope, key string) []DataSource {
	if v, ok := data.List(key); ok {
		return v
	}
	f.diag(key, "list")
	return nil
}

func (f *Frame) lookupEvent(data DataSource, sc *scope, key string) string {
	if src, from, ok := sc.resolve(key, bindEvent); ok {
		if v, ok := src.EventName(from); ok {
			return v
		}
		f.diag(from, "event")
		return ""
	}
	if v, ok := data.EventName(key); ok {
		return v
	}
	f.diag(key, "event")
	return ""
}

func (f *Frame) lookupNumber(data DataSource, sc *scope, key string) float32 {
	if src, from, ok := sc.resolve(key, bindNumber); ok {
		if ns, ok := src.(NumberSource); ok {
			if v, ok := ns.Number(from); ok {
				return v
			}
		}
		f.diag(from, "number")
		return 0
	}
	if ns, ok := data.(NumberSource); ok {
		if v, ok := ns.Number(key); ok {
			return v
		}
	}
	f.diag(key, "number")
	return 0
}

func (f *Frame) lookupColor(data DataSource, sc *scope, key string) Color {
	if src, from, ok := sc.resolve(key, bindColor); ok {
		if cs, ok := src.(ColorSource); ok {
			if v, ok := cs.ColorVal(from); ok {
				return v
			}
		}
		f.diag(from, "color")
		return Color{}
	}
	if cs, ok := data.(ColorSource); ok {
		if v, ok := cs.ColorVal(key); ok {
			return v
		}
	}
	f.diag(key, "color")
	return Color{}
}

func (f *Frame) diag(key, want string) {
	f.Diagnostics = append(f.Diagnostics, Diagnostic{Key: key, Want: want})
}
