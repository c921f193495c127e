package cosmic

import "iter"

// Style is an OpenAPI parameter serialization style.
type Style string

const (
	StyleNone           Style = "none"
	StyleSimple         Style = "simple"
	StyleLabel          Style = "label"
	StyleMatrix         Style = "matrix"
	StyleForm           Style = "form"
	StyleSpaceDelimited Style = "spaceDelimited"
	StylePipeDelimited  Style = "pipeDelimited"
	StyleDeepObject     Style = "deepObject"
)

// PaginationRole marks the parameter a pager mutates when advancing pages.
// A parameter has at most one role.
type PaginationRole int

const (
	RoleNone PaginationRole = iota
	RoleLimit
	RoleOffset
	RoleCursor
)

func (r PaginationRole) String() string {
	switch r {
	case RoleLimit:
		return "limit"
	case RoleOffset:
		return "offset"
	case RoleCursor:
		return "cursor"
	default:
		return "none"
	}
}

// Parameter is a single named value plus its serialization metadata.
type Parameter struct {
	Key     string
	Value   any
	Style   Style
	Explode bool
	Encode  bool
	Role    PaginationRole
}

// ParamOption overrides the location defaults of a parameter.
type ParamOption func(*Parameter)

// WithStyle sets the serialization style.
func WithStyle(s Style) ParamOption {
	return func(p *Parameter) { p.Style = s }
}

// WithExplode sets whether composite values render as repeated parameters.
func WithExplode(explode bool) ParamOption {
	return func(p *Parameter) { p.Explode = explode }
}

// WithEncode sets whether query and form renderings are percent-encoded.
func WithEncode(encode bool) ParamOption {
	return func(p *Parameter) { p.Encode = encode }
}

// AsLimit marks the parameter as the page-size limit.
func AsLimit() ParamOption {
	return func(p *Parameter) { p.Role = RoleLimit }
}

// AsOffset marks the parameter as the page offset.
func AsOffset() ParamOption {
	return func(p *Parameter) { p.Role = RoleOffset }
}

// AsCursor marks the parameter as the page cursor.
func AsCursor() ParamOption {
	return func(p *Parameter) { p.Role = RoleCursor }
}

func newParameter(key string, value any, style Style, explode bool, opts []ParamOption) Parameter {
	p := Parameter{
		Key:     key,
		Value:   value,
		Style:   style,
		Explode: explode,
		Encode:  true,
	}
	for _, o := range opts {
		o(&p)
	}
	if p.Style == "" {
		p.Style = style
	}
	return p
}

// Params is an insertion-ordered set of parameters keyed by name.
// The zero value is empty and ready to use.
type Params struct {
	keys  []string
	byKey map[string]Parameter
}

// Set stores p, replacing any parameter with the same key in place.
func (ps *Params) Set(p Parameter) {
	if ps.byKey == nil {
		ps.byKey = make(map[string]Parameter)
	}
	if _, ok := ps.byKey[p.Key]; !ok {
		ps.keys = append(ps.keys, p.Key)
	}
	ps.byKey[p.Key] = p
}

// add stores p unless its value is unset. Parameters carrying a pagination
// role are kept even when unset so a pager can fill them in later; the
// serializers still omit them until then.
func (ps *Params) add(p Parameter) {
	if isUnset(p.Value) && p.Role == RoleNone {
		return
	}
	ps.Set(p)
}

// Get returns the parameter stored under key.
func (ps *Params) Get(key string) (Parameter, bool) {
	p, ok := ps.byKey[key]
	return p, ok
}

// Delete removes the parameter stored under key.
func (ps *Params) Delete(key string) {
	if _, ok := ps.byKey[key]; !ok {
		return
	}
	delete(ps.byKey, key)
	for i, k := range ps.keys {
		if k == key {
			ps.keys = append(ps.keys[:i:i], ps.keys[i+1:]...)
			break
		}
	}
}

// Len returns the number of parameters.
func (ps *Params) Len() int { return len(ps.keys) }

// All iterates parameters in insertion order.
func (ps *Params) All() iter.Seq[Parameter] {
	return func(yield func(Parameter) bool) {
		for _, k := range ps.keys {
			if !yield(ps.byKey[k]) {
				return
			}
		}
	}
}

// Values returns the raw value of every set parameter, keyed by name.
func (ps *Params) Values() map[string]any {
	out := make(map[string]any, len(ps.keys))
	for p := range ps.All() {
		if !isUnset(p.Value) {
			out[p.Key] = p.Value
		}
	}
	return out
}

// Clone returns an independent copy.
func (ps *Params) Clone() Params {
	out := Params{
		keys:  append([]string(nil), ps.keys...),
		byKey: make(map[string]Parameter, len(ps.byKey)),
	}
	for k, v := range ps.byKey {
		out.byKey[k] = v
	}
	return out
}

// withRole returns the first parameter carrying role.
func (ps *Params) withRole(role PaginationRole) (Parameter, bool) {
	for p := range ps.All() {
		if p.Role == role {
			return p, true
		}
	}
	return Parameter{}, false
}
