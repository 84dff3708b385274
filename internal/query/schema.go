// Package query builds migas GraphQL request text from static parameter
// schemas and normalizes the responses that come back.
package query

// Kind selects how a leaf parameter value is serialized.
type Kind int

const (
	// FreeText values are rendered as quoted, escaped strings.
	FreeText Kind = iota + 1
	// Literal values are rendered verbatim (booleans, enums, null).
	Literal
)

func (k Kind) String() string {
	switch k {
	case FreeText:
		return "free"
	case Literal:
		return "literal"
	default:
		return "unknown"
	}
}

// Param is one entry of a Schema. It is a leaf when Group is nil and a
// nested argument object otherwise.
type Param struct {
	Name  string
	Kind  Kind
	Group Schema
}

// IsGroup reports whether p holds nested parameters.
func (p Param) IsGroup() bool {
	return p.Group != nil
}

// Schema is an ordered list of parameters. Build emits arguments in this
// order. Schemas are defined once and never modified.
type Schema []Param

// Leaf declares a single parameter of the given kind.
func Leaf(name string, kind Kind) Param {
	return Param{Name: name, Kind: kind}
}

// Group declares a nested argument object.
func Group(name string, params ...Param) Param {
	if params == nil {
		params = Schema{}
	}
	return Param{Name: name, Group: Schema(params)}
}

// Names returns the leaf parameter names of s, depth first, with nested
// names prefixed by their group ("ctx.user_id").
func (s Schema) Names() []string {
	var names []string
	for _, p := range s {
		if p.IsGroup() {
			for _, n := range p.Group.Names() {
				names = append(names, p.Name+"."+n)
			}
			continue
		}
		names = append(names, p.Name)
	}
	return names
}

// Values maps parameter names to the values supplied at call time. Group
// parameters may be given as a nested map or flattened into the top level.
type Values map[string]any

// Merge returns a new Values with the entries of each layer applied in
// order, so later layers win. Nil layers are skipped.
func Merge(layers ...Values) Values {
	out := Values{}
	for _, l := range layers {
		for k, v := range l {
			out[k] = v
		}
	}
	return out
}
