package query

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jamesprial/migas-go/internal/logging"
)

// scope resolves parameter names for one level of a schema. Lookups that
// miss fall through to the enclosing level, which lets callers pass group
// members either nested under the group name or flat at the top level.
type scope struct {
	values map[string]any
	parent *scope
}

func (s *scope) lookup(name string) (any, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if v, ok := cur.values[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// child returns the scope for the group called name.
func (s *scope) child(name string) *scope {
	v, ok := s.values[name]
	if !ok {
		return &scope{parent: s}
	}
	return &scope{values: asMap(v), parent: s}
}

func asMap(v any) map[string]any {
	switch m := v.(type) {
	case Values:
		return m
	case map[string]any:
		return m
	default:
		return nil
	}
}

// Build renders the argument list for schema from values, e.g.
//
//	project:"nipreps/fmriprep",ctx:{is_ci:false}
//
// Only parameters present in values are emitted, in schema order. A group is
// emitted only when at least one of its members is. Build never fails: a
// parameter with an unrecognized kind is logged and rendered with an empty
// value.
func Build(schema Schema, values Values) string {
	return build(schema, &scope{values: values})
}

func build(schema Schema, sc *scope) string {
	parts := make([]string, 0, len(schema))
	for _, p := range schema {
		if p.IsGroup() {
			nested := build(p.Group, sc.child(p.Name))
			if nested != "" {
				parts = append(parts, p.Name+":{"+nested+"}")
			}
			continue
		}

		v, ok := sc.lookup(p.Name)
		if !ok {
			continue
		}
		parts = append(parts, p.Name+":"+format(p, v))
	}
	return strings.Join(parts, ",")
}

func format(p Param, v any) string {
	if b, ok := v.(bool); ok {
		if b {
			v = "true"
		} else {
			v = "false"
		}
	}

	switch p.Kind {
	case FreeText:
		s, err := quote(v)
		if err != nil {
			logging.Logger().Warn().Err(err).Str("param", p.Name).Msg("cannot encode free text value")
			return ""
		}
		return s
	case Literal:
		if v == nil {
			return "null"
		}
		return fmt.Sprint(v)
	default:
		logging.Logger().Warn().Str("param", p.Name).Int("kind", int(p.Kind)).Msg("do not know how to handle parameter kind")
		return ""
	}
}

// quote JSON-encodes v. GraphQL string escapes are a superset of JSON's, so
// the output is a valid GraphQL string literal for string inputs.
func quote(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
