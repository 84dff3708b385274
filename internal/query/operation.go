package query

import "strings"

// OperationType is the GraphQL operation keyword.
type OperationType string

const (
	TypeQuery    OperationType = "query"
	TypeMutation OperationType = "mutation"
)

// Operation describes one migas endpoint operation.
type Operation struct {
	Type   OperationType
	Name   string
	Schema Schema
	// Selections are the result fields requested; empty for operations that
	// return a scalar.
	Selections []string
	// Fingerprint marks operations that carry auto-detected environment
	// context along with the caller's values.
	Fingerprint bool
	// Fallback replaces DefaultFallback when the response is not a success.
	Fallback map[string]any
}

// Assemble wraps an argument list into the full request text:
//
//	mutation{add_breadcrumb(project:"x"){success}}
func Assemble(op Operation, args string) string {
	var b strings.Builder
	b.WriteString(string(op.Type))
	b.WriteString("{")
	b.WriteString(op.Name)
	b.WriteString("(")
	b.WriteString(args)
	b.WriteString(")")
	if len(op.Selections) > 0 {
		b.WriteString("{")
		b.WriteString(strings.Join(op.Selections, ","))
		b.WriteString("}")
	}
	b.WriteString("}")
	return b.String()
}

// Generate builds the request text for op. When op.Fingerprint is set, the
// fingerprint values are included underneath values; explicit values always
// win over detected ones.
func (op Operation) Generate(values, fingerprint Values) string {
	merged := values
	if op.Fingerprint {
		merged = Merge(fingerprint, values)
	}
	return Assemble(op, Build(op.Schema, merged))
}

// Filter normalizes a response for this operation. See the package-level
// Filter.
func (op Operation) Filter(response any) map[string]any {
	return Filter(response, op.Name, op.Fallback)
}
