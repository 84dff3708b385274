package query

import (
	"fmt"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
)

// Check parses request as a GraphQL executable document and reports syntax
// errors. It does not validate against any server schema.
func Check(request string) error {
	_, err := parser.ParseQuery(&ast.Source{Name: "request", Input: request})
	if err != nil {
		return fmt.Errorf("query: invalid request: %w", err)
	}
	return nil
}
