package cli

import (
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/spf13/cobra"

	"github.com/jamesprial/migas-go/internal/query"
)

func addParamFlag(cmd *cobra.Command, params *[]string) {
	cmd.Flags().StringArrayVarP(params, "param", "p", nil,
		"Extra operation parameter as key=value (repeatable; true/false become booleans, dotted keys nest: ctx.user_type=bot)")
}

// parseParams turns key=value pairs into operation values. The literals
// true and false, in any case, become booleans. A dotted key such as
// ctx.user_type=bot becomes {"ctx": {"user_type": "bot"}}.
func parseParams(pairs []string) (query.Values, error) {
	values := query.Values{}
	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid param %q: want key=value", pair)
		}

		var v any = raw
		switch {
		case strings.EqualFold(raw, "true"):
			v = true
		case strings.EqualFold(raw, "false"):
			v = false
		}

		path := strings.Split(key, ".")
		target := map[string]any(values)
		for _, seg := range path[:len(path)-1] {
			if seg == "" {
				return nil, fmt.Errorf("invalid param %q: empty key segment", pair)
			}
			next, exists := target[seg]
			if !exists {
				m := map[string]any{}
				target[seg] = m
				target = m
				continue
			}
			m, isMap := next.(map[string]any)
			if !isMap {
				return nil, fmt.Errorf("invalid param %q: %q is already a value", pair, seg)
			}
			target = m
		}

		last := path[len(path)-1]
		if last == "" {
			return nil, fmt.Errorf("invalid param %q: empty key segment", pair)
		}
		if _, isMap := target[last].(map[string]any); isMap {
			return nil, fmt.Errorf("invalid param %q: %q is already a group", pair, last)
		}
		target[last] = v
	}
	return values, nil
}

const maxSuggestionDistance = 5

func findClosest(input string, candidates []string) string {
	minDist := -1
	closest := ""
	for _, c := range candidates {
		dist := levenshtein.ComputeDistance(input, c)
		if minDist == -1 || dist < minDist {
			minDist = dist
			closest = c
		}
	}
	if minDist > maxSuggestionDistance {
		return ""
	}
	return closest
}

// lookupOperation returns the built-in operation called name, or an error
// with a "did you mean" suggestion.
func lookupOperation(name string) (query.Operation, error) {
	if op, ok := query.Lookup(name); ok {
		return op, nil
	}
	names := make([]string, 0, len(query.Operations))
	for n := range query.Operations {
		names = append(names, n)
	}
	if suggestion := findClosest(name, names); suggestion != "" {
		return query.Operation{}, fmt.Errorf("unknown operation '%s', did you mean '%s'?", name, suggestion)
	}
	return query.Operation{}, fmt.Errorf("unknown operation '%s'", name)
}
