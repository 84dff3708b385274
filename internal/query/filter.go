package query

import "encoding/json"

// DefaultFallback returns a new copy of the response used when an operation
// defines no fallback of its own.
func DefaultFallback() map[string]any {
	return map[string]any{
		"success": false,
		"message": ErrorMessage,
	}
}

// Filter extracts the result of operation from a decoded GraphQL response.
//
// On success ({"data": {operation: {...}}}) the operation's result mapping
// is returned. Otherwise a copy of fallback is returned, with its message
// replaced by errors[0].message when the response carries one. A nil
// fallback means DefaultFallback. Filter never panics and never returns nil;
// the fallback passed in is not modified.
//
// A success value that is not a mapping (a scalar result) is returned as
// {"result": value}.
func Filter(response any, operation string, fallback map[string]any) map[string]any {
	res, _ := Result(response, operation, fallback)
	return res
}

// Result is Filter that also reports whether the response was a success.
func Result(response any, operation string, fallback map[string]any) (map[string]any, bool) {
	if len(fallback) == 0 {
		fallback = DefaultFallback()
	}

	resp := decode(response)
	if resp != nil {
		if data, ok := resp["data"].(map[string]any); ok {
			res, ok := data[operation]
			if !ok || res == nil {
				return clone(fallback), false
			}
			if m, ok := res.(map[string]any); ok {
				return m, true
			}
			return map[string]any{"result": res}, true
		}
	}

	out := clone(fallback)
	if msg, ok := firstErrorMessage(resp); ok {
		out["message"] = msg
	}
	return out, false
}

// decode returns response as a JSON object, or nil when it is anything else.
func decode(response any) map[string]any {
	switch r := response.(type) {
	case map[string]any:
		return r
	case Values:
		return r
	case json.RawMessage:
		return decodeBytes(r)
	case []byte:
		return decodeBytes(r)
	default:
		return nil
	}
}

func decodeBytes(b []byte) map[string]any {
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil
	}
	return m
}

// firstErrorMessage reads errors[0].message. Any shape mismatch reports
// false.
func firstErrorMessage(resp map[string]any) (any, bool) {
	errs, ok := resp["errors"].([]any)
	if !ok || len(errs) == 0 {
		return nil, false
	}
	first, ok := errs[0].(map[string]any)
	if !ok {
		return nil, false
	}
	msg, ok := first["message"]
	return msg, ok
}

func clone(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
