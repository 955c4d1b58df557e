package query

import (
	"net/url"
	"sort"
	"strings"
)

// reservedKeys are pagination and projection directives, never data filters.
var reservedKeys = map[string]struct{}{
	"page":   {},
	"sort":   {},
	"limit":  {},
	"fields": {},
}

// parseParams expands bracket notation the way browsers and qs-style parsers do:
// "price[gte]=100" becomes {"price": {"gte": "100"}}, repeated keys become lists
// and "tags[]=a" appends to a list.
func parseParams(values url.Values) map[string]interface{} {
	out := make(map[string]interface{})

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		path := splitKey(key)
		if len(path) == 0 || path[0] == "" {
			continue
		}
		for _, v := range values[key] {
			assign(out, path, v)
		}
	}
	return out
}

func splitKey(key string) []string {
	open := strings.IndexByte(key, '[')
	if open <= 0 || !strings.HasSuffix(key, "]") {
		return []string{key}
	}

	path := []string{key[:open]}
	rest := key[open:]
	for len(rest) > 0 {
		if rest[0] != '[' {
			return []string{key}
		}
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			return []string{key}
		}
		path = append(path, rest[1:end])
		rest = rest[end+1:]
	}
	return path
}

func assign(node map[string]interface{}, path []string, value string) {
	head := path[0]
	if len(path) == 1 {
		node[head] = appendValue(node[head], value)
		return
	}

	if path[1] == "" {
		node[head] = appendValue(node[head], value)
		return
	}

	child, ok := node[head].(map[string]interface{})
	if !ok {
		// a scalar already sits here; the nested form wins like in qs.
		child = make(map[string]interface{})
		node[head] = child
	}
	assign(child, path[1:], value)
}

func appendValue(existing interface{}, value string) interface{} {
	switch v := existing.(type) {
	case nil:
		return value
	case string:
		return []interface{}{v, value}
	case []interface{}:
		return append(v, value)
	default:
		return value
	}
}

// firstString returns the first scalar of a parsed value, or "".
func firstString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case []interface{}:
		for _, item := range t {
			if s, ok := item.(string); ok {
				return s
			}
		}
	}
	return ""
}

// stringList flattens a parsed value into its scalar strings.
func stringList(v interface{}) []string {
	switch t := v.(type) {
	case string:
		return []string{t}
	case []interface{}:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// joinedParam returns a control parameter, joining repeated occurrences with commas.
func joinedParam(values url.Values, key string) string {
	parts := values[key]
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, ",")
}
