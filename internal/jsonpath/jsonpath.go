// Package jsonpath walks a key path through a decoded JSON document.
package jsonpath

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Lookup follows path through v. Object steps use the key; array steps use
// a decimal index. Values that are not generic JSON (structs, typed maps and
// slices) are normalized through encoding/json first, so struct fields are
// addressed by their json names.
//
// found is false when a step is missing or runs into null. An empty path
// returns v itself.
func Lookup(v any, path []string) (value any, found bool, err error) {
	cur, err := normalize(v)
	if err != nil {
		return nil, false, err
	}
	for _, key := range path {
		switch node := cur.(type) {
		case map[string]any:
			next, ok := node[key]
			if !ok {
				return nil, false, nil
			}
			cur = next
		case []any:
			i, err := strconv.Atoi(key)
			if err != nil || i < 0 || i >= len(node) {
				return nil, false, nil
			}
			cur = node[i]
		default:
			return nil, false, nil
		}
		if cur == nil {
			return nil, false, nil
		}
	}
	return cur, true, nil
}

func normalize(v any) (any, error) {
	switch v.(type) {
	case nil, map[string]any, []any, string, bool, float64:
		return v, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("jsonpath: normalize %T: %w", v, err)
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("jsonpath: normalize %T: %w", v, err)
	}
	return out, nil
}
