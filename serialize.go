package cosmic

import (
	"net/url"
	"strings"
)

// encodeComponent percent-encodes s for use as a query key or value.
// Spaces become %20 rather than '+'.
func encodeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

func (p Parameter) escape(s string) string {
	if p.Encode {
		return encodeComponent(s)
	}
	return s
}

// serializeValue renders p according to its style.
func serializeValue(p Parameter) string {
	text, _ := render(p)
	return text
}

// render renders p and reports whether the result already carries the
// parameter key (form-family renderings do, simple renderings do not).
func render(p Parameter) (text string, keyed bool) {
	v := deref(p.Value)
	if items, ok := asList(v); ok {
		return renderList(p, stringifyAll(items))
	}
	if entries, ok := asObject(v); ok {
		return renderObject(p, entries)
	}
	s := stringify(v)
	switch p.Style {
	case StyleLabel:
		return "." + s, false
	case StyleMatrix:
		return ";" + p.Key + "=" + s, false
	case StyleForm:
		return p.escape(p.Key) + "=" + p.escape(s), true
	default:
		return s, false
	}
}

func renderList(p Parameter, items []string) (string, bool) {
	switch p.Style {
	case StyleSimple:
		return strings.Join(items, ","), false
	case StyleLabel:
		if p.Explode {
			return "." + strings.Join(items, "."), false
		}
		return "." + strings.Join(items, ","), false
	case StyleMatrix:
		if p.Explode {
			var b strings.Builder
			for _, item := range items {
				b.WriteString(";" + p.Key + "=" + item)
			}
			return b.String(), false
		}
		return ";" + p.Key + "=" + strings.Join(items, ","), false
	case StyleForm:
		if p.Explode {
			return repeatPairs(p, items), true
		}
		return p.escape(p.Key) + "=" + joinEscaped(p, items, ","), true
	case StyleSpaceDelimited:
		if p.Explode {
			return repeatPairs(p, items), true
		}
		sep := " "
		if p.Encode {
			sep = "%20"
		}
		return p.escape(p.Key) + "=" + joinEscaped(p, items, sep), true
	case StylePipeDelimited:
		if p.Explode {
			return repeatPairs(p, items), true
		}
		return p.escape(p.Key) + "=" + joinEscaped(p, items, "|"), true
	case StyleDeepObject:
		return repeatPairs(p, items), true
	default:
		return strings.Join(items, ","), false
	}
}

func renderObject(p Parameter, entries []entry) (string, bool) {
	switch p.Style {
	case StyleSimple:
		return joinEntries(entries, "=", ",", p.Explode), false
	case StyleLabel:
		if p.Explode {
			return "." + joinEntries(entries, "=", ".", true), false
		}
		return "." + joinEntries(entries, "", ",", false), false
	case StyleMatrix:
		if p.Explode {
			return ";" + joinEntries(entries, "=", ";", true), false
		}
		return ";" + p.Key + "=" + joinEntries(entries, "", ",", false), false
	case StyleForm:
		if p.Explode {
			return escapedPairs(p, entries, ""), true
		}
		flat := make([]string, 0, len(entries)*2)
		for _, e := range entries {
			flat = append(flat, e.key, stringify(e.value))
		}
		return p.escape(p.Key) + "=" + joinEscaped(p, flat, ","), true
	case StyleDeepObject:
		return escapedPairs(p, entries, p.Key), true
	default:
		return escapedPairs(p, entries, ""), true
	}
}

func repeatPairs(p Parameter, items []string) string {
	pairs := make([]string, len(items))
	key := p.escape(p.Key)
	for i, item := range items {
		pairs[i] = key + "=" + p.escape(item)
	}
	return strings.Join(pairs, "&")
}

func joinEscaped(p Parameter, items []string, sep string) string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = p.escape(item)
	}
	return strings.Join(out, sep)
}

// escapedPairs renders entries as key=value pairs joined by '&'. A non-empty
// prefix produces deep-object keys: prefix[key]=value.
func escapedPairs(p Parameter, entries []entry, prefix string) string {
	pairs := make([]string, len(entries))
	for i, e := range entries {
		key := p.escape(e.key)
		if prefix != "" {
			key = p.escape(prefix) + "[" + key + "]"
		}
		pairs[i] = key + "=" + p.escape(stringify(e.value))
	}
	return strings.Join(pairs, "&")
}

// joinEntries renders entries either as k<kv>v pairs (explode) or as a flat
// k,v,k,v list, joined by sep.
func joinEntries(entries []entry, kv, sep string, explode bool) string {
	parts := make([]string, 0, len(entries)*2)
	for _, e := range entries {
		if explode {
			parts = append(parts, e.key+kv+stringify(e.value))
			continue
		}
		parts = append(parts, e.key, stringify(e.value))
	}
	if explode {
		return strings.Join(parts, sep)
	}
	return strings.Join(parts, ",")
}

// SerializePath substitutes every {name} token in pattern with the rendered
// value of the matching parameter. Unset parameters are skipped, leaving
// their token in place.
func SerializePath(pattern string, params *Params) string {
	path := pattern
	for p := range params.All() {
		if isUnset(p.Value) {
			continue
		}
		token := "{" + p.Key + "}"
		if !strings.Contains(path, token) {
			continue
		}
		path = strings.ReplaceAll(path, token, serializeValue(p))
	}
	return path
}

// SerializeQuery builds "?a=1&b=2" from every set parameter in insertion
// order, or "" when there are none.
func SerializeQuery(params *Params) string {
	parts := make([]string, 0, params.Len())
	for p := range params.All() {
		if isUnset(p.Value) {
			continue
		}
		text, keyed := render(p)
		if keyed && text == "" {
			// an exploded empty list or object renders no pairs
			continue
		}
		if !keyed {
			text = p.escape(p.Key) + "=" + p.escape(text)
		}
		parts = append(parts, text)
	}
	if len(parts) == 0 {
		return ""
	}
	return "?" + strings.Join(parts, "&")
}

// SerializeHeaders renders header parameters to plain strings.
func SerializeHeaders(params *Params) map[string]string {
	out := make(map[string]string, params.Len())
	for p := range params.All() {
		if p.Key == "" || isUnset(p.Value) {
			continue
		}
		out[p.Key] = serializeValue(p)
	}
	return out
}

// SerializeCookies renders cookie parameters to plain strings. An exploded
// list renders its first element alone followed by key=value pairs for the
// rest, joined by "; ".
func SerializeCookies(params *Params) map[string]string {
	out := make(map[string]string, params.Len())
	for p := range params.All() {
		if p.Key == "" || isUnset(p.Value) {
			continue
		}
		out[p.Key] = cookieValue(p)
	}
	return out
}

func cookieValue(p Parameter) string {
	v := deref(p.Value)
	if items, ok := asList(v); ok {
		strs := stringifyAll(items)
		if !p.Explode {
			return strings.Join(strs, ",")
		}
		if len(strs) == 0 {
			return ""
		}
		parts := []string{strs[0]}
		for _, s := range strs[1:] {
			parts = append(parts, p.Key+"="+s)
		}
		return strings.Join(parts, "; ")
	}
	if entries, ok := asObject(v); ok {
		if p.Explode {
			return joinEntries(entries, "=", "; ", true)
		}
		return joinEntries(entries, "", ",", false)
	}
	return stringify(v)
}

// cookieHeader folds serialized cookies into one Cookie header value,
// preserving parameter order.
func cookieHeader(params *Params) string {
	cookies := SerializeCookies(params)
	parts := make([]string, 0, len(cookies))
	for p := range params.All() {
		if v, ok := cookies[p.Key]; ok {
			parts = append(parts, p.Key+"="+v)
		}
	}
	return strings.Join(parts, "; ")
}
