package cosmic

import (
	"encoding"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"
)

// entry is one key/value pair of an object-valued parameter or body.
type entry struct {
	key   string
	value any
}

// isUnset reports whether v means "omit": a nil interface or a nil
// pointer, map, slice, or interface value.
func isUnset(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

// deref follows pointers until it reaches a non-pointer value.
// A nil pointer yields nil.
func deref(v any) any {
	for v != nil {
		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Pointer {
			return v
		}
		if rv.IsNil() {
			return nil
		}
		v = rv.Elem().Interface()
	}
	return v
}

// asList returns the elements of a slice or array value.
// Byte slices are scalars, not lists.
func asList(v any) ([]any, bool) {
	if v == nil {
		return nil, false
	}
	if _, ok := v.([]byte); ok {
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	items := make([]any, rv.Len())
	for i := range items {
		items[i] = deref(rv.Index(i).Interface())
	}
	return items, true
}

// asObject returns the entries of a string-keyed map (sorted by key) or of a
// struct (in field order, named by json tags). Values that are unset, and
// zero values of omitempty fields, are skipped.
func asObject(v any) ([]entry, bool) {
	if v == nil {
		return nil, false
	}
	if _, ok := v.(time.Time); ok {
		return nil, false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		keys := make([]string, 0, rv.Len())
		for _, k := range rv.MapKeys() {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		entries := make([]entry, 0, len(keys))
		for _, k := range keys {
			val := rv.MapIndex(reflect.ValueOf(k).Convert(rv.Type().Key())).Interface()
			if isUnset(val) {
				continue
			}
			entries = append(entries, entry{key: k, value: deref(val)})
		}
		return entries, true
	case reflect.Struct:
		return structEntries(rv), true
	}
	return nil, false
}

func structEntries(rv reflect.Value) []entry {
	rt := rv.Type()
	entries := make([]entry, 0, rt.NumField())
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}
		name, omitEmpty, skip := jsonFieldName(field)
		if skip {
			continue
		}
		fv := rv.Field(i)
		if omitEmpty && fv.IsZero() {
			continue
		}
		val := fv.Interface()
		if isUnset(val) {
			continue
		}
		entries = append(entries, entry{key: name, value: deref(val)})
	}
	return entries
}

func jsonFieldName(field reflect.StructField) (name string, omitEmpty, skip bool) {
	tag := field.Tag.Get("json")
	if tag == "-" {
		return "", false, true
	}
	name, opts, _ := strings.Cut(tag, ",")
	if name == "" {
		name = field.Name
	}
	return name, strings.Contains(opts, "omitempty") || strings.Contains(opts, "omitzero"), false
}

// stringify renders a scalar the way it appears on the wire.
func stringify(v any) string {
	switch x := deref(v).(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case int8, int16, int32, int64:
		return strconv.FormatInt(reflect.ValueOf(x).Int(), 10)
	case uint, uint8, uint16, uint32, uint64:
		return strconv.FormatUint(reflect.ValueOf(x).Uint(), 10)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case time.Time:
		return x.Format(time.RFC3339)
	case fmt.Stringer:
		return x.String()
	case encoding.TextMarshaler:
		if b, err := x.MarshalText(); err == nil {
			return string(b)
		}
	}
	v = deref(v)
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.String {
		return rv.String()
	}
	return fmt.Sprint(v)
}

func stringifyAll(items []any) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = stringify(item)
	}
	return out
}

// toInt64 converts a numeric or numeric-string value to int64.
func toInt64(v any) (int64, error) {
	switch x := deref(v).(type) {
	case nil:
		return 0, nil
	case string:
		return strconv.ParseInt(x, 10, 64)
	case float32:
		return int64(x), nil
	case float64:
		return int64(x), nil
	}
	rv := reflect.ValueOf(deref(v))
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(rv.Uint()), nil
	}
	return 0, fmt.Errorf("cannot use %T as a number", v)
}
