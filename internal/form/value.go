package form

import (
	"fmt"
	"strconv"
	"strings"
)

// Path addresses a location inside a form value. Elements are string keys
// for struct members and int indexes for list items.
type Path []any

// Child returns a copy of the path extended with key.
func (p Path) Child(key any) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, key)
}

// String renders the path as dotted keys with bracketed indexes, e.g.
// "hms.uris[0]".
func (p Path) String() string {
	var b strings.Builder
	for _, elem := range p {
		switch v := elem.(type) {
		case int:
			b.WriteString("[")
			b.WriteString(strconv.Itoa(v))
			b.WriteString("]")
		default:
			if b.Len() > 0 {
				b.WriteString(".")
			}
			b.WriteString(fmt.Sprint(v))
		}
	}
	return b.String()
}

// DefaultValue builds the zero value conforming to field: an empty string for
// primitives, an empty list for lists, and a recursively defaulted map for
// structs.
func DefaultValue(field FormField) any {
	switch f := field.(type) {
	case *ListField:
		return []any{}
	case *StructField:
		out := make(map[string]any, len(f.Fields))
		for _, sub := range f.Fields {
			out[sub.Name] = DefaultValue(sub.Field)
		}
		return out
	default:
		return ""
	}
}

// GetValue reads the value stored at path, reporting whether it exists.
func GetValue(value any, path Path) (any, bool) {
	current := value
	for _, elem := range path {
		switch key := elem.(type) {
		case string:
			m, ok := current.(map[string]any)
			if !ok {
				return nil, false
			}
			current, ok = m[key]
			if !ok {
				return nil, false
			}
		case int:
			list, ok := current.([]any)
			if !ok || key < 0 || key >= len(list) {
				return nil, false
			}
			current = list[key]
		default:
			return nil, false
		}
	}
	return current, true
}

// UpdateValue returns a copy of value with newValue stored at path. The input
// is never mutated; containers along the path are copied and missing ones are
// created. Indexes past the end of a list pad it with nil.
func UpdateValue(value any, path Path, newValue any) any {
	if len(path) == 0 {
		return newValue
	}

	switch key := path[0].(type) {
	case int:
		src, _ := value.([]any)
		size := len(src)
		if key >= size {
			size = key + 1
		}
		out := make([]any, size)
		copy(out, src)
		if key < 0 {
			return out
		}
		out[key] = UpdateValue(out[key], path[1:], newValue)
		return out
	default:
		name := fmt.Sprint(key)
		src, _ := value.(map[string]any)
		out := make(map[string]any, len(src)+1)
		for k, v := range src {
			out[k] = v
		}
		out[name] = UpdateValue(out[name], path[1:], newValue)
		return out
	}
}

// Append adds a defaulted element to items unless the list is at its maximum.
func (l *ListField) Append(items []any) ([]any, bool) {
	if l.Max != nil && len(items) >= *l.Max {
		return items, false
	}
	out := make([]any, len(items), len(items)+1)
	copy(out, items)
	return append(out, DefaultValue(l.Of)), true
}

// Remove drops the element at index unless the list is at its minimum.
func (l *ListField) Remove(items []any, index int) ([]any, bool) {
	if index < 0 || index >= len(items) {
		return items, false
	}
	if l.Min != nil && len(items) <= *l.Min {
		return items, false
	}
	out := make([]any, 0, len(items)-1)
	out = append(out, items[:index]...)
	return append(out, items[index+1:]...), true
}

// Strings converts a list of string values, as edited through a form, back
// into a typed slice. Non-string entries become empty strings.
func Strings(items []any) []string {
	out := make([]string, len(items))
	for i, item := range items {
		if s, ok := item.(string); ok {
			out[i] = s
		}
	}
	return out
}

// FromStrings is the inverse of Strings.
func FromStrings(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
