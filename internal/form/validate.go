package form

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Result is the outcome of Validate. When Valid is false, Message and Path
// describe the first violation found.
type Result struct {
	Valid   bool
	Message string
	Path    Path
}

var valid = Result{Valid: true}

// Validate checks value against field and reports the first violation in
// declaration order.
func Validate(value any, field FormField) Result {
	return validateAt(value, field, Path{})
}

func validateAt(value any, field FormField, path Path) Result {
	switch f := field.(type) {
	case nil:
		return invalid(path, "Missing form schema")
	case *StructField:
		return validateStruct(value, f, path)
	case *ListField:
		return validateList(value, f, path)
	case *PrimitiveField:
		return validatePrimitive(value, f, path)
	default:
		return invalid(path, fmt.Sprintf("Unsupported field type %s", field.Type()))
	}
}

func validateStruct(value any, field *StructField, path Path) Result {
	var m map[string]any
	switch v := value.(type) {
	case nil:
		m = map[string]any{}
	case map[string]any:
		m = v
	default:
		return invalid(path, "Must be an object")
	}

	for _, sub := range field.Fields {
		if res := validateAt(m[sub.Name], sub.Field, path.Child(sub.Name)); !res.Valid {
			return res
		}
	}
	return valid
}

func validateList(value any, field *ListField, path Path) Result {
	var items []any
	switch v := value.(type) {
	case nil:
	case []any:
		items = v
	case []string:
		items = FromStrings(v)
	default:
		return invalid(path, "Must be a list")
	}

	if field.Min != nil && len(items) < *field.Min {
		return invalid(path, fmt.Sprintf("Require at least %d values", *field.Min))
	}
	if field.Max != nil && len(items) > *field.Max {
		return invalid(path, fmt.Sprintf("Allow at most %d values", *field.Max))
	}

	for i, item := range items {
		if res := validateAt(item, field.Of, path.Child(i)); !res.Valid {
			return res
		}
	}
	return valid
}

func validatePrimitive(value any, field *PrimitiveField, path Path) Result {
	if isEmpty(value) {
		if field.Required {
			return invalid(path, "Required")
		}
		return valid
	}

	switch field.Type() {
	case FieldTypeNumber:
		if !isNumeric(value) {
			return invalid(path, "Must be a number")
		}
	case FieldTypeBoolean:
		if _, ok := value.(bool); !ok {
			return invalid(path, "Must be a boolean")
		}
	default:
		if _, ok := value.(string); !ok {
			return invalid(path, "Must be a string")
		}
	}
	return valid
}

func invalid(path Path, message string) Result {
	return Result{Valid: false, Message: message, Path: path}
}

func isEmpty(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	default:
		return false
	}
}

func isNumeric(value any) bool {
	switch v := value.(type) {
	case int, int32, int64, float32, float64:
		return true
	case json.Number:
		_, err := v.Float64()
		return err == nil
	case string:
		_, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return err == nil
	default:
		return false
	}
}
