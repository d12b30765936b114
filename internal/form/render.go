package form

// Control is a framework-independent description of one editable control.
// Primitive controls carry Value; list and struct controls carry Children.
type Control struct {
	Kind        FieldType `json:"kind"`
	Path        Path      `json:"path"`
	Label       string    `json:"label,omitempty"`
	Description string    `json:"description,omitempty"`
	Helper      string    `json:"helper,omitempty"`
	Required    bool      `json:"required,omitempty"`
	Hidden      bool      `json:"hidden,omitempty"`
	Value       any       `json:"value,omitempty"`
	Children    []Control `json:"children,omitempty"`

	// CanAppend and CanRemove are only meaningful for list controls and
	// reflect the advisory min/max bounds.
	CanAppend bool `json:"can_append,omitempty"`
	CanRemove bool `json:"can_remove,omitempty"`
}

// Render builds the control tree for value under field.
func Render(field FormField, value any) Control {
	return renderAt(field, value, Path{}, "")
}

func renderAt(field FormField, value any, path Path, label string) Control {
	switch f := field.(type) {
	case *StructField:
		m, _ := value.(map[string]any)
		ctrl := Control{Kind: FieldTypeStruct, Path: path, Label: label}
		for _, sub := range f.Fields {
			ctrl.Children = append(ctrl.Children, renderAt(sub.Field, m[sub.Name], path.Child(sub.Name), sub.Name))
		}
		return ctrl
	case *ListField:
		items, _ := value.([]any)
		ctrl := Control{
			Kind:      FieldTypeList,
			Path:      path,
			Label:     label,
			CanAppend: f.Max == nil || len(items) < *f.Max,
			CanRemove: len(items) > 0 && (f.Min == nil || len(items) > *f.Min),
		}
		for i, item := range items {
			ctrl.Children = append(ctrl.Children, renderAt(f.Of, item, path.Child(i), ""))
		}
		return ctrl
	case *PrimitiveField:
		return Control{
			Kind:        f.Type(),
			Path:        path,
			Label:       label,
			Description: f.Description,
			Helper:      f.Helper,
			Required:    f.Required,
			Hidden:      f.Hidden,
			Value:       value,
		}
	default:
		return Control{Path: path, Label: label, Value: value}
	}
}

// OnChange returns the callback a renderer hands to its controls: each edit
// at a path yields the patched root value through apply.
func OnChange(root any, apply func(any)) func(Path, any) {
	return func(path Path, newValue any) {
		root = UpdateValue(root, path, newValue)
		apply(root)
	}
}
