package metastore

import (
	"github.com/charlesng35/metastore-admin/internal/form"
)

// ACLView describes how the ACL section renders for a control value.
type ACLView struct {
	Mode       ACLMode
	Warning    string
	RemoveText string
	Tables     form.Control
}

// CreateACL is the control produced by the "Create Allowlist/Denylist" action.
func CreateACL() ACLControl {
	return ACLControl{Type: ACLDenylist, Tables: []string{}}
}

// WithMode switches the mode and always resets the table list.
func (a ACLControl) WithMode(mode ACLMode) ACLControl {
	if mode == ACLUnset {
		return ACLControl{}
	}
	return ACLControl{Type: mode, Tables: []string{}}
}

// TablesField is the list schema used to edit ACL tables.
func TablesField(mode ACLMode) *form.ListField {
	description := "Table to Denylist"
	if mode == ACLAllowlist {
		description = "Table to Allowlist"
	}
	min := 1
	return &form.ListField{
		Of: &form.PrimitiveField{
			FieldType:   form.FieldTypeString,
			Description: description,
			Required:    true,
		},
		Min: &min,
	}
}

// WithTables patches the table list at path, as reported by the list editor.
func (a ACLControl) WithTables(path form.Path, value any) ACLControl {
	if !a.IsSet() {
		return a
	}
	updated, _ := form.UpdateValue(form.FromStrings(a.Tables), path, value).([]any)
	return ACLControl{Type: a.Type, Tables: form.Strings(updated)}
}

// AppendTable adds an empty table entry.
func (a ACLControl) AppendTable() ACLControl {
	if !a.IsSet() {
		return a
	}
	items, _ := TablesField(a.Type).Append(form.FromStrings(a.Tables))
	return ACLControl{Type: a.Type, Tables: form.Strings(items)}
}

// RemoveTable drops the entry at index; the editor keeps at least one entry
// once entries exist.
func (a ACLControl) RemoveTable(index int) ACLControl {
	if !a.IsSet() {
		return a
	}
	items, _ := TablesField(a.Type).Remove(form.FromStrings(a.Tables), index)
	return ACLControl{Type: a.Type, Tables: form.Strings(items)}
}

// View returns the rendering of the ACL section, or nil when unset.
func (a ACLControl) View() *ACLView {
	if !a.IsSet() {
		return nil
	}
	view := &ACLView{
		Mode:   a.Type,
		Tables: form.Render(TablesField(a.Type), form.FromStrings(a.Tables)),
	}
	if a.Type == ACLDenylist {
		view.Warning = "All tables will be allowed unless specified."
		view.RemoveText = "Remove Denylist"
	} else {
		view.Warning = "All tables will be denied unless specified."
		view.RemoveText = "Remove Allowlist"
	}
	return view
}
