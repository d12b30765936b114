package metastore

import (
	"context"

	"github.com/charlesng35/metastore-admin/internal/crud"
	"github.com/charlesng35/metastore-admin/internal/form"
)

// Editor edits one metastore through a crud.Controller. Every change goes
// through the controller so dirty tracking and validation stay in one place.
type Editor struct {
	loaders []Loader
	ctrl    *crud.Controller[Metastore]
}

func newEditor(item Metastore, loaders []Loader, opts crud.Options[Metastore]) *Editor {
	return &Editor{loaders: loaders, ctrl: crud.New(item, opts)}
}

// Controller exposes the underlying lifecycle controller.
func (e *Editor) Controller() *crud.Controller[Metastore] { return e.ctrl }

// Item returns the metastore as currently edited.
func (e *Editor) Item() Metastore { return e.ctrl.Item() }

// Errors validates the edited metastore.
func (e *Editor) Errors() map[string]string { return e.ctrl.Errors() }

// SetName replaces the name.
func (e *Editor) SetName(name string) error {
	return e.ctrl.SetField(func(m Metastore) Metastore {
		m = m.Clone()
		m.Name = name
		return m
	})
}

// ChangeLoader switches the loader and resets its params to the new
// template's defaults. Unknown loader names are ignored.
func (e *Editor) ChangeLoader(name string) error {
	loader := FindLoader(e.loaders, name)
	if loader == nil {
		return nil
	}
	params := defaultParams(*loader)
	return e.ctrl.SetField(func(m Metastore) Metastore {
		m = m.Clone()
		m.MetastoreParams = params
		m.Loader = loader.Name
		return m
	})
}

// SetParam patches the loader params at path.
func (e *Editor) SetParam(path form.Path, value any) error {
	return e.ctrl.SetField(func(m Metastore) Metastore {
		m = m.Clone()
		var current any = m.MetastoreParams
		if m.MetastoreParams == nil {
			current = map[string]any{}
		}
		if params, ok := form.UpdateValue(current, path, value).(map[string]any); ok {
			m.MetastoreParams = params
		}
		return m
	})
}

// ParamsControl renders the loader params against the current loader's
// template. ok is false when the loader is unknown.
func (e *Editor) ParamsControl() (form.Control, bool) {
	item := e.ctrl.Item()
	loader := FindLoader(e.loaders, item.Loader)
	if loader == nil || loader.Template.Field == nil {
		return form.Control{}, false
	}
	return form.Render(loader.Template.Field, item.MetastoreParams), true
}

// CreateACL starts a denylist with no tables.
func (e *Editor) CreateACL() error {
	return e.updateACL(func(ACLControl) ACLControl { return CreateACL() })
}

// SetACLMode switches between denylist and allowlist, clearing the tables.
func (e *Editor) SetACLMode(mode ACLMode) error {
	return e.updateACL(func(a ACLControl) ACLControl { return a.WithMode(mode) })
}

// RemoveACL drops the restriction.
func (e *Editor) RemoveACL() error {
	return e.updateACL(func(ACLControl) ACLControl { return ACLControl{} })
}

// SetACLTable patches the table list at path.
func (e *Editor) SetACLTable(path form.Path, value any) error {
	return e.updateACL(func(a ACLControl) ACLControl { return a.WithTables(path, value) })
}

// AppendACLTable adds an empty table entry.
func (e *Editor) AppendACLTable() error {
	return e.updateACL(ACLControl.AppendTable)
}

// RemoveACLTable removes the table entry at index.
func (e *Editor) RemoveACLTable(index int) error {
	return e.updateACL(func(a ACLControl) ACLControl { return a.RemoveTable(index) })
}

// ACLView renders the ACL section, nil when no restriction is set.
func (e *Editor) ACLView() *ACLView {
	return e.ctrl.Item().ACLControl.View()
}

func (e *Editor) updateACL(apply func(ACLControl) ACLControl) error {
	return e.ctrl.SetField(func(m Metastore) Metastore {
		m = m.Clone()
		m.ACLControl = apply(m.ACLControl)
		return m
	})
}

// Save commits the edits. After a create, next is the new item's location.
func (e *Editor) Save(ctx context.Context) (item Metastore, next string, err error) {
	outcome, err := e.ctrl.Save(ctx)
	if err != nil {
		return outcome.Item, "", err
	}
	if outcome.Navigate {
		next = ItemPath(outcome.Item.IDValue())
	}
	return outcome.Item, next, nil
}

// Delete soft deletes the metastore and returns the landing location.
func (e *Editor) Delete(ctx context.Context) (string, error) {
	if err := e.ctrl.Delete(ctx); err != nil {
		return "", err
	}
	return ListPath, nil
}

// Cancel discards unsaved edits.
func (e *Editor) Cancel() { e.ctrl.Cancel() }
