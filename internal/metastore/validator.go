package metastore

import (
	"fmt"
	"unicode/utf8"

	"github.com/charlesng35/metastore-admin/internal/form"
)

// MaxNameLength bounds metastore names.
const MaxNameLength = 255

// Field keys reported by Validate.
const (
	FieldName       = "name"
	FieldLoader     = "loader"
	FieldParams     = "metastore_params"
	FieldACLControl = "acl_control"
)

// Validator checks metastores against the loaders known at construction.
type Validator struct {
	loaders []Loader
}

// NewValidator captures the loader list used for loader and params checks.
func NewValidator(loaders []Loader) Validator {
	return Validator{loaders: loaders}
}

// Validate returns field -> message for every failing check; an empty map
// means the metastore is valid. The params check only runs when the loader
// resolves, since there is no template to check against otherwise.
func (v Validator) Validate(m Metastore) map[string]string {
	errs := map[string]string{}

	switch n := utf8.RuneCountInString(m.Name); {
	case n == 0:
		errs[FieldName] = "Name cannot be empty"
	case n > MaxNameLength:
		errs[FieldName] = "Name is too long"
	}

	loader := FindLoader(v.loaders, m.Loader)
	if loader == nil {
		errs[FieldLoader] = "Invalid loader"
	} else {
		var params any
		if m.MetastoreParams != nil {
			params = m.MetastoreParams
		}
		if res := form.Validate(params, loader.Template.Field); !res.Valid {
			errs[FieldParams] = fmt.Sprintf("Error found in loader params %s: %s", res.Path, res.Message)
		}
	}

	if m.ACLControl.IsSet() {
		for i, table := range m.ACLControl.Tables {
			if table == "" {
				errs[FieldACLControl] = fmt.Sprintf("Table at index %d is empty", i)
				break
			}
		}
	}

	return errs
}
