package metastore

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charlesng35/metastore-admin/internal/form"
)

// ItemType is the audit log item type for metastores.
const ItemType = "query_metastore"

// Metastore is a named configuration describing how to read schema metadata
// from a data catalog. Timestamps are unix seconds.
type Metastore struct {
	ID              *int64         `json:"id"`
	CreatedAt       int64          `json:"created_at"`
	UpdatedAt       int64          `json:"updated_at"`
	DeletedAt       *int64         `json:"deleted_at"`
	Name            string         `json:"name"`
	Loader          string         `json:"loader"`
	MetastoreParams map[string]any `json:"metastore_params"`
	ACLControl      ACLControl     `json:"acl_control"`
}

// IsNew reports whether the metastore has never been persisted.
func (m Metastore) IsNew() bool { return m.ID == nil }

// IsDeleted reports whether the metastore is soft deleted.
func (m Metastore) IsDeleted() bool { return m.DeletedAt != nil }

// IDValue returns the id or zero for new metastores.
func (m Metastore) IDValue() int64 {
	if m.ID == nil {
		return 0
	}
	return *m.ID
}

// Clone returns a deep copy so edits never alias the source.
func (m Metastore) Clone() Metastore {
	out := m
	if m.ID != nil {
		id := *m.ID
		out.ID = &id
	}
	if m.DeletedAt != nil {
		at := *m.DeletedAt
		out.DeletedAt = &at
	}
	if m.MetastoreParams != nil {
		if cloned, ok := cloneValue(m.MetastoreParams).(map[string]any); ok {
			out.MetastoreParams = cloned
		}
	}
	out.ACLControl = m.ACLControl.Clone()
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = cloneValue(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = cloneValue(val)
		}
		return out
	default:
		return v
	}
}

// ACLMode selects how ACLControl.Tables is interpreted.
type ACLMode string

// ACL modes. The empty mode means no restriction.
const (
	ACLUnset     ACLMode = ""
	ACLDenylist  ACLMode = "denylist"
	ACLAllowlist ACLMode = "allowlist"
)

// ParseACLMode validates a wire value.
func ParseACLMode(raw string) (ACLMode, error) {
	switch mode := ACLMode(strings.ToLower(strings.TrimSpace(raw))); mode {
	case ACLUnset, ACLDenylist, ACLAllowlist:
		return mode, nil
	default:
		return ACLUnset, fmt.Errorf("metastore: unsupported acl type %q", raw)
	}
}

// ACLControl is a table level allow/deny restriction. When Type is set,
// Tables is never nil.
type ACLControl struct {
	Type   ACLMode
	Tables []string
}

// IsSet reports whether a restriction is configured.
func (a ACLControl) IsSet() bool { return a.Type != ACLUnset }

// Clone returns a copy with its own table slice.
func (a ACLControl) Clone() ACLControl {
	out := ACLControl{Type: a.Type}
	if a.Tables != nil {
		out.Tables = append([]string{}, a.Tables...)
	}
	return out
}

type aclWire struct {
	Type   string   `json:"type,omitempty"`
	Tables []string `json:"tables,omitempty"`
}

// MarshalJSON encodes an unset control as {} and a set control with a
// non-null tables array.
func (a ACLControl) MarshalJSON() ([]byte, error) {
	if !a.IsSet() {
		return []byte("{}"), nil
	}
	tables := a.Tables
	if tables == nil {
		tables = []string{}
	}
	return json.Marshal(struct {
		Type   ACLMode  `json:"type"`
		Tables []string `json:"tables"`
	}{Type: a.Type, Tables: tables})
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *ACLControl) UnmarshalJSON(data []byte) error {
	var wire aclWire
	if string(data) == "null" {
		*a = ACLControl{}
		return nil
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	mode, err := ParseACLMode(wire.Type)
	if err != nil {
		return err
	}
	out := ACLControl{Type: mode}
	if mode != ACLUnset {
		out.Tables = wire.Tables
		if out.Tables == nil {
			out.Tables = []string{}
		}
	}
	*a = out
	return nil
}

// Loader is a backend adapter type together with the schema of its
// configuration parameters.
type Loader struct {
	Name     string      `json:"name"`
	Template form.Schema `json:"template"`
}

// FindLoader returns the loader called name, or nil.
func FindLoader(loaders []Loader, name string) *Loader {
	for i := range loaders {
		if loaders[i].Name == name {
			return &loaders[i]
		}
	}
	return nil
}
