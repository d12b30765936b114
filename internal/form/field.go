package form

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// FieldType identifies the variant of a FormField on the wire.
type FieldType string

// Supported field types.
const (
	FieldTypeString   FieldType = "string"
	FieldTypePassword FieldType = "password"
	FieldTypeNumber   FieldType = "number"
	FieldTypeBoolean  FieldType = "boolean"
	FieldTypeList     FieldType = "list"
	FieldTypeStruct   FieldType = "struct"
)

// IsPrimitive reports whether the type renders as a single typed input.
func (t FieldType) IsPrimitive() bool {
	switch t {
	case FieldTypeString, FieldTypePassword, FieldTypeNumber, FieldTypeBoolean:
		return true
	default:
		return false
	}
}

// FormField describes an editable value shape. It is a closed set: the only
// implementations are *PrimitiveField, *ListField and *StructField.
type FormField interface {
	Type() FieldType
	isFormField()
}

// PrimitiveField is a scalar input.
type PrimitiveField struct {
	FieldType   FieldType `json:"field_type"`
	Description string    `json:"description"`
	Helper      string    `json:"helper"`
	Hidden      bool      `json:"hidden"`
	Required    bool      `json:"required"`
}

// ListField holds zero or more values of the same element schema. Min and Max
// are advisory cardinality bounds; nil means unbounded.
type ListField struct {
	Of  FormField
	Min *int
	Max *int
}

// NamedField is one entry of a StructField, kept in declaration order.
type NamedField struct {
	Name  string
	Field FormField
}

// StructField is an object of named sub-schemas.
type StructField struct {
	Fields []NamedField
}

func (*PrimitiveField) isFormField() {}
func (*ListField) isFormField()      {}
func (*StructField) isFormField()    {}

// Type implements FormField.
func (p *PrimitiveField) Type() FieldType {
	if p.FieldType == "" {
		return FieldTypeString
	}
	return p.FieldType
}

// Type implements FormField.
func (*ListField) Type() FieldType { return FieldTypeList }

// Type implements FormField.
func (*StructField) Type() FieldType { return FieldTypeStruct }

// Field returns the sub-schema registered under name.
func (s *StructField) Field(name string) (FormField, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f.Field, true
		}
	}
	return nil, false
}

// Schema wraps a FormField so it can sit inside JSON documents.
type Schema struct {
	Field FormField
}

// MarshalJSON implements json.Marshaler.
func (s Schema) MarshalJSON() ([]byte, error) {
	if s.Field == nil {
		return []byte("null"), nil
	}
	return json.Marshal(s.Field)
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Schema) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		s.Field = nil
		return nil
	}
	field, err := ParseFormField(data)
	if err != nil {
		return err
	}
	s.Field = field
	return nil
}

type listWire struct {
	FieldType FieldType       `json:"field_type"`
	Of        json.RawMessage `json:"of"`
	Min       *int            `json:"min"`
	Max       *int            `json:"max"`
}

type structWire struct {
	FieldType FieldType       `json:"field_type"`
	Fields    json.RawMessage `json:"fields"`
}

// MarshalJSON implements json.Marshaler.
func (p *PrimitiveField) MarshalJSON() ([]byte, error) {
	type alias PrimitiveField
	out := alias(*p)
	out.FieldType = p.Type()
	return json.Marshal(out)
}

// MarshalJSON implements json.Marshaler.
func (l *ListField) MarshalJSON() ([]byte, error) {
	if l.Of == nil {
		return nil, errors.New("form: list field has no element schema")
	}
	of, err := json.Marshal(l.Of)
	if err != nil {
		return nil, err
	}
	return json.Marshal(listWire{FieldType: FieldTypeList, Of: of, Min: l.Min, Max: l.Max})
}

// MarshalJSON implements json.Marshaler. Field order is preserved.
func (s *StructField) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range s.Fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(f.Field)
		if err != nil {
			return nil, fmt.Errorf("form: field %s: %w", f.Name, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return json.Marshal(structWire{FieldType: FieldTypeStruct, Fields: buf.Bytes()})
}

// ParseFormField decodes the tagged wire form of a schema.
func ParseFormField(data []byte) (FormField, error) {
	var head struct {
		FieldType FieldType `json:"field_type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("form: decode field: %w", err)
	}

	fieldType := FieldType(strings.ToLower(strings.TrimSpace(string(head.FieldType))))
	switch {
	case fieldType == FieldTypeList:
		var wire listWire
		if err := json.Unmarshal(data, &wire); err != nil {
			return nil, fmt.Errorf("form: decode list field: %w", err)
		}
		if len(wire.Of) == 0 {
			return nil, errors.New("form: list field requires \"of\"")
		}
		of, err := ParseFormField(wire.Of)
		if err != nil {
			return nil, err
		}
		return &ListField{Of: of, Min: wire.Min, Max: wire.Max}, nil
	case fieldType == FieldTypeStruct:
		var wire structWire
		if err := json.Unmarshal(data, &wire); err != nil {
			return nil, fmt.Errorf("form: decode struct field: %w", err)
		}
		fields, err := parseOrderedFields(wire.Fields)
		if err != nil {
			return nil, err
		}
		return &StructField{Fields: fields}, nil
	case fieldType.IsPrimitive():
		var field PrimitiveField
		if err := json.Unmarshal(data, &field); err != nil {
			return nil, fmt.Errorf("form: decode %s field: %w", fieldType, err)
		}
		field.FieldType = fieldType
		return &field, nil
	default:
		return nil, fmt.Errorf("form: unsupported field_type %q", head.FieldType)
	}
}

// parseOrderedFields walks the object token by token so declaration order
// survives decoding.
func parseOrderedFields(data json.RawMessage) ([]NamedField, error) {
	if len(bytes.TrimSpace(data)) == 0 || bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("form: decode struct fields: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, errors.New("form: struct fields must be an object")
	}

	var fields []NamedField
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("form: decode struct fields: %w", err)
		}
		name, ok := tok.(string)
		if !ok {
			return nil, errors.New("form: struct field name must be a string")
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("form: decode field %s: %w", name, err)
		}
		field, err := ParseFormField(raw)
		if err != nil {
			return nil, fmt.Errorf("form: field %s: %w", name, err)
		}
		fields = append(fields, NamedField{Name: name, Field: field})
	}
	return fields, nil
}
