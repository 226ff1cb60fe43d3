package models

import (
	"bytes"
	"fmt"

	"github.com/goccy/go-json"
)

// ChangeType selects the message template of a field change.
type ChangeType int

const (
	ChangeTypeAdd ChangeType = iota + 1
	ChangeTypeUpdate
	ChangeTypeDelete
)

func (c ChangeType) String() string {
	switch c {
	case ChangeTypeAdd:
		return "ADD"
	case ChangeTypeUpdate:
		return "UPDATE"
	case ChangeTypeDelete:
		return "DELETE"
	default:
		return fmt.Sprintf("ChangeType(%d)", int(c))
	}
}

// FieldChange is the before and after state of one field. Name may be a dotted path
// such as columns.customer_id.description when the change happened inside an array field.
type FieldChange struct {
	Name     string  `json:"name"`
	OldValue *string `json:"-"`
	NewValue *string `json:"-"`
}

// NewFieldChange builds a FieldChange, empty strings are kept as present values.
func NewFieldChange(name string, oldValue, newValue *string) FieldChange {
	return FieldChange{Name: name, OldValue: oldValue, NewValue: newValue}
}

// StringPtr is a helper for optional values.
func StringPtr(s string) *string {
	return &s
}

// Old returns the old value, or "" when absent.
func (f FieldChange) Old() string {
	if f.OldValue == nil {
		return ""
	}
	return *f.OldValue
}

// New returns the new value, or "" when absent.
func (f FieldChange) New() string {
	if f.NewValue == nil {
		return ""
	}
	return *f.NewValue
}

type fieldChangeJSON struct {
	Name     string          `json:"name"`
	OldValue json.RawMessage `json:"oldValue,omitempty"`
	NewValue json.RawMessage `json:"newValue,omitempty"`
}

// UnmarshalJSON accepts values that are either JSON strings or arbitrary JSON. Strings are
// unquoted, anything else keeps its JSON text so it can be inspected as a structured value.
func (f *FieldChange) UnmarshalJSON(data []byte) error {
	var raw fieldChangeJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	oldValue, err := rawToValue(raw.OldValue)
	if err != nil {
		return fmt.Errorf("field %s old value: %w", raw.Name, err)
	}
	newValue, err := rawToValue(raw.NewValue)
	if err != nil {
		return fmt.Errorf("field %s new value: %w", raw.Name, err)
	}
	*f = FieldChange{Name: raw.Name, OldValue: oldValue, NewValue: newValue}
	return nil
}

// MarshalJSON writes values as JSON strings.
func (f FieldChange) MarshalJSON() ([]byte, error) {
	out := struct {
		Name     string  `json:"name"`
		OldValue *string `json:"oldValue,omitempty"`
		NewValue *string `json:"newValue,omitempty"`
	}{f.Name, f.OldValue, f.NewValue}
	return json.Marshal(out)
}

func rawToValue(raw json.RawMessage) (*string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return nil, err
		}
		return &s, nil
	}
	s := string(trimmed)
	return &s, nil
}

// ChangeDescription is the field level diff between two versions of one entity.
type ChangeDescription struct {
	FieldsAdded     []FieldChange `json:"fieldsAdded"`
	FieldsUpdated   []FieldChange `json:"fieldsUpdated"`
	FieldsDeleted   []FieldChange `json:"fieldsDeleted"`
	PreviousVersion float64       `json:"previousVersion"`
}

// IsEmpty reports whether no field changed.
func (d *ChangeDescription) IsEmpty() bool {
	return d == nil || len(d.FieldsAdded)+len(d.FieldsUpdated)+len(d.FieldsDeleted) == 0
}
