package model

import (
	"fmt"
	"strings"
)

type FieldType int

const (
	Text FieldType = iota
	Email
	Checkbox
	Dropdown
	File
)

const DefaultFieldType = Text

var fieldTypeNames = [...]string{
	Text:     "text",
	Email:    "email",
	Checkbox: "checkbox",
	Dropdown: "dropdown",
	File:     "file",
}

func (t FieldType) String() string {
	if t < 0 || int(t) >= len(fieldTypeNames) {
		return fmt.Sprintf("FieldType(%d)", int(t))
	}
	return fieldTypeNames[t]
}

func (t FieldType) Valid() bool {
	return t >= Text && t <= File
}

// ParseFieldType accepts the lower-case names used on the wire, case-insensitively.
func ParseFieldType(s string) (FieldType, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for t, n := range fieldTypeNames {
		if n == name {
			return FieldType(t), nil
		}
	}
	return 0, &ValidationError{Field: "type", Value: s, Reason: "unknown field type"}
}

func (t FieldType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid field type %d", int(t))
	}
	return []byte(t.String()), nil
}

func (t *FieldType) UnmarshalText(b []byte) error {
	parsed, err := ParseFieldType(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
