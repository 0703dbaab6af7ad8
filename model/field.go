package model

import (
	"context"
	"errors"
	"net/mail"
	"strings"
)

// Field holds the raw value an end user entered for a question.
type Field interface {
	SetValue(value string) error
	Value() string
}

type baseField struct {
	value string
}

func (f *baseField) SetValue(value string) error {
	f.value = value
	return nil
}

func (f *baseField) Value() string { return f.value }

type ShortTextField struct{ baseField }

type CheckboxField struct{ baseField }

type EmailField struct{ baseField }

// SetValue accepts a bare address such as "jane@example.com". Display names, angle
// brackets and anything net/mail rejects fail with a ValidationError.
func (f *EmailField) SetValue(value string) error {
	if err := ValidateEmail(value); err != nil {
		return err
	}
	f.value = strings.TrimSpace(value)
	return nil
}

func ValidateEmail(value string) error {
	trimmed := strings.TrimSpace(value)
	addr, err := mail.ParseAddress(trimmed)
	if err != nil {
		return &ValidationError{Field: "email", Value: value, Reason: "malformed address"}
	}
	if addr.Name != "" || addr.Address != trimmed {
		return &ValidationError{Field: "email", Value: value, Reason: "expected a bare address"}
	}
	return nil
}

// SelectDropDownField restricts values to the options of its list. Built without a
// list it accepts every value; an empty list accepts none.
type SelectDropDownField struct {
	baseField
	options *DropdownOptionList
}

func NewSelectDropDownField(options *DropdownOptionList) *SelectDropDownField {
	return &SelectDropDownField{options: options}
}

func (f *SelectDropDownField) SetValue(value string) error {
	if f.options != nil && !f.options.Contains(value) {
		return &ValidationError{Field: "dropdown", Value: value, Reason: "not one of the options"}
	}
	f.value = value
	return nil
}

type FileUploadField struct{ baseField }

// UploadFile stores data and keeps the returned reference as the field value. On
// failure the previous value is kept.
func (f *FileUploadField) UploadFile(ctx context.Context, storage FileStorage, data []byte) error {
	if len(data) == 0 {
		return &UploadError{Err: errors.New("empty file")}
	}
	ref, err := storage.Upload(ctx, data)
	if err != nil {
		return &UploadError{Err: err}
	}
	f.value = ref
	return nil
}

// NewField returns the field variant matching the question type.
func NewField(q *Question) Field {
	switch q.Type() {
	case Email:
		return &EmailField{}
	case Checkbox:
		return &CheckboxField{}
	case Dropdown:
		options, ok := q.Detail().(*DropdownOptionList)
		if !ok {
			options = &DropdownOptionList{}
		}
		return NewSelectDropDownField(options)
	case File:
		return &FileUploadField{}
	default:
		return &ShortTextField{}
	}
}
