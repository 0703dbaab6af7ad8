package model

const (
	DefaultCheckboxOption = "checkbox option"
	DefaultDropdownOption = "options 1"
)

// FieldDetail is the type-specific part of a question: nil, *CheckboxOption or
// *DropdownOptionList. Question.SetType is the only place that selects it.
type FieldDetail interface {
	fieldType() FieldType
	clone() FieldDetail
}

type CheckboxOption struct {
	content string
}

func NewCheckboxOption() *CheckboxOption {
	return &CheckboxOption{content: DefaultCheckboxOption}
}

func (o *CheckboxOption) Content() string { return o.content }
func (o *CheckboxOption) SetContent(value string) { o.content = value }

func (o *CheckboxOption) fieldType() FieldType { return Checkbox }

func (o *CheckboxOption) clone() FieldDetail {
	c := *o
	return &c
}

// DropdownOptionList keeps options in insertion order, duplicates included.
// Mutations replace the backing slice, so a slice returned by List is never
// modified afterwards.
type DropdownOptionList struct {
	list []string
}

func NewDropdownOptionList() *DropdownOptionList {
	return &DropdownOptionList{list: []string{DefaultDropdownOption}}
}

// Add appends value at the tail.
func (l *DropdownOptionList) Add(value string) {
	next := make([]string, len(l.list), len(l.list)+1)
	copy(next, l.list)
	l.list = append(next, value)
}

// Drop removes every occurrence of value. Dropping a missing value is a no-op.
func (l *DropdownOptionList) Drop(value string) {
	next := make([]string, 0, len(l.list))
	for _, option := range l.list {
		if option != value {
			next = append(next, option)
		}
	}
	l.list = next
}

func (l *DropdownOptionList) List() []string {
	return l.list
}

// Contains reports whether value is one of the options.
func (l *DropdownOptionList) Contains(value string) bool {
	for _, option := range l.list {
		if option == value {
			return true
		}
	}
	return false
}

func (l *DropdownOptionList) fieldType() FieldType { return Dropdown }

func (l *DropdownOptionList) clone() FieldDetail {
	return &DropdownOptionList{list: append([]string(nil), l.list...)}
}
