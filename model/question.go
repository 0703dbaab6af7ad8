package model

import "github.com/gofrs/uuid"

const DefaultQuestionContent = "Untitled Question"

type QuestionID string

func newID() string {
	return uuid.Must(uuid.NewV4()).String()
}

// Question is a single form field definition. A question may block one other question
// of the same form: the blocked question is revealed once an answer equal to the
// condition is recorded for this one.
type Question struct {
	id        QuestionID
	fieldType FieldType
	content   string
	required  bool
	visible   bool
	detail    FieldDetail

	condition    string
	hasCondition bool
	blocked      QuestionID
}

func NewQuestion() *Question {
	return &Question{
		id:        QuestionID(newID()),
		fieldType: DefaultFieldType,
		content:   DefaultQuestionContent,
		visible:   true,
	}
}

func (q *Question) ID() QuestionID { return q.id }

func (q *Question) SetContent(value string) { q.content = value }
func (q *Question) Content() string { return q.content }

func (q *Question) SetIsRequired(value bool) { q.required = value }
func (q *Question) IsRequired() bool { return q.required }

func (q *Question) SetIsVisible(value bool) { q.visible = value }
func (q *Question) IsVisible() bool { return q.visible }

func (q *Question) Type() FieldType { return q.fieldType }

// Detail returns the type-specific detail, nil for types that have none.
func (q *Question) Detail() FieldDetail { return q.detail }

// SetType changes the field type and replaces the detail with a fresh one for
// CHECKBOX and DROPDOWN. Previous checkbox content or dropdown options are lost.
func (q *Question) SetType(t FieldType) {
	q.fieldType = t
	switch t {
	case Checkbox:
		q.detail = NewCheckboxOption()
	case Dropdown:
		q.detail = NewDropdownOptionList()
	default:
		q.detail = nil
	}
}

func (q *Question) checkbox() (*CheckboxOption, error) {
	if o, ok := q.detail.(*CheckboxOption); ok {
		return o, nil
	}
	return nil, &NullReferenceError{Question: q.id, Type: q.fieldType, Want: Checkbox}
}

func (q *Question) dropdown() (*DropdownOptionList, error) {
	if l, ok := q.detail.(*DropdownOptionList); ok {
		return l, nil
	}
	return nil, &NullReferenceError{Question: q.id, Type: q.fieldType, Want: Dropdown}
}

func (q *Question) SetCheckboxOption(value string) error {
	o, err := q.checkbox()
	if err != nil {
		return err
	}
	o.SetContent(value)
	return nil
}

func (q *Question) CheckboxOption() (string, error) {
	o, err := q.checkbox()
	if err != nil {
		return "", err
	}
	return o.Content(), nil
}

func (q *Question) AddDropdownOption(value string) error {
	l, err := q.dropdown()
	if err != nil {
		return err
	}
	l.Add(value)
	return nil
}

func (q *Question) DropDropdownOption(value string) error {
	l, err := q.dropdown()
	if err != nil {
		return err
	}
	l.Drop(value)
	return nil
}

func (q *Question) DropdownOptions() ([]string, error) {
	l, err := q.dropdown()
	if err != nil {
		return nil, err
	}
	return l.List(), nil
}

// Blocks records other as the question kept hidden until this question's condition
// is met. It does not hide other; callers do that with SetIsVisible(false).
// Only one blocked question is tracked, a later call replaces it. Blocks(nil) clears.
func (q *Question) Blocks(other *Question) {
	if other == nil {
		q.blocked = ""
		return
	}
	q.blocked = other.id
}

// BlockedQuestion returns the id of the question this one blocks.
func (q *Question) BlockedQuestion() (QuestionID, bool) {
	return q.blocked, q.blocked != ""
}

// SetCondition sets the exact, case-sensitive answer value that unblocks the
// blocked question.
func (q *Question) SetCondition(value string) {
	q.condition = value
	q.hasCondition = true
}

func (q *Question) ConditionToUnblock() (string, bool) {
	return q.condition, q.hasCondition
}

// unblockedBy reports whether an answer with value reveals the blocked question.
func (q *Question) unblockedBy(value string) bool {
	return q.blocked != "" && q.hasCondition && value == q.condition
}

// Drop is called when the question leaves its form. It releases the question's own
// blocking relation; references held by other questions are cleared by the form.
func (q *Question) Drop() {
	q.blocked = ""
	q.condition = ""
	q.hasCondition = false
}

func (q *Question) clone() *Question {
	c := *q
	if q.detail != nil {
		c.detail = q.detail.clone()
	}
	return &c
}
