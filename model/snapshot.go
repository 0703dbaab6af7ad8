package model

import (
	"fmt"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// FormSnapshot is the complete, plain-data picture of a form. It is what gets
// stored and what the HTTP API exchanges.
type FormSnapshot struct {
	ID          FormID             `json:"id"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Questions   []QuestionSnapshot `json:"questions"`
}

type QuestionSnapshot struct {
	ID              QuestionID `json:"id"`
	Type            FieldType  `json:"type"`
	Content         string     `json:"content"`
	Required        bool       `json:"required"`
	Visible         bool       `json:"visible"`
	CheckboxOption  *string    `json:"checkboxOption,omitempty"`
	DropdownOptions []string   `json:"dropdownOptions,omitempty"`
	Blocks          QuestionID `json:"blocks,omitempty"`
	Condition       *string    `json:"condition,omitempty"`
}

func (q *Question) Snapshot() QuestionSnapshot {
	s := QuestionSnapshot{
		ID:       q.id,
		Type:     q.fieldType,
		Content:  q.content,
		Required: q.required,
		Visible:  q.visible,
		Blocks:   q.blocked,
	}
	switch d := q.detail.(type) {
	case *CheckboxOption:
		content := d.Content()
		s.CheckboxOption = &content
	case *DropdownOptionList:
		s.DropdownOptions = append([]string{}, d.List()...)
	}
	if q.hasCondition {
		condition := q.condition
		s.Condition = &condition
	}
	return s
}

func (f *Form) Snapshot() FormSnapshot {
	s := FormSnapshot{
		ID:          f.id,
		Title:       f.title,
		Description: f.description,
		Questions:   make([]QuestionSnapshot, len(f.questions)),
	}
	for i, q := range f.questions {
		s.Questions[i] = q.Snapshot()
	}
	return s
}

// RestoreQuestion rebuilds a question. A missing id gets a fresh one.
func RestoreQuestion(s QuestionSnapshot) (*Question, error) {
	if !s.Type.Valid() {
		return nil, &ValidationError{Field: "type", Value: s.Type.String(), Reason: "unknown field type"}
	}
	q := NewQuestion()
	if s.ID != "" {
		q.id = s.ID
	}
	q.SetType(s.Type)
	q.content = s.Content
	q.required = s.Required
	q.visible = s.Visible
	q.blocked = s.Blocks
	if s.Condition != nil {
		q.SetCondition(*s.Condition)
	}
	switch d := q.detail.(type) {
	case *CheckboxOption:
		if s.CheckboxOption != nil {
			d.SetContent(*s.CheckboxOption)
		}
	case *DropdownOptionList:
		d.list = append([]string{}, s.DropdownOptions...)
	}
	return q, nil
}

// RestoreForm rebuilds a form from its snapshot, keeping ids and question order.
// Entries sharing an id restore to one question listed at each position, the way
// a question added twice is snapshotted.
func RestoreForm(s FormSnapshot) (*Form, error) {
	f := NewForm(s.Title, s.Description)
	if s.ID != "" {
		f.id = s.ID
	}
	restored := make(map[QuestionID]*Question, len(s.Questions))
	questions := make([]*Question, 0, len(s.Questions))
	for _, qs := range s.Questions {
		if q, ok := restored[qs.ID]; ok && qs.ID != "" {
			if !cmp.Equal(q.Snapshot(), qs, cmpopts.EquateEmpty()) {
				return nil, fmt.Errorf("form %s: conflicting entries for question id %s", f.id, qs.ID)
			}
			questions = append(questions, q)
			continue
		}
		q, err := RestoreQuestion(qs)
		if err != nil {
			return nil, err
		}
		restored[q.id] = q
		questions = append(questions, q)
	}
	f.questions = questions
	return f, nil
}
