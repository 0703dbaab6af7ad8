package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRestoreForm_KeepsBlockingAndDetails(t *testing.T) {
	f, a, b := feedbackForm()
	c := NewQuestion()
	c.SetType(Checkbox)
	require.NoError(t, c.SetCheckboxOption("Subscribe"))
	d := NewQuestion()
	d.SetType(Dropdown)
	require.NoError(t, d.DropDropdownOption("options 1"))
	f.AddQuestion(c)
	f.AddQuestion(d)

	data, err := json.Marshal(f.Snapshot())
	require.NoError(t, err)
	assert.Contains(t, string(data), `"type":"checkbox"`)

	var snapshot FormSnapshot
	require.NoError(t, json.Unmarshal(data, &snapshot))
	restored, err := RestoreForm(snapshot)
	require.NoError(t, err)

	assert.Equal(t, f.ID(), restored.ID())
	assert.Equal(t, f.Snapshot(), restored.Snapshot())

	ra, _ := restored.Question(a.ID())
	rb, _ := restored.Question(b.ID())
	assert.False(t, rb.IsVisible())
	ApplyUnblockRules(restored, NewAnswer("yes", ra))
	assert.True(t, rb.IsVisible())

	rd, _ := restored.Question(d.ID())
	options, err := rd.DropdownOptions()
	require.NoError(t, err)
	assert.Empty(t, options)
}

func TestRestoreForm_Errors(t *testing.T) {
	_, err := RestoreForm(FormSnapshot{Questions: []QuestionSnapshot{{ID: "q", Type: FieldType(42)}}})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = RestoreForm(FormSnapshot{Questions: []QuestionSnapshot{{ID: "q"}, {ID: "q", Content: "other"}}})
	assert.ErrorContains(t, err, "conflicting entries for question id q")
}

func TestRestoreForm_QuestionAddedTwice(t *testing.T) {
	f := NewForm("Twice", "")
	q := NewQuestion()
	q.SetType(Dropdown)
	require.NoError(t, q.DropDropdownOption(DefaultDropdownOption))
	f.AddQuestion(q)
	f.AddQuestion(q)

	restored, err := RestoreForm(f.Snapshot())
	require.NoError(t, err)
	questions := restored.Questions()
	require.Len(t, questions, 2)
	assert.Same(t, questions[0], questions[1])
	assert.Equal(t, f.Snapshot(), restored.Snapshot())
}
