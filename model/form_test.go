package model

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func ids(questions []*Question) []QuestionID {
	out := make([]QuestionID, len(questions))
	for i, q := range questions {
		out[i] = q.ID()
	}
	return out
}

func TestNewForm_Defaults(t *testing.T) {
	f := NewForm("", "")
	assert.Equal(t, "Untitled form", f.Title())
	assert.Empty(t, f.Questions())

	f.SetTitle("Feedback")
	f.SetDescription("Tell us")
	assert.Equal(t, "Feedback", f.Title())
	assert.Equal(t, "Tell us", f.Description())
}

func TestForm_AddThenDropRestoresSequence(t *testing.T) {
	f := NewForm("Feedback", "")
	a, b, c := NewQuestion(), NewQuestion(), NewQuestion()
	f.AddQuestion(a)
	f.AddQuestion(b)
	before := ids(f.Questions())

	f.AddQuestion(c)
	f.DropQuestion(c)

	if diff := cmp.Diff(before, ids(f.Questions())); diff != "" {
		t.Errorf("questions mismatch (-want +got):\n%s", diff)
	}
}

func TestForm_DropQuestionRemovesAllOccurrencesByIdentity(t *testing.T) {
	f := NewForm("", "")
	a, b := NewQuestion(), NewQuestion()
	twin := mustRestoreQuestion(t, a.Snapshot())

	f.AddQuestion(a)
	f.AddQuestion(b)
	f.AddQuestion(a)
	f.AddQuestion(twin)

	f.DropQuestion(a)

	require.Len(t, f.Questions(), 2)
	assert.Same(t, b, f.Questions()[0])
	assert.Same(t, twin, f.Questions()[1])
}

func TestForm_MutationsDoNotAlterEarlierSlices(t *testing.T) {
	f := NewForm("", "")
	a := NewQuestion()
	f.AddQuestion(a)
	snapshot := f.Questions()

	f.AddQuestion(NewQuestion())
	f.DropQuestion(a)

	require.Len(t, snapshot, 1)
	assert.Same(t, a, snapshot[0])
}

func TestForm_DropBlockerRevealsAndClears(t *testing.T) {
	f := NewForm("", "")
	a, b := NewQuestion(), NewQuestion()
	f.AddQuestion(a)
	f.AddQuestion(b)
	a.Blocks(b)
	a.SetCondition("yes")
	b.SetIsVisible(false)

	f.DropQuestion(a)
	assert.True(t, b.IsVisible())

	c := NewQuestion()
	f.AddQuestion(c)
	c.Blocks(b)
	f.DropQuestion(b)
	_, ok := c.BlockedQuestion()
	assert.False(t, ok, "reference to a dropped question is cleared")
}

func TestForm_Clone(t *testing.T) {
	f := NewForm("Feedback", "desc")
	q := NewQuestion()
	q.SetType(Dropdown)
	f.AddQuestion(q)

	c := f.Clone()
	assert.Equal(t, f.ID(), c.ID())
	assert.Equal(t, f.Snapshot(), c.Snapshot())

	cq, ok := c.Question(q.ID())
	require.True(t, ok)
	assert.NotSame(t, q, cq)

	require.NoError(t, cq.AddDropdownOption("extra"))
	cq.SetIsVisible(false)
	options, _ := q.DropdownOptions()
	assert.Equal(t, []string{"options 1"}, options)
	assert.True(t, q.IsVisible())
}

func TestForm_CloneKeepsSharedQuestion(t *testing.T) {
	f := NewForm("Twice", "")
	q := NewQuestion()
	f.AddQuestion(q)
	f.AddQuestion(q)

	c := f.Clone()
	questions := c.Questions()
	require.Len(t, questions, 2)
	assert.Same(t, questions[0], questions[1])
	assert.NotSame(t, q, questions[0])

	questions[0].SetContent("changed")
	assert.Equal(t, "changed", questions[1].Content())
	assert.Equal(t, DefaultQuestionContent, q.Content())
}

func TestForm_Validate(t *testing.T) {
	f := NewForm("", "")
	a, b, c, d := NewQuestion(), NewQuestion(), NewQuestion(), NewQuestion()
	for _, q := range []*Question{a, b, c, d} {
		f.AddQuestion(q)
	}
	require.NoError(t, f.Validate())

	a.Blocks(a)
	a.SetCondition("x")
	b.Blocks(c)
	c.Blocks(b)
	b.SetCondition("x")
	c.SetCondition("y")
	d.Blocks(NewQuestion())

	err := f.Validate()
	require.Error(t, err)
	var merr *multierror.Error
	require.True(t, errors.As(err, &merr))
	// self-block, b and c in a cycle, d dangling and without condition
	assert.Len(t, merr.Errors, 5)
}

type mockSender struct {
	mock.Mock
}

func (m *mockSender) Send(ctx context.Context, form *Form, recipients []string) error {
	args := m.Called(form, recipients)
	return args.Error(0)
}

func TestForm_Send(t *testing.T) {
	f := NewForm("Feedback", "")

	t.Run("no recipients", func(t *testing.T) {
		sender := new(mockSender)
		err := f.Send(context.Background(), sender, nil)
		assert.ErrorIs(t, err, ErrDelivery)
		assert.ErrorIs(t, err, ErrNoRecipients)
		sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
	})

	t.Run("delegates", func(t *testing.T) {
		sender := new(mockSender)
		emails := []string{"a@example.com", "b@example.com"}
		sender.On("Send", f, emails).Return(nil).Once()

		require.NoError(t, f.Send(context.Background(), sender, emails))
		sender.AssertExpectations(t)
	})

	t.Run("failure is a delivery error", func(t *testing.T) {
		sender := new(mockSender)
		cause := errors.New("smtp down")
		sender.On("Send", f, mock.Anything).Return(cause)

		err := f.Send(context.Background(), sender, []string{"a@example.com"})
		assert.ErrorIs(t, err, ErrDelivery)
		assert.ErrorIs(t, err, cause)
	})
}

func mustRestoreQuestion(t *testing.T, s QuestionSnapshot) *Question {
	t.Helper()
	q, err := RestoreQuestion(s)
	require.NoError(t, err)
	return q
}
