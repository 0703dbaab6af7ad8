package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mbolis/quick-form/model"
)

type mockPersister struct {
	mock.Mock
}

func (m *mockPersister) SaveForm(ctx context.Context, form model.FormSnapshot) error {
	return m.Called(form).Error(0)
}

func (m *mockPersister) DeleteForm(ctx context.Context, id model.FormID) error {
	return m.Called(id).Error(0)
}

func (m *mockPersister) LoadForms(ctx context.Context) ([]model.FormSnapshot, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.FormSnapshot), args.Error(1)
}

func feedbackForm() (*model.Form, *model.Question, *model.Question) {
	f := model.NewForm("Feedback", "")
	a := model.NewQuestion()
	b := model.NewQuestion()
	b.SetIsVisible(false)
	f.AddQuestion(a)
	f.AddQuestion(b)
	a.Blocks(b)
	a.SetCondition("yes")
	return f, a, b
}

func TestRegistry_CreateGetList(t *testing.T) {
	ctx := context.Background()
	r := New(nil)

	first := model.NewForm("first", "")
	second := model.NewForm("second", "")
	require.NoError(t, r.Create(ctx, first))
	require.NoError(t, r.Create(ctx, second))

	got, err := r.Get(first.ID())
	require.NoError(t, err)
	assert.Equal(t, "first", got.Title)

	list := r.List()
	require.Len(t, list, 2)
	assert.Equal(t, first.ID(), list[0].ID)
	assert.Equal(t, second.ID(), list[1].ID)

	_, err = r.Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRegistry_UpdatePersistsOrRollsBack(t *testing.T) {
	ctx := context.Background()
	p := new(mockPersister)
	r := New(p)
	f := model.NewForm("Feedback", "")

	p.On("SaveForm", mock.Anything).Return(nil).Twice()
	require.NoError(t, r.Create(ctx, f))

	snapshot, err := r.Update(ctx, f.ID(), func(form *model.Form) error {
		form.SetTitle("Renamed")
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", snapshot.Title)

	_, err = r.Update(ctx, f.ID(), func(form *model.Form) error {
		form.SetTitle("Half done")
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)

	p.On("SaveForm", mock.Anything).Return(errors.New("disk full")).Once()
	_, err = r.Update(ctx, f.ID(), func(form *model.Form) error {
		form.SetTitle("Not saved")
		return nil
	})
	assert.EqualError(t, err, "disk full")

	got, err := r.Get(f.ID())
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Title)
	p.AssertExpectations(t)
}

func TestRegistry_SessionsAreIsolated(t *testing.T) {
	ctx := context.Background()
	r := New(nil)
	f, a, b := feedbackForm()
	require.NoError(t, r.Create(ctx, f))

	s1, err := r.Session(f.ID())
	require.NoError(t, err)
	s2, err := r.Session(f.ID())
	require.NoError(t, err)

	_, err = model.NewSubmission(s1).AddAnswerFor("yes", a.ID())
	require.NoError(t, err)

	q1, _ := s1.Question(b.ID())
	q2, _ := s2.Question(b.ID())
	assert.True(t, q1.IsVisible())
	assert.False(t, q2.IsVisible())

	got, err := r.Get(f.ID())
	require.NoError(t, err)
	assert.False(t, got.Questions[1].Visible)
}

func TestRegistry_ConcurrentUpdates(t *testing.T) {
	ctx := context.Background()
	r := New(nil)
	f := model.NewForm("Busy", "")
	require.NoError(t, r.Create(ctx, f))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := r.Update(ctx, f.ID(), func(form *model.Form) error {
				q := model.NewQuestion()
				q.SetContent(fmt.Sprintf("q%d", i))
				form.AddQuestion(q)
				return nil
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	got, err := r.Get(f.ID())
	require.NoError(t, err)
	assert.Len(t, got.Questions, 50)
}

func TestRegistry_Load(t *testing.T) {
	f, _, _ := feedbackForm()
	p := new(mockPersister)
	p.On("LoadForms").Return([]model.FormSnapshot{f.Snapshot()}, nil)

	r := New(p)
	require.NoError(t, r.Load(context.Background()))

	got, err := r.Get(f.ID())
	require.NoError(t, err)
	assert.Equal(t, f.Snapshot(), got)
}

func TestRegistry_LoadSkipsBrokenForms(t *testing.T) {
	good, _, _ := feedbackForm()
	broken := model.FormSnapshot{
		ID:        "broken",
		Questions: []model.QuestionSnapshot{{ID: "q", Type: model.FieldType(42)}},
	}
	p := new(mockPersister)
	p.On("LoadForms").Return([]model.FormSnapshot{broken, good.Snapshot()}, nil)

	r := New(p)
	require.NoError(t, r.Load(context.Background()))

	_, err := r.Get("broken")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = r.Get(good.ID())
	assert.NoError(t, err)
}

func TestRegistry_Delete(t *testing.T) {
	ctx := context.Background()
	p := new(mockPersister)
	r := New(p)
	f := model.NewForm("Bye", "")

	p.On("SaveForm", mock.Anything).Return(nil)
	p.On("DeleteForm", f.ID()).Return(nil).Once()
	require.NoError(t, r.Create(ctx, f))

	require.NoError(t, r.Delete(ctx, f.ID()))
	assert.ErrorIs(t, r.Delete(ctx, f.ID()), ErrNotFound)
	p.AssertExpectations(t)
}
