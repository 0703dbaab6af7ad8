package model

import (
	"context"
	"time"
)

type SubmissionID string

// Submission collects the answers of one end user for a form. The form is not
// owned; sessions usually work on a clone so unblocking stays private to them.
type Submission struct {
	id        SubmissionID
	form      *Form
	answers   []Answer
	createdAt time.Time
}

func NewSubmission(form *Form) *Submission {
	return &Submission{
		id:        SubmissionID(newID()),
		form:      form,
		createdAt: time.Now(),
	}
}

func (s *Submission) ID() SubmissionID { return s.id }
func (s *Submission) Form() *Form { return s.form }
func (s *Submission) CreatedAt() time.Time { return s.createdAt }
func (s *Submission) Answers() []Answer { return s.answers }

// AddAnswer records value for question and applies the unblock rule. Answers to
// questions outside the form are rejected and nothing is recorded.
func (s *Submission) AddAnswer(value string, question *Question) (Answer, error) {
	if q, ok := s.form.Question(question.id); !ok || q != question {
		return Answer{}, ErrUnknownQuestion
	}
	return s.record(NewAnswer(value, question)), nil
}

// AddAnswerFor is AddAnswer with the question given by id.
func (s *Submission) AddAnswerFor(value string, id QuestionID) (Answer, error) {
	q, ok := s.form.Question(id)
	if !ok {
		return Answer{}, ErrUnknownQuestion
	}
	return s.record(NewAnswer(value, q)), nil
}

func (s *Submission) record(a Answer) Answer {
	ApplyUnblockRules(s.form, a)
	next := make([]Answer, len(s.answers), len(s.answers)+1)
	copy(next, s.answers)
	s.answers = append(next, a)
	return a
}

func (s *Submission) answered(id QuestionID) bool {
	for _, a := range s.answers {
		if a.question == id {
			return true
		}
	}
	return false
}

// Validate checks that every required question currently visible has an answer.
func (s *Submission) Validate() error {
	var missing []*Question
	for _, q := range s.form.Questions() {
		if q.IsRequired() && q.IsVisible() && !s.answered(q.id) {
			missing = append(missing, q)
		}
	}
	if len(missing) > 0 {
		return &MissingRequiredAnswerError{Questions: missing}
	}
	return nil
}

// Submit validates the submission, stores it and persists its answers in order,
// stopping at the first failure. A submission without answers is still stored.
func (s *Submission) Submit(ctx context.Context, saver AnswerSaver) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if err := saver.SaveSubmission(ctx, s); err != nil {
		return &PersistenceError{Submission: s.id, Err: err}
	}
	for _, a := range s.answers {
		if err := a.Submit(ctx, s, saver); err != nil {
			return err
		}
	}
	return nil
}
