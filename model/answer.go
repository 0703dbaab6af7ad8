package model

import "context"

// Answer is an immutable (value, question) pair.
type Answer struct {
	value    string
	question QuestionID
}

func NewAnswer(value string, question *Question) Answer {
	return Answer{value: value, question: question.id}
}

func (a Answer) Value() string { return a.value }
func (a Answer) Question() QuestionID { return a.question }

// Submit persists the answer through saver.
func (a Answer) Submit(ctx context.Context, submission *Submission, saver AnswerSaver) error {
	if err := saver.SaveAnswer(ctx, submission, a); err != nil {
		return &PersistenceError{Submission: submission.ID(), Question: a.question, Err: err}
	}
	return nil
}

// ApplyUnblockRules reveals the question blocked by the answered one when the answer
// value equals its condition. It returns the revealed question, or nil when the
// answer unblocks nothing. Visibility is only ever set to true.
func ApplyUnblockRules(form *Form, a Answer) *Question {
	q, ok := form.Question(a.question)
	if !ok || !q.unblockedBy(a.value) {
		return nil
	}
	target, ok := form.Question(q.blocked)
	if !ok {
		return nil
	}
	target.SetIsVisible(true)
	return target
}
