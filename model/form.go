package model

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"
)

const DefaultFormTitle = "Untitled form"

type FormID string

// Form is an ordered collection of questions. It has no internal locking: callers
// sharing a form between goroutines serialize access themselves (see registry).
type Form struct {
	id          FormID
	title       string
	description string
	questions   []*Question
}

func NewForm(title, description string) *Form {
	if title == "" {
		title = DefaultFormTitle
	}
	return &Form{
		id:          FormID(newID()),
		title:       title,
		description: description,
	}
}

func (f *Form) ID() FormID { return f.id }

func (f *Form) SetTitle(title string) { f.title = title }
func (f *Form) Title() string { return f.title }

func (f *Form) SetDescription(description string) { f.description = description }
func (f *Form) Description() string { return f.description }

// Questions returns the current sequence. The returned slice is never mutated by
// later AddQuestion or DropQuestion calls.
func (f *Form) Questions() []*Question {
	return f.questions
}

// Question looks a question up by id.
func (f *Form) Question(id QuestionID) (*Question, bool) {
	for _, q := range f.questions {
		if q.id == id {
			return q, true
		}
	}
	return nil, false
}

// AddQuestion appends q at the tail. The same question may be added twice.
func (f *Form) AddQuestion(q *Question) {
	next := make([]*Question, len(f.questions), len(f.questions)+1)
	copy(next, f.questions)
	f.questions = append(next, q)
}

// DropQuestion removes every occurrence of q, compared by identity. Questions that
// referenced q as their blocked question lose that reference; a question q was
// blocking is revealed since no answer can unblock it anymore.
func (f *Form) DropQuestion(q *Question) {
	blocked, isBlocking := q.BlockedQuestion()
	q.Drop()

	next := make([]*Question, 0, len(f.questions))
	for _, other := range f.questions {
		if other != q {
			next = append(next, other)
		}
	}
	f.questions = next

	for _, other := range f.questions {
		if id, ok := other.BlockedQuestion(); ok && id == q.id {
			other.Blocks(nil)
		}
	}
	if isBlocking {
		if target, ok := f.Question(blocked); ok && !f.IsBlocked(target.id) {
			target.SetIsVisible(true)
		}
	}
}

// IsBlocked reports whether any question of the form blocks the question id.
func (f *Form) IsBlocked(id QuestionID) bool {
	for _, q := range f.questions {
		if blocked, ok := q.BlockedQuestion(); ok && blocked == id {
			return true
		}
	}
	return false
}

// Send hands the form to the delivery collaborator for the given recipients.
func (f *Form) Send(ctx context.Context, sender Sender, emails []string) error {
	if len(emails) == 0 {
		return &DeliveryError{Form: f.id, Err: ErrNoRecipients}
	}
	if err := sender.Send(ctx, f, emails); err != nil {
		if _, ok := err.(*DeliveryError); ok {
			return err
		}
		return &DeliveryError{Form: f.id, Recipients: emails, Err: err}
	}
	return nil
}

// Clone returns a deep copy with the same ids, so answers and blocking relations
// recorded against the copy resolve the same way. A question added more than once
// stays a single question in the copy.
func (f *Form) Clone() *Form {
	c := *f
	c.questions = make([]*Question, len(f.questions))
	clones := make(map[*Question]*Question, len(f.questions))
	for i, q := range f.questions {
		if _, ok := clones[q]; !ok {
			clones[q] = q.clone()
		}
		c.questions[i] = clones[q]
	}
	return &c
}

// Validate reports all structural problems of the blocking graph at once.
func (f *Form) Validate() error {
	var result *multierror.Error
	for _, q := range f.questions {
		blocked, ok := q.BlockedQuestion()
		if !ok {
			continue
		}
		if blocked == q.id {
			result = multierror.Append(result, fmt.Errorf("question %s blocks itself", q.id))
			continue
		}
		if _, found := f.Question(blocked); !found {
			result = multierror.Append(result, fmt.Errorf("question %s blocks %s which is not in the form", q.id, blocked))
		}
		if _, hasCondition := q.ConditionToUnblock(); !hasCondition {
			result = multierror.Append(result, fmt.Errorf("question %s blocks %s without a condition", q.id, blocked))
		}
	}
	for _, q := range f.questions {
		if f.inCycle(q) {
			result = multierror.Append(result, fmt.Errorf("question %s is part of a blocking cycle", q.id))
		}
	}
	return result.ErrorOrNil()
}

func (f *Form) inCycle(start *Question) bool {
	seen := map[QuestionID]bool{}
	q := start
	for {
		next, ok := q.BlockedQuestion()
		if !ok || next == q.id {
			return false
		}
		if next == start.id {
			return true
		}
		if seen[next] {
			return false
		}
		seen[next] = true
		if q, ok = f.Question(next); !ok {
			return false
		}
	}
}
