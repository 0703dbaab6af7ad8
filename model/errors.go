package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNullReference         = errors.New("field detail not configured for question type")
	ErrValidation            = errors.New("validation failed")
	ErrMissingRequiredAnswer = errors.New("missing answer for required question")
	ErrUpload                = errors.New("file upload failed")
	ErrDelivery              = errors.New("form delivery failed")
	ErrPersistence           = errors.New("answer persistence failed")
	ErrUnknownQuestion       = errors.New("question does not belong to form")
	ErrNoRecipients          = errors.New("no recipients")
)

// NullReferenceError is returned when a checkbox or dropdown accessor is used on a
// question whose type does not carry that detail.
type NullReferenceError struct {
	Question QuestionID
	Type     FieldType
	Want     FieldType
}

func (e *NullReferenceError) Error() string {
	return fmt.Sprintf("question %s: %s detail requested on %s question", e.Question, e.Want, e.Type)
}

func (e *NullReferenceError) Is(target error) bool { return target == ErrNullReference }

type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// MissingRequiredAnswerError lists every required, visible question left unanswered,
// in form order.
type MissingRequiredAnswerError struct {
	Questions []*Question
}

func (e *MissingRequiredAnswerError) Error() string {
	labels := make([]string, len(e.Questions))
	for i, q := range e.Questions {
		labels[i] = fmt.Sprintf("%q", q.Content())
	}
	return fmt.Sprintf("%s: %s", ErrMissingRequiredAnswer, strings.Join(labels, ", "))
}

func (e *MissingRequiredAnswerError) Is(target error) bool {
	return target == ErrMissingRequiredAnswer
}

// QuestionIDs returns the ids of the unanswered questions.
func (e *MissingRequiredAnswerError) QuestionIDs() []QuestionID {
	ids := make([]QuestionID, len(e.Questions))
	for i, q := range e.Questions {
		ids[i] = q.ID()
	}
	return ids
}

type UploadError struct {
	Err error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("%s: %v", ErrUpload, e.Err)
}

func (e *UploadError) Is(target error) bool { return target == ErrUpload }
func (e *UploadError) Unwrap() error { return e.Err }

type DeliveryError struct {
	Form       FormID
	Recipients []string
	Err        error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("%s: form %s to %d recipient(s): %v", ErrDelivery, e.Form, len(e.Recipients), e.Err)
}

func (e *DeliveryError) Is(target error) bool { return target == ErrDelivery }
func (e *DeliveryError) Unwrap() error { return e.Err }

type PersistenceError struct {
	Submission SubmissionID
	Question   QuestionID
	Err        error
}

func (e *PersistenceError) Error() string {
	if e.Question == "" {
		return fmt.Sprintf("%s: submission %s: %v", ErrPersistence, e.Submission, e.Err)
	}
	return fmt.Sprintf("%s: submission %s question %s: %v", ErrPersistence, e.Submission, e.Question, e.Err)
}

func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }
func (e *PersistenceError) Unwrap() error { return e.Err }
