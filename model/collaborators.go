package model

import "context"

// Sender produces a shareable link for a form and dispatches invitations.
type Sender interface {
	Send(ctx context.Context, form *Form, recipients []string) error
}

// AnswerSaver persists a submission, then each of its answers.
type AnswerSaver interface {
	SaveSubmission(ctx context.Context, submission *Submission) error
	SaveAnswer(ctx context.Context, submission *Submission, answer Answer) error
}

// FileStorage stores uploaded file contents and returns an opaque reference.
type FileStorage interface {
	Upload(ctx context.Context, data []byte) (string, error)
}
