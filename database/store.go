package database

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/gofrs/uuid"
	json "github.com/goccy/go-json"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/mbolis/quick-form/model"
)

const fileRefPrefix = "file:"

var ErrNotFound = errors.New("not found")

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store is the SQLite side of the application: form documents, submitted answers,
// uploaded files and admin credentials. It implements model.AnswerSaver and
// model.FileStorage.
type Store struct {
	db *sql.DB
	q  querier
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db, q: db}
}

// WithTx runs fn against a store bound to a single transaction, committed when fn
// returns nil.
func (s *Store) WithTx(ctx context.Context, fn func(tx *Store) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "db.begin_tx")
	}
	defer tx.Rollback()

	if err := fn(&Store{db: s.db, q: tx}); err != nil {
		return err
	}
	return errors.Wrap(tx.Commit(), "db.commit")
}

// SaveForm inserts or replaces the form document.
func (s *Store) SaveForm(ctx context.Context, form model.FormSnapshot) error {
	doc, err := json.Marshal(form)
	if err != nil {
		return errors.Wrap(err, "db.save_form.marshal")
	}
	_, err = s.q.ExecContext(ctx, `
		INSERT INTO form (id, title, document, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			title = excluded.title,
			document = excluded.document,
			updated_at = excluded.updated_at`,
		form.ID, form.Title, string(doc), time.Now().UTC(),
	)
	return errors.Wrap(err, "db.save_form")
}

func (s *Store) DeleteForm(ctx context.Context, id model.FormID) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM form WHERE id = ?`, id)
	if err != nil {
		return errors.Wrap(err, "db.delete_form")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// LoadForms returns every stored form document, oldest update first.
func (s *Store) LoadForms(ctx context.Context) ([]model.FormSnapshot, error) {
	rows, err := s.q.QueryContext(ctx, `SELECT document FROM form ORDER BY updated_at, id`)
	if err != nil {
		return nil, errors.Wrap(err, "db.load_forms")
	}
	defer rows.Close()

	forms := []model.FormSnapshot{}
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, errors.Wrap(err, "db.load_forms.scan")
		}
		var form model.FormSnapshot
		if err := json.Unmarshal([]byte(doc), &form); err != nil {
			return nil, errors.Wrap(err, "db.load_forms.parse")
		}
		forms = append(forms, form)
	}
	return forms, errors.Wrap(rows.Err(), "db.load_forms.rows")
}

// SaveSubmission stores the submission row. Saving it again is a no-op.
func (s *Store) SaveSubmission(ctx context.Context, sub *model.Submission) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO submission (id, form_id, created_at) VALUES (?, ?, ?)
		ON CONFLICT (id) DO NOTHING`,
		sub.ID(), sub.Form().ID(), sub.CreatedAt().UTC(),
	)
	return errors.Wrap(err, "db.save_submission")
}

// SaveAnswer appends the answer to a stored submission.
func (s *Store) SaveAnswer(ctx context.Context, sub *model.Submission, answer model.Answer) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO answer (submission_id, position, question_id, value)
		SELECT ?, COALESCE(MAX(position), -1) + 1, ?, ?
		FROM answer WHERE submission_id = ?`,
		sub.ID(), answer.Question(), answer.Value(), sub.ID(),
	)
	return errors.Wrap(err, "db.save_answer")
}

type StoredAnswer struct {
	Question model.QuestionID `json:"question"`
	Value    string           `json:"value"`
}

type StoredSubmission struct {
	ID      model.SubmissionID `json:"id"`
	Time    time.Time          `json:"time"`
	Answers []StoredAnswer     `json:"answers"`
}

// ListSubmissions returns the submissions of a form, oldest first, with answers in
// the order they were given. Submissions without answers are listed too.
func (s *Store) ListSubmissions(ctx context.Context, formID model.FormID) ([]StoredSubmission, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT s.id, s.created_at, a.question_id, a.value
		FROM submission s
		LEFT JOIN answer a ON (a.submission_id = s.id)
		WHERE s.form_id = ?
		ORDER BY s.created_at, s.id, a.position`,
		formID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "db.list_submissions")
	}
	defer rows.Close()

	submissions := []StoredSubmission{}
	for rows.Next() {
		var id model.SubmissionID
		var created time.Time
		var question, value sql.NullString
		if err := rows.Scan(&id, &created, &question, &value); err != nil {
			return nil, errors.Wrap(err, "db.list_submissions.scan")
		}
		if n := len(submissions); n == 0 || submissions[n-1].ID != id {
			submissions = append(submissions, StoredSubmission{ID: id, Time: created, Answers: []StoredAnswer{}})
		}
		if !question.Valid {
			continue
		}
		last := &submissions[len(submissions)-1]
		last.Answers = append(last.Answers, StoredAnswer{Question: model.QuestionID(question.String), Value: value.String})
	}
	return submissions, errors.Wrap(rows.Err(), "db.list_submissions.rows")
}

// Upload stores data and returns a "file:<uuid>" reference.
func (s *Store) Upload(ctx context.Context, data []byte) (string, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return "", errors.Wrap(err, "db.upload.id")
	}
	_, err = s.q.ExecContext(ctx, `
		INSERT INTO file (id, data, size, created_at) VALUES (?, ?, ?, ?)`,
		id.String(), data, len(data), time.Now().UTC(),
	)
	if err != nil {
		return "", errors.Wrap(err, "db.upload")
	}
	return fileRefPrefix + id.String(), nil
}

// File returns the contents stored under ref.
func (s *Store) File(ctx context.Context, ref string) ([]byte, error) {
	id := strings.TrimPrefix(ref, fileRefPrefix)
	if id == ref {
		return nil, ErrNotFound
	}
	var data []byte
	err := s.q.QueryRowContext(ctx, `SELECT data FROM file WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return data, errors.Wrap(err, "db.file")
}

// SeedUser creates or updates a user with a bcrypt hash of password.
func (s *Store) SeedUser(ctx context.Context, username, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return errors.Wrap(err, "db.seed_user.hash")
	}
	_, err = s.q.ExecContext(ctx, `
		INSERT INTO user (username, password_hash) VALUES (?, ?)
		ON CONFLICT (username) DO UPDATE SET password_hash = excluded.password_hash`,
		username, hash,
	)
	return errors.Wrap(err, "db.seed_user")
}

// CheckPassword verifies password against the stored hash.
func (s *Store) CheckPassword(ctx context.Context, username, password string) error {
	var hash []byte
	err := s.q.QueryRowContext(ctx, `SELECT password_hash FROM user WHERE username = ?`, username).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return errors.Wrap(err, "db.check_password")
	}
	return bcrypt.CompareHashAndPassword(hash, []byte(password))
}

func (s *Store) StoreToken(ctx context.Context, username, tokenID, refreshTokenID string, expiration time.Time) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO token (username, token_id, refresh_token_id, expiration) VALUES (?, ?, ?, ?)`,
		username, tokenID, refreshTokenID, expiration.UTC(),
	)
	return errors.Wrap(err, "db.store_token")
}

// ConsumeToken deletes a refresh token and fails if it was unknown or expired.
func (s *Store) ConsumeToken(ctx context.Context, username, tokenID, refreshTokenID string) error {
	var expiration time.Time
	err := s.q.QueryRowContext(ctx, `
		DELETE FROM token
		WHERE username = ?
			AND token_id = ?
			AND refresh_token_id = ?
		RETURNING expiration`,
		username, tokenID, refreshTokenID,
	).Scan(&expiration)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return errors.Wrap(err, "db.consume_token")
	}
	if expiration.Before(time.Now()) {
		return errors.New("token expired")
	}
	return nil
}
