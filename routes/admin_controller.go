package routes

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/mbolis/quick-form/app"
	"github.com/mbolis/quick-form/database"
	"github.com/mbolis/quick-form/httpx"
	"github.com/mbolis/quick-form/log"
	"github.com/mbolis/quick-form/model"
)

type formRequest struct {
	Title       *string           `json:"title"`
	Description *string           `json:"description"`
	Questions   []questionRequest `json:"questions"`
}

// questionRequest carries optional settings; absent fields are left untouched.
type questionRequest struct {
	Type            *model.FieldType `json:"type"`
	Content         *string          `json:"content"`
	Required        *bool            `json:"required"`
	Visible         *bool            `json:"visible"`
	CheckboxOption  *string          `json:"checkboxOption"`
	DropdownOptions []string         `json:"dropdownOptions"`
}

type blockRequest struct {
	Blocks    model.QuestionID `json:"blocks"`
	Condition *string          `json:"condition"`
	Hide      *bool            `json:"hide"`
}

type sendRequest struct {
	Emails []string `json:"emails"`
}

func formID(r *http.Request) model.FormID {
	return model.FormID(chi.URLParam(r, "id"))
}

func questionID(r *http.Request) model.QuestionID {
	return model.QuestionID(chi.URLParam(r, "qid"))
}

func lookupQuestion(form *model.Form, id model.QuestionID) (*model.Question, error) {
	q, ok := form.Question(id)
	if !ok {
		return nil, fmt.Errorf("question %s: %w", id, model.ErrUnknownQuestion)
	}
	return q, nil
}

func applyQuestion(q *model.Question, req questionRequest) error {
	if req.Type != nil && *req.Type != q.Type() {
		if !req.Type.Valid() {
			return &model.ValidationError{Field: "type", Value: req.Type.String(), Reason: "unknown field type"}
		}
		q.SetType(*req.Type)
	}
	if req.Content != nil {
		q.SetContent(*req.Content)
	}
	if req.Required != nil {
		q.SetIsRequired(*req.Required)
	}
	if req.Visible != nil {
		q.SetIsVisible(*req.Visible)
	}
	if req.CheckboxOption != nil {
		if err := q.SetCheckboxOption(*req.CheckboxOption); err != nil {
			return err
		}
	}
	if req.DropdownOptions != nil {
		return setDropdownOptions(q, req.DropdownOptions)
	}
	return nil
}

func setDropdownOptions(q *model.Question, options []string) error {
	current, err := q.DropdownOptions()
	if err != nil {
		return err
	}
	for _, o := range current {
		if err := q.DropDropdownOption(o); err != nil {
			return err
		}
	}
	for _, o := range options {
		if err := q.AddDropdownOption(o); err != nil {
			return err
		}
	}
	return nil
}

func CreateForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := formRequest{}
		err := render.DecodeJSON(r.Body, &req)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		form := model.NewForm(deref(req.Title), deref(req.Description))
		for _, qr := range req.Questions {
			q := model.NewQuestion()
			if err := applyQuestion(q, qr); err != nil {
				httpx.LogError(w, r, "create_form.question", err)
				return
			}
			form.AddQuestion(q)
		}

		err = app.Forms.Create(r.Context(), form)
		if err != nil {
			httpx.LogError(w, r, "create_form", err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, form.Snapshot())
	}
}

func ListForms(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, map[string]any{
			"forms": app.Forms.List(),
		})
	}
}

func GetFormById(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		form, err := app.Forms.Get(formID(r))
		if err != nil {
			httpx.LogError(w, r, "get_form", err)
			return
		}

		render.JSON(w, r, form)
	}
}

func UpdateForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := formRequest{}
		err := render.DecodeJSON(r.Body, &req)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		form, err := app.Forms.Update(r.Context(), formID(r), func(f *model.Form) error {
			if req.Title != nil {
				f.SetTitle(*req.Title)
			}
			if req.Description != nil {
				f.SetDescription(*req.Description)
			}
			return nil
		})
		if err != nil {
			httpx.LogError(w, r, "update_form", err)
			return
		}

		render.JSON(w, r, form)
	}
}

func DeleteForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := app.Forms.Delete(r.Context(), formID(r))
		if err != nil {
			httpx.LogError(w, r, "delete_form", err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func AddQuestion(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := questionRequest{}
		err := render.DecodeJSON(r.Body, &req)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		var created model.QuestionSnapshot
		_, err = app.Forms.Update(r.Context(), formID(r), func(f *model.Form) error {
			q := model.NewQuestion()
			if err := applyQuestion(q, req); err != nil {
				return err
			}
			f.AddQuestion(q)
			created = q.Snapshot()
			return nil
		})
		if err != nil {
			httpx.LogError(w, r, "add_question", err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, created)
	}
}

func UpdateQuestion(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := questionRequest{}
		err := render.DecodeJSON(r.Body, &req)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		var updated model.QuestionSnapshot
		_, err = app.Forms.Update(r.Context(), formID(r), func(f *model.Form) error {
			q, err := lookupQuestion(f, questionID(r))
			if err != nil {
				return err
			}
			if err := applyQuestion(q, req); err != nil {
				return err
			}
			updated = q.Snapshot()
			return nil
		})
		if err != nil {
			httpx.LogError(w, r, "update_question", err)
			return
		}

		render.JSON(w, r, updated)
	}
}

func DropQuestion(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		form, err := app.Forms.Update(r.Context(), formID(r), func(f *model.Form) error {
			q, err := lookupQuestion(f, questionID(r))
			if err != nil {
				return err
			}
			f.DropQuestion(q)
			return nil
		})
		if err != nil {
			httpx.LogError(w, r, "drop_question", err)
			return
		}

		render.JSON(w, r, form)
	}
}

// BlockQuestion makes {qid} block the question named in the body. The blocked
// question is hidden unless "hide" is false. An empty "blocks" clears the relation.
// A question that was blocked before and is blocked by nothing anymore is revealed.
func BlockQuestion(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := blockRequest{}
		err := render.DecodeJSON(r.Body, &req)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		form, err := app.Forms.Update(r.Context(), formID(r), func(f *model.Form) error {
			q, err := lookupQuestion(f, questionID(r))
			if err != nil {
				return err
			}
			previous, wasBlocking := q.BlockedQuestion()
			if wasBlocking && previous != req.Blocks {
				defer revealIfUnblocked(f, previous)
			}
			if req.Blocks == "" {
				q.Blocks(nil)
				return nil
			}

			target, err := lookupQuestion(f, req.Blocks)
			if err != nil {
				return err
			}
			q.Blocks(target)
			if req.Condition != nil {
				q.SetCondition(*req.Condition)
			}
			if req.Hide == nil || *req.Hide {
				target.SetIsVisible(false)
			}

			if err := f.Validate(); err != nil {
				return fmt.Errorf("%w: %w", model.ErrValidation, err)
			}
			return nil
		})
		if err != nil {
			httpx.LogError(w, r, "block_question", err)
			return
		}

		render.JSON(w, r, form)
	}
}

func revealIfUnblocked(f *model.Form, id model.QuestionID) {
	if q, ok := f.Question(id); ok && !f.IsBlocked(id) {
		q.SetIsVisible(true)
	}
}

func SendForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := sendRequest{}
		err := render.DecodeJSON(r.Body, &req)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		form, err := app.Forms.Session(formID(r))
		if err != nil {
			httpx.LogError(w, r, "send_form", err)
			return
		}

		err = form.Send(r.Context(), app.Invitations, req.Emails)
		if err != nil {
			httpx.LogError(w, r, "send_form.deliver", err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func GetFormSubmissions(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := formID(r)
		if _, err := app.Forms.Get(id); err != nil {
			httpx.LogError(w, r, "get_submissions", err)
			return
		}

		submissions, err := app.Store.ListSubmissions(r.Context(), id)
		if err != nil {
			httpx.LogError(w, r, "db.get_submissions", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"submissions": submissions,
		})
	}
}

// GetFormFile returns the contents of an uploaded file by its reference.
func GetFormFile(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := app.Forms.Get(formID(r)); err != nil {
			httpx.LogError(w, r, "get_file.form", err)
			return
		}

		ref := chi.URLParam(r, "ref")
		data, err := app.Store.File(r.Context(), ref)
		if errors.Is(err, database.ErrNotFound) {
			httpx.LogNotFound(w, "get_file", ref)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.get_file", err)
			return
		}

		w.Header().Set("content-type", http.DetectContentType(data))
		w.Header().Set("content-length", strconv.Itoa(len(data)))
		w.Write(data)
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
