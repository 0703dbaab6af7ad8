package routes

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/render"

	"github.com/mbolis/quick-form/app"
	"github.com/mbolis/quick-form/database"
	"github.com/mbolis/quick-form/httpx"
	"github.com/mbolis/quick-form/log"
	"github.com/mbolis/quick-form/model"
)

type answerRequest struct {
	Question model.QuestionID `json:"question"`
	Value    string           `json:"value"`
}

type submitRequest struct {
	Answers []answerRequest `json:"answers"`
}

func shareToken(r *http.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}
	return r.Header.Get("x-share-token")
}

// session checks the share token and returns a private copy of the form.
func session(app app.App, r *http.Request) (*model.Form, error) {
	id := formID(r)
	if err := app.Shares.Verify(shareToken(r), id); err != nil {
		return nil, err
	}
	return app.Forms.Session(id)
}

// PublicGetForm returns the form as respondents see it. Hidden questions are
// included with their reveal rule so clients can show them once answered.
func PublicGetForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		form, err := session(app, r)
		if err != nil {
			httpx.LogError(w, r, "public.get_form", err)
			return
		}

		render.JSON(w, r, form.Snapshot())
	}
}

// PublicUploadFile stores the raw request body for a file question and returns the
// reference to submit as that question's answer.
func PublicUploadFile(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		form, err := session(app, r)
		if err != nil {
			httpx.LogError(w, r, "public.upload.form", err)
			return
		}

		q, err := lookupQuestion(form, questionID(r))
		if err != nil {
			httpx.LogError(w, r, "public.upload.question", err)
			return
		}
		field, ok := model.NewField(q).(*model.FileUploadField)
		if !ok {
			httpx.LogError(w, r, "public.upload.question", &model.ValidationError{
				Field:  "question",
				Value:  string(q.ID()),
				Reason: "not a file question",
			})
			return
		}

		data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, app.MaxUploadBytes))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				httpx.LogStatus(w, http.StatusRequestEntityTooLarge, log.DebugLevel, "public.upload.too_large")
			} else {
				httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "public.upload.read_body")
			}
			return
		}

		err = field.UploadFile(r.Context(), app.Store, data)
		if err != nil {
			httpx.LogError(w, r, "public.upload", err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"reference": field.Value(),
		})
	}
}

// PublicSubmitForm records answers in the order given, so an answer can reveal a
// question answered later in the same request. Nothing is stored unless every
// answer is accepted.
func PublicSubmitForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		form, err := session(app, r)
		if err != nil {
			httpx.LogError(w, r, "public.submit.form", err)
			return
		}

		req := submitRequest{}
		err = render.DecodeJSON(r.Body, &req)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		sub := model.NewSubmission(form)
		for _, a := range req.Answers {
			q, err := lookupQuestion(form, a.Question)
			if err != nil {
				httpx.LogError(w, r, "public.submit.question", err)
				return
			}
			field := model.NewField(q)
			if err := field.SetValue(a.Value); err != nil {
				httpx.LogError(w, r, "public.submit.value", err)
				return
			}
			if _, err := sub.AddAnswerFor(field.Value(), q.ID()); err != nil {
				httpx.LogError(w, r, "public.submit.answer", err)
				return
			}
		}

		err = app.Store.WithTx(r.Context(), func(tx *database.Store) error {
			return sub.Submit(r.Context(), tx)
		})
		if err != nil {
			httpx.LogError(w, r, "public.submit", err)
			return
		}

		log.WithFields(log.Fields{
			"form":       form.ID(),
			"submission": sub.ID(),
			"answers":    len(sub.Answers()),
		}).Info("form submitted")

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"id": sub.ID(),
		})
	}
}
