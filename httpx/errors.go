package httpx

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"

	"github.com/mbolis/quick-form/database"
	"github.com/mbolis/quick-form/delivery"
	"github.com/mbolis/quick-form/log"
	"github.com/mbolis/quick-form/model"
	"github.com/mbolis/quick-form/registry"
)

// Will log an error, and send an HTTP response with status 500 and default text
func LogInternalError(w http.ResponseWriter, code string, err error) {
	log.WithError(err).Error(code)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

// Will log a debug message, and send an HTTP response with status 404 and default text
func LogNotFound(w http.ResponseWriter, code string, id any) {
	log.Debugf("%s: not found (%v)", code, id)
	http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
}

// Will log an error code at the given level, and send
// an HTTP response with status and default text
func LogStatus(w http.ResponseWriter, status int, level log.Level, code string) {
	log.Log(level, code)
	http.Error(w, http.StatusText(status), status)
}

type ErrorResponse struct {
	Error    string             `json:"error"`
	Missing  []model.QuestionID `json:"missing,omitempty"`
	Problems []string           `json:"problems,omitempty"`
}

// Status maps domain errors to HTTP statuses.
func Status(err error) int {
	switch {
	case errors.Is(err, registry.ErrNotFound), errors.Is(err, database.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, delivery.ErrInvalidShareToken):
		return http.StatusForbidden
	case errors.Is(err, model.ErrDelivery) && !errors.Is(err, model.ErrNoRecipients) && !onlyInvalidInput(err):
		return http.StatusBadGateway
	case errors.Is(err, model.ErrMissingRequiredAnswer):
		return http.StatusUnprocessableEntity
	case errors.Is(err, model.ErrValidation), errors.Is(err, model.ErrUnknownQuestion), errors.Is(err, model.ErrNoRecipients):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrNullReference):
		return http.StatusConflict
	case errors.Is(err, model.ErrUpload):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// onlyInvalidInput reports whether every aggregated failure in err is a validation
// error.
func onlyInvalidInput(err error) bool {
	var multi interface{ WrappedErrors() []error }
	if !errors.As(err, &multi) {
		return errors.Is(err, model.ErrValidation)
	}
	for _, e := range multi.WrappedErrors() {
		if !errors.Is(e, model.ErrValidation) {
			return false
		}
	}
	return true
}

// LogError answers with the status matching err. Domain errors are reported to the
// client as JSON; anything unexpected is logged under code and hidden.
func LogError(w http.ResponseWriter, r *http.Request, code string, err error) {
	status := Status(err)
	switch status {
	case http.StatusInternalServerError:
		LogInternalError(w, code, err)
		return
	case http.StatusNotFound:
		LogNotFound(w, code, err)
		return
	}

	level := log.DebugLevel
	if status >= 500 {
		level = log.WarnLevel
	}
	log.Logf(level, "%s: %s", code, err)

	resp := ErrorResponse{Error: err.Error()}
	var missing *model.MissingRequiredAnswerError
	if errors.As(err, &missing) {
		resp.Missing = missing.QuestionIDs()
	}
	var multi interface{ WrappedErrors() []error }
	if errors.As(err, &multi) {
		for _, e := range multi.WrappedErrors() {
			resp.Problems = append(resp.Problems, e.Error())
		}
	}

	render.Status(r, status)
	render.JSON(w, r, resp)
}
