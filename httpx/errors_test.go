package httpx

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbolis/quick-form/database"
	"github.com/mbolis/quick-form/delivery"
	"github.com/mbolis/quick-form/model"
	"github.com/mbolis/quick-form/registry"
)

func TestStatus(t *testing.T) {
	invalidAddress := &model.ValidationError{Field: "email", Value: "nope", Reason: "not an address"}
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"registry not found", registry.ErrNotFound, http.StatusNotFound},
		{"store not found", fmt.Errorf("load: %w", database.ErrNotFound), http.StatusNotFound},
		{"share token", delivery.ErrInvalidShareToken, http.StatusForbidden},
		{"missing answers", &model.MissingRequiredAnswerError{}, http.StatusUnprocessableEntity},
		{"validation", &model.ValidationError{Field: "email", Value: "x", Reason: "bad"}, http.StatusBadRequest},
		{"unknown question", model.ErrUnknownQuestion, http.StatusBadRequest},
		{"no recipients", &model.DeliveryError{Err: model.ErrNoRecipients}, http.StatusBadRequest},
		{"null reference", &model.NullReferenceError{Type: model.Text, Want: model.Checkbox}, http.StatusConflict},
		{"upload", &model.UploadError{Err: errors.New("disk full")}, http.StatusBadGateway},
		{"delivery", &model.DeliveryError{Err: errors.New("smtp down")}, http.StatusBadGateway},
		{"delivery with bad addresses only", &model.DeliveryError{Err: multierror.Append(nil, invalidAddress, invalidAddress)}, http.StatusBadRequest},
		{"delivery with bad address and relay failure", &model.DeliveryError{Err: multierror.Append(nil, invalidAddress, errors.New("smtp down"))}, http.StatusBadGateway},
		{"persistence", &model.PersistenceError{Err: errors.New("locked")}, http.StatusInternalServerError},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Status(tt.err))
		})
	}
}

func TestLogError(t *testing.T) {
	t.Run("missing answers", func(t *testing.T) {
		q := model.NewQuestion()
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/", nil)

		LogError(w, r, "test", &model.MissingRequiredAnswerError{Questions: []*model.Question{q}})

		require.Equal(t, http.StatusUnprocessableEntity, w.Code)
		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, []model.QuestionID{q.ID()}, resp.Missing)
		assert.Contains(t, resp.Error, "Untitled Question")
	})

	t.Run("problems", func(t *testing.T) {
		var problems *multierror.Error
		problems = multierror.Append(problems, errors.New("first"), errors.New("second"))
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPut, "/", nil)

		LogError(w, r, "test", fmt.Errorf("%w: %w", model.ErrValidation, problems))

		require.Equal(t, http.StatusBadRequest, w.Code)
		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, []string{"first", "second"}, resp.Problems)
	})

	t.Run("not found", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/", nil)

		LogError(w, r, "test", fmt.Errorf("form x: %w", registry.ErrNotFound))

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.NotContains(t, w.Body.String(), "form x")
	})

	t.Run("internal errors are hidden", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/", nil)

		LogError(w, r, "test", errors.New("connection string with password"))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "password")
	})
}
