package delivery

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mbolis/quick-form/model"
)

type mockMailer struct {
	mock.Mock
}

func (m *mockMailer) Mail(ctx context.Context, to, subject, body string) error {
	return m.Called(to, subject, body).Error(0)
}

func TestShareTokens(t *testing.T) {
	tokens := NewShareTokens("secret", time.Hour)

	token, err := tokens.Issue("form-1")
	require.NoError(t, err)

	assert.NoError(t, tokens.Verify(token, "form-1"))
	assert.ErrorIs(t, tokens.Verify(token, "form-2"), ErrInvalidShareToken)
	assert.ErrorIs(t, NewShareTokens("other", time.Hour).Verify(token, "form-1"), ErrInvalidShareToken)
	assert.ErrorIs(t, tokens.Verify("garbage", "form-1"), ErrInvalidShareToken)

	expired, err := NewShareTokens("secret", -time.Minute).Issue("form-1")
	require.NoError(t, err)
	assert.ErrorIs(t, tokens.Verify(expired, "form-1"), ErrInvalidShareToken)
}

func TestInvitations_Link(t *testing.T) {
	tokens := NewShareTokens("secret", time.Hour)
	inv := NewInvitations(tokens, "https://forms.example.com", LogMailer{})

	link, err := inv.Link("form-1")
	require.NoError(t, err)

	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "forms.example.com", u.Host)
	assert.Equal(t, "/api/forms/form-1", u.Path)
	assert.NoError(t, tokens.Verify(u.Query().Get("token"), "form-1"))
}

func TestInvitations_Send(t *testing.T) {
	form := model.NewForm("Feedback", "Two minutes, promised.")

	t.Run("mails every recipient", func(t *testing.T) {
		mailer := new(mockMailer)
		mailer.On("Mail", mock.Anything, `You are invited to fill in "Feedback"`,
			mock.MatchedBy(func(body string) bool {
				return strings.Contains(body, "/api/forms/"+string(form.ID())+"?token=")
			})).Return(nil).Twice()

		inv := NewInvitations(NewShareTokens("secret", time.Hour), "http://localhost", mailer)
		err := form.Send(context.Background(), inv, []string{"a@example.com", "b@example.com"})
		require.NoError(t, err)
		mailer.AssertCalled(t, "Mail", "a@example.com", mock.Anything, mock.Anything)
		mailer.AssertCalled(t, "Mail", "b@example.com", mock.Anything, mock.Anything)
	})

	t.Run("collects failures and keeps going", func(t *testing.T) {
		mailer := new(mockMailer)
		mailer.On("Mail", "down@example.com", mock.Anything, mock.Anything).Return(errors.New("relay refused"))
		mailer.On("Mail", "ok@example.com", mock.Anything, mock.Anything).Return(nil)

		inv := NewInvitations(NewShareTokens("secret", time.Hour), "http://localhost", mailer)
		err := form.Send(context.Background(), inv, []string{"not-an-address", "down@example.com", "ok@example.com"})

		assert.ErrorIs(t, err, model.ErrDelivery)
		var merr *multierror.Error
		require.True(t, errors.As(err, &merr))
		assert.Len(t, merr.Errors, 2)
		assert.ErrorIs(t, merr.Errors[0], model.ErrValidation)
		mailer.AssertNumberOfCalls(t, "Mail", 2)
	})
}

func TestBuildMessage(t *testing.T) {
	date := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	msg := string(buildMessage("forms@example.com", "a@example.com", "Hi\r\nBcc: x@y", "line 1\nline 2", date))

	assert.Contains(t, msg, "Subject: Hi Bcc: x@y\r\n")
	assert.Contains(t, msg, "Date: Wed, 01 May 2024 12:00:00 +0000\r\n")
	assert.True(t, strings.HasSuffix(msg, "\r\n\r\nline 1\r\nline 2"))
}
