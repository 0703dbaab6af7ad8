package delivery

import (
	"context"
	"fmt"
	"net/url"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/mbolis/quick-form/log"
	"github.com/mbolis/quick-form/model"
)

// Invitations delivers forms by mailing each recipient a share link.
type Invitations struct {
	tokens    *ShareTokens
	publicURL string
	mailer    Mailer
}

func NewInvitations(tokens *ShareTokens, publicURL string, mailer Mailer) *Invitations {
	return &Invitations{tokens: tokens, publicURL: publicURL, mailer: mailer}
}

// Link builds the public URL of a form, including a fresh share token.
func (inv *Invitations) Link(form model.FormID) (string, error) {
	token, err := inv.tokens.Issue(form)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/api/forms/%s?%s", inv.publicURL, url.PathEscape(string(form)),
		url.Values{"token": {token}}.Encode()), nil
}

// Send mails the form link to every recipient. Bad addresses and failed deliveries
// do not stop the others; all failures are returned together.
func (inv *Invitations) Send(ctx context.Context, form *model.Form, recipients []string) error {
	link, err := inv.Link(form.ID())
	if err != nil {
		return err
	}

	subject := fmt.Sprintf("You are invited to fill in %q", form.Title())
	body := fmt.Sprintf("%s\n\n%s\n\nOpen the form: %s\n", form.Title(), form.Description(), link)

	var result *multierror.Error
	sent := 0
	for _, to := range recipients {
		if err := model.ValidateEmail(to); err != nil {
			result = multierror.Append(result, err)
			continue
		}
		if err := inv.mailer.Mail(ctx, to, subject, body); err != nil {
			result = multierror.Append(result, errors.Wrapf(err, "deliver to %s", to))
			continue
		}
		sent++
	}

	log.WithFields(log.Fields{
		"form":   form.ID(),
		"sent":   sent,
		"failed": len(recipients) - sent,
	}).Info("form invitations dispatched")
	return result.ErrorOrNil()
}
