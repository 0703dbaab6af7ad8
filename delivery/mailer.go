package delivery

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/mbolis/quick-form/log"
)

type Mailer interface {
	Mail(ctx context.Context, to, subject, body string) error
}

// SMTPMailer sends plain-text mail through one SMTP relay. Auth is used only when
// a username is set.
type SMTPMailer struct {
	Addr     string
	From     string
	Username string
	Password string
}

func (m *SMTPMailer) Mail(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var auth smtp.Auth
	if m.Username != "" {
		host, _, err := net.SplitHostPort(m.Addr)
		if err != nil {
			return errors.Wrap(err, "smtp.addr")
		}
		auth = smtp.PlainAuth("", m.Username, m.Password, host)
	}

	msg := buildMessage(m.From, to, subject, body, time.Now())
	return errors.Wrapf(smtp.SendMail(m.Addr, auth, m.From, []string{to}, msg), "smtp.send %s", to)
}

func buildMessage(from, to, subject, body string, date time.Time) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", strings.NewReplacer("\r", "", "\n", " ").Replace(subject))
	fmt.Fprintf(&b, "Date: %s\r\n", date.Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return []byte(b.String())
}

// LogMailer only logs what would have been sent. Used when no SMTP relay is set.
type LogMailer struct{}

func (LogMailer) Mail(ctx context.Context, to, subject, body string) error {
	log.WithFields(log.Fields{"to": to, "subject": subject}).Info("invitation (not sent, no SMTP relay):\n" + body)
	return nil
}
