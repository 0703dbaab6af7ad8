package delivery

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"

	"github.com/mbolis/quick-form/model"
)

const shareAudience = "quick-form/share"

var ErrInvalidShareToken = errors.New("invalid share token")

// ShareTokens issues and checks the signed tokens carried by share links. A token
// grants access to exactly one form until it expires.
type ShareTokens struct {
	secret []byte
	ttl    time.Duration
}

func NewShareTokens(secret string, ttl time.Duration) *ShareTokens {
	return &ShareTokens{secret: []byte(secret), ttl: ttl}
}

func (t *ShareTokens) Issue(form model.FormID) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   string(form),
		Audience:  jwt.ClaimStrings{shareAudience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	return token, errors.Wrap(err, "share.sign")
}

// Verify checks that token is valid, unexpired and issued for form.
func (t *ShareTokens) Verify(token string, form model.FormID) error {
	_, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{},
		func(*jwt.Token) (any, error) { return t.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(shareAudience),
		jwt.WithSubject(string(form)),
	)
	if err != nil {
		return errors.Wrap(ErrInvalidShareToken, err.Error())
	}
	return nil
}
