package zklogin

import (
	"errors"
	"slices"
	"time"

	"github.com/dmitrymomot/zkbridge/pkg/idtoken"
)

// GoogleIssuers are the issuer values Google puts in identity tokens.
var GoogleIssuers = []string{"https://accounts.google.com", "accounts.google.com"}

// Inspection is the claims-only view of a token. Nothing in it is verified.
type Inspection struct {
	User     Identity `json:"user"`
	Nonce    string   `json:"nonce,omitempty"`
	Verified bool     `json:"verified"`
}

// Inspect decodes token and rejects it when expired at now or issued by
// anyone but issuers. The signature is not checked.
func Inspect(token string, now time.Time, issuers []string) (Inspection, error) {
	if token == "" {
		return Inspection{}, ErrMissingCredential
	}
	c, err := idtoken.Decode(token)
	if err != nil {
		return Inspection{}, errors.Join(ErrInvalidCredential, err)
	}
	if c.Expired(now) {
		return Inspection{}, ErrTokenExpired
	}
	if !slices.Contains(issuers, c.Issuer) {
		return Inspection{}, ErrUntrustedIssuer
	}
	return Inspection{
		User:  Identity{Subject: c.Subject, Email: c.Email, Name: c.Name, Picture: c.Picture},
		Nonce: c.Nonce,
	}, nil
}
