package idtoken

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the identity claims the bridge reads. None of them are verified.
type Claims struct {
	Subject   string
	Issuer    string
	Audience  []string
	Email     string
	Name      string
	Picture   string
	Nonce     string
	HasNonce  bool
	ExpiresAt time.Time
	Raw       jwt.MapClaims
}

// Decode parses token without verifying its signature.
func Decode(token string) (Claims, error) {
	mc := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, mc); err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	var c Claims
	var err error
	if c.Subject, err = mc.GetSubject(); err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	if c.Issuer, err = mc.GetIssuer(); err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	aud, err := mc.GetAudience()
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	c.Audience = []string(aud)
	exp, err := mc.GetExpirationTime()
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	if exp != nil {
		c.ExpiresAt = exp.Time
	}

	c.Email = stringClaim(mc, "email")
	c.Name = stringClaim(mc, "name")
	c.Picture = stringClaim(mc, "picture")
	_, c.HasNonce = mc["nonce"]
	c.Nonce = stringClaim(mc, "nonce")
	c.Raw = mc

	if c.Subject == "" {
		return Claims{}, ErrMissingSubject
	}
	return c, nil
}

// Expired reports whether the exp claim is set and not after now.
func (c Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}

// HasAudience reports whether aud is one of the token audiences.
func (c Claims) HasAudience(aud string) bool {
	for _, a := range c.Audience {
		if a == aud {
			return true
		}
	}
	return false
}

func stringClaim(mc jwt.MapClaims, key string) string {
	s, _ := mc[key].(string)
	return s
}
