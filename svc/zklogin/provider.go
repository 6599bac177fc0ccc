package zklogin

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// ProviderGoogle identifies the Google identity provider.
const ProviderGoogle = "google"

// Provider is the identity provider side of the authorization-code flow.
type Provider interface {
	// ProviderID returns a stable identifier used in logs.
	ProviderID() string
	// AuthURL builds the consent redirect. An empty nonce is omitted.
	AuthURL(state, nonce string) string
	// Exchange trades code for the raw identity token. Failures wrap
	// ErrExchangeFailed, a successful exchange without an identity token
	// returns ErrNoIDToken.
	Exchange(ctx context.Context, code string) (string, error)
}

// GoogleConfig configures one Google OAuth client application.
type GoogleConfig struct {
	ClientID     string   `env:"CLIENT_ID"`
	ClientSecret string   `env:"CLIENT_SECRET"`
	RedirectURL  string   `env:"REDIRECT_URL"`
	Scopes       []string `env:"SCOPES" envSeparator:"," envDefault:"openid,email,profile"`
	// AuthURL and TokenURL override Google's endpoints.
	AuthURL  string `env:"AUTH_URL"`
	TokenURL string `env:"TOKEN_URL"`
}

type googleProvider struct {
	conf       *oauth2.Config
	httpClient *http.Client
}

// GoogleOption configures the Google provider.
type GoogleOption func(*googleProvider)

// WithHTTPClient sets the client used for the token exchange.
func WithHTTPClient(c *http.Client) GoogleOption {
	return func(p *googleProvider) {
		if c != nil {
			p.httpClient = c
		}
	}
}

// NewGoogleProvider returns a Provider for Google.
func NewGoogleProvider(cfg GoogleConfig, opts ...GoogleOption) Provider {
	endpoint := google.Endpoint
	if cfg.AuthURL != "" {
		endpoint.AuthURL = cfg.AuthURL
	}
	if cfg.TokenURL != "" {
		endpoint.TokenURL = cfg.TokenURL
	}
	endpoint.AuthStyle = oauth2.AuthStyleInParams

	p := &googleProvider{
		conf: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       cfg.Scopes,
			Endpoint:     endpoint,
		},
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *googleProvider) ProviderID() string { return ProviderGoogle }

func (p *googleProvider) AuthURL(state, nonce string) string {
	var opts []oauth2.AuthCodeOption
	if nonce != "" {
		opts = append(opts, oauth2.SetAuthURLParam("nonce", nonce))
	}
	return p.conf.AuthCodeURL(state, opts...)
}

func (p *googleProvider) Exchange(ctx context.Context, code string) (string, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)

	tok, err := p.conf.Exchange(ctx, code)
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) && re.Response != nil {
			return "", fmt.Errorf("%w: status %d: %s", ErrExchangeFailed, re.Response.StatusCode, re.ErrorCode)
		}
		return "", fmt.Errorf("%w: %v", ErrExchangeFailed, err)
	}

	idToken, _ := tok.Extra("id_token").(string)
	if idToken == "" {
		return "", ErrNoIDToken
	}
	return idToken, nil
}
