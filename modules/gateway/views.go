package gateway

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// LandingParams is passed to the landing views.
type LandingParams struct {
	Client string
	Code   string // failure code, empty on success
}

// Views renders the landing pages shown in the login browser.
type Views struct {
	Success func(LandingParams) templ.Component
	Failure func(LandingParams) templ.Component
}

// DefaultViews returns minimal self-contained landing pages.
func DefaultViews() Views {
	return Views{Success: successPage, Failure: failurePage}
}

func successPage(p LandingParams) templ.Component {
	return landingPage("Login complete", "You can close this window and return to the "+clientLabel(p.Client)+".")
}

func failurePage(p LandingParams) templ.Component {
	msg := "Login did not complete. Close this window and try again from the " + clientLabel(p.Client) + "."
	if p.Code != "" {
		msg += " Reason: " + p.Code + "."
	}
	return landingPage("Login failed", msg)
}

func clientLabel(client string) string {
	if client == "game" {
		return "game"
	}
	return "application"
}

func landingPage(title, message string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, `<!doctype html><html lang="en"><head><meta charset="utf-8">`+
			`<meta name="viewport" content="width=device-width, initial-scale=1">`+
			`<title>`+templ.EscapeString(title)+`</title></head><body><main>`+
			`<h1>`+templ.EscapeString(title)+`</h1>`+
			`<p>`+templ.EscapeString(message)+`</p>`+
			`</main></body></html>`)
		return err
	})
}
