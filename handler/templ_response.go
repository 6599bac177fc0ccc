package handler

import (
	"net/http"

	"github.com/a-h/templ"
)

type templResponse struct {
	component templ.Component
	status    int
}

func (t templResponse) Render(w http.ResponseWriter, r *http.Request) error {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(t.status)
	return t.component.Render(r.Context(), w)
}

// Templ renders a templ component as an HTML page with status 200.
func Templ(c templ.Component) Response {
	return templResponse{component: c, status: http.StatusOK}
}

// TemplWithStatus renders a templ component with the given status.
func TemplWithStatus(c templ.Component, status int) Response {
	return templResponse{component: c, status: status}
}
