package gateway

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/zkbridge/pkg/requestid"
)

type Mountable interface {
	Handle() http.Handler
}

// RouterOptions configures which services to mount.
// Each service is optional and will only be mounted if provided.
type RouterOptions struct {
	Auth   Mountable // mounted at /auth
	Proofs Mountable // mounted at /v1/zklogin

	Liveness  http.Handler // GET /healthz
	Readiness http.Handler // GET /readyz
}

// Router creates the bridge router.
//
// Example:
//
//	r := gateway.Router(gateway.RouterOptions{
//	    Auth:   gateway.NewAuthService(bridge, gateway.WithAuthLogger(log)),
//	    Proofs: gateway.NewProofService(broker),
//	})
func Router(opts RouterOptions) chi.Router {
	r := chi.NewRouter()
	r.Use(requestid.Middleware, middleware.Recoverer)

	if opts.Liveness != nil {
		r.Method(http.MethodGet, "/healthz", opts.Liveness)
	}
	if opts.Readiness != nil {
		r.Method(http.MethodGet, "/readyz", opts.Readiness)
	}
	if opts.Auth != nil {
		r.Mount("/auth", opts.Auth.Handle())
	}
	if opts.Proofs != nil {
		r.Mount("/v1/zklogin", opts.Proofs.Handle())
	}

	return r
}
