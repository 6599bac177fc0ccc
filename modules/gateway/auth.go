package gateway

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/zkbridge/binder"
	"github.com/dmitrymomot/zkbridge/handler"
	"github.com/dmitrymomot/zkbridge/pkg/logger"
	"github.com/dmitrymomot/zkbridge/svc/zklogin"
)

// AuthService serves the browser side of the login bridge and token inspection.
type AuthService struct {
	bridge       *zklogin.Bridge
	views        Views
	issuers      []string
	now          func() time.Time
	log          *slog.Logger
	errorHandler handler.ErrorHandler[handler.Context]
}

// AuthOption configures an AuthService.
type AuthOption func(*AuthService)

// WithAuthLogger sets the service logger.
func WithAuthLogger(l *slog.Logger) AuthOption {
	return func(s *AuthService) {
		if l != nil {
			s.log = l
		}
	}
}

// WithViews replaces the landing pages.
func WithViews(v Views) AuthOption {
	return func(s *AuthService) {
		if v.Success != nil {
			s.views.Success = v.Success
		}
		if v.Failure != nil {
			s.views.Failure = v.Failure
		}
	}
}

// WithIssuers sets the issuers accepted by token inspection.
func WithIssuers(issuers ...string) AuthOption {
	return func(s *AuthService) {
		if len(issuers) > 0 {
			s.issuers = issuers
		}
	}
}

// WithAuthClock overrides the clock used for expiry checks.
func WithAuthClock(now func() time.Time) AuthOption {
	return func(s *AuthService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewAuthService returns the auth endpoints backed by bridge.
func NewAuthService(bridge *zklogin.Bridge, opts ...AuthOption) *AuthService {
	s := &AuthService{
		bridge:  bridge,
		views:   DefaultViews(),
		issuers: zklogin.GoogleIssuers,
		now:     time.Now,
		log:     logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.errorHandler = handler.NewErrorHandler(s.log)
	return s
}

func (s *AuthService) Handle() http.Handler {
	r := chi.NewRouter()

	r.Get("/google", handler.Wrap(s.start,
		handler.WithBinders[handler.Context, StartRequest](binder.Query()),
		handler.WithErrorHandler[handler.Context, StartRequest](s.errorHandler),
	))
	r.Get("/google/callback", handler.Wrap(s.callback,
		handler.WithBinders[handler.Context, CallbackRequest](binder.Query()),
		handler.WithErrorHandler[handler.Context, CallbackRequest](s.errorHandler),
	))
	r.Get("/google/poll", handler.Wrap(s.poll,
		handler.WithBinders[handler.Context, PollRequest](binder.Query()),
		handler.WithErrorHandler[handler.Context, PollRequest](s.errorHandler),
	))
	r.Post("/verify", handler.Wrap(s.verify,
		handler.WithBinders[handler.Context, VerifyRequest](binder.JSON(binder.DefaultMaxBodySize)),
		handler.WithErrorHandler[handler.Context, VerifyRequest](s.errorHandler),
	))
	r.Get("/landing/success", handler.Wrap(s.landingSuccess,
		handler.WithBinders[handler.Context, LandingRequest](binder.Query()),
	))
	r.Get("/landing/failure", handler.Wrap(s.landingFailure,
		handler.WithBinders[handler.Context, LandingRequest](binder.Query()),
	))

	return r
}

type StartRequest struct {
	SessionID string `query:"session_id"`
	Nonce     string `query:"nonce"`
	Client    string `query:"client"`
}

func (s *AuthService) start(ctx handler.Context, req StartRequest) handler.Response {
	target, err := s.bridge.Start(ctx, zklogin.StartRequest{
		SessionID: req.SessionID,
		Nonce:     req.Nonce,
		Client:    req.Client,
	})
	if err != nil {
		return fail(ctx, s.log, httpError(err))
	}
	return handler.Redirect(target)
}

type CallbackRequest struct {
	Code  string `query:"code"`
	State string `query:"state"`
	Error string `query:"error"`
}

// callback always redirects. Failure detail stays in the logs.
func (s *AuthService) callback(ctx handler.Context, req CallbackRequest) handler.Response {
	res := s.bridge.Callback(ctx, zklogin.CallbackRequest{
		Code:  req.Code,
		State: req.State,
		Error: req.Error,
	})
	return handler.Redirect(res.RedirectURL)
}

type PollRequest struct {
	SessionID string `query:"session_id"`
}

func (s *AuthService) poll(ctx handler.Context, req PollRequest) handler.Response {
	env, err := s.bridge.Poll(ctx, req.SessionID)
	if err != nil {
		return fail(ctx, s.log, httpError(err))
	}
	return handler.JSON(env)
}

type VerifyRequest struct {
	Credential string `json:"credential"`
}

func (s *AuthService) verify(ctx handler.Context, req VerifyRequest) handler.Response {
	res, err := zklogin.Inspect(req.Credential, s.now(), s.issuers)
	if err != nil {
		return fail(ctx, s.log, httpError(err))
	}
	return handler.JSON(res)
}

type LandingRequest struct {
	Client string `query:"client"`
	Error  string `query:"error"`
}

func (s *AuthService) landingSuccess(_ handler.Context, req LandingRequest) handler.Response {
	return handler.Templ(s.views.Success(LandingParams{Client: req.Client}))
}

func (s *AuthService) landingFailure(_ handler.Context, req LandingRequest) handler.Response {
	return handler.Templ(s.views.Failure(LandingParams{Client: req.Client, Code: req.Error}))
}
