package gateway

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/zkbridge/binder"
	"github.com/dmitrymomot/zkbridge/handler"
	"github.com/dmitrymomot/zkbridge/pkg/logger"
	"github.com/dmitrymomot/zkbridge/svc/zklogin"
)

const sandboxHeader = "X-Sandbox"

// ProofService serves proof generation and, in sandbox mode, signing and
// mock submission.
type ProofService struct {
	broker       *zklogin.Broker
	sandbox      bool
	log          *slog.Logger
	errorHandler handler.ErrorHandler[handler.Context]
}

// ProofOption configures a ProofService.
type ProofOption func(*ProofService)

// WithProofLogger sets the service logger.
func WithProofLogger(l *slog.Logger) ProofOption {
	return func(s *ProofService) {
		if l != nil {
			s.log = l
		}
	}
}

// WithSandbox labels every response as sandbox output and enables /sign and /submit.
// The broker must be built with zklogin.SandboxProver.
func WithSandbox(enabled bool) ProofOption {
	return func(s *ProofService) { s.sandbox = enabled }
}

// NewProofService returns the proof endpoints backed by broker.
func NewProofService(broker *zklogin.Broker, opts ...ProofOption) *ProofService {
	s := &ProofService{broker: broker, log: logger.Discard()}
	for _, opt := range opts {
		opt(s)
	}
	s.errorHandler = handler.NewErrorHandler(s.log)
	return s
}

func (s *ProofService) Handle() http.Handler {
	r := chi.NewRouter()

	r.Post("/", handler.Wrap(s.prove,
		handler.WithBinders[handler.Context, ProofRequest](binder.JSON(binder.DefaultMaxBodySize)),
		handler.WithErrorHandler[handler.Context, ProofRequest](s.errorHandler),
	))
	r.Post("/sign", handler.Wrap(s.sign,
		handler.WithBinders[handler.Context, SignRequest](binder.JSON(binder.DefaultMaxBodySize)),
		handler.WithErrorHandler[handler.Context, SignRequest](s.errorHandler),
	))
	r.Post("/submit", handler.Wrap(s.submit,
		handler.WithBinders[handler.Context, SubmitRequest](binder.JSON(binder.DefaultMaxBodySize)),
		handler.WithErrorHandler[handler.Context, SubmitRequest](s.errorHandler),
	))

	return r
}

type ProofRequest struct {
	Credential         string      `json:"credential"`
	Randomness         string      `json:"randomness"`
	Audience           string      `json:"audience"`
	EphemeralPublicKey string      `json:"ephemeralPublicKey"`
	MaxEpoch           json.Number `json:"maxEpoch"`
}

func (s *ProofService) prove(ctx handler.Context, req ProofRequest) handler.Response {
	res, err := s.broker.DeriveAndProve(ctx, zklogin.ProofInput{
		Credential:         req.Credential,
		Randomness:         req.Randomness,
		Audience:           req.Audience,
		EphemeralPublicKey: req.EphemeralPublicKey,
		MaxEpoch:           req.MaxEpoch,
	})
	if err != nil {
		var pe *zklogin.ProverError
		if errors.As(err, &pe) {
			meta := handler.WithJSONMeta(map[string]any{
				"upstream_status": pe.Status,
				"details":         pe.Detail,
			})
			return fail(ctx, s.log, httpError(err), append(s.labels(), meta)...)
		}
		return fail(ctx, s.log, httpError(err), s.labels()...)
	}
	return handler.JSON(res, s.labels()...)
}

type SignRequest struct {
	Transaction         string           `json:"transaction"`
	EphemeralPrivateKey zklogin.KeyBytes `json:"ephemeralPrivateKey"`
	Proof               json.RawMessage  `json:"proof"`
	Address             string           `json:"address"`
}

func (s *ProofService) sign(ctx handler.Context, req SignRequest) handler.Response {
	if !s.sandbox {
		return handler.JSONError(errSandboxOnly)
	}
	res, err := zklogin.SandboxSign(ctx, zklogin.SignRequest{
		Transaction:         req.Transaction,
		EphemeralPrivateKey: req.EphemeralPrivateKey,
		Proof:               req.Proof,
		Address:             req.Address,
	})
	if err != nil {
		return fail(ctx, s.log, httpError(err), s.labels()...)
	}
	return handler.JSON(res, s.labels()...)
}

type SubmitRequest struct {
	SignedTransaction json.RawMessage `json:"signedTransaction"`
	Proof             json.RawMessage `json:"proof"`
	Address           string          `json:"address"`
}

func (s *ProofService) submit(ctx handler.Context, req SubmitRequest) handler.Response {
	if !s.sandbox {
		return handler.JSONError(errSandboxOnly)
	}
	res, err := zklogin.SandboxSubmit(ctx, zklogin.SubmitRequest{
		SignedTransaction: req.SignedTransaction,
		Proof:             req.Proof,
		Address:           req.Address,
	})
	if err != nil {
		return fail(ctx, s.log, httpError(err), s.labels()...)
	}
	s.log.InfoContext(ctx, "sandbox transaction accepted", logger.Component("sandbox"), slog.String("digest", res.TransactionDigest))
	return handler.JSON(res, s.labels()...)
}

func (s *ProofService) labels() []handler.JSONOption {
	if !s.sandbox {
		return nil
	}
	return []handler.JSONOption{handler.WithHeader(sandboxHeader, "true")}
}
