package zklogin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/dmitrymomot/zkbridge/pkg/idtoken"
	"github.com/dmitrymomot/zkbridge/pkg/logger"
	"github.com/dmitrymomot/zkbridge/pkg/zkaddr"
)

// ProofInput is a proof request from a client holding a delivered token.
type ProofInput struct {
	Credential         string
	Randomness         string
	Audience           string // optional when the token has a single audience
	EphemeralPublicKey string
	MaxEpoch           json.Number
}

// ProofResult is the derived identity. Salt is the canonical hex form.
type ProofResult struct {
	Proof   json.RawMessage `json:"proof"`
	Address string          `json:"address"`
	Salt    string          `json:"salt"`
}

// Broker derives zkLogin addresses and obtains proofs.
type Broker struct {
	salts    *SaltRegistry
	profiles ProfileStore
	prover   Prover
	encoding SaltEncoding
	timeout  time.Duration
	log      *slog.Logger
	now      func() time.Time
}

// BrokerOption configures a Broker.
type BrokerOption func(*Broker)

// WithBrokerLogger sets the broker logger.
func WithBrokerLogger(l *slog.Logger) BrokerOption {
	return func(b *Broker) {
		if l != nil {
			b.log = l
		}
	}
}

// WithSaltEncoding sets the salt wire encoding sent to the prover. Default base64.
func WithSaltEncoding(enc SaltEncoding) BrokerOption {
	return func(b *Broker) {
		if enc != "" {
			b.encoding = enc
		}
	}
}

// WithProverTimeout bounds a single prover call. Default 60s.
func WithProverTimeout(d time.Duration) BrokerOption {
	return func(b *Broker) {
		if d > 0 {
			b.timeout = d
		}
	}
}

// WithBrokerClock overrides the time recorded as last login.
func WithBrokerClock(now func() time.Time) BrokerOption {
	return func(b *Broker) {
		if now != nil {
			b.now = now
		}
	}
}

// NewBroker returns a Broker.
func NewBroker(salts *SaltRegistry, profiles ProfileStore, prover Prover, opts ...BrokerOption) *Broker {
	b := &Broker{
		salts:    salts,
		profiles: profiles,
		prover:   prover,
		encoding: SaltBase64,
		timeout:  60 * time.Second,
		log:      logger.Discard(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// DeriveAndProve resolves the subject's salt, derives its address and asks
// the prover for a proof. Prover failures are returned as *ProverError and
// are not retried.
func (b *Broker) DeriveAndProve(ctx context.Context, in ProofInput) (ProofResult, error) {
	if in.Credential == "" {
		return ProofResult{}, ErrMissingCredential
	}
	if in.Randomness == "" || in.EphemeralPublicKey == "" || in.MaxEpoch == "" {
		return ProofResult{}, ErrMissingProofInput
	}
	if _, err := strconv.ParseUint(in.MaxEpoch.String(), 10, 64); err != nil {
		return ProofResult{}, fmt.Errorf("%w: maxEpoch must be a non-negative integer", ErrMissingProofInput)
	}

	claims, err := idtoken.Decode(in.Credential)
	if err != nil {
		return ProofResult{}, errors.Join(ErrInvalidCredential, err)
	}
	aud, err := pickAudience(claims, in.Audience)
	if err != nil {
		return ProofResult{}, err
	}
	log := b.log.With(logger.Component("proof_broker"), logger.Subject(claims.Subject))

	salt, err := b.salts.GetOrCreate(ctx, claims.Subject)
	if err != nil {
		return ProofResult{}, err
	}
	saltInt, err := SaltInt(salt)
	if err != nil {
		return ProofResult{}, errors.Join(ErrStorage, err)
	}

	address, err := zkaddr.Derive(zkaddr.Input{
		Issuer:   claims.Issuer,
		KeyClaim: zkaddr.DefaultKeyClaim,
		Subject:  claims.Subject,
		Audience: aud,
		Salt:     saltInt,
	})
	if err != nil {
		return ProofResult{}, errors.Join(ErrInvalidCredential, err)
	}

	wireSalt, err := EncodeSalt(salt, b.encoding)
	if err != nil {
		return ProofResult{}, err
	}

	proveCtx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()
	started := time.Now()
	proof, err := b.prover.Prove(proveCtx, ProofRequest{
		JWT:                        in.Credential,
		ExtendedEphemeralPublicKey: in.EphemeralPublicKey,
		MaxEpoch:                   in.MaxEpoch,
		JWTRandomness:              in.Randomness,
		Salt:                       wireSalt,
		KeyClaimName:               zkaddr.DefaultKeyClaim,
	})
	if err != nil {
		var pe *ProverError
		if errors.As(err, &pe) {
			log.ErrorContext(ctx, "prover failed", logger.Status(pe.Status), slog.String("detail", pe.Detail), logger.Duration(time.Since(started)))
			return ProofResult{}, err
		}
		return ProofResult{}, &ProverError{Detail: err.Error(), Err: err}
	}
	log.InfoContext(ctx, "proof generated", logger.Duration(time.Since(started)))

	if err := b.profiles.RecordLogin(ctx, claims.Subject, address, b.now().UTC()); err != nil {
		log.ErrorContext(ctx, "failed to record zklogin address", logger.Error(err))
	}

	return ProofResult{Proof: proof, Address: address, Salt: salt}, nil
}

func pickAudience(c idtoken.Claims, requested string) (string, error) {
	if requested != "" {
		if !c.HasAudience(requested) {
			return "", ErrAudienceMismatch
		}
		return requested, nil
	}
	switch len(c.Audience) {
	case 1:
		return c.Audience[0], nil
	case 0:
		return "", fmt.Errorf("%w: token has no audience", ErrInvalidCredential)
	}
	return "", ErrAmbiguousAudience
}
