package zklogin

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"strings"

	"github.com/dmitrymomot/zkbridge/pkg/logger"
)

// SaltBytes is the salt size. The canonical form is lowercase hex.
const SaltBytes = 16

// SaltEncoding is how a salt is sent to the prover.
type SaltEncoding string

const (
	SaltBase64  SaltEncoding = "base64"
	SaltDecimal SaltEncoding = "decimal"
	SaltHex     SaltEncoding = "hex"
)

// ParseSaltEncoding validates a configured encoding name.
func ParseSaltEncoding(s string) (SaltEncoding, error) {
	switch e := SaltEncoding(strings.ToLower(strings.TrimSpace(s))); e {
	case SaltBase64, SaltDecimal, SaltHex:
		return e, nil
	case "":
		return SaltBase64, nil
	}
	return "", fmt.Errorf("zklogin: unknown salt encoding %q", s)
}

// EncodeSalt re-encodes a canonical hex salt for the prover. The value is unchanged.
func EncodeSalt(canonical string, enc SaltEncoding) (string, error) {
	raw, err := decodeSalt(canonical)
	if err != nil {
		return "", err
	}
	switch enc {
	case SaltBase64, "":
		return base64.StdEncoding.EncodeToString(raw), nil
	case SaltDecimal:
		return new(big.Int).SetBytes(raw).String(), nil
	case SaltHex:
		return canonical, nil
	}
	return "", fmt.Errorf("zklogin: unknown salt encoding %q", enc)
}

// SaltInt returns the salt as an integer for address derivation.
func SaltInt(canonical string) (*big.Int, error) {
	raw, err := decodeSalt(canonical)
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(raw), nil
}

func decodeSalt(canonical string) ([]byte, error) {
	if len(canonical) != SaltBytes*2 || strings.ToLower(canonical) != canonical {
		return nil, ErrInvalidSalt
	}
	raw, err := hex.DecodeString(canonical)
	if err != nil {
		return nil, ErrInvalidSalt
	}
	return raw, nil
}

// SaltRegistry hands out the per-subject salt, creating it on first use.
type SaltRegistry struct {
	store SaltStore
	rand  io.Reader
	log   *slog.Logger
}

// SaltOption configures a SaltRegistry.
type SaltOption func(*SaltRegistry)

// WithSaltLogger sets the registry logger.
func WithSaltLogger(l *slog.Logger) SaltOption {
	return func(r *SaltRegistry) {
		if l != nil {
			r.log = l
		}
	}
}

// WithSaltRandom overrides the entropy source.
func WithSaltRandom(src io.Reader) SaltOption {
	return func(r *SaltRegistry) {
		if src != nil {
			r.rand = src
		}
	}
}

// NewSaltRegistry returns a registry over store.
func NewSaltRegistry(store SaltStore, opts ...SaltOption) *SaltRegistry {
	r := &SaltRegistry{store: store, rand: rand.Reader, log: logger.Discard()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// GetOrCreate returns the subject's salt. Concurrent first calls for one
// subject all observe the single value the store kept.
func (r *SaltRegistry) GetOrCreate(ctx context.Context, subject string) (string, error) {
	if subject == "" {
		return "", fmt.Errorf("%w: empty subject", ErrInvalidCredential)
	}

	salt, err := r.store.GetSalt(ctx, subject)
	switch {
	case err == nil:
		return salt, nil
	case !errors.Is(err, ErrSaltNotFound):
		return "", errors.Join(ErrStorage, err)
	}

	fresh, err := r.newSalt()
	if err != nil {
		return "", err
	}
	stored, err := r.store.CreateSalt(ctx, subject, fresh)
	if err != nil {
		return "", errors.Join(ErrStorage, err)
	}
	if stored == fresh {
		r.log.InfoContext(ctx, "salt created", logger.Component("salt_registry"), logger.Subject(subject))
	}
	return stored, nil
}

func (r *SaltRegistry) newSalt() (string, error) {
	buf := make([]byte, SaltBytes)
	if _, err := io.ReadFull(r.rand, buf); err != nil {
		return "", fmt.Errorf("zklogin: generate salt: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
