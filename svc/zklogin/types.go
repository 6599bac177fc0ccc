package zklogin

import (
	"context"
	"time"
)

// FlowState is a step of the login flow for one session.
type FlowState string

const (
	StateStarted          FlowState = "STARTED"
	StateCallbackReceived FlowState = "CALLBACK_RECEIVED"
	StateExchanged        FlowState = "EXCHANGED"
	StateReconciled       FlowState = "RECONCILED"
	StateSalted           FlowState = "SALTED"
	StateDelivered        FlowState = "DELIVERED"
	StateConsumed         FlowState = "CONSUMED"

	StateExchangeFailed  FlowState = "EXCHANGE_FAILED"
	StateNoTokenReturned FlowState = "NO_TOKEN_RETURNED"
	StateInternalError   FlowState = "INTERNAL_ERROR"
)

// Name implements statemachine.State.
func (s FlowState) Name() string { return string(s) }

// Terminal reports whether no further transition follows s.
func (s FlowState) Terminal() bool {
	switch s {
	case StateConsumed, StateExchangeFailed, StateNoTokenReturned, StateInternalError:
		return true
	}
	return false
}

// Failed reports whether s is an error state.
func (s FlowState) Failed() bool {
	switch s {
	case StateExchangeFailed, StateNoTokenReturned, StateInternalError:
		return true
	}
	return false
}

// Envelope is what a polling client receives once the login completed.
// IdentityToken is claims-only data, see idtoken.Unverified.
type Envelope struct {
	IdentityToken string `json:"identityToken"`
	Salt          string `json:"salt"`
}

// TransitionHook observes flow transitions. It runs synchronously.
type TransitionHook func(ctx context.Context, t Transition)

// Transition describes one state change of a session.
type Transition struct {
	SessionID string
	Client    string
	State     FlowState
	At        time.Time
}

// Identity is the claims view returned by token verification.
type Identity struct {
	Subject string `json:"sub"`
	Email   string `json:"email,omitempty"`
	Name    string `json:"name,omitempty"`
	Picture string `json:"picture,omitempty"`
}

// SaltStore persists one salt per subject.
type SaltStore interface {
	// GetSalt returns ErrSaltNotFound when the subject has no salt.
	GetSalt(ctx context.Context, subject string) (string, error)
	// CreateSalt inserts salt for subject unless one exists and returns the
	// stored value, which differs from salt when another writer won.
	CreateSalt(ctx context.Context, subject, salt string) (string, error)
}

// ProfileStore records derived addresses against player profiles.
type ProfileStore interface {
	// RecordLogin sets the zkLogin address and last login time of the
	// subject's profile. A subject without a profile is not an error.
	RecordLogin(ctx context.Context, subject, address string, at time.Time) error
}

// Storage is implemented by every persistence backend.
type Storage interface {
	SaltStore
	ProfileStore
	Ping(ctx context.Context) error
}
