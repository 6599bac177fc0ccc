package zklogin

import (
	"context"
	"errors"

	"github.com/dmitrymomot/zkbridge/pkg/oneshot"
)

// Mailbox holds completed logins until the polling client collects them.
type Mailbox struct {
	store oneshot.Store[Envelope]
}

// NewMailbox returns a mailbox over store.
func NewMailbox(store oneshot.Store[Envelope]) *Mailbox {
	return &Mailbox{store: store}
}

// Deposit stores env for sessionID. A later deposit replaces an uncollected one.
func (m *Mailbox) Deposit(ctx context.Context, sessionID string, env Envelope) error {
	if sessionID == "" {
		return ErrEmptySessionID
	}
	if env.IdentityToken == "" || env.Salt == "" {
		return ErrInvalidCredential
	}
	if err := m.store.Put(ctx, sessionID, env); err != nil {
		return errors.Join(ErrStorage, err)
	}
	return nil
}

// TakeOnce returns and removes the envelope. ErrNotReady means nothing is waiting.
func (m *Mailbox) TakeOnce(ctx context.Context, sessionID string) (Envelope, error) {
	if sessionID == "" {
		return Envelope{}, ErrEmptySessionID
	}
	env, err := m.store.Take(ctx, sessionID)
	switch {
	case err == nil:
		return env, nil
	case errors.Is(err, oneshot.ErrNotFound):
		return Envelope{}, ErrNotReady
	}
	return Envelope{}, errors.Join(ErrStorage, err)
}
