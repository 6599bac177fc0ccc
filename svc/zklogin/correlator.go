package zklogin

import (
	"context"
	"errors"

	"github.com/dmitrymomot/zkbridge/pkg/oneshot"
)

// NonceCorrelator remembers the client nonce of a session between Start and Callback.
type NonceCorrelator struct {
	store oneshot.Store[string]
}

// NewNonceCorrelator returns a correlator over store.
func NewNonceCorrelator(store oneshot.Store[string]) *NonceCorrelator {
	return &NonceCorrelator{store: store}
}

// Put records nonce for sessionID, replacing a previous one.
func (c *NonceCorrelator) Put(ctx context.Context, sessionID, nonce string) error {
	if sessionID == "" {
		return ErrEmptySessionID
	}
	if err := c.store.Put(ctx, sessionID, nonce); err != nil {
		return errors.Join(ErrStorage, err)
	}
	return nil
}

// TakeAndClear returns the nonce for sessionID and forgets it.
// ok is false when nothing was recorded or the record expired.
func (c *NonceCorrelator) TakeAndClear(ctx context.Context, sessionID string) (nonce string, ok bool, err error) {
	nonce, err = c.store.Take(ctx, sessionID)
	switch {
	case err == nil:
		return nonce, true, nil
	case errors.Is(err, oneshot.ErrNotFound), errors.Is(err, oneshot.ErrEmptyKey):
		return "", false, nil
	}
	return "", false, errors.Join(ErrStorage, err)
}
