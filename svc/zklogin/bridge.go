package zklogin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/dmitrymomot/zkbridge/pkg/idtoken"
	"github.com/dmitrymomot/zkbridge/pkg/logger"
	"github.com/dmitrymomot/zkbridge/pkg/statemachine"
)

// Failure codes appended to the failure target as ?error=<code>.
const (
	FailureInvalidRequest = "invalid_request"
	FailureAccessDenied   = "access_denied"
	FailureExchange       = "exchange_failed"
	FailureNoToken        = "no_token"
	FailureInternal       = "internal_error"
)

// Bridge runs the start, callback and poll steps of the login flow.
type Bridge struct {
	clients         *clientSet
	nonces          *NonceCorrelator
	mailbox         *Mailbox
	flows           *FlowTracker
	salts           *SaltRegistry
	def             *statemachine.Definition
	log             *slog.Logger
	hooks           []TransitionHook
	exchangeTimeout time.Duration
	now             func() time.Time
}

// BridgeOption configures a Bridge.
type BridgeOption func(*Bridge)

// WithBridgeLogger sets the bridge logger.
func WithBridgeLogger(l *slog.Logger) BridgeOption {
	return func(b *Bridge) {
		if l != nil {
			b.log = l
		}
	}
}

// WithTransitionHook registers an observer for flow transitions.
func WithTransitionHook(h TransitionHook) BridgeOption {
	return func(b *Bridge) {
		if h != nil {
			b.hooks = append(b.hooks, h)
		}
	}
}

// WithExchangeTimeout bounds the provider code exchange. Default 10s.
func WithExchangeTimeout(d time.Duration) BridgeOption {
	return func(b *Bridge) {
		if d > 0 {
			b.exchangeTimeout = d
		}
	}
}

// WithBridgeClock overrides the time source used for transitions.
func WithBridgeClock(now func() time.Time) BridgeOption {
	return func(b *Bridge) {
		if now != nil {
			b.now = now
		}
	}
}

// NewBridge wires the flow components. The first client is the default one.
func NewBridge(nonces *NonceCorrelator, mailbox *Mailbox, flows *FlowTracker, salts *SaltRegistry, clients []Client, opts ...BridgeOption) (*Bridge, error) {
	cs, err := newClientSet(clients)
	if err != nil {
		return nil, err
	}
	if flows == nil {
		return nil, errors.New("zklogin: flow tracker is required")
	}
	b := &Bridge{
		clients:         cs,
		nonces:          nonces,
		mailbox:         mailbox,
		flows:           flows,
		salts:           salts,
		log:             logger.Discard(),
		exchangeTimeout: 10 * time.Second,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.def = statemachine.MustDefinition(append(flowTransitions(), statemachine.WithAction(b.record))...)
	return b, nil
}

// StartRequest begins a login.
type StartRequest struct {
	SessionID string
	Nonce     string
	Client    string // empty selects the default client
}

// Start records the nonce and returns the provider consent URL.
func (b *Bridge) Start(ctx context.Context, req StartRequest) (string, error) {
	if err := validateSessionID(req.SessionID); err != nil {
		return "", err
	}
	c, err := b.clients.lookup(req.Client)
	if err != nil {
		return "", err
	}
	if err := b.nonces.Put(ctx, req.SessionID, req.Nonce); err != nil {
		return "", err
	}
	// A new start reopens a finished session.
	if err := b.flows.set(ctx, req.SessionID, StateStarted); err != nil {
		return "", err
	}
	b.notify(ctx, req.SessionID, c.Name, StateStarted)
	return c.Provider.AuthURL(EncodeState(c.StatePrefix, req.SessionID), req.Nonce), nil
}

// CallbackRequest carries the provider redirect parameters.
type CallbackRequest struct {
	Code  string
	State string
	Error string // provider "error" parameter, set when consent was refused
}

// CallbackResult tells the caller where to send the end user.
type CallbackResult struct {
	RedirectURL string
	SessionID   string
	Client      string
	State       FlowState
	Err         error
}

// Callback completes a login. It never returns provider detail to the end
// user: failures redirect to the client's failure target with a generic code.
// A session that already failed or was consumed refuses further callbacks
// without contacting the provider.
func (b *Bridge) Callback(ctx context.Context, req CallbackRequest) CallbackResult {
	c, sessionID, err := b.clients.decodeState(req.State)
	if err != nil {
		return b.reject(ctx, c, sessionID, FailureInvalidRequest, err)
	}
	f, err := b.loadFlow(ctx, sessionID, c.Name)
	if err != nil {
		return b.reject(ctx, c, sessionID, FailureInternal, err)
	}
	if f.state().Terminal() {
		return b.reject(ctx, c, sessionID, FailureInvalidRequest, fmt.Errorf("%w: session is %s", ErrSessionClosed, f.state()))
	}
	log := b.log.With(logger.SessionID(sessionID), logger.ClientType(c.Name))

	if req.Error != "" {
		b.clearNonce(ctx, sessionID)
		return b.fail(ctx, c, f, eventExchangeFailed, FailureAccessDenied, ErrProviderDenied)
	}
	if req.Code == "" {
		b.clearNonce(ctx, sessionID)
		return b.fail(ctx, c, f, eventExchangeFailed, FailureInvalidRequest, ErrMissingCode)
	}
	if err := f.fire(ctx, eventCallback); err != nil {
		if statemachine.IsNoTransitionAvailableError(err) {
			return b.reject(ctx, c, sessionID, FailureInvalidRequest, fmt.Errorf("%w: session is %s", ErrCallbackBusy, f.state()))
		}
		return b.fail(ctx, c, f, eventInternalError, FailureInternal, err)
	}

	exCtx, cancel := context.WithTimeout(ctx, b.exchangeTimeout)
	rawToken, err := c.Provider.Exchange(exCtx, req.Code)
	cancel()
	switch {
	case errors.Is(err, ErrNoIDToken):
		b.clearNonce(ctx, sessionID)
		return b.fail(ctx, c, f, eventNoToken, FailureNoToken, err)
	case err != nil:
		b.clearNonce(ctx, sessionID)
		return b.fail(ctx, c, f, eventExchangeFailed, FailureExchange, err)
	}
	if err := f.fire(ctx, eventExchanged); err != nil {
		return b.fail(ctx, c, f, eventInternalError, FailureInternal, err)
	}

	claims, err := idtoken.Decode(rawToken)
	if err != nil {
		b.clearNonce(ctx, sessionID)
		return b.fail(ctx, c, f, eventNoToken, FailureNoToken, err)
	}

	nonce, found, err := b.nonces.TakeAndClear(ctx, sessionID)
	if err != nil {
		return b.fail(ctx, c, f, eventInternalError, FailureInternal, err)
	}
	if !found && !claims.HasNonce {
		log.WarnContext(ctx, "no nonce recorded for session and none in token", logger.Component("bridge"))
	}
	token, err := idtoken.Reconcile(rawToken, nonce)
	if err != nil {
		return b.fail(ctx, c, f, eventNoToken, FailureNoToken, err)
	}
	if err := f.fire(ctx, eventReconciled); err != nil {
		return b.fail(ctx, c, f, eventInternalError, FailureInternal, err)
	}

	salt, err := b.salts.GetOrCreate(ctx, claims.Subject)
	if err != nil {
		return b.fail(ctx, c, f, eventInternalError, FailureInternal, err)
	}
	if err := f.fire(ctx, eventSalted); err != nil {
		return b.fail(ctx, c, f, eventInternalError, FailureInternal, err)
	}

	if err := f.fire(ctx, eventDelivered); err != nil {
		return b.fail(ctx, c, f, eventInternalError, FailureInternal, err)
	}
	if err := b.mailbox.Deposit(ctx, sessionID, Envelope{IdentityToken: token.String(), Salt: salt}); err != nil {
		return b.fail(ctx, c, f, eventInternalError, FailureInternal, err)
	}

	log.InfoContext(ctx, "login delivered", logger.Component("bridge"), logger.Subject(claims.Subject))
	return CallbackResult{
		RedirectURL: c.SuccessURL,
		SessionID:   sessionID,
		Client:      c.Name,
		State:       StateDelivered,
	}
}

// Poll hands the completed login to the client once. ErrNotReady means
// the callback has not completed yet and the client should retry.
func (b *Bridge) Poll(ctx context.Context, sessionID string) (Envelope, error) {
	if err := validateSessionID(sessionID); err != nil {
		return Envelope{}, err
	}
	env, err := b.mailbox.TakeOnce(ctx, sessionID)
	if err != nil {
		return Envelope{}, err
	}
	f, err := b.loadFlow(ctx, sessionID, "")
	if err == nil {
		err = f.fire(ctx, eventConsumed)
	}
	if err != nil {
		b.log.WarnContext(ctx, "consumed state not recorded",
			logger.Component("bridge"),
			logger.SessionID(sessionID),
			logger.Error(err),
		)
	}
	return env, nil
}

// loadFlow positions a state machine at the recorded state of sessionID.
// Sessions without a record are treated as started.
func (b *Bridge) loadFlow(ctx context.Context, sessionID, client string) (*flow, error) {
	state, ok, err := b.flows.State(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !ok {
		state = StateStarted
	}
	return &flow{
		m:       b.def.Machine(state),
		subject: flowSubject{sessionID: sessionID, client: client},
	}, nil
}

// fail moves the session into a failure state and redirects to the
// client's failure target.
func (b *Bridge) fail(ctx context.Context, c Client, f *flow, ev statemachine.Event, code string, err error) CallbackResult {
	if ferr := f.fire(ctx, ev); ferr != nil {
		b.log.ErrorContext(ctx, "failure state not recorded",
			logger.Component("bridge"),
			logger.SessionID(f.subject.sessionID),
			logger.FlowState(string(f.state())),
			logger.Error(ferr),
		)
	}
	state := f.state()
	level := slog.LevelWarn
	if state == StateInternalError || code == FailureInternal {
		level = slog.LevelError
	}
	b.log.LogAttrs(ctx, level, "login callback failed",
		logger.Component("bridge"),
		logger.SessionID(f.subject.sessionID),
		logger.ClientType(c.Name),
		logger.FlowState(string(state)),
		slog.String("failure", code),
		logger.Error(err),
	)
	return CallbackResult{
		RedirectURL: withErrorCode(c.FailureURL, code),
		SessionID:   f.subject.sessionID,
		Client:      c.Name,
		State:       state,
		Err:         err,
	}
}

// reject redirects to the failure target without touching the session state.
func (b *Bridge) reject(ctx context.Context, c Client, sessionID, code string, err error) CallbackResult {
	level := slog.LevelWarn
	if code == FailureInternal {
		level = slog.LevelError
	}
	b.log.LogAttrs(ctx, level, "login callback rejected",
		logger.Component("bridge"),
		logger.SessionID(sessionID),
		logger.ClientType(c.Name),
		slog.String("failure", code),
		logger.Error(err),
	)
	return CallbackResult{
		RedirectURL: withErrorCode(c.FailureURL, code),
		SessionID:   sessionID,
		Client:      c.Name,
		Err:         err,
	}
}

func (b *Bridge) clearNonce(ctx context.Context, sessionID string) {
	if _, _, err := b.nonces.TakeAndClear(ctx, sessionID); err != nil {
		b.log.WarnContext(ctx, "failed to clear nonce", logger.SessionID(sessionID), logger.Error(err))
	}
}

// record persists the new state and notifies hooks. It runs before the
// machine moves, so a storage failure leaves the transition undone.
func (b *Bridge) record(ctx context.Context, _, to statemachine.State, _ statemachine.Event, data any) error {
	subject, _ := data.(flowSubject)
	state, _ := to.(FlowState)
	if err := b.flows.set(ctx, subject.sessionID, state); err != nil {
		return err
	}
	b.notify(ctx, subject.sessionID, subject.client, state)
	return nil
}

func (b *Bridge) notify(ctx context.Context, sessionID, client string, state FlowState) {
	b.log.DebugContext(ctx, "flow transition",
		logger.Component("bridge"),
		logger.SessionID(sessionID),
		logger.ClientType(client),
		logger.FlowState(string(state)),
	)
	if len(b.hooks) == 0 {
		return
	}
	t := Transition{SessionID: sessionID, Client: client, State: state, At: b.now()}
	for _, h := range b.hooks {
		h(ctx, t)
	}
}

func withErrorCode(target, code string) string {
	u, err := url.Parse(target)
	if err != nil {
		return target
	}
	q := u.Query()
	q.Set("error", code)
	u.RawQuery = q.Encode()
	return u.String()
}
