package zklogin

import (
	"fmt"
	"strings"
)

// MaxSessionIDLength bounds client-generated session ids.
const MaxSessionIDLength = 128

// Default landing targets served by the bridge itself.
const (
	DefaultSuccessPath = "/auth/landing/success"
	DefaultFailurePath = "/auth/landing/failure"
)

// Client is one client surface sharing the bridge, such as the embedded
// game client or the browser client. Its state prefix tells callbacks apart
// and selects the provider application and landing targets.
type Client struct {
	Name        string
	StatePrefix string // defaults to Name
	Provider    Provider
	SuccessURL  string // defaults to DefaultSuccessPath
	FailureURL  string // defaults to DefaultFailurePath
}

type clientSet struct {
	byName   map[string]Client
	byPrefix map[string]Client
	fallback string
}

func newClientSet(clients []Client) (*clientSet, error) {
	if len(clients) == 0 {
		return nil, fmt.Errorf("zklogin: at least one client is required")
	}
	cs := &clientSet{
		byName:   make(map[string]Client, len(clients)),
		byPrefix: make(map[string]Client, len(clients)),
		fallback: clients[0].Name,
	}
	for _, c := range clients {
		if c.Name == "" || c.Provider == nil {
			return nil, fmt.Errorf("zklogin: client needs a name and a provider")
		}
		if c.StatePrefix == "" {
			c.StatePrefix = c.Name
		}
		if strings.Contains(c.StatePrefix, ".") {
			return nil, fmt.Errorf("zklogin: state prefix %q must not contain '.'", c.StatePrefix)
		}
		if c.SuccessURL == "" {
			c.SuccessURL = DefaultSuccessPath + "?client=" + c.Name
		}
		if c.FailureURL == "" {
			c.FailureURL = DefaultFailurePath + "?client=" + c.Name
		}
		if _, dup := cs.byName[c.Name]; dup {
			return nil, fmt.Errorf("zklogin: duplicate client %q", c.Name)
		}
		if _, dup := cs.byPrefix[c.StatePrefix]; dup {
			return nil, fmt.Errorf("zklogin: duplicate state prefix %q", c.StatePrefix)
		}
		cs.byName[c.Name] = c
		cs.byPrefix[c.StatePrefix] = c
	}
	return cs, nil
}

// lookup returns the named client or the first configured one for an empty name.
func (cs *clientSet) lookup(name string) (Client, error) {
	if name == "" {
		name = cs.fallback
	}
	c, ok := cs.byName[name]
	if !ok {
		return Client{}, fmt.Errorf("%w: %q", ErrUnknownClient, name)
	}
	return c, nil
}

// EncodeState builds the provider state parameter for a session.
func EncodeState(prefix, sessionID string) string {
	return prefix + "." + sessionID
}

// decodeState splits state at the first '.'. When the part before the dot
// is not a known client prefix, or there is no dot at all, the whole state
// is an unprefixed session id of the fallback client. Unprefixed ids that
// start with a known prefix and a dot are read as prefixed.
func (cs *clientSet) decodeState(state string) (Client, string, error) {
	fallback := cs.byName[cs.fallback]
	if state == "" {
		return fallback, "", ErrInvalidState
	}
	c, sessionID := fallback, state
	if prefix, rest, found := strings.Cut(state, "."); found {
		if pc, ok := cs.byPrefix[prefix]; ok {
			c, sessionID = pc, rest
		}
	}
	if err := validateSessionID(sessionID); err != nil {
		return c, "", fmt.Errorf("%w: %w", ErrInvalidState, err)
	}
	return c, sessionID, nil
}

func validateSessionID(id string) error {
	if id == "" {
		return ErrEmptySessionID
	}
	if len(id) > MaxSessionIDLength {
		return ErrSessionIDTooLong
	}
	return nil
}
