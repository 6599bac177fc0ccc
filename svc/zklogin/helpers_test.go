package zklogin_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/dmitrymomot/zkbridge/pkg/oneshot"
	"github.com/dmitrymomot/zkbridge/svc/zklogin"
	"github.com/dmitrymomot/zkbridge/svc/zklogin/store/memstore"
)

func makeToken(t *testing.T, claims map[string]any) string {
	t.Helper()
	payload, err := json.Marshal(claims)
	if err != nil {
		t.Fatal(err)
	}
	enc := base64.RawURLEncoding
	return enc.EncodeToString([]byte(`{"alg":"RS256","kid":"k1","typ":"JWT"}`)) + "." +
		enc.EncodeToString(payload) + "." +
		enc.EncodeToString([]byte("provider-signature"))
}

func googleClaims(sub string) map[string]any {
	return map[string]any{
		"iss":   "https://accounts.google.com",
		"aud":   "web-client-id",
		"sub":   sub,
		"email": sub + "@example.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	}
}

// tokenEndpoint is a fake provider token endpoint.
type tokenEndpoint struct {
	srv   *httptest.Server
	calls atomic.Int32

	mu      sync.Mutex
	status  int
	idToken string
}

func newTokenEndpoint(t *testing.T, idToken string) *tokenEndpoint {
	t.Helper()
	te := &tokenEndpoint{status: http.StatusOK, idToken: idToken}
	te.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		te.calls.Add(1)
		te.mu.Lock()
		status, idToken := te.status, te.idToken
		te.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if status != http.StatusOK {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"secret provider detail"}`))
			return
		}
		body := map[string]any{"access_token": "at", "token_type": "Bearer", "expires_in": 3600}
		if idToken != "" {
			body["id_token"] = idToken
		}
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(te.srv.Close)
	return te
}

func (te *tokenEndpoint) set(status int, idToken string) {
	te.mu.Lock()
	te.status, te.idToken = status, idToken
	te.mu.Unlock()
}

func (te *tokenEndpoint) provider(clientID string) zklogin.Provider {
	return zklogin.NewGoogleProvider(zklogin.GoogleConfig{
		ClientID:     clientID,
		ClientSecret: "secret",
		RedirectURL:  "https://bridge.example.com/auth/google/callback",
		Scopes:       []string{"openid", "email", "profile"},
		AuthURL:      "https://accounts.example.com/o/oauth2/auth",
		TokenURL:     te.srv.URL,
	}, zklogin.WithHTTPClient(te.srv.Client()))
}

type fixture struct {
	bridge  *zklogin.Bridge
	store   *memstore.Store
	tokens  *tokenEndpoint
	salts   *zklogin.SaltRegistry
	flows   *zklogin.FlowTracker
	mu      sync.Mutex
	history []zklogin.Transition
}

func (f *fixture) states(sessionID string) []zklogin.FlowState {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []zklogin.FlowState
	for _, tr := range f.history {
		if tr.SessionID == sessionID {
			out = append(out, tr.State)
		}
	}
	return out
}

func newFixture(t *testing.T, idToken string, saltStore zklogin.SaltStore) *fixture {
	t.Helper()

	f := &fixture{store: memstore.New(), tokens: newTokenEndpoint(t, idToken)}
	if saltStore == nil {
		saltStore = f.store
	}

	nonceStore := oneshot.NewMemoryStore[string](10*time.Minute, oneshot.WithCleanupInterval(0))
	mailStore := oneshot.NewMemoryStore[zklogin.Envelope](10*time.Minute, oneshot.WithCleanupInterval(0))
	flowStore := oneshot.NewMemoryStore[zklogin.FlowState](10*time.Minute, oneshot.WithCleanupInterval(0))
	t.Cleanup(func() {
		_ = nonceStore.Close()
		_ = mailStore.Close()
		_ = flowStore.Close()
	})
	f.flows = zklogin.NewFlowTracker(flowStore)

	f.salts = zklogin.NewSaltRegistry(saltStore)
	bridge, err := zklogin.NewBridge(
		zklogin.NewNonceCorrelator(nonceStore),
		zklogin.NewMailbox(mailStore),
		f.flows,
		f.salts,
		[]zklogin.Client{
			{Name: "game", Provider: f.tokens.provider("game-client-id"), SuccessURL: "https://game.example.com/ok", FailureURL: "https://game.example.com/fail"},
			{Name: "web", Provider: f.tokens.provider("web-client-id")},
		},
		zklogin.WithTransitionHook(func(_ context.Context, tr zklogin.Transition) {
			f.mu.Lock()
			f.history = append(f.history, tr)
			f.mu.Unlock()
		}),
	)
	if err != nil {
		t.Fatal(err)
	}
	f.bridge = bridge
	return f
}

// mockSaltStore is a testify mock of zklogin.SaltStore.
type mockSaltStore struct {
	mock.Mock
}

func (m *mockSaltStore) GetSalt(ctx context.Context, subject string) (string, error) {
	args := m.Called(ctx, subject)
	return args.String(0), args.Error(1)
}

func (m *mockSaltStore) CreateSalt(ctx context.Context, subject, salt string) (string, error) {
	args := m.Called(ctx, subject, salt)
	return args.String(0), args.Error(1)
}

// mockProfileStore is a testify mock of zklogin.ProfileStore.
type mockProfileStore struct {
	mock.Mock
}

func (m *mockProfileStore) RecordLogin(ctx context.Context, subject, address string, at time.Time) error {
	return m.Called(ctx, subject, address, at).Error(0)
}
