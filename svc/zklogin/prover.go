package zklogin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const maxProverBody = 1 << 20

// ProofRequest is the body sent to the proving service.
type ProofRequest struct {
	JWT                        string      `json:"jwt"`
	ExtendedEphemeralPublicKey string      `json:"extendedEphemeralPublicKey"`
	MaxEpoch                   json.Number `json:"maxEpoch"`
	JWTRandomness              string      `json:"jwtRandomness"`
	Salt                       string      `json:"salt"`
	KeyClaimName               string      `json:"keyClaimName"`
}

// Prover produces a zkLogin proof. The proof is opaque JSON.
type Prover interface {
	Prove(ctx context.Context, req ProofRequest) (json.RawMessage, error)
}

// ProverConfig configures the HTTP prover.
type ProverConfig struct {
	URL          string        `env:"URL" envDefault:"https://prover-dev.mystenlabs.com/v1"`
	Timeout      time.Duration `env:"TIMEOUT" envDefault:"60s"`
	SaltEncoding string        `env:"SALT_ENCODING" envDefault:"base64"`
}

// HTTPProver posts proof requests to a remote proving service.
type HTTPProver struct {
	url    string
	client *http.Client
}

// NewHTTPProver returns a prover for cfg. client may be nil.
func NewHTTPProver(cfg ProverConfig, client *http.Client) *HTTPProver {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &HTTPProver{url: cfg.URL, client: client}
}

// Prove sends req once. Non-2xx answers and transport failures return *ProverError.
func (p *HTTPProver) Prove(ctx context.Context, req ProofRequest) (json.RawMessage, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("zklogin: encode proof request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("zklogin: build proof request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, &ProverError{Detail: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxProverBody))
	if err != nil {
		return nil, &ProverError{Status: resp.StatusCode, Detail: err.Error(), Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ProverError{Status: resp.StatusCode, Detail: string(raw)}
	}
	if !json.Valid(raw) {
		return nil, &ProverError{Status: resp.StatusCode, Detail: "response is not JSON"}
	}
	return json.RawMessage(raw), nil
}

// SandboxProver answers every request with a labelled placeholder proof.
// It never contacts a proving service.
type SandboxProver struct{}

// Prove returns a proof object carrying "sandbox": true.
func (SandboxProver) Prove(ctx context.Context, req ProofRequest) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return json.Marshal(map[string]any{
		"sandbox": true,
		"proofPoints": map[string]any{
			"a": []string{"0", "0", "1"},
			"b": [][]string{{"0", "0"}, {"0", "0"}, {"1", "0"}},
			"c": []string{"0", "0", "1"},
		},
		"issBase64Details": map[string]any{"value": "", "indexMod4": 0},
		"headerBase64":     "",
	})
}

var (
	_ Prover = (*HTTPProver)(nil)
	_ Prover = SandboxProver{}
)
