package zklogin

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// ed25519Flag is the signature scheme flag of a serialized Sui signature.
const ed25519Flag = 0x00

// transactionIntent prefixes transaction bytes before hashing.
var transactionIntent = []byte{0, 0, 0}

// KeyBytes decodes from a JSON array of byte values or a base64 string.
type KeyBytes []byte

func (k *KeyBytes) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '[' {
		var ints []int
		if err := json.Unmarshal(data, &ints); err != nil {
			return err
		}
		out := make([]byte, len(ints))
		for i, v := range ints {
			if v < 0 || v > 255 {
				return fmt.Errorf("zklogin: key byte %d out of range", v)
			}
			out[i] = byte(v)
		}
		*k = out
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return err
	}
	*k = raw
	return nil
}

// SignRequest asks for a transaction to be signed with an ephemeral key.
type SignRequest struct {
	// Transaction is the base64 encoded transaction data.
	Transaction         string          `json:"transaction"`
	EphemeralPrivateKey KeyBytes        `json:"ephemeralPrivateKey"`
	Proof               json.RawMessage `json:"proof"`
	Address             string          `json:"address"`
}

// SignedTransaction is a transaction with its serialized user signature.
type SignedTransaction struct {
	Bytes     string `json:"bytes"`
	Signature string `json:"signature"`
}

// SignResult echoes the proof and address next to the signed transaction.
type SignResult struct {
	Sandbox           bool              `json:"sandbox"`
	SignedTransaction SignedTransaction `json:"signedTransaction"`
	Proof             json.RawMessage   `json:"proof"`
	Address           string            `json:"address"`
}

// SandboxSign signs the transaction intent digest with the ephemeral key.
// The key leaves the client only in sandbox deployments.
func SandboxSign(ctx context.Context, req SignRequest) (SignResult, error) {
	if err := ctx.Err(); err != nil {
		return SignResult{}, err
	}
	if req.Transaction == "" || len(req.EphemeralPrivateKey) == 0 || isEmptyJSON(req.Proof) || req.Address == "" {
		return SignResult{}, ErrInvalidSignRequest
	}
	txBytes, err := base64.StdEncoding.DecodeString(req.Transaction)
	if err != nil || len(txBytes) == 0 {
		return SignResult{}, fmt.Errorf("%w: transaction is not base64", ErrInvalidSignRequest)
	}

	var priv ed25519.PrivateKey
	switch len(req.EphemeralPrivateKey) {
	case ed25519.SeedSize:
		priv = ed25519.NewKeyFromSeed(req.EphemeralPrivateKey)
	case ed25519.PrivateKeySize:
		priv = ed25519.PrivateKey(req.EphemeralPrivateKey)
	default:
		return SignResult{}, ErrInvalidEphemeralKey
	}

	digest := blake2b.Sum256(append(append([]byte{}, transactionIntent...), txBytes...))
	sig := ed25519.Sign(priv, digest[:])

	serialized := make([]byte, 0, 1+ed25519.SignatureSize+ed25519.PublicKeySize)
	serialized = append(serialized, ed25519Flag)
	serialized = append(serialized, sig...)
	serialized = append(serialized, priv.Public().(ed25519.PublicKey)...)

	return SignResult{
		Sandbox: true,
		SignedTransaction: SignedTransaction{
			Bytes:     req.Transaction,
			Signature: base64.StdEncoding.EncodeToString(serialized),
		},
		Proof:   req.Proof,
		Address: req.Address,
	}, nil
}
