package zklogin

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// SubmitRequest is a signed transaction submission.
type SubmitRequest struct {
	SignedTransaction json.RawMessage `json:"signedTransaction"`
	Proof             json.RawMessage `json:"proof"`
	Address           string          `json:"address"`
}

// SubmitResult mimics a successful network submission.
type SubmitResult struct {
	Sandbox           bool           `json:"sandbox"`
	Success           bool           `json:"success"`
	TransactionDigest string         `json:"transactionDigest"`
	Effects           map[string]any `json:"effects"`
	ObjectChanges     []ObjectChange `json:"objectChanges"`
}

// ObjectChange is one entry of SubmitResult.ObjectChanges.
type ObjectChange struct {
	Type      string `json:"type"`
	Sender    string `json:"sender"`
	Recipient string `json:"recipient"`
	ObjectID  string `json:"objectId"`
}

// SandboxSubmit accepts a transaction without sending it anywhere and
// returns a fabricated, sandbox-labelled result.
func SandboxSubmit(ctx context.Context, req SubmitRequest) (SubmitResult, error) {
	if err := ctx.Err(); err != nil {
		return SubmitResult{}, err
	}
	if isEmptyJSON(req.SignedTransaction) || isEmptyJSON(req.Proof) || req.Address == "" {
		return SubmitResult{}, ErrInvalidSubmission
	}
	digest, err := randomHex(32)
	if err != nil {
		return SubmitResult{}, err
	}
	objectID, err := randomHex(20)
	if err != nil {
		return SubmitResult{}, err
	}
	return SubmitResult{
		Sandbox:           true,
		Success:           true,
		TransactionDigest: "0x" + digest,
		Effects: map[string]any{
			"status":  map[string]string{"status": "success"},
			"gasUsed": map[string]int{"computationCost": 1000, "storageCost": 100, "storageRebate": 50},
		},
		ObjectChanges: []ObjectChange{{
			Type:      "transferred",
			Sender:    req.Address,
			Recipient: req.Address,
			ObjectID:  "0x" + objectID,
		}},
	}, nil
}

func isEmptyJSON(raw json.RawMessage) bool {
	s := string(raw)
	return s == "" || s == "null" || s == "{}" || s == `""`
}

func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("zklogin: random: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
