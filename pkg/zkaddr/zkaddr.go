// Package zkaddr derives zkLogin addresses.
//
// The address is a pure function of the token issuer, the key claim
// (subject), the audience and the user salt:
//
//	seed    = Poseidon(H(name,32), H(value,115), H(aud,145), Poseidon(salt))
//	address = BLAKE2b-256(0x05 || len(iss) || iss || seed as 32 bytes BE)
//
// where H packs a zero-padded ASCII string into 248-bit field elements and
// hashes them. Poseidon runs over the BN254 scalar field.
package zkaddr

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"

	bn254fr "github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/mdehoog/poseidon/poseidon"
	"golang.org/x/crypto/blake2b"
)

const (
	MaxKeyClaimNameLength  = 32
	MaxKeyClaimValueLength = 115
	MaxAudValueLength      = 145

	packWidth      = 248
	zkLoginFlag    = 0x05
	seedByteLength = 32
	maxPoseidonIn  = 16

	// DefaultKeyClaim is the claim identifying the user.
	DefaultKeyClaim = "sub"
)

var (
	ErrValueTooLong = errors.New("zkaddr: claim value too long")
	ErrInvalidSalt  = errors.New("zkaddr: invalid salt")
	ErrEmptyInput   = errors.New("zkaddr: empty issuer, subject or audience")
)

// Input is everything the address depends on.
type Input struct {
	Issuer   string
	KeyClaim string // defaults to DefaultKeyClaim
	Subject  string
	Audience string
	Salt     *big.Int
}

// AddressSeed returns the Poseidon commitment over the key claim, audience and salt.
func AddressSeed(in Input) (*big.Int, error) {
	if in.Subject == "" || in.Audience == "" {
		return nil, ErrEmptyInput
	}
	if in.Salt == nil || in.Salt.Sign() < 0 || in.Salt.Cmp(bn254fr.Modulus()) >= 0 {
		return nil, ErrInvalidSalt
	}
	name := in.KeyClaim
	if name == "" {
		name = DefaultKeyClaim
	}

	nameF, err := hashASCII(name, MaxKeyClaimNameLength)
	if err != nil {
		return nil, err
	}
	valueF, err := hashASCII(in.Subject, MaxKeyClaimValueLength)
	if err != nil {
		return nil, err
	}
	audF, err := hashASCII(in.Audience, MaxAudValueLength)
	if err != nil {
		return nil, err
	}
	saltF, err := poseidon.Hash[*bn254fr.Element]([]*big.Int{in.Salt})
	if err != nil {
		return nil, fmt.Errorf("zkaddr: hash salt: %w", err)
	}

	seed, err := poseidon.Hash[*bn254fr.Element]([]*big.Int{nameF, valueF, audF, saltF})
	if err != nil {
		return nil, fmt.Errorf("zkaddr: hash seed: %w", err)
	}
	return seed, nil
}

// Derive returns the 0x-prefixed lowercase hex address for in.
func Derive(in Input) (string, error) {
	if in.Issuer == "" {
		return "", ErrEmptyInput
	}
	seed, err := AddressSeed(in)
	if err != nil {
		return "", err
	}
	return AddressFromSeed(seed, in.Issuer)
}

// AddressFromSeed hashes the seed together with the normalized issuer.
func AddressFromSeed(seed *big.Int, issuer string) (string, error) {
	iss := NormalizeIssuer(issuer)
	if len(iss) > 255 {
		return "", fmt.Errorf("%w: issuer", ErrValueTooLong)
	}
	if seed.Sign() < 0 || seed.BitLen() > seedByteLength*8 {
		return "", fmt.Errorf("zkaddr: seed out of range")
	}

	buf := make([]byte, 0, 2+len(iss)+seedByteLength)
	buf = append(buf, zkLoginFlag, byte(len(iss)))
	buf = append(buf, iss...)
	buf = append(buf, seed.FillBytes(make([]byte, seedByteLength))...)

	sum := blake2b.Sum256(buf)
	return "0x" + hex.EncodeToString(sum[:]), nil
}

// NormalizeIssuer maps Google's scheme-less issuer to its URL form.
func NormalizeIssuer(iss string) string {
	if iss == "accounts.google.com" {
		return "https://accounts.google.com"
	}
	return iss
}

// hashASCII zero-pads s to maxLen bytes, packs the bit string into
// big-endian chunks of packWidth bits taken from the end, and hashes them.
func hashASCII(s string, maxLen int) (*big.Int, error) {
	if len(s) > maxLen {
		return nil, fmt.Errorf("%w: %d > %d bytes", ErrValueTooLong, len(s), maxLen)
	}
	padded := make([]byte, maxLen)
	copy(padded, s)

	var bits strings.Builder
	bits.Grow(maxLen * 8)
	for _, b := range padded {
		fmt.Fprintf(&bits, "%08b", b)
	}
	all := bits.String()

	n := (len(all) + packWidth - 1) / packWidth
	chunks := make([]*big.Int, n)
	for i := range n {
		end := len(all) - i*packWidth
		start := max(end-packWidth, 0)
		v, ok := new(big.Int).SetString(all[start:end], 2)
		if !ok {
			return nil, fmt.Errorf("zkaddr: pack %q", s)
		}
		chunks[n-1-i] = v
	}
	if len(chunks) > maxPoseidonIn {
		return nil, fmt.Errorf("%w: %d field elements", ErrValueTooLong, len(chunks))
	}

	return poseidon.Hash[*bn254fr.Element](chunks)
}
