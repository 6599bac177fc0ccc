package zkaddr_test

import (
	"math/big"
	"regexp"
	"strings"
	"testing"

	bn254fr "github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/mdehoog/poseidon/poseidon"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/zkbridge/pkg/zkaddr"
)

var addressPattern = regexp.MustCompile(`^0x[0-9a-f]{64}$`)

func salt(t *testing.T, hexSalt string) *big.Int {
	t.Helper()
	v, ok := new(big.Int).SetString(hexSalt, 16)
	require.True(t, ok)
	return v
}

func baseInput(t *testing.T) zkaddr.Input {
	return zkaddr.Input{
		Issuer:   "https://accounts.google.com",
		Subject:  "110463452167303598383",
		Audience: "25769832374-famecqrhe2gkebt5fvqms2263046lj96.apps.googleusercontent.com",
		Salt:     salt(t, "0123456789abcdef0123456789abcdef"),
	}
}

func TestDerive(t *testing.T) {
	t.Parallel()

	t.Run("deterministic", func(t *testing.T) {
		t.Parallel()

		a1, err := zkaddr.Derive(baseInput(t))
		require.NoError(t, err)
		a2, err := zkaddr.Derive(baseInput(t))
		require.NoError(t, err)
		assert.Equal(t, a1, a2)
		assert.Regexp(t, addressPattern, a1)
	})

	t.Run("salt sensitive", func(t *testing.T) {
		t.Parallel()

		in := baseInput(t)
		a1, err := zkaddr.Derive(in)
		require.NoError(t, err)

		in.Salt = salt(t, "0123456789abcdef0123456789abcdee")
		a2, err := zkaddr.Derive(in)
		require.NoError(t, err)
		assert.NotEqual(t, a1, a2)
	})

	t.Run("subject and audience sensitive", func(t *testing.T) {
		t.Parallel()

		a0, err := zkaddr.Derive(baseInput(t))
		require.NoError(t, err)

		in := baseInput(t)
		in.Subject = "110463452167303598384"
		a1, err := zkaddr.Derive(in)
		require.NoError(t, err)

		in = baseInput(t)
		in.Audience = "another-client"
		a2, err := zkaddr.Derive(in)
		require.NoError(t, err)

		assert.NotEqual(t, a0, a1)
		assert.NotEqual(t, a0, a2)
	})

	t.Run("google issuer forms are equivalent", func(t *testing.T) {
		t.Parallel()

		in := baseInput(t)
		a1, err := zkaddr.Derive(in)
		require.NoError(t, err)

		in.Issuer = "accounts.google.com"
		a2, err := zkaddr.Derive(in)
		require.NoError(t, err)
		assert.Equal(t, a1, a2)
	})

	t.Run("explicit sub key claim matches default", func(t *testing.T) {
		t.Parallel()

		in := baseInput(t)
		a1, err := zkaddr.Derive(in)
		require.NoError(t, err)

		in.KeyClaim = "sub"
		a2, err := zkaddr.Derive(in)
		require.NoError(t, err)
		assert.Equal(t, a1, a2)
	})

	t.Run("rejects bad input", func(t *testing.T) {
		t.Parallel()

		in := baseInput(t)
		in.Subject = strings.Repeat("9", zkaddr.MaxKeyClaimValueLength+1)
		_, err := zkaddr.Derive(in)
		assert.ErrorIs(t, err, zkaddr.ErrValueTooLong)

		in = baseInput(t)
		in.Salt = nil
		_, err = zkaddr.Derive(in)
		assert.ErrorIs(t, err, zkaddr.ErrInvalidSalt)

		in = baseInput(t)
		in.Salt = big.NewInt(-1)
		_, err = zkaddr.Derive(in)
		assert.ErrorIs(t, err, zkaddr.ErrInvalidSalt)

		in = baseInput(t)
		in.Issuer = ""
		_, err = zkaddr.Derive(in)
		assert.ErrorIs(t, err, zkaddr.ErrEmptyInput)
	})
}

func TestAddressFromSeed(t *testing.T) {
	t.Parallel()

	a, err := zkaddr.AddressFromSeed(big.NewInt(1), "https://accounts.google.com")
	require.NoError(t, err)
	assert.Regexp(t, addressPattern, a)

	b, err := zkaddr.AddressFromSeed(big.NewInt(2), "https://accounts.google.com")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func decimal(t *testing.T, s string) *big.Int {
	t.Helper()
	v, ok := new(big.Int).SetString(s, 10)
	require.True(t, ok)
	return v
}

func TestKnownAnswers(t *testing.T) {
	t.Parallel()

	t.Run("poseidon matches circomlib", func(t *testing.T) {
		t.Parallel()

		one, err := poseidon.Hash[*bn254fr.Element]([]*big.Int{big.NewInt(1)})
		require.NoError(t, err)
		assert.Equal(t, "18586133768512220936620570745912940619677854269274689475585506675881198879027", one.String())

		two, err := poseidon.Hash[*bn254fr.Element]([]*big.Int{big.NewInt(1), big.NewInt(2)})
		require.NoError(t, err)
		assert.Equal(t, "7853200120776062878684798364095072458815029376092732009249414926327459813530", two.String())
	})

	// Vector from the Sui TypeScript SDK jwtToAddress tests.
	t.Run("sui sdk address", func(t *testing.T) {
		t.Parallel()

		addr, err := zkaddr.Derive(zkaddr.Input{
			Issuer:   "https://oauth.sui.io",
			Subject:  "8c2d7d66-87af-41fa-b6fb-63e82b43aeb4",
			Audience: "example.com",
			Salt:     decimal(t, "248191903847969014646285995941615069143"),
		})
		require.NoError(t, err)
		assert.Equal(t, "0x22cebcf68a9d75d508d50d553dd6bae378ef51177a3a6325b749e57e3ba237d6", addr)
	})
}
