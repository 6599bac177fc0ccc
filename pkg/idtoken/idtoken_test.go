package idtoken_test

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/zkbridge/pkg/idtoken"
)

const (
	testHeader    = `{"alg":"RS256","kid":"k1","typ":"JWT"}`
	testSignature = "c2lnbmF0dXJlLWJ5dGVz"
)

func makeToken(payload string) string {
	enc := base64.RawURLEncoding
	return enc.EncodeToString([]byte(testHeader)) + "." + enc.EncodeToString([]byte(payload)) + "." + testSignature
}

func payloadOf(t *testing.T, token string) string {
	t.Helper()
	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	raw, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)
	return string(raw)
}

func TestReconcile(t *testing.T) {
	t.Parallel()

	noNonce := `{"iss":"https://accounts.google.com","aud":"client-1","sub":"u1","email":"a@b.c","exp":4102444800,"extra":{"z":1,"a":[1.50,2]}}`

	t.Run("inserts missing nonce", func(t *testing.T) {
		t.Parallel()

		tok := makeToken(noNonce)
		got, err := idtoken.Reconcile(tok, "n1")
		require.NoError(t, err)

		claims, err := idtoken.Decode(got.String())
		require.NoError(t, err)
		assert.Equal(t, "n1", claims.Nonce)
		assert.True(t, claims.HasNonce)
		assert.Equal(t, "u1", claims.Subject)
	})

	t.Run("preserves header signature and other claims byte for byte", func(t *testing.T) {
		t.Parallel()

		tok := makeToken(noNonce)
		got, err := idtoken.Reconcile(tok, "n1")
		require.NoError(t, err)

		in := strings.Split(tok, ".")
		out := strings.Split(got.String(), ".")
		assert.Equal(t, in[0], out[0])
		assert.Equal(t, in[2], out[2])

		payload := payloadOf(t, got.String())
		assert.Equal(t, strings.TrimSuffix(noNonce, "}")+`,"nonce":"n1"}`, payload)
	})

	t.Run("idempotent", func(t *testing.T) {
		t.Parallel()

		once, err := idtoken.Reconcile(makeToken(noNonce), "n1")
		require.NoError(t, err)
		twice, err := idtoken.Reconcile(once.String(), "n1")
		require.NoError(t, err)
		assert.Equal(t, once, twice)
	})

	t.Run("existing nonce is left alone", func(t *testing.T) {
		t.Parallel()

		tok := makeToken(`{"sub":"u1","nonce":"from-provider"}`)
		got, err := idtoken.Reconcile(tok, "n1")
		require.NoError(t, err)
		assert.Equal(t, tok, got.String())
	})

	t.Run("empty expected nonce is a no-op", func(t *testing.T) {
		t.Parallel()

		tok := makeToken(noNonce)
		got, err := idtoken.Reconcile(tok, "")
		require.NoError(t, err)
		assert.Equal(t, tok, got.String())
	})

	t.Run("escapes nonce value", func(t *testing.T) {
		t.Parallel()

		got, err := idtoken.Reconcile(makeToken(`{"sub":"u1"}`), `a"b\c`)
		require.NoError(t, err)
		claims, err := idtoken.Decode(got.String())
		require.NoError(t, err)
		assert.Equal(t, `a"b\c`, claims.Nonce)
	})

	t.Run("empty object payload", func(t *testing.T) {
		t.Parallel()

		got, err := idtoken.Reconcile(makeToken(`{ }`), "n1")
		require.NoError(t, err)
		assert.Equal(t, `{ "nonce":"n1"}`, payloadOf(t, got.String()))
	})

	malformed := []struct {
		name  string
		token string
		want  error
	}{
		{"two segments", "a.b", idtoken.ErrMalformedToken},
		{"empty payload", "a..c", idtoken.ErrMalformedToken},
		{"bad base64", "a.!!!.c", idtoken.ErrMalformedToken},
		{"array payload", makeToken(`[1,2]`), idtoken.ErrNotObject},
		{"not json", makeToken(`hello`), idtoken.ErrNotObject},
	}
	for _, tt := range malformed {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := idtoken.Reconcile(tt.token, "n1")
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestDecode(t *testing.T) {
	t.Parallel()

	t.Run("reads identity claims", func(t *testing.T) {
		t.Parallel()

		c, err := idtoken.Decode(makeToken(`{"iss":"accounts.google.com","aud":["web","game"],"sub":"u1","email":"a@b.c","name":"Ann","picture":"https://p","exp":1700000000}`))
		require.NoError(t, err)
		assert.Equal(t, "u1", c.Subject)
		assert.Equal(t, "accounts.google.com", c.Issuer)
		assert.Equal(t, []string{"web", "game"}, c.Audience)
		assert.True(t, c.HasAudience("game"))
		assert.False(t, c.HasAudience("other"))
		assert.Equal(t, "Ann", c.Name)
		assert.Equal(t, "https://p", c.Picture)
		assert.False(t, c.HasNonce)
		assert.True(t, time.Unix(1700000000, 0).Equal(c.ExpiresAt))
		assert.True(t, c.Expired(time.Unix(1700000000, 0)))
		assert.False(t, c.Expired(time.Unix(1699999999, 0)))
	})

	t.Run("single audience string", func(t *testing.T) {
		t.Parallel()

		c, err := idtoken.Decode(makeToken(`{"aud":"web","sub":"u1"}`))
		require.NoError(t, err)
		assert.Equal(t, []string{"web"}, c.Audience)
		assert.False(t, c.Expired(time.Now()))
	})

	t.Run("missing subject", func(t *testing.T) {
		t.Parallel()

		_, err := idtoken.Decode(makeToken(`{"aud":"web"}`))
		assert.ErrorIs(t, err, idtoken.ErrMissingSubject)
	})

	t.Run("garbage", func(t *testing.T) {
		t.Parallel()

		_, err := idtoken.Decode("not-a-token")
		assert.ErrorIs(t, err, idtoken.ErrMalformedToken)
	})
}
