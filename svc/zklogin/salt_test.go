package zklogin_test

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/zkbridge/svc/zklogin"
	"github.com/dmitrymomot/zkbridge/svc/zklogin/store/memstore"
)

func TestSaltRegistry_GetOrCreate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("creates once and reuses", func(t *testing.T) {
		t.Parallel()

		r := zklogin.NewSaltRegistry(memstore.New())
		first, err := r.GetOrCreate(ctx, "u1")
		require.NoError(t, err)
		assert.Regexp(t, hexSalt, first)

		second, err := r.GetOrCreate(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, first, second)

		other, err := r.GetOrCreate(ctx, "u2")
		require.NoError(t, err)
		assert.NotEqual(t, first, other)
	})

	t.Run("concurrent first calls agree", func(t *testing.T) {
		t.Parallel()

		r := zklogin.NewSaltRegistry(memstore.New())
		results := make([]string, 16)
		var wg sync.WaitGroup
		for i := range results {
			wg.Add(1)
			go func() {
				defer wg.Done()
				s, err := r.GetOrCreate(ctx, "u1")
				assert.NoError(t, err)
				results[i] = s
			}()
		}
		wg.Wait()
		for _, s := range results {
			assert.Equal(t, results[0], s)
		}
	})

	t.Run("losing insert returns stored salt", func(t *testing.T) {
		t.Parallel()

		const winner = "ffffffffffffffffffffffffffffffff"
		store := &mockSaltStore{}
		store.On("GetSalt", mock.Anything, "u1").Return("", zklogin.ErrSaltNotFound)
		store.On("CreateSalt", mock.Anything, "u1", "00000000000000000000000000000000").Return(winner, nil)

		r := zklogin.NewSaltRegistry(store, zklogin.WithSaltRandom(bytes.NewReader(make([]byte, 16))))
		got, err := r.GetOrCreate(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, winner, got)
		store.AssertExpectations(t)
	})

	t.Run("read failure aborts without insert", func(t *testing.T) {
		t.Parallel()

		store := &mockSaltStore{}
		store.On("GetSalt", mock.Anything, "u1").Return("", errors.New("timeout"))

		_, err := zklogin.NewSaltRegistry(store).GetOrCreate(ctx, "u1")
		assert.ErrorIs(t, err, zklogin.ErrStorage)
		store.AssertNotCalled(t, "CreateSalt", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("insert failure aborts", func(t *testing.T) {
		t.Parallel()

		store := &mockSaltStore{}
		store.On("GetSalt", mock.Anything, "u1").Return("", zklogin.ErrSaltNotFound)
		store.On("CreateSalt", mock.Anything, "u1", mock.Anything).Return("", errors.New("read only"))

		_, err := zklogin.NewSaltRegistry(store).GetOrCreate(ctx, "u1")
		assert.ErrorIs(t, err, zklogin.ErrStorage)
	})

	t.Run("empty subject", func(t *testing.T) {
		t.Parallel()

		_, err := zklogin.NewSaltRegistry(memstore.New()).GetOrCreate(ctx, "")
		assert.ErrorIs(t, err, zklogin.ErrInvalidCredential)
	})
}

func TestEncodeSalt(t *testing.T) {
	t.Parallel()

	const canonical = "000000000000000000000000000000ff"
	tests := []struct {
		enc  zklogin.SaltEncoding
		want string
	}{
		{zklogin.SaltBase64, "AAAAAAAAAAAAAAAAAAAA/w=="},
		{zklogin.SaltDecimal, "255"},
		{zklogin.SaltHex, canonical},
	}
	for _, tt := range tests {
		t.Run(string(tt.enc), func(t *testing.T) {
			t.Parallel()

			got, err := zklogin.EncodeSalt(canonical, tt.enc)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("rejects non canonical", func(t *testing.T) {
		t.Parallel()

		for _, bad := range []string{"", "ABCDEF0123456789ABCDEF0123456789", "zz", "0123"} {
			_, err := zklogin.EncodeSalt(bad, zklogin.SaltBase64)
			assert.ErrorIs(t, err, zklogin.ErrInvalidSalt, bad)
		}
	})

	t.Run("parse encoding", func(t *testing.T) {
		t.Parallel()

		enc, err := zklogin.ParseSaltEncoding("")
		require.NoError(t, err)
		assert.Equal(t, zklogin.SaltBase64, enc)

		enc, err = zklogin.ParseSaltEncoding(" Decimal ")
		require.NoError(t, err)
		assert.Equal(t, zklogin.SaltDecimal, enc)

		_, err = zklogin.ParseSaltEncoding("base58")
		assert.Error(t, err)
	})
}
