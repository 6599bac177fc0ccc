package pgstore_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/zkbridge/svc/zklogin"
	"github.com/dmitrymomot/zkbridge/svc/zklogin/store/pgstore"
)

type fakeRow struct {
	val string
	err error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*string)) = r.val
	return nil
}

type mockDB struct {
	mock.Mock
}

func (m *mockDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return m.Called(sql, args).Get(0).(pgx.Row)
}

func (m *mockDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	a := m.Called(sql, args)
	return pgconn.NewCommandTag("UPDATE 1"), a.Error(0)
}

func (m *mockDB) Ping(ctx context.Context) error {
	return m.Called().Error(0)
}

const salt = "0123456789abcdef0123456789abcdef"

func TestStore_GetSalt(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		t.Parallel()

		db := &mockDB{}
		db.On("QueryRow", mock.Anything, []any{"u1"}).Return(fakeRow{val: salt})

		got, err := pgstore.New(db).GetSalt(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, salt, got)
	})

	t.Run("no rows maps to not found", func(t *testing.T) {
		t.Parallel()

		db := &mockDB{}
		db.On("QueryRow", mock.Anything, []any{"u1"}).Return(fakeRow{err: pgx.ErrNoRows})

		_, err := pgstore.New(db).GetSalt(ctx, "u1")
		assert.ErrorIs(t, err, zklogin.ErrSaltNotFound)
	})

	t.Run("driver error passes through", func(t *testing.T) {
		t.Parallel()

		db := &mockDB{}
		db.On("QueryRow", mock.Anything, []any{"u1"}).Return(fakeRow{err: errors.New("conn reset")})

		_, err := pgstore.New(db).GetSalt(ctx, "u1")
		require.Error(t, err)
		assert.NotErrorIs(t, err, zklogin.ErrSaltNotFound)
	})
}

func TestStore_CreateSalt(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	const other = "ffffffffffffffffffffffffffffffff"

	t.Run("insert wins", func(t *testing.T) {
		t.Parallel()

		db := &mockDB{}
		db.On("QueryRow", mock.MatchedBy(func(sql string) bool { return len(sql) > 6 && sql[:6] == "INSERT" }), []any{"u1", salt}).
			Return(fakeRow{val: salt})

		got, err := pgstore.New(db).CreateSalt(ctx, "u1", salt)
		require.NoError(t, err)
		assert.Equal(t, salt, got)
	})

	t.Run("conflict rereads stored salt", func(t *testing.T) {
		t.Parallel()

		db := &mockDB{}
		db.On("QueryRow", mock.Anything, []any{"u1", other}).Return(fakeRow{err: pgx.ErrNoRows})
		db.On("QueryRow", mock.Anything, []any{"u1"}).Return(fakeRow{val: salt})

		got, err := pgstore.New(db).CreateSalt(ctx, "u1", other)
		require.NoError(t, err)
		assert.Equal(t, salt, got)
	})

	t.Run("unique violation rereads stored salt", func(t *testing.T) {
		t.Parallel()

		db := &mockDB{}
		db.On("QueryRow", mock.Anything, []any{"u1", other}).Return(fakeRow{err: &pgconn.PgError{Code: "23505"}})
		db.On("QueryRow", mock.Anything, []any{"u1"}).Return(fakeRow{val: salt})

		got, err := pgstore.New(db).CreateSalt(ctx, "u1", other)
		require.NoError(t, err)
		assert.Equal(t, salt, got)
	})

	t.Run("other failure aborts", func(t *testing.T) {
		t.Parallel()

		db := &mockDB{}
		db.On("QueryRow", mock.Anything, []any{"u1", other}).Return(fakeRow{err: errors.New("disk full")})

		_, err := pgstore.New(db).CreateSalt(ctx, "u1", other)
		assert.Error(t, err)
	})
}

func TestStore_RecordLogin(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	db := &mockDB{}
	db.On("Exec", mock.Anything, []any{"u1", "0xabc", at}).Return(nil)

	require.NoError(t, pgstore.New(db).RecordLogin(context.Background(), "u1", "0xabc", at))
	db.AssertExpectations(t)
}
