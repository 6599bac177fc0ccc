// Package pgstore persists salts and player addresses in PostgreSQL.
//
// Salt uniqueness comes from the primary key on salts.google_sub. A losing
// concurrent insert re-reads the winner's salt. Migrations are embedded and
// applied with pg.Migrate.
package pgstore

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/zkbridge/pkg/pg"
	"github.com/dmitrymomot/zkbridge/svc/zklogin"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrate brings the schema up to date.
func Migrate(ctx context.Context, pool *pgxpool.Pool, cfg pg.Config, log *slog.Logger) error {
	return pg.Migrate(ctx, pool, migrations, "migrations", cfg, log)
}

// DB is the subset of *pgxpool.Pool used by Store.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Ping(ctx context.Context) error
}

const (
	selectSalt   = `SELECT salt FROM salts WHERE google_sub = $1`
	insertSalt   = `INSERT INTO salts (google_sub, salt) VALUES ($1, $2) ON CONFLICT (google_sub) DO NOTHING RETURNING salt`
	updatePlayer = `UPDATE players SET zklogin_address = $2, last_login = $3 WHERE google_sub = $1`
)

// Store implements zklogin.Storage on PostgreSQL.
type Store struct {
	db DB
}

// New returns a Store over db.
func New(db DB) *Store {
	return &Store{db: db}
}

func (s *Store) GetSalt(ctx context.Context, subject string) (string, error) {
	var salt string
	err := s.db.QueryRow(ctx, selectSalt, subject).Scan(&salt)
	if pg.IsNotFoundError(err) {
		return "", zklogin.ErrSaltNotFound
	}
	if err != nil {
		return "", fmt.Errorf("pgstore: select salt: %w", err)
	}
	return salt, nil
}

func (s *Store) CreateSalt(ctx context.Context, subject, salt string) (string, error) {
	var stored string
	err := s.db.QueryRow(ctx, insertSalt, subject, salt).Scan(&stored)
	switch {
	case err == nil:
		return stored, nil
	case pg.IsNotFoundError(err), pg.IsDuplicateKeyError(err):
		// another writer got there first
		stored, err = s.GetSalt(ctx, subject)
		if errors.Is(err, zklogin.ErrSaltNotFound) {
			return "", fmt.Errorf("pgstore: salt vanished after conflict")
		}
		return stored, err
	}
	return "", fmt.Errorf("pgstore: insert salt: %w", err)
}

func (s *Store) RecordLogin(ctx context.Context, subject, address string, at time.Time) error {
	if _, err := s.db.Exec(ctx, updatePlayer, subject, address, at); err != nil {
		return fmt.Errorf("pgstore: update player: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

var (
	_ zklogin.Storage = (*Store)(nil)
	_ DB              = (*pgxpool.Pool)(nil)
)
