// Package mongostore persists salts and player addresses in MongoDB.
//
// Salts are keyed by subject in _id, so uniqueness is enforced by the
// primary index and a duplicate-key insert re-reads the stored value.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmitrymomot/zkbridge/svc/zklogin"
)

const (
	SaltsCollection   = "salts"
	PlayersCollection = "players"
)

type saltDoc struct {
	Subject   string    `bson:"_id"`
	Salt      string    `bson:"salt"`
	CreatedAt time.Time `bson:"created_at"`
}

// Store implements zklogin.Storage on MongoDB.
type Store struct {
	db      *mongo.Database
	salts   *mongo.Collection
	players *mongo.Collection
}

// New returns a Store over db.
func New(db *mongo.Database) *Store {
	return &Store{
		db:      db,
		salts:   db.Collection(SaltsCollection),
		players: db.Collection(PlayersCollection),
	}
}

// EnsureIndexes creates the unique subject index on players.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.players.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "google_sub", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("google_sub_unique"),
	})
	if err != nil {
		return fmt.Errorf("mongostore: create players index: %w", err)
	}
	return nil
}

func (s *Store) GetSalt(ctx context.Context, subject string) (string, error) {
	var doc saltDoc
	err := s.salts.FindOne(ctx, bson.D{{Key: "_id", Value: subject}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", zklogin.ErrSaltNotFound
	}
	if err != nil {
		return "", fmt.Errorf("mongostore: find salt: %w", err)
	}
	return doc.Salt, nil
}

func (s *Store) CreateSalt(ctx context.Context, subject, salt string) (string, error) {
	_, err := s.salts.InsertOne(ctx, saltDoc{Subject: subject, Salt: salt, CreatedAt: time.Now().UTC()})
	if err == nil {
		return salt, nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		return "", fmt.Errorf("mongostore: insert salt: %w", err)
	}
	stored, err := s.GetSalt(ctx, subject)
	if errors.Is(err, zklogin.ErrSaltNotFound) {
		return "", fmt.Errorf("mongostore: salt vanished after duplicate key")
	}
	return stored, err
}

func (s *Store) RecordLogin(ctx context.Context, subject, address string, at time.Time) error {
	_, err := s.players.UpdateOne(ctx,
		bson.D{{Key: "google_sub", Value: subject}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "zklogin_address", Value: address},
			{Key: "last_login", Value: at},
		}}},
	)
	if err != nil {
		return fmt.Errorf("mongostore: update player: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.Client().Ping(ctx, nil)
}

var _ zklogin.Storage = (*Store)(nil)
