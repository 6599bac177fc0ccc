// Package memstore is an in-process zklogin.Storage for development and tests.
// Salts do not survive a restart, so addresses derived with it are not stable
// across deployments.
package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrymomot/zkbridge/svc/zklogin"
)

// Profile is the stored login record of a subject.
type Profile struct {
	Address   string
	LastLogin time.Time
}

// Store keeps salts and profiles in maps.
type Store struct {
	mu       sync.RWMutex
	salts    map[string]string
	profiles map[string]Profile
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		salts:    make(map[string]string),
		profiles: make(map[string]Profile),
	}
}

func (s *Store) GetSalt(_ context.Context, subject string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	salt, ok := s.salts[subject]
	if !ok {
		return "", zklogin.ErrSaltNotFound
	}
	return salt, nil
}

func (s *Store) CreateSalt(_ context.Context, subject, salt string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.salts[subject]; ok {
		return existing, nil
	}
	s.salts[subject] = salt
	return salt, nil
}

// AddProfile creates an empty profile for subject if it has none.
func (s *Store) AddProfile(subject string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[subject]; !ok {
		s.profiles[subject] = Profile{}
	}
}

// RecordLogin updates an existing profile. Subjects without one are skipped.
func (s *Store) RecordLogin(_ context.Context, subject, address string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[subject]; !ok {
		return nil
	}
	s.profiles[subject] = Profile{Address: address, LastLogin: at}
	return nil
}

// Profile returns the stored profile of subject.
func (s *Store) Profile(subject string) (Profile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[subject]
	return p, ok
}

func (s *Store) Ping(context.Context) error { return nil }

var _ zklogin.Storage = (*Store)(nil)
