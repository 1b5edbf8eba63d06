// Package cache stores synthesized waves keyed by voice, speed and text.
//
// The store is backed by BadgerDB. Entries are immutable: the same key always
// maps to the same wave for a given library binary, so a cache directory
// should not be shared between different installs of one voice.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	badger "github.com/dgraph-io/badger/v4"
)

// Options configures the cache.
type Options struct {
	// Dir is the directory for BadgerDB data files. Required unless InMemory.
	Dir string

	// InMemory keeps everything in memory; useful for tests.
	InMemory bool

	// TTL expires entries after the given duration. Zero keeps them forever.
	TTL time.Duration

	// Logger receives badger's log output at debug level. Nil discards it.
	Logger *slog.Logger
}

// Store is a wave cache.
type Store struct {
	db  *badger.DB
	ttl time.Duration
}

// Open opens or creates a cache.
func Open(opts Options) (*Store, error) {
	if !opts.InMemory && opts.Dir == "" {
		return nil, errors.New("cache: Options.Dir is required for on-disk mode")
	}
	dbOpts := badger.DefaultOptions(opts.Dir)
	if opts.InMemory {
		dbOpts = dbOpts.WithInMemory(true)
	}
	dbOpts = dbOpts.WithLogger(badgerLogger{opts.Logger})

	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, fmt.Errorf("cache: open: %w", err)
	}
	return &Store{db: db, ttl: opts.TTL}, nil
}

// Key derives the cache key for one synthesis request.
func Key(voice string, speed int, text string) []byte {
	sum := sha256.Sum256([]byte(text))
	return fmt.Appendf(nil, "wave/%s/%d/%s", voice, speed, hex.EncodeToString(sum[:]))
}

// Get returns the cached wave for key.
func (s *Store) Get(key []byte) ([]byte, bool, error) {
	var val []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache: get: %w", err)
	}
	return val, true, nil
}

// Set stores a wave under key.
func (s *Store) Set(key, wave []byte) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry(key, wave)
		if s.ttl > 0 {
			e = e.WithTTL(s.ttl)
		}
		return txn.SetEntry(e)
	})
	if err != nil {
		return fmt.Errorf("cache: set: %w", err)
	}
	return nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// badgerLogger forwards badger's log output to slog.
type badgerLogger struct {
	l *slog.Logger
}

func (b badgerLogger) Errorf(format string, args ...any) {
	if b.l != nil {
		b.l.Error(fmt.Sprintf(format, args...), "component", "badger")
	}
}

func (b badgerLogger) Warningf(format string, args ...any) {
	if b.l != nil {
		b.l.Warn(fmt.Sprintf(format, args...), "component", "badger")
	}
}

func (b badgerLogger) Infof(format string, args ...any) {
	if b.l != nil {
		b.l.Debug(fmt.Sprintf(format, args...), "component", "badger")
	}
}

func (b badgerLogger) Debugf(format string, args ...any) {
	if b.l != nil {
		b.l.Debug(fmt.Sprintf(format, args...), "component", "badger")
	}
}
