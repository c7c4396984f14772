package store

import (
	"errors"
	"fmt"
	"sync"

	"github.com/cockroachdb/pebble"

	"tripsync/pkg/logger"
)

// Store is a durable transactional key/value store backed by Pebble. Each
// replica (and the authoritative server) owns exactly one Store instance;
// there is deliberately no package-global handle, so lifecycle is owned by
// whoever opened it.
type Store struct {
	mu   sync.Mutex // serializes Update: one logical write transaction at a time
	db   *pebble.DB
	path string
}

// Open opens (or creates) a Pebble database at the given path.
func Open(path string) (*Store, error) {
	logger.Info("opening_pebble_db", "path", path)
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		logger.Error("pebble_open_failed", "path", path, "error", err)
		return nil, err
	}
	logger.Info("pebble_opened", "path", path)
	return &Store{db: db, path: path}, nil
}

// Close closes the underlying database. The store must not be used after.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	if err := s.db.Close(); err != nil {
		return err
	}
	s.db = nil
	logger.Info("pebble_closed", "path", s.path)
	return nil
}

// Ready reports whether the store is open.
func (s *Store) Ready() bool {
	return s != nil && s.db != nil
}

// Path returns the directory the database lives in.
func (s *Store) Path() string { return s.path }

// View runs fn against a consistent read snapshot.
func (s *Store) View(fn func(ReadTx) error) error {
	if s.db == nil {
		return errStoreClosed
	}
	snap := s.db.NewSnapshot()
	defer snap.Close()
	return fn(&readTx{r: snap})
}

// Update runs fn inside a write transaction with read-your-writes
// visibility. The batch commits durably only when fn returns nil; any error
// discards every pending write, so callers get all-or-nothing semantics.
// Updates are serialized: concurrent callers queue.
func (s *Store) Update(fn func(WriteTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return errStoreClosed
	}
	b := s.db.NewIndexedBatch()
	defer b.Close()
	if err := fn(&writeTx{b: b}); err != nil {
		return err
	}
	if err := b.Commit(pebble.Sync); err != nil {
		logger.Error("batch_commit_failed", "path", s.path, "error", err)
		return fmt.Errorf("commit batch: %w", err)
	}
	return nil
}

var errStoreClosed = errors.New("store is closed")
