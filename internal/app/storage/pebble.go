package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cockroachdb/pebble/v2"
	"github.com/cockroachdb/pebble/v2/vfs"
	"github.com/rs/zerolog"

	"whatsgram/internal/pkg/logx"
)

// pebbleStore implements Local on top of a PebbleDB instance.
type pebbleStore struct {
	db     *pebble.DB
	logger zerolog.Logger
}

// openPebble opens (or creates) the database described by cfg.
func openPebble(cfg ServiceConfig) (*pebbleStore, error) {
	opts := &pebble.Options{}
	dir := filepath.Clean(cfg.Dir)

	if cfg.InMemory {
		opts.FS = vfs.NewMem()
		dir = "local"
	} else {
		if cfg.Dir == "" {
			return nil, errors.New("storage directory is required")
		}
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("failed to create storage directory: %w", err)
		}
	}

	db, err := pebble.Open(dir, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open local storage: %w", err)
	}

	return &pebbleStore{
		db:     db,
		logger: logx.Component("storage").With().Str("dir", dir).Logger(),
	}, nil
}

func (s *pebbleStore) Get(key string) ([]byte, bool, error) {
	value, closer, err := s.db.Get([]byte(key))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read key %q: %w", key, err)
	}
	defer func() { _ = closer.Close() }()

	// value is only valid until closer is closed
	out := make([]byte, len(value))
	copy(out, value)

	return out, true, nil
}

func (s *pebbleStore) Set(key string, value []byte) error {
	if err := s.db.Set([]byte(key), value, pebble.Sync); err != nil {
		return fmt.Errorf("failed to write key %q: %w", key, err)
	}
	return nil
}

func (s *pebbleStore) Delete(key string) error {
	if err := s.db.Delete([]byte(key), pebble.Sync); err != nil {
		return fmt.Errorf("failed to delete key %q: %w", key, err)
	}
	return nil
}

func (s *pebbleStore) Clear() error {
	it, err := s.db.NewIter(nil)
	if err != nil {
		return fmt.Errorf("failed to open iterator: %w", err)
	}

	batch := s.db.NewBatch()
	count := 0
	for it.First(); it.Valid(); it.Next() {
		key := append([]byte(nil), it.Key()...)
		if err := batch.Delete(key, nil); err != nil {
			_ = it.Close()
			_ = batch.Close()
			return fmt.Errorf("failed to stage delete: %w", err)
		}
		count++
	}

	if err := it.Close(); err != nil {
		_ = batch.Close()
		return fmt.Errorf("failed to close iterator: %w", err)
	}

	if err := batch.Commit(pebble.Sync); err != nil {
		_ = batch.Close()
		return fmt.Errorf("failed to clear local storage: %w", err)
	}

	s.logger.Debug().Int("keys", count).Msg("Local storage cleared")
	return batch.Close()
}

func (s *pebbleStore) Close() error {
	return s.db.Close()
}
