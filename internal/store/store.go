// Package store persists committed match state in Badger.
//
// Layout:
//
//	meta/state         JSON snapshot of the whole state (authoritative on load)
//	meta/height        last committed height, 8 bytes big-endian
//	meta/apphash       last committed app hash
//	rec/<kind>/<key>   fixed-layout encoding of every live record
//
// Each commit is a single Badger transaction. A block too large for one
// transaction fails the commit rather than being written piecemeal.
package store

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/dgraph-io/badger/v4"

	"github.com/ocentra/ocentra-games/internal/state"
	"github.com/ocentra/ocentra-games/internal/types"
)

var (
	keyState   = []byte("meta/state")
	keyHeight  = []byte("meta/height")
	keyAppHash = []byte("meta/apphash")
)

const recordPrefix = "rec/"

type Store struct {
	db     *badger.DB
	logger cmtlog.Logger
}

// Open opens (or creates) the database under dir.
func Open(dir string, logger cmtlog.Logger) (*Store, error) {
	return open(badger.DefaultOptions(dir), logger)
}

// OpenInMemory is used by tests and throwaway nodes.
func OpenInMemory(logger cmtlog.Logger) (*Store, error) {
	return open(badger.DefaultOptions("").WithInMemory(true), logger)
}

func open(opts badger.Options, logger cmtlog.Logger) (*Store, error) {
	if logger == nil {
		logger = cmtlog.NewNopLogger()
	}
	logger = logger.With("module", "store")
	db, err := badger.Open(opts.WithLogger(badgerLogger{logger: logger}))
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// LoadState returns the last committed state and app hash. A fresh database
// yields (nil, nil, nil).
func (s *Store) LoadState() (*state.State, []byte, error) {
	var (
		snapshot []byte
		appHash  []byte
	)
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(keyState)
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}
		if snapshot, err = item.ValueCopy(nil); err != nil {
			return err
		}

		item, err = txn.Get(keyAppHash)
		if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		if err == nil {
			if appHash, err = item.ValueCopy(nil); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("load state: %w", err)
	}
	if snapshot == nil {
		return nil, nil, nil
	}
	st, err := state.Decode(snapshot)
	if err != nil {
		return nil, nil, err
	}
	return st, appHash, nil
}

// LastHeight returns the committed height, or 0 for a fresh database.
func (s *Store) LastHeight() (int64, error) {
	var h int64
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(keyHeight)
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}
		return item.Value(func(val []byte) error {
			if len(val) != 8 {
				return fmt.Errorf("invalid height encoding (%d bytes)", len(val))
			}
			h = int64(binary.BigEndian.Uint64(val))
			return nil
		})
	})
	return h, err
}

// SaveState writes the snapshot, commit metadata and every fixed record, and
// deletes records that no longer exist in st, all in one Badger transaction.
func (s *Store) SaveState(st *state.State, appHash []byte) error {
	snapshot, err := st.Encode()
	if err != nil {
		return err
	}
	recs, err := st.FixedRecords()
	if err != nil {
		return fmt.Errorf("encode records: %w", err)
	}

	stale, err := s.staleRecordKeys(recs)
	if err != nil {
		return err
	}

	var height [8]byte
	binary.BigEndian.PutUint64(height[:], uint64(st.Height))

	err = s.db.Update(func(txn *badger.Txn) error {
		for _, k := range stale {
			if err := txn.Delete([]byte(k)); err != nil {
				return err
			}
		}
		for _, k := range state.SortedRecordKeys(recs) {
			if err := txn.Set([]byte(recordPrefix+k), recs[k]); err != nil {
				return err
			}
		}
		if err := txn.Set(keyState, snapshot); err != nil {
			return err
		}
		if err := txn.Set(keyAppHash, appHash); err != nil {
			return err
		}
		return txn.Set(keyHeight, height[:])
	})
	if err != nil {
		// ErrTxnTooBig lands here too: a block is never split across commits.
		return fmt.Errorf("commit height %d: %w", st.Height, err)
	}

	s.logger.Debug("saved state", "height", st.Height, "records", len(recs), "deleted", len(stale))
	return nil
}

func (s *Store) staleRecordKeys(live map[string][]byte) ([]string, error) {
	var stale []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(recordPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			k := string(it.Item().Key())
			if _, ok := live[strings.TrimPrefix(k, recordPrefix)]; !ok {
				stale = append(stale, k)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan records: %w", err)
	}
	return stale, nil
}

// Record returns the fixed-layout bytes stored under "<kind>/<key>".
func (s *Store) Record(key string) ([]byte, error) {
	var out []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(recordPrefix + key))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return types.ErrNotFound.Wrapf("record %q", key)
			}
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	return out, err
}

// RecordKeys lists stored record keys under prefix, in key order.
func (s *Store) RecordKeys(prefix string) ([]string, error) {
	var keys []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(recordPrefix + prefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, strings.TrimPrefix(string(it.Item().Key()), recordPrefix))
		}
		return nil
	})
	return keys, err
}
