// Package prefs persists user toggles across runs.
package prefs

import (
	"fmt"
	"sync/atomic"
	"time"

	"go.etcd.io/bbolt"
)

var prefsBucket = []byte("prefs")

var seekModeKey = []byte("seek_mode")

// Store is a bbolt-backed preference store. Reads are served from memory.
type Store struct {
	db       *bbolt.DB
	seekMode atomic.Bool
}

// Open opens or creates the store at path.
func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("could not open preference store: %w", err)
	}

	s := &Store{db: db}
	err = db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(prefsBucket)
		if err != nil {
			return err
		}
		s.seekMode.Store(decodeBool(b.Get(seekModeKey)))
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("could not create prefs bucket: %w", err)
	}
	return s, nil
}

// SeekMode reports whether previous/next should seek instead of skipping.
func (s *Store) SeekMode() bool {
	return s.seekMode.Load()
}

// SetSeekMode persists the seek-mode flag.
func (s *Store) SetSeekMode(on bool) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(prefsBucket).Put(seekModeKey, encodeBool(on))
	})
	if err != nil {
		return fmt.Errorf("save seek mode: %w", err)
	}
	s.seekMode.Store(on)
	return nil
}

// ToggleSeekMode flips and persists the flag, returning the new value.
func (s *Store) ToggleSeekMode() (bool, error) {
	on := !s.SeekMode()
	if err := s.SetSeekMode(on); err != nil {
		return !on, err
	}
	return on, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func encodeBool(b bool) []byte {
	if b {
		return []byte{1}
	}
	return []byte{0}
}

func decodeBool(v []byte) bool {
	return len(v) == 1 && v[0] == 1
}
