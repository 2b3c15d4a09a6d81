// Package scriptstore gives event handlers a durable key/value store, so
// script state (counters, flags, per-player notes) survives reloads and
// restarts.
package scriptstore

import (
	"fmt"

	bbolt "go.etcd.io/bbolt"
)

var bucketScriptData = []byte("scriptdata")

// Store wraps a bbolt database holding one bucket of script data.
type Store struct {
	bolt *bbolt.DB
}

// Open opens or creates the bbolt database file and ensures the script
// data bucket exists.
func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("scriptstore: open %s: %w", path, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketScriptData)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("scriptstore: create bucket: %w", err)
	}

	return &Store{bolt: db}, nil
}

// Close closes the underlying bbolt database.
func (s *Store) Close() error {
	if s.bolt != nil {
		return s.bolt.Close()
	}
	return nil
}

// Path returns the filesystem path of the underlying bbolt database.
func (s *Store) Path() string {
	if s.bolt != nil {
		return s.bolt.Path()
	}
	return ""
}

// Get fetches a value. The second return reports whether the key exists.
func (s *Store) Get(key string) (string, bool, error) {
	var value string
	var found bool
	err := s.bolt.View(func(tx *bbolt.Tx) error {
		if v := tx.Bucket(bucketScriptData).Get([]byte(key)); v != nil {
			value = string(v)
			found = true
		}
		return nil
	})
	if err != nil {
		return "", false, fmt.Errorf("scriptstore: get %q: %w", key, err)
	}
	return value, found, nil
}

// Set writes a value through to disk.
func (s *Store) Set(key, value string) error {
	err := s.bolt.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketScriptData).Put([]byte(key), []byte(value))
	})
	if err != nil {
		return fmt.Errorf("scriptstore: set %q: %w", key, err)
	}
	return nil
}

// Delete removes a key. Deleting an absent key is a no-op.
func (s *Store) Delete(key string) error {
	err := s.bolt.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketScriptData).Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("scriptstore: delete %q: %w", key, err)
	}
	return nil
}

// Keys returns every stored key, for the admin inspection endpoint.
func (s *Store) Keys() ([]string, error) {
	var keys []string
	err := s.bolt.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketScriptData).ForEach(func(k, _ []byte) error {
			keys = append(keys, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("scriptstore: keys: %w", err)
	}
	return keys, nil
}
