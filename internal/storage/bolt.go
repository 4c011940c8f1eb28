package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

var bucketState = []byte("state")

// Bolt is a Backend persisted in a single BoltDB file.
type Bolt struct {
	db *bbolt.DB
}

var _ Backend = (*Bolt)(nil)

// OpenBolt opens (or creates) the database at path.
func OpenBolt(path string) (*Bolt, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open boltdb: %w", err)
	}

	b := &Bolt{db: db}
	if err := b.initBuckets(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize buckets: %w", err)
	}
	return b, nil
}

func (b *Bolt) initBuckets() error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketState); err != nil {
			return fmt.Errorf("create state bucket: %w", err)
		}
		return nil
	})
}

// Get returns a copy of the value stored under key.
func (b *Bolt) Get(key string) ([]byte, error) {
	if b.db == nil {
		return nil, ErrClosed
	}
	var out []byte
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketState)
		if bucket == nil {
			return fmt.Errorf("state bucket not found")
		}
		data := bucket.Get([]byte(key))
		if data == nil {
			return ErrNotFound
		}
		// bbolt memory is only valid inside the transaction.
		out = append([]byte(nil), data...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Put writes all entries in a single transaction.
func (b *Bolt) Put(entries map[string][]byte) error {
	if b.db == nil {
		return ErrClosed
	}
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketState)
		if bucket == nil {
			return fmt.Errorf("state bucket not found")
		}
		for key, value := range entries {
			if err := bucket.Put([]byte(key), value); err != nil {
				return fmt.Errorf("put %s: %w", key, err)
			}
		}
		return nil
	})
}

// Delete removes keys; missing keys are ignored.
func (b *Bolt) Delete(keys ...string) error {
	if b.db == nil {
		return ErrClosed
	}
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketState)
		if bucket == nil {
			return fmt.Errorf("state bucket not found")
		}
		for _, key := range keys {
			if err := bucket.Delete([]byte(key)); err != nil {
				return fmt.Errorf("delete %s: %w", key, err)
			}
		}
		return nil
	})
}

// Close closes the database file.
func (b *Bolt) Close() error {
	if b.db == nil {
		return nil
	}
	err := b.db.Close()
	b.db = nil
	return err
}
