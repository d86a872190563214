// Package bbolt stores all keys in a single bucket of a bbolt database.
package bbolt

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"github.com/safing/rdapboot/base/storage"
)

var bucketName = []byte{0}

// BBolt database made pluggable.
type BBolt struct {
	name string
	db   *bbolt.DB
}

func init() {
	_ = storage.Register("bbolt", NewBBolt)
}

// NewBBolt opens/creates a bbolt database in the location directory.
func NewBBolt(name, location string) (storage.Interface, error) {
	err := os.MkdirAll(location, 0o0755)
	if err != nil {
		return nil, fmt.Errorf("bbolt: failed to create directory %s: %w", location, err)
	}

	// Create options for bbolt database.
	dbFile := filepath.Join(location, "db.bbolt")
	dbOptions := &bbolt.Options{
		Timeout: 1 * time.Second,
	}

	// Open/Create database, retry if there is a timeout.
	db, err := bbolt.Open(dbFile, 0o0600, dbOptions)
	for i := 0; i < 5 && err != nil; i++ {
		db, err = bbolt.Open(dbFile, 0o0600, dbOptions)
	}
	if err != nil {
		return nil, err
	}

	// Create bucket
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &BBolt{
		name: name,
		db:   db,
	}, nil
}

// Get returns the value stored at key.
func (b *BBolt) Get(key string) ([]byte, error) {
	var duplicate []byte

	err := b.db.View(func(tx *bbolt.Tx) error {
		value := tx.Bucket(bucketName).Get([]byte(key))
		if value == nil {
			return storage.ErrNotFound
		}

		// Values are only valid during the transaction.
		duplicate = make([]byte, len(value))
		copy(duplicate, value)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return duplicate, nil
}

// Put stores value at key.
func (b *BBolt) Put(key string, value []byte) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketName).Put([]byte(key), value)
	})
}

// Delete removes key.
func (b *BBolt) Delete(key string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketName).Delete([]byte(key))
	})
}

// Keys returns all stored keys.
func (b *BBolt) Keys() ([]string, error) {
	var keys []string
	err := b.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketName).ForEach(func(k, _ []byte) error {
			keys = append(keys, string(k))
			return nil
		})
	})
	return keys, err
}

// Shutdown closes the database.
func (b *BBolt) Shutdown() error {
	return b.db.Close()
}
