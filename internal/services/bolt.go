package services

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/wellness-assistant/wellness-web-ui/internal/models"
	bolt "go.etcd.io/bbolt"
)

// BoltDB stores status checks in a BoltDB file, in insertion order.
type BoltDB struct {
	db *bolt.DB
}

var statusChecksBucket = []byte("status_checks")

// NewBoltDB creates a new BoltDB instance with the specified file path. It initializes the database
// with required buckets and returns an error if the database cannot be opened or initialized. The
// database file is created with 0600 permissions if it doesn't exist.
func NewBoltDB(path string) (BoltDB, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return BoltDB{}, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(statusChecksBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return BoltDB{}, fmt.Errorf("failed to create buckets: %w", err)
	}

	return BoltDB{db: db}, nil
}

// AddStatusCheck stores check under a key derived from the bucket sequence, so StatusChecks returns checks
// in the order they were added.
func (b BoltDB) AddStatusCheck(_ context.Context, check models.StatusCheck) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(statusChecksBucket)

		seq, err := bucket.NextSequence()
		if err != nil {
			return fmt.Errorf("failed to get next sequence: %w", err)
		}

		v, err := json.Marshal(check)
		if err != nil {
			return fmt.Errorf("failed to marshal status check: %w", err)
		}

		return bucket.Put(sequenceKey(seq), v)
	})
}

// StatusChecks returns every stored status check.
func (b BoltDB) StatusChecks(context.Context) ([]models.StatusCheck, error) {
	checks := []models.StatusCheck{}
	err := b.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(statusChecksBucket).ForEach(func(_, v []byte) error {
			var check models.StatusCheck
			if err := json.Unmarshal(v, &check); err != nil {
				return fmt.Errorf("failed to unmarshal status check: %w", err)
			}
			checks = append(checks, check)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return checks, nil
}

// Close releases the database file.
func (b BoltDB) Close() error {
	return b.db.Close()
}

// sequenceKey encodes seq big-endian so keys sort numerically.
func sequenceKey(seq uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, seq)
	return k
}
