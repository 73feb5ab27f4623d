// Package storage persists lookup diagnostics in a bbolt database.
package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sunshower1127/swrod/models"
	bolt "go.etcd.io/bbolt"
)

var failuresBucket = []byte("lookup_failures")

// Journal records failed lookups for post-run diagnosis. Keys are
// RFC3339Nano timestamps suffixed with a uuid, so iteration is chronological.
type Journal struct {
	db *bolt.DB
}

func Open(path string) (*Journal, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{
		Timeout: 1 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open journal %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(failuresBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create bucket: %w", err)
	}

	return &Journal{db: db}, nil
}

func (j *Journal) Close() error {
	return j.db.Close()
}

// RecordFailure appends one failure. A missing ID or timestamp is filled in.
func (j *Journal) RecordFailure(rec models.LookupFailure) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.At.IsZero() {
		rec.At = time.Now()
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal failure record: %w", err)
	}
	key := []byte(rec.At.UTC().Format(time.RFC3339Nano) + "-" + rec.ID)

	return j.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(failuresBucket).Put(key, data)
	})
}

// ListFailures returns the most recent records, newest first. A non-positive
// limit returns everything.
func (j *Journal) ListFailures(limit int) ([]models.LookupFailure, error) {
	var records []models.LookupFailure

	err := j.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(failuresBucket).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if limit > 0 && len(records) >= limit {
				break
			}
			var rec models.LookupFailure
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("failed to unmarshal failure record %s: %w", k, err)
			}
			records = append(records, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Prune deletes records older than the cutoff and reports how many went.
func (j *Journal) Prune(before time.Time) (int, error) {
	removed := 0
	cutoff := []byte(before.UTC().Format(time.RFC3339Nano))

	err := j.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(failuresBucket)
		var stale [][]byte
		c := b.Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			if string(k) >= string(cutoff) {
				break
			}
			stale = append(stale, append([]byte(nil), k...))
		}
		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return err
			}
			removed++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}
