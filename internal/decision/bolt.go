package decision

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/hpungsan/cull/internal/errors"
)

var bucketDecisions = []byte("decisions")

// boltEntry is the stored document shape: the decision plus the last
// write time, mirroring the sqlite backend's row.
type boltEntry struct {
	Decision  Decision `json:"decision"`
	UpdatedAt int64    `json:"updated_at"`
}

// BoltStore keeps decisions in a single bbolt bucket keyed by handle.
// Each Save is one transactional put, so upserts are atomic per key.
type BoltStore struct {
	db *bolt.DB
}

// OpenBolt opens (creating if needed) the bbolt database at dbPath and
// ensures the decisions bucket exists.
func OpenBolt(dbPath string) (*BoltStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketDecisions)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

// LoadAll implements Store.
func (s *BoltStore) LoadAll(ctx context.Context) (map[string]Decision, error) {
	decisions := map[string]Decision{}
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketDecisions)
		return b.ForEach(func(k, v []byte) error {
			var entry boltEntry
			if err := json.Unmarshal(v, &entry); err != nil {
				return fmt.Errorf("corrupt entry for %q: %w", k, err)
			}
			decisions[string(k)] = entry.Decision
			return nil
		})
	})
	if err != nil {
		return nil, errors.NewStore(err)
	}
	return decisions, nil
}

// Save implements Store.
func (s *BoltStore) Save(ctx context.Context, handle string, d Decision) error {
	if handle == "" {
		return errors.NewInvalidRequest("handle is required")
	}
	if !d.Valid() {
		return errors.NewInvalidRequest(fmt.Sprintf("decision must be %q or %q", Keep, Delete))
	}

	data, err := json.Marshal(boltEntry{Decision: d, UpdatedAt: time.Now().Unix()})
	if err != nil {
		return errors.NewInternal(err)
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketDecisions).Put([]byte(handle), data)
	})
	if err != nil {
		return errors.NewStore(err)
	}
	return nil
}

// Get implements Store.
func (s *BoltStore) Get(ctx context.Context, handle string) (Decision, bool, error) {
	var entry boltEntry
	found := false
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketDecisions).Get([]byte(handle))
		if v == nil {
			return nil
		}
		found = true
		return json.Unmarshal(v, &entry)
	})
	if err != nil {
		return "", false, errors.NewStore(err)
	}
	if !found {
		return "", false, nil
	}
	return entry.Decision, true, nil
}

// Delete implements Store. Removing an absent handle succeeds.
func (s *BoltStore) Delete(ctx context.Context, handle string) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketDecisions).Delete([]byte(handle))
	})
	if err != nil {
		return errors.NewStore(err)
	}
	return nil
}

// Close implements Store.
func (s *BoltStore) Close() error {
	return s.db.Close()
}
