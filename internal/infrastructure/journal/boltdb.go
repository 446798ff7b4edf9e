package journal

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/fastygo/taskflow/domain"
)

// Store wraps BoltDB to keep an append-only journal of awarded points.
// Each (user, award key) pair is recorded at most once.
type Store struct {
	db *bolt.DB
}

// Open initializes the BoltDB file and ensures the buckets exist.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(awardsBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(timeBucket)
		return err
	}); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Record stores the award unless its key was already journaled for the user.
// It reports whether the award was newly recorded.
func (s *Store) Record(award domain.Award) (bool, error) {
	if s == nil || s.db == nil {
		return false, bolt.ErrDatabaseNotOpen
	}
	if award.UserID == "" || award.Key == "" {
		return false, domain.ErrInvalidPayload
	}
	if award.CreatedAt.IsZero() {
		award.CreatedAt = time.Now()
	}

	payload, err := json.Marshal(award)
	if err != nil {
		return false, err
	}

	recorded := false
	err = s.db.Update(func(tx *bolt.Tx) error {
		awards := tx.Bucket(awardsBucket)
		key := awardKey(award.UserID, award.Key)
		if awards.Get(key) != nil {
			return nil
		}
		if err := awards.Put(key, payload); err != nil {
			return err
		}
		recorded = true
		return tx.Bucket(timeBucket).Put(timeKey(award.UserID, award.CreatedAt, award.Key), []byte(award.Key))
	})
	return recorded, err
}

// Has reports whether an award key was journaled for the user.
func (s *Store) Has(userID, key string) (bool, error) {
	if s == nil || s.db == nil {
		return false, bolt.ErrDatabaseNotOpen
	}
	found := false
	err := s.db.View(func(tx *bolt.Tx) error {
		found = tx.Bucket(awardsBucket).Get(awardKey(userID, key)) != nil
		return nil
	})
	return found, err
}

// List returns up to limit awards of the user, newest first.
func (s *Store) List(userID string, limit int) ([]domain.Award, error) {
	if s == nil || s.db == nil {
		return nil, bolt.ErrDatabaseNotOpen
	}
	if limit <= 0 {
		limit = 50
	}

	prefix := userPrefix(userID)
	awards := make([]domain.Award, 0)
	err := s.db.View(func(tx *bolt.Tx) error {
		byTime := tx.Bucket(timeBucket).Cursor()
		all := tx.Bucket(awardsBucket)

		// Seek past the user's range, then walk backwards.
		upper := append(append([]byte(nil), prefix...), 0xff)
		k, v := byTime.Seek(upper)
		if k == nil {
			k, v = byTime.Last()
		} else {
			k, v = byTime.Prev()
		}
		for ; k != nil && bytes.HasPrefix(k, prefix) && len(awards) < limit; k, v = byTime.Prev() {
			raw := all.Get(awardKey(userID, string(v)))
			if raw == nil {
				continue
			}
			var award domain.Award
			if err := json.Unmarshal(raw, &award); err != nil {
				continue
			}
			awards = append(awards, award)
		}
		return nil
	})
	return awards, err
}

// Size returns the number of journaled awards.
func (s *Store) Size() (int, error) {
	if s == nil || s.db == nil {
		return 0, bolt.ErrDatabaseNotOpen
	}
	var count int
	err := s.db.View(func(tx *bolt.Tx) error {
		count = tx.Bucket(awardsBucket).Stats().KeyN
		return nil
	})
	return count, err
}

// Cleanup removes awards recorded before the provided timestamp.
func (s *Store) Cleanup(olderThan time.Time) (int, error) {
	if s == nil || s.db == nil {
		return 0, bolt.ErrDatabaseNotOpen
	}
	removed := 0
	err := s.db.Update(func(tx *bolt.Tx) error {
		awards := tx.Bucket(awardsBucket)
		byTime := tx.Bucket(timeBucket)

		var stale [][]byte
		c := byTime.Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			userID, key, ok := splitTimeKey(k)
			if !ok {
				continue
			}
			var award domain.Award
			raw := awards.Get(awardKey(userID, key))
			if raw != nil && json.Unmarshal(raw, &award) == nil && !award.CreatedAt.Before(olderThan) {
				continue
			}
			stale = append(stale, append([]byte(nil), k...))
		}

		for _, k := range stale {
			userID, key, _ := splitTimeKey(k)
			if err := byTime.Delete(k); err != nil {
				return err
			}
			if err := awards.Delete(awardKey(userID, key)); err != nil {
				return err
			}
			removed++
		}
		return nil
	})
	return removed, err
}

// Close closes the Bolt database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
