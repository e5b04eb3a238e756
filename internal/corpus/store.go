package corpus

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	bolt "go.etcd.io/bbolt"

	"github.com/magazine-archive/magscan/internal/models"
)

var (
	pagesBucket = []byte("pages")
	orderBucket = []byte("order")
)

// Store persists PageRecords in a bbolt database: pages keyed by source,
// plus a sequence bucket preserving insertion order across restarts.
type Store struct {
	db *bolt.DB
}

func OpenStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory for corpus store: %w", err)
	}

	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open corpus store: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(pagesBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(orderBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create buckets: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SavePage writes one record. New sources get the next sequence number;
// replaced sources keep their position.
func (s *Store) SavePage(record models.PageRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode page record %s: %w", record.Source, err)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		pages := tx.Bucket(pagesBucket)
		order := tx.Bucket(orderBucket)

		if pages.Get([]byte(record.Source)) == nil {
			seq, err := order.NextSequence()
			if err != nil {
				return err
			}
			key := make([]byte, 8)
			binary.BigEndian.PutUint64(key, seq)
			if err := order.Put(key, []byte(record.Source)); err != nil {
				return err
			}
		}
		return pages.Put([]byte(record.Source), data)
	})
}

// Load reads the whole store into a fresh Corpus in insertion order,
// recomputing the derived fields of every record.
func (s *Store) Load() (*Corpus, error) {
	c := New()
	err := s.db.View(func(tx *bolt.Tx) error {
		pages := tx.Bucket(pagesBucket)
		order := tx.Bucket(orderBucket)

		return order.ForEach(func(_, source []byte) error {
			data := pages.Get(source)
			if data == nil {
				return nil
			}
			var record models.PageRecord
			if err := json.Unmarshal(data, &record); err != nil {
				return fmt.Errorf("failed to decode page record %s: %w", source, err)
			}
			record.RecomputeDerived()
			return c.Add(record)
		})
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}
