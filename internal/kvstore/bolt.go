package kvstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/suteetoe/tenant-onboarding/prometheus"
	bolt "go.etcd.io/bbolt"
)

const backendBolt = "bolt"

// BoltStore keeps one bucket per table in a single bolt file.
type BoltStore struct {
	path string
	db   *bolt.DB
}

// OpenBoltStore creates the bolt file if it doesn't exist and opens it otherwise.
func OpenBoltStore(path string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("unable to create directory %s: %w", path, err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("unable to open boltdb file: %w", err)
	}
	return &BoltStore{path: path, db: db}, nil
}

func (b *BoltStore) put(table, key string, item Item, onlyIfAbsent bool) (bool, error) {
	data, err := json.Marshal(item)
	if err != nil {
		return false, fmt.Errorf("failed to marshal item: %w", err)
	}

	created := false
	err = b.db.Update(func(tx *bolt.Tx) error {
		bkt, err := tx.CreateBucketIfNotExists([]byte(table))
		if err != nil {
			return err
		}
		if onlyIfAbsent && bkt.Get([]byte(key)) != nil {
			return nil
		}
		created = true
		return bkt.Put([]byte(key), data)
	})
	return created, err
}

func (b *BoltStore) Put(ctx context.Context, table, key string, item Item) error {
	defer prometheus.TrackKVOperation(backendBolt, "put")()
	_, err := b.put(table, key, item, false)
	return err
}

func (b *BoltStore) PutIfAbsent(ctx context.Context, table, key string, item Item) (bool, error) {
	defer prometheus.TrackKVOperation(backendBolt, "put_if_absent")()
	return b.put(table, key, item, true)
}

func (b *BoltStore) Get(ctx context.Context, table, key string) (Item, error) {
	defer prometheus.TrackKVOperation(backendBolt, "get")()

	var item Item
	err := b.db.View(func(tx *bolt.Tx) error {
		bkt := tx.Bucket([]byte(table))
		if bkt == nil {
			return ErrNotFound
		}
		val := bkt.Get([]byte(key))
		if val == nil {
			return ErrNotFound
		}
		return json.Unmarshal(val, &item)
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (b *BoltStore) ScanFiltered(ctx context.Context, table string, filter Filter) ([]Item, error) {
	defer prometheus.TrackKVOperation(backendBolt, "scan")()

	var items []Item
	err := b.db.View(func(tx *bolt.Tx) error {
		bkt := tx.Bucket([]byte(table))
		if bkt == nil {
			return nil
		}
		return bkt.ForEach(func(k, v []byte) error {
			var item Item
			if err := json.Unmarshal(v, &item); err != nil {
				return fmt.Errorf("failed to unmarshal item %s: %w", k, err)
			}
			if filter.Match(item) {
				items = append(items, item)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (b *BoltStore) QueryByKey(ctx context.Context, table, key string) ([]Item, error) {
	return queryByKey(ctx, b, table, key)
}

// Close the connection to the bolt database
func (b *BoltStore) Close() error {
	if b.db != nil {
		return b.db.Close()
	}
	return nil
}
