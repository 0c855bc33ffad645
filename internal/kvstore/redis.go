package kvstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/suteetoe/tenant-onboarding/prometheus"
)

const backendRedis = "redis"

// RedisStore keeps each item as a JSON string under "<table>:<key>".
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore wraps a redis client. prefix namespaces every key and may be empty.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (r *RedisStore) key(table, key string) string {
	return fmt.Sprintf("%s%s:%s", r.prefix, table, key)
}

func (r *RedisStore) Put(ctx context.Context, table, key string, item Item) error {
	defer prometheus.TrackKVOperation(backendRedis, "put")()

	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to marshal item: %w", err)
	}
	return r.client.Set(ctx, r.key(table, key), data, 0).Err()
}

func (r *RedisStore) PutIfAbsent(ctx context.Context, table, key string, item Item) (bool, error) {
	defer prometheus.TrackKVOperation(backendRedis, "put_if_absent")()

	data, err := json.Marshal(item)
	if err != nil {
		return false, fmt.Errorf("failed to marshal item: %w", err)
	}
	return r.client.SetNX(ctx, r.key(table, key), data, 0).Result()
}

func (r *RedisStore) Get(ctx context.Context, table, key string) (Item, error) {
	defer prometheus.TrackKVOperation(backendRedis, "get")()

	val, err := r.client.Get(ctx, r.key(table, key)).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var item Item
	if err := json.Unmarshal([]byte(val), &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal item: %w", err)
	}
	return item, nil
}

func (r *RedisStore) ScanFiltered(ctx context.Context, table string, filter Filter) ([]Item, error) {
	defer prometheus.TrackKVOperation(backendRedis, "scan")()

	var (
		items  []Item
		cursor uint64
	)
	pattern := r.key(table, "*")
	for {
		keys, next, err := r.client.Scan(ctx, cursor, pattern, 200).Result()
		if err != nil {
			return nil, err
		}
		if len(keys) > 0 {
			vals, err := r.client.MGet(ctx, keys...).Result()
			if err != nil {
				return nil, err
			}
			for _, v := range vals {
				s, ok := v.(string)
				if !ok {
					// deleted between SCAN and MGET
					continue
				}
				var item Item
				if err := json.Unmarshal([]byte(s), &item); err != nil {
					return nil, fmt.Errorf("failed to unmarshal item: %w", err)
				}
				if filter.Match(item) {
					items = append(items, item)
				}
			}
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return items, nil
}

func (r *RedisStore) QueryByKey(ctx context.Context, table, key string) ([]Item, error) {
	return queryByKey(ctx, r, table, key)
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
