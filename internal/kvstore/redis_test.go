package kvstore

import (
	"context"
	"fmt"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedisStore(t *testing.T) (*miniredis.Miniredis, *RedisStore) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	s := NewRedisStore(client, "svc:")
	t.Cleanup(func() { _ = s.Close() })
	return mr, s
}

func TestRedisStore(t *testing.T) {
	_, s := setupRedisStore(t)
	runStoreContract(t, s)
}

func TestRedisStore_KeysAreNamespaced(t *testing.T) {
	mr, s := setupRedisStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "Tenants", "t-1", Item{"tenant_id": "t-1"}))

	assert.True(t, mr.Exists("svc:Tenants:t-1"))
	raw, err := mr.Get("svc:Tenants:t-1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"tenant_id":"t-1"}`, raw)
}

func TestRedisStore_PutIfAbsentKeepsFirstValue(t *testing.T) {
	mr, s := setupRedisStore(t)
	ctx := context.Background()

	created, err := s.PutIfAbsent(ctx, "AuthInfo", "bobsshop", Item{"identity_tenancy_id": "pool-1"})
	require.NoError(t, err)
	assert.True(t, created)

	created, err = s.PutIfAbsent(ctx, "AuthInfo", "bobsshop", Item{"identity_tenancy_id": "pool-2"})
	require.NoError(t, err)
	assert.False(t, created)

	raw, err := mr.Get("svc:AuthInfo:bobsshop")
	require.NoError(t, err)
	assert.JSONEq(t, `{"identity_tenancy_id":"pool-1"}`, raw)
}

func TestRedisStore_GetMissingKey(t *testing.T) {
	_, s := setupRedisStore(t)

	_, err := s.Get(context.Background(), "AuthInfo", "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_ScanWalksEveryCursorPage(t *testing.T) {
	mr, s := setupRedisStore(t)
	ctx := context.Background()

	const rows = 450
	for i := 0; i < rows; i++ {
		key := fmt.Sprintf("tenant%03d", i)
		require.NoError(t, s.Put(ctx, "TenantStackMapping", key, Item{"tenant_name": key, "deployment_status": "Provisioning"}))
	}
	// same table-name prefix, different table
	require.NoError(t, s.Put(ctx, "TenantStackMappingX", "decoy", Item{"tenant_name": "decoy", "deployment_status": "Provisioning"}))
	require.NoError(t, mr.Set("other:TenantStackMapping:foreign", `{"deployment_status":"Provisioning"}`))

	items, err := s.ScanFiltered(ctx, "TenantStackMapping", Filter{Attribute: "deployment_status", Value: "Provisioning"})
	require.NoError(t, err)
	assert.Len(t, items, rows)

	seen := make(map[string]bool, rows)
	for _, it := range items {
		assert.NotEqual(t, "decoy", it["tenant_name"])
		seen[it["tenant_name"]] = true
	}
	assert.Len(t, seen, rows)
}

func TestRedisStore_ScanSurfacesCorruptValue(t *testing.T) {
	mr, s := setupRedisStore(t)

	require.NoError(t, mr.Set("svc:Tenants:bad", "not-json"))

	_, err := s.ScanFiltered(context.Background(), "Tenants", Filter{Attribute: "x", Value: "y"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to unmarshal item")
}
