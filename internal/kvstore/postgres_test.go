package kvstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupMockStore(t *testing.T) (sqlmock.Sqlmock, *PostgresStore) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return mock, NewPostgresStore(gdb)
}

var kvColumns = []string{"bucket", "item_key", "attributes", "created_at", "updated_at"}

func TestPostgresStore_Get(t *testing.T) {
	mock, store := setupMockStore(t)

	rows := sqlmock.NewRows(kvColumns).
		AddRow("AuthInfo", "app", []byte(`{"tenant_path":"app","identity_tenancy_id":"pool-1"}`), time.Now(), time.Now())
	mock.ExpectQuery(`SELECT \* FROM "kv_items" WHERE bucket = \$1 AND item_key = \$2`).
		WillReturnRows(rows)

	item, err := store.Get(context.Background(), "AuthInfo", "app")
	require.NoError(t, err)
	assert.Equal(t, "pool-1", item["identity_tenancy_id"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetMissing(t *testing.T) {
	mock, store := setupMockStore(t)

	mock.ExpectQuery(`SELECT \* FROM "kv_items" WHERE bucket = \$1 AND item_key = \$2`).
		WillReturnRows(sqlmock.NewRows(kvColumns))

	_, err := store.Get(context.Background(), "AuthInfo", "app")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetError(t *testing.T) {
	mock, store := setupMockStore(t)

	mock.ExpectQuery(`SELECT \* FROM "kv_items"`).WillReturnError(errors.New("connection reset"))

	_, err := store.Get(context.Background(), "AuthInfo", "app")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestPostgresStore_PutIfAbsent(t *testing.T) {
	mock, store := setupMockStore(t)

	mock.ExpectExec(`INSERT INTO "kv_items" .* ON CONFLICT DO NOTHING`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO "kv_items" .* ON CONFLICT DO NOTHING`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	created, err := store.PutIfAbsent(context.Background(), "AuthInfo", "app", Item{"identity_tenancy_id": "pool-1"})
	require.NoError(t, err)
	assert.True(t, created)

	created, err = store.PutIfAbsent(context.Background(), "AuthInfo", "app", Item{"identity_tenancy_id": "pool-2"})
	require.NoError(t, err)
	assert.False(t, created)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_PutUpserts(t *testing.T) {
	mock, store := setupMockStore(t)

	mock.ExpectExec(`INSERT INTO "kv_items" .* ON CONFLICT \("bucket","item_key"\) DO UPDATE SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.Put(context.Background(), "Tenants", "t-1", Item{"tenant_id": "t-1"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ScanFiltered(t *testing.T) {
	mock, store := setupMockStore(t)

	rows := sqlmock.NewRows(kvColumns).
		AddRow("TenantStackMapping", "a", []byte(`{"tenant_name":"a","deployment_status":"Provisioning"}`), time.Now(), time.Now()).
		AddRow("TenantStackMapping", "c", []byte(`{"tenant_name":"c","deployment_status":"Provisioning"}`), time.Now(), time.Now())
	mock.ExpectQuery(`SELECT \* FROM "kv_items" WHERE bucket = \$1 AND json_extract_path_text\("attributes"::json,\$2\) = \$3`).
		WithArgs("TenantStackMapping", "deployment_status", "Provisioning").
		WillReturnRows(rows)

	items, err := store.ScanFiltered(context.Background(), "TenantStackMapping",
		Filter{Attribute: "deployment_status", Value: "Provisioning"})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "c", items[1]["tenant_name"])
	assert.NoError(t, mock.ExpectationsWereMet())
}
