package kvstore

import (
	"context"
	"errors"
	"time"

	"github.com/suteetoe/tenant-onboarding/prometheus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const backendPostgres = "postgres"

// KVItem is one row of the shared kv_items table. Bucket is the logical
// table name.
type KVItem struct {
	Bucket     string            `gorm:"primaryKey;type:varchar(100)"`
	ItemKey    string            `gorm:"primaryKey;type:varchar(255)"`
	Attributes datatypes.JSONMap `gorm:"type:jsonb;not null"`
	CreatedAt  time.Time         `gorm:"index"`
	UpdatedAt  time.Time
}

// TableName overrides the table name used by KVItem.
func (KVItem) TableName() string {
	return "kv_items"
}

// PostgresStore stores every table as rows of kv_items.
type PostgresStore struct {
	db *gorm.DB
}

// NewPostgresStore wraps an open gorm connection.
func NewPostgresStore(db *gorm.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates kv_items.
func (s *PostgresStore) Migrate() error {
	return s.db.AutoMigrate(&KVItem{})
}

func toJSONMap(item Item) datatypes.JSONMap {
	m := make(datatypes.JSONMap, len(item))
	for k, v := range item {
		m[k] = v
	}
	return m
}

func fromJSONMap(m datatypes.JSONMap) Item {
	item := make(Item, len(m))
	for k, v := range m {
		if s, ok := v.(string); ok {
			item[k] = s
		}
	}
	return item
}

func (s *PostgresStore) Put(ctx context.Context, table, key string, item Item) error {
	defer prometheus.TrackKVOperation(backendPostgres, "put")()

	row := KVItem{Bucket: table, ItemKey: key, Attributes: toJSONMap(item)}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "bucket"}, {Name: "item_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"attributes", "updated_at"}),
	}).Create(&row).Error
}

func (s *PostgresStore) PutIfAbsent(ctx context.Context, table, key string, item Item) (bool, error) {
	defer prometheus.TrackKVOperation(backendPostgres, "put_if_absent")()

	row := KVItem{Bucket: table, ItemKey: key, Attributes: toJSONMap(item)}
	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (s *PostgresStore) Get(ctx context.Context, table, key string) (Item, error) {
	defer prometheus.TrackKVOperation(backendPostgres, "get")()

	var row KVItem
	err := s.db.WithContext(ctx).
		Where("bucket = ? AND item_key = ?", table, key).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return fromJSONMap(row.Attributes), nil
}

func (s *PostgresStore) ScanFiltered(ctx context.Context, table string, filter Filter) ([]Item, error) {
	defer prometheus.TrackKVOperation(backendPostgres, "scan")()

	var rows []KVItem
	err := s.db.WithContext(ctx).
		Where("bucket = ?", table).
		Where(datatypes.JSONQuery("attributes").Equals(filter.Value, filter.Attribute)).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	items := make([]Item, 0, len(rows))
	for _, row := range rows {
		items = append(items, fromJSONMap(row.Attributes))
	}
	return items, nil
}

func (s *PostgresStore) QueryByKey(ctx context.Context, table, key string) ([]Item, error) {
	defer prometheus.TrackKVOperation(backendPostgres, "query")()

	var rows []KVItem
	err := s.db.WithContext(ctx).
		Where("bucket = ? AND item_key = ?", table, key).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	items := make([]Item, 0, len(rows))
	for _, row := range rows {
		items = append(items, fromJSONMap(row.Attributes))
	}
	return items, nil
}

// Close is a no-op; the connection pool is owned by the caller.
func (s *PostgresStore) Close() error { return nil }
