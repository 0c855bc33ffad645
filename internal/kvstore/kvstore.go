// Package kvstore is the key-value persistence layer behind the control-plane
// tables. Every table is addressed by name; items are flat string attributes.
package kvstore

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when no item exists for the key.
var ErrNotFound = errors.New("kvstore: item not found")

// Item is a flat attribute map.
type Item map[string]string

// Clone returns a copy safe to hand out of a store.
func (i Item) Clone() Item {
	out := make(Item, len(i))
	for k, v := range i {
		out[k] = v
	}
	return out
}

// Filter is an equality predicate on one attribute.
type Filter struct {
	Attribute string
	Value     string
}

// Match reports whether the item satisfies the filter.
func (f Filter) Match(item Item) bool {
	v, ok := item[f.Attribute]
	return ok && v == f.Value
}

// Store is implemented by every backend.
//
// ScanFiltered gives no ordering guarantee across backends; callers must not
// depend on which matching item comes last.
type Store interface {
	Put(ctx context.Context, table, key string, item Item) error
	PutIfAbsent(ctx context.Context, table, key string, item Item) (bool, error)
	Get(ctx context.Context, table, key string) (Item, error)
	ScanFiltered(ctx context.Context, table string, filter Filter) ([]Item, error)
	QueryByKey(ctx context.Context, table, key string) ([]Item, error)
	Close() error
}

// queryByKey implements QueryByKey on top of Get for backends without a
// native key query.
func queryByKey(ctx context.Context, s Store, table, key string) ([]Item, error) {
	item, err := s.Get(ctx, table, key)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return []Item{item}, nil
}
