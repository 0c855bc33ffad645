package repository

import (
	"context"
	"errors"

	"github.com/suteetoe/tenant-onboarding/internal/apperror"
	"github.com/suteetoe/tenant-onboarding/internal/kvstore"
	"github.com/suteetoe/tenant-onboarding/internal/model"
)

// AuthInfoStore maps routing paths to identity tenancies. It holds at most
// one record per path.
type AuthInfoStore struct {
	kv    kvstore.Store
	table string
}

func NewAuthInfoStore(kv kvstore.Store, table string) *AuthInfoStore {
	return &AuthInfoStore{kv: kv, table: table}
}

// Get returns a not_found error when the path has no tenancy yet.
func (s *AuthInfoStore) Get(ctx context.Context, path string) (*model.AuthInfo, error) {
	const op = "AuthInfoStore.Get"
	item, err := s.kv.Get(ctx, s.table, path)
	if errors.Is(err, kvstore.ErrNotFound) {
		return nil, apperror.Errorf(apperror.KindNotFound, op, "no identity tenancy for path %q", path)
	}
	if err != nil {
		return nil, apperror.E(apperror.KindStorage, op, err)
	}
	info, err := model.AuthInfoFromItem(item)
	if err != nil {
		return nil, apperror.E(apperror.KindStorage, op, err)
	}
	return info, nil
}

// Create inserts the record only if its path is unused. created is false when
// another writer got there first; the stored record is left untouched.
func (s *AuthInfoStore) Create(ctx context.Context, info *model.AuthInfo) (created bool, err error) {
	const op = "AuthInfoStore.Create"
	created, err = s.kv.PutIfAbsent(ctx, s.table, info.TenantPath, info.ToItem())
	if err != nil {
		return false, apperror.E(apperror.KindStorage, op, err)
	}
	return created, nil
}
