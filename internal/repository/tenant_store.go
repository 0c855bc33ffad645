package repository

import (
	"context"
	"errors"

	"github.com/suteetoe/tenant-onboarding/internal/apperror"
	"github.com/suteetoe/tenant-onboarding/internal/kvstore"
	"github.com/suteetoe/tenant-onboarding/internal/model"
)

// TenantStore persists canonical tenant records keyed by tenant id.
type TenantStore struct {
	kv    kvstore.Store
	table string
}

func NewTenantStore(kv kvstore.Store, table string) *TenantStore {
	return &TenantStore{kv: kv, table: table}
}

func (s *TenantStore) Save(ctx context.Context, t *model.Tenant) error {
	const op = "TenantStore.Save"
	if err := s.kv.Put(ctx, s.table, t.TenantID, t.ToItem()); err != nil {
		return apperror.E(apperror.KindStorage, op, err)
	}
	return nil
}

func (s *TenantStore) Get(ctx context.Context, tenantID string) (*model.Tenant, error) {
	const op = "TenantStore.Get"
	item, err := s.kv.Get(ctx, s.table, tenantID)
	if errors.Is(err, kvstore.ErrNotFound) {
		return nil, apperror.Errorf(apperror.KindNotFound, op, "tenant %s not found", tenantID)
	}
	if err != nil {
		return nil, apperror.E(apperror.KindStorage, op, err)
	}
	t, err := model.TenantFromItem(item)
	if err != nil {
		return nil, apperror.E(apperror.KindStorage, op, err)
	}
	return t, nil
}
