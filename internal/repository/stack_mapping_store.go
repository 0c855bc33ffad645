package repository

import (
	"context"

	"github.com/suteetoe/tenant-onboarding/internal/apperror"
	"github.com/suteetoe/tenant-onboarding/internal/kvstore"
	"github.com/suteetoe/tenant-onboarding/internal/model"
)

// StackMappingStore tracks deployment status per routing path.
type StackMappingStore struct {
	kv    kvstore.Store
	table string
}

func NewStackMappingStore(kv kvstore.Store, table string) *StackMappingStore {
	return &StackMappingStore{kv: kv, table: table}
}

func (s *StackMappingStore) Save(ctx context.Context, m *model.TenantStackMapping) error {
	const op = "StackMappingStore.Save"
	if err := s.kv.Put(ctx, s.table, m.TenantName, m.ToItem()); err != nil {
		return apperror.E(apperror.KindStorage, op, err)
	}
	return nil
}

func (s *StackMappingStore) Get(ctx context.Context, path string) (*model.TenantStackMapping, error) {
	const op = "StackMappingStore.Get"
	items, err := s.kv.QueryByKey(ctx, s.table, path)
	if err != nil {
		return nil, apperror.E(apperror.KindStorage, op, err)
	}
	if len(items) == 0 {
		return nil, apperror.Errorf(apperror.KindNotFound, op, "no stack mapping for %q", path)
	}
	m, err := model.TenantStackMappingFromItem(items[0])
	if err != nil {
		return nil, apperror.E(apperror.KindStorage, op, err)
	}
	return m, nil
}

// ListByStatus is a filtered scan; the order of the result is unspecified.
func (s *StackMappingStore) ListByStatus(ctx context.Context, status model.DeploymentStatus) ([]*model.TenantStackMapping, error) {
	const op = "StackMappingStore.ListByStatus"
	items, err := s.kv.ScanFiltered(ctx, s.table, kvstore.Filter{
		Attribute: model.AttrDeploymentStatus,
		Value:     string(status),
	})
	if err != nil {
		return nil, apperror.E(apperror.KindStorage, op, err)
	}

	out := make([]*model.TenantStackMapping, 0, len(items))
	for _, item := range items {
		m, err := model.TenantStackMappingFromItem(item)
		if err != nil {
			return nil, apperror.E(apperror.KindStorage, op, err)
		}
		out = append(out, m)
	}
	return out, nil
}

// UpdateStatus moves a Provisioning mapping to Complete or Failed.
func (s *StackMappingStore) UpdateStatus(ctx context.Context, path string, status model.DeploymentStatus) (*model.TenantStackMapping, error) {
	const op = "StackMappingStore.UpdateStatus"
	m, err := s.Get(ctx, path)
	if err != nil {
		return nil, err
	}
	if !m.DeploymentStatus.CanTransitionTo(status) {
		return nil, apperror.Errorf(apperror.KindConflict, op,
			"cannot move %q from %s to %s", path, m.DeploymentStatus, status)
	}
	m.DeploymentStatus = status
	if err := s.Save(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}
