package repository

import (
	"context"
	"errors"

	"github.com/suteetoe/tenant-onboarding/internal/apperror"
	"github.com/suteetoe/tenant-onboarding/internal/kvstore"
	"github.com/suteetoe/tenant-onboarding/internal/model"
)

// StackMetadataStore reads the shared compute stack description.
type StackMetadataStore struct {
	kv    kvstore.Store
	table string
}

func NewStackMetadataStore(kv kvstore.Store, table string) *StackMetadataStore {
	return &StackMetadataStore{kv: kv, table: table}
}

func (s *StackMetadataStore) Get(ctx context.Context, stackName string) (*model.StackMetadata, error) {
	const op = "StackMetadataStore.Get"
	item, err := s.kv.Get(ctx, s.table, stackName)
	if errors.Is(err, kvstore.ErrNotFound) {
		return nil, apperror.Errorf(apperror.KindNotFound, op, "stack %q not found", stackName)
	}
	if err != nil {
		return nil, apperror.E(apperror.KindStorage, op, err)
	}
	md, err := model.StackMetadataFromItem(item)
	if err != nil {
		return nil, apperror.E(apperror.KindStorage, op, err)
	}
	return md, nil
}

// Save is used by the seed-stack command; infrastructure bootstrap normally owns this record.
func (s *StackMetadataStore) Save(ctx context.Context, md *model.StackMetadata) error {
	const op = "StackMetadataStore.Save"
	if err := s.kv.Put(ctx, s.table, md.StackName, md.ToItem()); err != nil {
		return apperror.E(apperror.KindStorage, op, err)
	}
	return nil
}
