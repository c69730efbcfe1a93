package mocks

import (
	"context"

	"github.com/CalTopSoft/backend-devhub/internal/assets"
	"github.com/CalTopSoft/backend-devhub/internal/model"

	"github.com/stretchr/testify/mock"
)

type MockManager struct {
	mock.Mock
}

func (m *MockManager) Promote(ctx context.Context, projectID string, items []assets.Item) ([]assets.Move, error) {
	args := m.Called(ctx, projectID, items)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]assets.Move), args.Error(1)
}

func (m *MockManager) Rollback(ctx context.Context, moves []assets.Move) {
	m.Called(ctx, moves)
}

func (m *MockManager) Discard(ctx context.Context, records []*model.AssetRecord) {
	m.Called(ctx, records)
}

func (m *MockManager) Replace(ctx context.Context, projectID string, kind model.AssetKind, oldAsset, newAsset *model.AssetRecord) error {
	args := m.Called(ctx, projectID, kind, oldAsset, newAsset)
	return args.Error(0)
}
