package mocks

import (
	"context"

	"github.com/CalTopSoft/backend-devhub/internal/model"

	"github.com/stretchr/testify/mock"
)

// MockScanner stands in for the Orchestrator in service tests.
type MockScanner struct {
	mock.Mock
}

func (m *MockScanner) Scan(ctx context.Context, data []byte, fileName string) (*model.ScanVerdict, error) {
	args := m.Called(ctx, data, fileName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ScanVerdict), args.Error(1)
}
