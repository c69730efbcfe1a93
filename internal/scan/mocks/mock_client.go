package mocks

import (
	"context"
	"io"

	"github.com/CalTopSoft/backend-devhub/internal/scan"

	"github.com/stretchr/testify/mock"
)

type MockClient struct {
	mock.Mock
}

func (m *MockClient) Lookup(ctx context.Context, sha256 string) (*scan.Report, error) {
	args := m.Called(ctx, sha256)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*scan.Report), args.Error(1)
}

func (m *MockClient) Submit(ctx context.Context, r io.Reader, fileName string) (string, error) {
	args := m.Called(ctx, r, fileName)
	return args.String(0), args.Error(1)
}

func (m *MockClient) Report(ctx context.Context, scanID string) (*scan.Report, error) {
	args := m.Called(ctx, scanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*scan.Report), args.Error(1)
}
