package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/CalTopSoft/backend-devhub/internal/model"
	"github.com/CalTopSoft/backend-devhub/internal/repository"
	"github.com/CalTopSoft/backend-devhub/internal/service"
)

type MockProjectService struct {
	mock.Mock
}

func (m *MockProjectService) project(args mock.Arguments) (*model.Project, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Project), args.Error(1)
}

func (m *MockProjectService) Create(ctx context.Context, in service.CreateProjectInput) (*model.Project, error) {
	return m.project(m.Called(ctx, in))
}

func (m *MockProjectService) Get(ctx context.Context, id string) (*model.Project, error) {
	return m.project(m.Called(ctx, id))
}

func (m *MockProjectService) List(ctx context.Context, pq repository.PageQuery) (*service.ProjectListResult, error) {
	args := m.Called(ctx, pq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ProjectListResult), args.Error(1)
}

func (m *MockProjectService) Submit(ctx context.Context, id string) (*model.Project, error) {
	return m.project(m.Called(ctx, id))
}

func (m *MockProjectService) ModeratorApprove(ctx context.Context, id string) (*model.Project, error) {
	return m.project(m.Called(ctx, id))
}

func (m *MockProjectService) ModeratorReject(ctx context.Context, id string, reasons []string) (*model.Project, error) {
	return m.project(m.Called(ctx, id, reasons))
}

func (m *MockProjectService) RequestChanges(ctx context.Context, id string, notes []string) (*model.Project, error) {
	return m.project(m.Called(ctx, id, notes))
}

func (m *MockProjectService) AuthorEditPublished(ctx context.Context, id string, changes service.DraftChanges) (*model.Project, error) {
	return m.project(m.Called(ctx, id, changes))
}

func (m *MockProjectService) ModeratorApproveDraft(ctx context.Context, id string) (*model.Project, error) {
	return m.project(m.Called(ctx, id))
}

func (m *MockProjectService) ModeratorRejectDraft(ctx context.Context, id string, feedback string) (*model.Project, error) {
	return m.project(m.Called(ctx, id, feedback))
}

func (m *MockProjectService) ClearRejectedDraft(ctx context.Context, id string) (*model.Project, error) {
	return m.project(m.Called(ctx, id))
}

func (m *MockProjectService) OverrideScanVerdict(ctx context.Context, id string, kind model.AssetKind, justification string) (*model.Project, error) {
	return m.project(m.Called(ctx, id, kind, justification))
}
