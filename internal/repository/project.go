package repository

// Package repository contains data access layer abstractions.
// Implementations can live in subpackages (e.g., postgres, mongo) inside this directory.

import (
	"context"
	"errors"

	"github.com/CalTopSoft/backend-devhub/internal/model"
)

// ErrConflict is returned when a conditional update loses a race against a
// concurrent transition on the same project. Retryable: re-read and retry
// the whole operation.
var ErrConflict = errors.New("concurrent transition conflict")

// Expect pins the status fields a lifecycle transition validated its
// precondition against. Update only commits while they still hold.
type Expect struct {
	Status      model.Status
	DraftStatus model.DraftStatus
}

// ProjectRepository defines data access for projects using SQL queries only.
// No business logic here — strictly persistence operations.
type ProjectRepository interface {
	// Create inserts a new project record and returns the stored row.
	Create(ctx context.Context, p *model.Project) (*model.Project, error)

	// FindByID returns a project by its ID.
	FindByID(ctx context.Context, id string) (*model.Project, error)

	// List returns a paginated list of projects and total rows count.
	List(ctx context.Context, pq PageQuery) (*PageResult[model.Project], error)

	// Update persists p with a compare-and-swap on status and draft
	// status. Returns ErrConflict if a concurrent transition changed
	// either field since the caller read the project.
	Update(ctx context.Context, p *model.Project, expect Expect) (*model.Project, error)

	// Delete removes a project by ID. It returns nil if the row was deleted or did not exist.
	Delete(ctx context.Context, id string) error
}

// PageQuery holds limit/offset pagination parameters.
type PageQuery struct {
	Limit  int
	Offset int
}

// PageResult is a generic pagination result wrapper.
// T is typically a model type.
type PageResult[T any] struct {
	Items []T
	Total int
}
