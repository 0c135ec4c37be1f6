// Package handler 提供HTTP请求处理器
package handler

import (
	"context"

	"github.com/google/uuid"
	"github.com/paigong/paigong/internal/repository"
	"github.com/paigong/paigong/pkg/model"
)

// EmployeeStore 员工数据访问
type EmployeeStore interface {
	Create(ctx context.Context, emp *model.Employee) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Employee, error)
	GetByTokenHash(ctx context.Context, tokenHash string) (*model.Employee, error)
	Update(ctx context.Context, emp *model.Employee) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter repository.ListFilter) ([]*model.Employee, int, error)
	ListActive(ctx context.Context) ([]*model.Employee, error)
}

// ProjectStore 项目数据访问
type ProjectStore interface {
	Create(ctx context.Context, p *model.Project) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Project, error)
	Update(ctx context.Context, p *model.Project) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter repository.ListFilter) ([]*model.Project, int, error)
	ListActive(ctx context.Context) ([]*model.Project, error)
}

// AssignmentStore 分配数据访问
// ReplaceGeneratedInWindow 与 CancelAndCreate 是事务性的复合写入
type AssignmentStore interface {
	Create(ctx context.Context, a *model.Assignment) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Assignment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	List(ctx context.Context, filter repository.ListFilter) ([]*model.Assignment, int, error)
	ListByEmployee(ctx context.Context, employeeID uuid.UUID, start, end string) ([]*model.Assignment, error)
	ListByWindow(ctx context.Context, start, end string) ([]*model.Assignment, error)
	ReplaceGeneratedInWindow(ctx context.Context, start, end string, assignments []*model.Assignment) (int64, error)
	CancelAndCreate(ctx context.Context, sourceID uuid.UUID, replacement *model.Assignment) error
}
