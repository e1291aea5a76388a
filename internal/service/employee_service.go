package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/senator-investech/access-api/internal/models"
	appErrors "github.com/senator-investech/access-api/pkg/errors"
)

type employeeRepository interface {
	List(ctx context.Context, filter models.EmployeeFilter) ([]models.Employee, int, error)
	FindByBadge(ctx context.Context, badge string) (*models.Employee, error)
	ListDepartments(ctx context.Context) ([]string, error)
	ListVisitors(ctx context.Context, page, pageSize int) ([]models.Visitor, int, error)
	ResolvePersonType(ctx context.Context, badge string) (string, error)
}

// EmployeeService exposes the badge directory.
type EmployeeService struct {
	repo   employeeRepository
	logger *zap.Logger
}

// NewEmployeeService constructs an EmployeeService.
func NewEmployeeService(repo employeeRepository, logger *zap.Logger) *EmployeeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EmployeeService{repo: repo, logger: logger}
}

// List returns employees with pagination metadata.
func (s *EmployeeService) List(ctx context.Context, filter models.EmployeeFilter) ([]models.Employee, *models.Pagination, error) {
	employees, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list employees")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	return employees, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// Get returns one employee by badge number.
func (s *EmployeeService) Get(ctx context.Context, badge string) (*models.Employee, error) {
	employee, err := s.repo.FindByBadge(ctx, badge)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "employee not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load employee")
	}
	return employee, nil
}

// Departments lists the distinct departments in the directory.
func (s *EmployeeService) Departments(ctx context.Context) ([]string, error) {
	departments, err := s.repo.ListDepartments(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list departments")
	}
	return departments, nil
}

// Visitors returns visitor badge holders with pagination metadata.
func (s *EmployeeService) Visitors(ctx context.Context, page, pageSize int) ([]models.Visitor, *models.Pagination, error) {
	visitors, total, err := s.repo.ListVisitors(ctx, page, pageSize)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list visitors")
	}
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	return visitors, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}
