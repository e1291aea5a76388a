package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/senator-investech/access-api/internal/models"
)

// EmployeeRepository reads the badge directory synced from HR.
type EmployeeRepository struct {
	db *sqlx.DB
}

// NewEmployeeRepository constructs an EmployeeRepository.
func NewEmployeeRepository(db *sqlx.DB) *EmployeeRepository {
	return &EmployeeRepository{db: db}
}

const employeeColumns = `id, badge_number, first_name, last_name, department, email, active, created_at`

// List returns employees matching the provided filter with total count.
func (r *EmployeeRepository) List(ctx context.Context, filter models.EmployeeFilter) ([]models.Employee, int, error) {
	baseQuery := `FROM employees WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.Department != "" {
		conditions = append(conditions, fmt.Sprintf("department = $%d", len(args)+1))
		args = append(args, filter.Department)
	}
	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(first_name) LIKE $%d OR LOWER(last_name) LIKE $%d OR badge_number LIKE $%d)", len(args)+1, len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY last_name, first_name LIMIT %d OFFSET %d", employeeColumns, baseQuery, pageSize, offset)

	var employees []models.Employee
	if err := r.db.SelectContext(ctx, &employees, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list employees: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count employees: %w", err)
	}
	return employees, total, nil
}

// FindByBadge returns the employee holding the given badge.
func (r *EmployeeRepository) FindByBadge(ctx context.Context, badge string) (*models.Employee, error) {
	query := fmt.Sprintf("SELECT %s FROM employees WHERE badge_number = $1 LIMIT 1", employeeColumns)
	var employee models.Employee
	if err := r.db.GetContext(ctx, &employee, query, badge); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find employee by badge: %w", err)
	}
	return &employee, nil
}

// ListDepartments returns the distinct department names present in the directory.
func (r *EmployeeRepository) ListDepartments(ctx context.Context) ([]string, error) {
	const query = `SELECT DISTINCT department FROM employees WHERE department <> '' ORDER BY department`
	var departments []string
	if err := r.db.SelectContext(ctx, &departments, query); err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	return departments, nil
}

// ListVisitors returns visitor badge holders, most recent first.
func (r *EmployeeRepository) ListVisitors(ctx context.Context, page, pageSize int) ([]models.Visitor, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	query := fmt.Sprintf(`SELECT id, badge_number, first_name, last_name, company, created_at
FROM visitors ORDER BY created_at DESC LIMIT %d OFFSET %d`, pageSize, offset)

	var visitors []models.Visitor
	if err := r.db.SelectContext(ctx, &visitors, query); err != nil {
		return nil, 0, fmt.Errorf("list visitors: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM visitors"); err != nil {
		return nil, 0, fmt.Errorf("count visitors: %w", err)
	}
	return visitors, total, nil
}

// ResolvePersonType tells whether a badge belongs to an employee, a visitor
// or neither.
func (r *EmployeeRepository) ResolvePersonType(ctx context.Context, badge string) (string, error) {
	var exists int
	err := r.db.GetContext(ctx, &exists, "SELECT 1 FROM employees WHERE badge_number = $1 LIMIT 1", badge)
	if err == nil {
		return models.PersonTypeEmployee, nil
	}
	if err != sql.ErrNoRows {
		return "", fmt.Errorf("resolve person type: %w", err)
	}
	err = r.db.GetContext(ctx, &exists, "SELECT 1 FROM visitors WHERE badge_number = $1 LIMIT 1", badge)
	if err == nil {
		return models.PersonTypeVisitor, nil
	}
	if err != sql.ErrNoRows {
		return "", fmt.Errorf("resolve person type: %w", err)
	}
	return models.PersonTypeUnknown, nil
}
