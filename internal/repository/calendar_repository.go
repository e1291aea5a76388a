package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/senator-investech/access-api/internal/models"
)

// CalendarRepository manages persistence for holiday records.
type CalendarRepository struct {
	db *sqlx.DB
}

// NewCalendarRepository constructs a CalendarRepository.
func NewCalendarRepository(db *sqlx.DB) *CalendarRepository {
	return &CalendarRepository{db: db}
}

const holidayColumns = `id, holiday_date, name, description, is_recurring, holiday_type, created_by, created_at, updated_at`

// List returns holidays matching the provided filter, soonest first.
// Recurring holidays always match a year filter since they apply every year.
func (r *CalendarRepository) List(ctx context.Context, filter models.HolidayFilter) ([]models.Holiday, error) {
	conditions := []string{"1=1"}
	var args []interface{}

	if filter.Year != 0 {
		conditions = append(conditions, fmt.Sprintf("(EXTRACT(YEAR FROM holiday_date) = $%d OR is_recurring)", len(args)+1))
		args = append(args, filter.Year)
	}
	if filter.Type != "" {
		conditions = append(conditions, fmt.Sprintf("holiday_type = $%d", len(args)+1))
		args = append(args, filter.Type)
	}

	query := fmt.Sprintf("SELECT %s FROM holidays WHERE %s ORDER BY holiday_date ASC", holidayColumns, strings.Join(conditions, " AND "))

	var holidays []models.Holiday
	if err := r.db.SelectContext(ctx, &holidays, query, args...); err != nil {
		return nil, fmt.Errorf("list holidays: %w", err)
	}
	return holidays, nil
}

// FindByID fetches a holiday by identifier.
func (r *CalendarRepository) FindByID(ctx context.Context, id int64) (*models.Holiday, error) {
	query := fmt.Sprintf("SELECT %s FROM holidays WHERE id = $1", holidayColumns)
	var holiday models.Holiday
	if err := r.db.GetContext(ctx, &holiday, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find holiday by id: %w", err)
	}
	return &holiday, nil
}

// ExistsOnDate checks whether a holiday already occupies the given date,
// optionally excluding one record (used on update).
func (r *CalendarRepository) ExistsOnDate(ctx context.Context, date time.Time, excludeID int64) (bool, error) {
	query := "SELECT 1 FROM holidays WHERE holiday_date = $1"
	args := []interface{}{date.Format("2006-01-02")}
	if excludeID != 0 {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check holiday date: %w", err)
	}
	return true, nil
}

// Create inserts a new holiday and fills in the generated identifier.
func (r *CalendarRepository) Create(ctx context.Context, holiday *models.Holiday) error {
	now := time.Now().UTC()
	if holiday.CreatedAt.IsZero() {
		holiday.CreatedAt = now
	}
	holiday.UpdatedAt = now
	const query = `INSERT INTO holidays (holiday_date, name, description, is_recurring, holiday_type, created_by, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query,
		holiday.Date, holiday.Name, holiday.Description, holiday.IsRecurring,
		holiday.Type, holiday.CreatedBy, holiday.CreatedAt, holiday.UpdatedAt,
	).Scan(&holiday.ID); err != nil {
		return fmt.Errorf("create holiday: %w", err)
	}
	return nil
}

// Update modifies an existing holiday.
func (r *CalendarRepository) Update(ctx context.Context, holiday *models.Holiday) error {
	holiday.UpdatedAt = time.Now().UTC()
	const query = `UPDATE holidays SET holiday_date = :holiday_date, name = :name, description = :description,
is_recurring = :is_recurring, holiday_type = :holiday_type, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, holiday); err != nil {
		return fmt.Errorf("update holiday: %w", err)
	}
	return nil
}

// Delete removes a holiday record.
func (r *CalendarRepository) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM holidays WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete holiday: %w", err)
	}
	return nil
}
