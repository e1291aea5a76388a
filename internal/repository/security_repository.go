package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/senator-investech/access-api/internal/models"
)

// SecurityRepository persists password history and the security incident log.
type SecurityRepository struct {
	db *sqlx.DB
}

// NewSecurityRepository constructs a SecurityRepository.
func NewSecurityRepository(db *sqlx.DB) *SecurityRepository {
	return &SecurityRepository{db: db}
}

// AddPasswordHistory stores a password hash for reuse checks.
func (r *SecurityRepository) AddPasswordHistory(ctx context.Context, entry *models.PasswordHistoryEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO password_history (id, user_id, password_hash, created_at)
VALUES (:id, :user_id, :password_hash, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("add password history: %w", err)
	}
	return nil
}

// ListPasswordHistory returns the most recent password hashes for a user.
func (r *SecurityRepository) ListPasswordHistory(ctx context.Context, userID string, limit int) ([]models.PasswordHistoryEntry, error) {
	if limit <= 0 {
		limit = 5
	}
	const query = `SELECT id, user_id, password_hash, created_at FROM password_history
WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`
	var entries []models.PasswordHistoryEntry
	if err := r.db.SelectContext(ctx, &entries, query, userID, limit); err != nil {
		return nil, fmt.Errorf("list password history: %w", err)
	}
	return entries, nil
}

// CreateIncident appends an entry to the security incident log.
func (r *SecurityRepository) CreateIncident(ctx context.Context, incident *models.SecurityIncident) error {
	if incident.ID == "" {
		incident.ID = uuid.NewString()
	}
	if incident.CreatedAt.IsZero() {
		incident.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO security_incidents (id, type, description, severity, user_id, email, ip_address, created_at)
VALUES (:id, :type, :description, :severity, :user_id, :email, :ip_address, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, incident); err != nil {
		return fmt.Errorf("create security incident: %w", err)
	}
	return nil
}

// ListIncidents returns incidents matching the filter with total count,
// newest first.
func (r *SecurityRepository) ListIncidents(ctx context.Context, filter models.IncidentFilter) ([]models.SecurityIncident, int, error) {
	baseQuery := `FROM security_incidents WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.Type != "" {
		conditions = append(conditions, fmt.Sprintf("type = $%d", len(args)+1))
		args = append(args, filter.Type)
	}
	if filter.UserID != "" {
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", len(args)+1))
		args = append(args, filter.UserID)
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

	listQuery := fmt.Sprintf(`SELECT id, type, description, severity, user_id, email, ip_address, created_at
%s ORDER BY created_at DESC LIMIT %d OFFSET %d`, baseQuery, pageSize, offset)

	var incidents []models.SecurityIncident
	if err := r.db.SelectContext(ctx, &incidents, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list security incidents: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count security incidents: %w", err)
	}
	return incidents, total, nil
}

// CountRecentFailedLogins counts failed_login incidents for an email since
// the provided time, used for lockout decisions.
func (r *SecurityRepository) CountRecentFailedLogins(ctx context.Context, email string, since time.Time) (int, error) {
	const query = `SELECT COUNT(*) FROM security_incidents WHERE type = $1 AND email = $2 AND created_at >= $3`
	var count int
	if err := r.db.GetContext(ctx, &count, query, models.IncidentFailedLogin, email, since); err != nil {
		return 0, fmt.Errorf("count failed logins: %w", err)
	}
	return count, nil
}
