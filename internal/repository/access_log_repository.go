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

// AccessLogRepository reads the badge event log fed by the access
// controllers. The table is append mostly; all analytical queries filter on
// event_date which is indexed.
type AccessLogRepository struct {
	db *sqlx.DB
}

// NewAccessLogRepository constructs an AccessLogRepository.
func NewAccessLogRepository(db *sqlx.DB) *AccessLogRepository {
	return &AccessLogRepository{db: db}
}

const accessEventColumns = `id, badge_number, first_name, last_name, event_date, event_time, event_type, reader, group_name`

// buildFilter appends the optional department and person type predicates.
// Positional argument numbering continues from the provided args slice.
func buildFilter(conditions []string, args []interface{}, filter models.EventFilter) ([]string, []interface{}) {
	if filter.Department != "" {
		conditions = append(conditions, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM employees emp WHERE emp.badge_number = a.badge_number AND emp.department = $%d)", len(args)+1))
		args = append(args, filter.Department)
	}
	switch filter.PersonType {
	case models.PersonTypeEmployee:
		conditions = append(conditions, "EXISTS (SELECT 1 FROM employees emp WHERE emp.badge_number = a.badge_number)")
	case models.PersonTypeVisitor:
		conditions = append(conditions, "EXISTS (SELECT 1 FROM visitors v WHERE v.badge_number = a.badge_number)")
	}
	return conditions, args
}

// QueryAcceptedEvents returns granted access events within [start, end],
// ordered by badge then timestamp so day summaries can be built in one pass.
func (r *AccessLogRepository) QueryAcceptedEvents(ctx context.Context, start, end time.Time, filter models.EventFilter) ([]models.AccessEvent, error) {
	conditions := []string{"a.event_date >= $1", "a.event_date <= $2", "a.event_type = $3"}
	args := []interface{}{start.Format("2006-01-02"), end.Format("2006-01-02"), models.EventTypeAccepted}
	conditions, args = buildFilter(conditions, args, filter)

	query := fmt.Sprintf(`SELECT %s FROM access_events a WHERE %s ORDER BY a.badge_number, a.event_date, a.event_time`,
		prefixColumns("a"), strings.Join(conditions, " AND "))

	var events []models.AccessEvent
	if err := r.db.SelectContext(ctx, &events, query, args...); err != nil {
		return nil, fmt.Errorf("query accepted events: %w", err)
	}
	return events, nil
}

// QueryAnomalousEvents returns every non granted event within [start, end].
// Denied, error and tamper events all count; the granted type is the only
// exclusion.
func (r *AccessLogRepository) QueryAnomalousEvents(ctx context.Context, start, end time.Time, filter models.EventFilter) ([]models.AccessEvent, error) {
	conditions := []string{"a.event_date >= $1", "a.event_date <= $2", "a.event_type <> $3"}
	args := []interface{}{start.Format("2006-01-02"), end.Format("2006-01-02"), models.EventTypeAccepted}
	conditions, args = buildFilter(conditions, args, filter)

	query := fmt.Sprintf(`SELECT %s FROM access_events a WHERE %s ORDER BY a.event_date DESC, a.event_time DESC`,
		prefixColumns("a"), strings.Join(conditions, " AND "))

	var events []models.AccessEvent
	if err := r.db.SelectContext(ctx, &events, query, args...); err != nil {
		return nil, fmt.Errorf("query anomalous events: %w", err)
	}
	return events, nil
}

// CountAnomaliesByDay groups non granted events per calendar day.
func (r *AccessLogRepository) CountAnomaliesByDay(ctx context.Context, start, end time.Time) ([]models.DailyEventCount, error) {
	const query = `SELECT event_date, COUNT(*) AS count FROM access_events
WHERE event_date >= $1 AND event_date <= $2 AND event_type <> $3
GROUP BY event_date ORDER BY event_date`
	var counts []models.DailyEventCount
	if err := r.db.SelectContext(ctx, &counts, query, start.Format("2006-01-02"), end.Format("2006-01-02"), models.EventTypeAccepted); err != nil {
		return nil, fmt.Errorf("count anomalies by day: %w", err)
	}
	return counts, nil
}

// CountAnomaliesByEventType groups non granted events by their raw type.
func (r *AccessLogRepository) CountAnomaliesByEventType(ctx context.Context, start, end time.Time) ([]models.EventTypeCount, error) {
	const query = `SELECT event_type, COUNT(*) AS count FROM access_events
WHERE event_date >= $1 AND event_date <= $2 AND event_type <> $3
GROUP BY event_type ORDER BY count DESC`
	var counts []models.EventTypeCount
	if err := r.db.SelectContext(ctx, &counts, query, start.Format("2006-01-02"), end.Format("2006-01-02"), models.EventTypeAccepted); err != nil {
		return nil, fmt.Errorf("count anomalies by event type: %w", err)
	}
	return counts, nil
}

// CountAnomaliesByReader returns the readers with the most non granted
// events, capped at limit.
func (r *AccessLogRepository) CountAnomaliesByReader(ctx context.Context, start, end time.Time, limit int) ([]models.ReaderCount, error) {
	if limit <= 0 {
		limit = 10
	}
	const query = `SELECT reader, COUNT(*) AS count FROM access_events
WHERE event_date >= $1 AND event_date <= $2 AND event_type <> $3
GROUP BY reader ORDER BY count DESC LIMIT $4`
	var counts []models.ReaderCount
	if err := r.db.SelectContext(ctx, &counts, query, start.Format("2006-01-02"), end.Format("2006-01-02"), models.EventTypeAccepted, limit); err != nil {
		return nil, fmt.Errorf("count anomalies by reader: %w", err)
	}
	return counts, nil
}

// CountAnomaliesByGroup returns the access groups with the most non granted
// events, capped at limit.
func (r *AccessLogRepository) CountAnomaliesByGroup(ctx context.Context, start, end time.Time, limit int) ([]models.GroupCount, error) {
	if limit <= 0 {
		limit = 10
	}
	const query = `SELECT group_name, COUNT(*) AS count FROM access_events
WHERE event_date >= $1 AND event_date <= $2 AND event_type <> $3
GROUP BY group_name ORDER BY count DESC LIMIT $4`
	var counts []models.GroupCount
	if err := r.db.SelectContext(ctx, &counts, query, start.Format("2006-01-02"), end.Format("2006-01-02"), models.EventTypeAccepted, limit); err != nil {
		return nil, fmt.Errorf("count anomalies by group: %w", err)
	}
	return counts, nil
}

// RecentAnomalies returns the latest non granted events, newest first.
func (r *AccessLogRepository) RecentAnomalies(ctx context.Context, start, end time.Time, limit int) ([]models.AccessEvent, error) {
	if limit <= 0 {
		limit = 20
	}
	query := fmt.Sprintf(`SELECT %s FROM access_events a
WHERE a.event_date >= $1 AND a.event_date <= $2 AND a.event_type <> $3
ORDER BY a.event_date DESC, a.event_time DESC LIMIT $4`, prefixColumns("a"))
	var events []models.AccessEvent
	if err := r.db.SelectContext(ctx, &events, query, start.Format("2006-01-02"), end.Format("2006-01-02"), models.EventTypeAccepted, limit); err != nil {
		return nil, fmt.Errorf("recent anomalies: %w", err)
	}
	return events, nil
}

// MaxEventDate returns the most recent event date in the log, used to anchor
// default reporting windows. Returns sql.ErrNoRows when the log is empty.
func (r *AccessLogRepository) MaxEventDate(ctx context.Context) (time.Time, error) {
	const query = `SELECT MAX(event_date) FROM access_events`
	var raw sql.NullString
	if err := r.db.GetContext(ctx, &raw, query); err != nil {
		return time.Time{}, fmt.Errorf("max event date: %w", err)
	}
	if !raw.Valid {
		return time.Time{}, sql.ErrNoRows
	}
	ts, err := time.Parse("2006-01-02", raw.String[:10])
	if err != nil {
		// Some drivers hand back a full timestamp for DATE columns.
		ts, err = time.Parse(time.RFC3339, raw.String)
		if err != nil {
			return time.Time{}, fmt.Errorf("parse max event date %q: %w", raw.String, err)
		}
	}
	return ts, nil
}

// InsertEvent appends a manual badge event to the log.
func (r *AccessLogRepository) InsertEvent(ctx context.Context, event *models.AccessEvent) error {
	const query = `INSERT INTO access_events (badge_number, first_name, last_name, event_date, event_time, event_type, reader, group_name)
VALUES (:badge_number, :first_name, :last_name, :event_date, :event_time, :event_type, :reader, :group_name)`
	if _, err := r.db.NamedExecContext(ctx, query, event); err != nil {
		return fmt.Errorf("insert access event: %w", err)
	}
	return nil
}

func prefixColumns(alias string) string {
	cols := strings.Split(accessEventColumns, ", ")
	for i, c := range cols {
		cols[i] = alias + "." + c
	}
	return strings.Join(cols, ", ")
}
