package models

import "time"

// Badge event types as imported from the Senator access controller.
const (
	EventTypeAccepted = "user_accepted"
)

// AccessEvent is a single badge read stored in the access_events table.
type AccessEvent struct {
	ID        int64     `db:"id" json:"id"`
	Badge     string    `db:"badge_number" json:"badge"`
	FirstName string    `db:"first_name" json:"first_name"`
	LastName  string    `db:"last_name" json:"last_name"`
	EventDate time.Time `db:"event_date" json:"event_date"`
	EventTime time.Time `db:"event_time" json:"event_time"`
	EventType string    `db:"event_type" json:"event_type"`
	Reader    string    `db:"reader" json:"reader"`
	GroupName string    `db:"group_name" json:"group"`
}

// FullName joins the imported name columns, falling back to the badge number.
func (e AccessEvent) FullName() string {
	name := e.FirstName
	if e.LastName != "" {
		if name != "" {
			name += " "
		}
		name += e.LastName
	}
	if name == "" {
		return e.Badge
	}
	return name
}

// EventFilter scopes access-log queries by date range and person attributes.
type EventFilter struct {
	Start      time.Time
	End        time.Time
	Department string
	PersonType string
}
