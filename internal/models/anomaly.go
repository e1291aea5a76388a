package models

import "time"

// AnomalyType enumerates attendance deviations flagged by the detector.
type AnomalyType string

const (
	AnomalyLateArrival    AnomalyType = "LATE_ARRIVAL"
	AnomalyEarlyDeparture AnomalyType = "EARLY_DEPARTURE"
	AnomalyAbsence        AnomalyType = "ABSENCE"
	AnomalyLongGap        AnomalyType = "LONG_GAP"
)

// AnomalySeverity grades detector findings.
type AnomalySeverity string

const (
	SeverityWarning AnomalySeverity = "warning"
	SeverityError   AnomalySeverity = "error"
)

// Anomaly is a flagged deviation derived from one PersonDaySummary (or its absence).
type Anomaly struct {
	Type        AnomalyType     `json:"type"`
	Severity    AnomalySeverity `json:"severity"`
	Badge       string          `json:"badge"`
	Name        string          `json:"name"`
	Date        time.Time       `json:"date"`
	Description string          `json:"description"`
}

// EventTypeCount aggregates rejected badge reads by raw controller event type.
type EventTypeCount struct {
	RawEventType string `db:"event_type" json:"rawEventType"`
	Count        int    `db:"count" json:"count"`
}

// ReaderCount aggregates rejected badge reads by reader.
type ReaderCount struct {
	Reader string `db:"reader" json:"reader"`
	Count  int    `db:"count" json:"count"`
}

// GroupCount aggregates rejected badge reads by access group.
type GroupCount struct {
	GroupName string `db:"group_name" json:"group"`
	Count     int    `db:"count" json:"count"`
}

// DailyEventCount aggregates rejected badge reads by day.
type DailyEventCount struct {
	Date  time.Time `db:"event_date" json:"date"`
	Count int       `db:"count" json:"count"`
}
