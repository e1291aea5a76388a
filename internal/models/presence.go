package models

import "time"

// PersonDaySummary aggregates one person's accepted badge events for one day.
// TotalMinutes is the clamped span between first and last event.
type PersonDaySummary struct {
	Badge        string            `json:"badge"`
	Name         string            `json:"name"`
	Date         time.Time         `json:"date"`
	FirstEvent   time.Time         `json:"first_event"`
	LastEvent    time.Time         `json:"last_event"`
	TotalMinutes int               `json:"total_minutes"`
	EventCount   int               `json:"event_count"`
	Day          DayClassification `json:"day"`
}

// WeeklyBucket rolls daily summaries up by ISO week.
type WeeklyBucket struct {
	Year               int     `json:"year"`
	Week               int     `json:"week"`
	PersonCount        int     `json:"person_count"`
	DayCount           int     `json:"day_count"`
	AvgDurationMinutes float64 `json:"avg_duration_minutes"`
}

// MonthlyBucket rolls daily summaries up by calendar month.
type MonthlyBucket struct {
	Year               int        `json:"year"`
	Month              time.Month `json:"month"`
	PersonCount        int        `json:"person_count"`
	DayCount           int        `json:"day_count"`
	AvgDurationMinutes float64    `json:"avg_duration_minutes"`
}
