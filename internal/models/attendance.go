package models

import "time"

// AttendanceRecord is a per-person per-day attendance row with lunch-break
// deduction applied.
type AttendanceRecord struct {
	Badge            string    `json:"badge"`
	Name             string    `json:"name"`
	Date             time.Time `json:"date"`
	Arrival          time.Time `json:"arrival"`
	Departure        time.Time `json:"departure"`
	WorkedMinutes    int       `json:"worked_minutes"`
	DeductedMinutes  int       `json:"deducted_minutes"`
	EventCount       int       `json:"event_count"`
	Readers          []string  `json:"readers"`
	DayStatus        DayType   `json:"day_status"`
	PersonType       string    `json:"person_type"`
}

// AttendanceParams is the working-time configuration persisted in app_settings.
type AttendanceParams struct {
	WorkStartHour     int    `json:"workStartHour"`
	WorkEndHour       int    `json:"workEndHour"`
	LunchBreakEnabled bool   `json:"lunchBreak"`
	LunchStartHour    int    `json:"lunchStartHour"`
	LunchEndHour      int    `json:"lunchEndHour"`
	LunchDurationMin  int    `json:"lunchBreakDuration"`
	ContinuousDays    string `json:"continuousDays"`
}
