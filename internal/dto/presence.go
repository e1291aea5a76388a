package dto

import "github.com/senator-investech/access-api/internal/models"

// PresenceSummaryResponse is the payload for GET /presence/summary.
// Field names mirror the dashboard contract consumed by the frontend.
type PresenceSummaryResponse struct {
	Summary       PresenceTotals    `json:"summary"`
	Daily         []DailyPresence   `json:"daily"`
	Weekly        []WeeklyPresence  `json:"weekly"`
	Monthly       []MonthlyPresence `json:"monthly"`
	EmployeeStats []EmployeeStat    `json:"employeeStats"`
}

// PresenceTotals aggregates the whole requested window.
type PresenceTotals struct {
	TotalEmployees    int     `json:"totalEmployees"`
	TotalHours        float64 `json:"totalHours"`
	TotalDays         int     `json:"totalDays"`
	AvgDailyHours     float64 `json:"avgDailyHours"`
	AvgEmployeePerDay float64 `json:"avgEmployeePerDay"`
	AttendanceRate    float64 `json:"attendanceRate"`
}

// DailyPresence is one point of the daily presence chart. Duration is the
// average presence per person in hours.
type DailyPresence struct {
	Date     string  `json:"date"`
	Count    int     `json:"count"`
	Duration float64 `json:"duration"`
}

// WeeklyPresence is one point of the weekly chart ("Semaine N" labels).
type WeeklyPresence struct {
	Day         string  `json:"day"`
	Count       int     `json:"count"`
	AvgDuration float64 `json:"avgDuration"`
}

// MonthlyPresence is one point of the monthly chart ("YYYY-M" labels).
type MonthlyPresence struct {
	Week        string  `json:"week"`
	Count       int     `json:"count"`
	AvgDuration float64 `json:"avgDuration"`
}

// EmployeeStat summarises one badge holder over the window.
type EmployeeStat struct {
	Badge       string  `json:"badge"`
	Name        string  `json:"name"`
	DaysPresent int     `json:"daysPresent"`
	TotalHours  float64 `json:"totalHours"`
}

// BehaviorAnomalyResponse is the payload for GET /presence/anomalies.
type BehaviorAnomalyResponse struct {
	TotalAnomalies int              `json:"totalAnomalies"`
	Anomalies      []models.Anomaly `json:"anomalies"`
}
