package models

import "time"

// DayType classifies a calendar date for presence-rule purposes.
type DayType string

const (
	DayTypeNormal     DayType = "NORMAL"
	DayTypeWeekend    DayType = "WEEKEND"
	DayTypeHoliday    DayType = "HOLIDAY"
	DayTypeContinuous DayType = "CONTINUOUS"
)

// DayClassification is the classifier verdict for a single date.
type DayClassification struct {
	Date        time.Time `json:"date"`
	Type        DayType   `json:"type"`
	HolidayName string    `json:"holiday_name,omitempty"`
}

// HolidayType distinguishes holiday scope.
type HolidayType string

const (
	HolidayTypeNational HolidayType = "NATIONAL"
	HolidayTypeRegional HolidayType = "REGIONAL"
	HolidayTypeLocal    HolidayType = "LOCAL"
	HolidayTypeSpecial  HolidayType = "SPECIAL"
)

// Holiday is a configured non-working day stored in the holidays table.
type Holiday struct {
	ID          int64       `db:"id" json:"id"`
	Date        time.Time   `db:"holiday_date" json:"date"`
	Name        string      `db:"name" json:"name"`
	Description *string     `db:"description" json:"description,omitempty"`
	IsRecurring bool        `db:"is_recurring" json:"isRecurring"`
	Type        HolidayType `db:"holiday_type" json:"type"`
	CreatedBy   *string     `db:"created_by" json:"created_by,omitempty"`
	CreatedAt   time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at" json:"updated_at"`
}

// HolidayFilter scopes holiday listings.
type HolidayFilter struct {
	Year int
	Type string
}

// CalendarConfig is the resolved configuration the classifier operates on.
// Holidays is keyed by "2006-01-02", RecurringHolidays by "01-02" (month-day),
// ContinuousDays by Go weekday.
type CalendarConfig struct {
	Holidays          map[string]string
	RecurringHolidays map[string]string
	ContinuousDays    map[time.Weekday]bool
}

// EmptyCalendarConfig returns a config with no holidays and no continuous days.
// Used as the fallback when calendar configuration cannot be loaded.
func EmptyCalendarConfig() CalendarConfig {
	return CalendarConfig{
		Holidays:          map[string]string{},
		RecurringHolidays: map[string]string{},
		ContinuousDays:    map[time.Weekday]bool{},
	}
}
