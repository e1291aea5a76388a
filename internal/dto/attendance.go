package dto

// ManualEntryRequest is the payload for POST /attendance/manual. It records
// a badge event on behalf of a person whose physical badge failed.
type ManualEntryRequest struct {
	Badge     string `json:"badge" validate:"required"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	EventDate string `json:"eventDate" validate:"required,datetime=2006-01-02"`
	EventTime string `json:"eventTime" validate:"required,datetime=15:04:05"`
	Reader    string `json:"reader" validate:"required"`
	Group     string `json:"group"`
	Reason    string `json:"reason" validate:"required,min=3"`
}

// AttendanceParamsRequest is the payload for PUT /attendance/params.
type AttendanceParamsRequest struct {
	WorkStartHour      int    `json:"workStartHour" validate:"min=0,max=23"`
	WorkEndHour        int    `json:"workEndHour" validate:"min=0,max=23"`
	LunchBreak         bool   `json:"lunchBreak"`
	LunchStartHour     int    `json:"lunchStartHour" validate:"min=0,max=23"`
	LunchEndHour       int    `json:"lunchEndHour" validate:"min=0,max=23"`
	LunchBreakDuration int    `json:"lunchBreakDuration" validate:"min=0,max=240"`
	ContinuousDays     string `json:"continuousDays"`
}
