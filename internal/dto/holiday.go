package dto

// HolidayRequest is the payload for creating or updating a holiday.
type HolidayRequest struct {
	Date        string  `json:"date" validate:"required,datetime=2006-01-02"`
	Name        string  `json:"name" validate:"required,min=2,max=120"`
	Description *string `json:"description,omitempty"`
	IsRecurring bool    `json:"isRecurring"`
	Type        string  `json:"type" validate:"required,oneof=NATIONAL REGIONAL LOCAL SPECIAL"`
}
