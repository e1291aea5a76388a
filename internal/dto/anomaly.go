package dto

import "github.com/senator-investech/access-api/internal/models"

// AnomalyReportResponse is the payload for GET /anomalies. It is
// built from the denied and error events recorded by the access controllers.
type AnomalyReportResponse struct {
	TotalAnomalies  int                      `json:"totalAnomalies"`
	DailyAnomalies  []models.DailyEventCount `json:"dailyAnomalies"`
	ByEventType     []models.EventTypeCount  `json:"byEventType"`
	ByReader        []models.ReaderCount     `json:"byReader"`
	ByGroup         []models.GroupCount      `json:"byGroup"`
	RecentAnomalies []RecentAnomaly          `json:"recentAnomalies"`
}

// RecentAnomaly is one raw anomalous event for the recent activity list.
type RecentAnomaly struct {
	Badge     string `json:"badge"`
	Name      string `json:"name"`
	EventType string `json:"eventType"`
	Reader    string `json:"reader"`
	Group     string `json:"group"`
	EventDate string `json:"eventDate"`
	EventTime string `json:"eventTime"`
}
