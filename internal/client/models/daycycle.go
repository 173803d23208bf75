package models

import "time"

// DayStatus is the derived state of a user's work day.
type DayStatus string

const (
	DayNotStarted DayStatus = "not-started"
	DayInProgress DayStatus = "in-progress"
	DayCompleted  DayStatus = "completed"
)

// DayCycleState is the persisted record of one business day.
// EndTime set implies StartTime set.
type DayCycleState struct {
	Date      string     `json:"date"`
	StartTime *time.Time `json:"startTime"`
	EndTime   *time.Time `json:"endTime"`
}

// Status derives the day status from a possibly nil state.
func (s *DayCycleState) Status() DayStatus {
	switch {
	case s == nil || s.StartTime == nil:
		return DayNotStarted
	case s.EndTime != nil:
		return DayCompleted
	default:
		return DayInProgress
	}
}

// DayEvent is the body of the dayStart and dayEnd notifications.
// GPSStatus is sent as "true"/"false" and is informational only.
type DayEvent struct {
	UserID     int64   `json:"userId"`
	GPSStatus  string  `json:"gpsStatus"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	IsCheckIn  bool    `json:"isCheckIn"`
	IsCheckOut bool    `json:"isCheckOut"`
}
