package models

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// AttendanceStatus represents the status for attendance records.
type AttendanceStatus string

const (
	AttendanceStatusPresent AttendanceStatus = "present"
	AttendanceStatusAbsent  AttendanceStatus = "absent"
	AttendanceStatusLate    AttendanceStatus = "late"
	AttendanceStatusExcused AttendanceStatus = "excused"
)

// Valid returns true when the status is a supported value.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendanceStatusPresent, AttendanceStatusAbsent, AttendanceStatusLate, AttendanceStatusExcused:
		return true
	default:
		return false
	}
}

const clockLayout = "15:04:05"

// ClockTime is a time of day held in a TIME column and rendered as HH:MM:SS.
type ClockTime string

// NewClockTime converts an optional request value.
func NewClockTime(v *string) *ClockTime {
	if v == nil {
		return nil
	}
	c := ClockTime(*v)
	return &c
}

func (c ClockTime) Value() (driver.Value, error) {
	return string(c), nil
}

// Scan accepts the time.Time lib/pq decodes TIME into as well as textual values.
func (c *ClockTime) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*c = ""
	case time.Time:
		*c = ClockTime(v.Format(clockLayout))
	case []byte:
		*c = ClockTime(v)
	case string:
		*c = ClockTime(v)
	default:
		return fmt.Errorf("unsupported type %T for ClockTime", value)
	}
	return nil
}

// AttendanceRecord is the per-student-per-day attendance fact.
type AttendanceRecord struct {
	ID             string           `db:"id" json:"id"`
	StudentID      string           `db:"student_id" json:"studentId"`
	Date           time.Time        `db:"date" json:"date"`
	Status         AttendanceStatus `db:"status" json:"status"`
	CheckInTime    *ClockTime       `db:"check_in_time" json:"checkInTime,omitempty"`
	CheckOutTime   *ClockTime       `db:"check_out_time" json:"checkOutTime,omitempty"`
	Notes          *string          `db:"notes" json:"notes,omitempty"`
	RecordedByID   *string          `db:"recorded_by_id" json:"recordedById,omitempty"`
	ParentNotified bool             `db:"parent_notified" json:"parentNotified"`
	NotifiedAt     *time.Time       `db:"notified_at" json:"notifiedAt,omitempty"`
	CreatedAt      time.Time        `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time        `db:"updated_at" json:"updatedAt"`
}

// AttendanceDayRow is an attendance fact joined with the student's identity.
type AttendanceDayRow struct {
	ID           string           `db:"id" json:"id"`
	StudentID    string           `db:"student_id" json:"studentId"`
	StudentCode  string           `db:"student_code" json:"studentCode"`
	StudentName  string           `db:"student_name" json:"studentName"`
	Date         time.Time        `db:"date" json:"date"`
	Status       AttendanceStatus `db:"status" json:"status"`
	CheckInTime  *ClockTime       `db:"check_in_time" json:"checkInTime,omitempty"`
	CheckOutTime *ClockTime       `db:"check_out_time" json:"checkOutTime,omitempty"`
	Notes        *string          `db:"notes" json:"notes,omitempty"`
}

// AttendanceDayFilter scopes GetDay by the student's class.
type AttendanceDayFilter struct {
	Date    time.Time
	Grade   string
	Section string
}

// AttendanceHistoryFilter bounds a student's history; either end may be open.
type AttendanceHistoryFilter struct {
	StudentID string
	StartDate *time.Time
	EndDate   *time.Time
}

// AttendanceDayResult reports how a RecordDay batch was applied.
type AttendanceDayResult struct {
	TotalRecorded int `json:"totalRecorded"`
	Present       int `json:"present"`
	Absent        int `json:"absent"`
	Late          int `json:"late"`
	Excused       int `json:"excused"`
	Skipped       int `json:"skipped"`
}

// Count increments the bucket matching status.
func (r *AttendanceDayResult) Count(status AttendanceStatus) {
	r.TotalRecorded++
	switch status {
	case AttendanceStatusPresent:
		r.Present++
	case AttendanceStatusAbsent:
		r.Absent++
	case AttendanceStatusLate:
		r.Late++
	case AttendanceStatusExcused:
		r.Excused++
	}
}

// AttendanceHistorySummary summarises a student's records.
type AttendanceHistorySummary struct {
	TotalDays      int     `json:"totalDays"`
	Present        int     `json:"present"`
	Absent         int     `json:"absent"`
	Late           int     `json:"late"`
	Excused        int     `json:"excused"`
	AttendanceRate float64 `json:"attendanceRate"`
}

// AttendanceHistory is the response of GetHistory.
type AttendanceHistory struct {
	Summary AttendanceHistorySummary `json:"summary"`
	Records []AttendanceRecord       `json:"records"`
}
