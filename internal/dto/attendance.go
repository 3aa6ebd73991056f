package dto

import "github.com/noah-isme/sma-records-api/internal/models"

// AttendanceEntry is one student's fact inside a RecordDay batch.
// StudentCode carries the external student code, not the internal id.
type AttendanceEntry struct {
	StudentCode    string                  `json:"studentId" validate:"required"`
	Status         models.AttendanceStatus `json:"status" validate:"required,attendance_status"`
	CheckInTime    *string                 `json:"checkInTime,omitempty" validate:"omitempty,clock"`
	CheckOutTime   *string                 `json:"checkOutTime,omitempty" validate:"omitempty,clock"`
	Notes          *string                 `json:"notes,omitempty"`
	Reason         *string                 `json:"reason,omitempty"`
	ParentNotified bool                    `json:"parentNotified"`
}

// RecordAttendanceRequest replaces one day's attendance for the listed students.
type RecordAttendanceRequest struct {
	Date    string            `json:"date"`
	Records []AttendanceEntry `json:"records" validate:"dive"`
}

// AttendanceDayQuery filters GET /attendance.
type AttendanceDayQuery struct {
	Date    string `form:"date"`
	Grade   string `form:"grade"`
	Section string `form:"section"`
}

// AttendanceHistoryQuery bounds GET /attendance/students/:id/history.
type AttendanceHistoryQuery struct {
	StartDate string `form:"startDate"`
	EndDate   string `form:"endDate"`
}
