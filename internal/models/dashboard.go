package models

import "time"

// DashboardStats is the administrator overview.
type DashboardStats struct {
	TotalStudents        int       `db:"total_students" json:"totalStudents"`
	TotalTeachers        int       `db:"total_teachers" json:"totalTeachers"`
	AttendanceRate       float64   `db:"-" json:"attendanceRate"`
	PendingReports       int       `db:"pending_reports" json:"pendingReports"`
	PendingBehaviorCases int       `db:"pending_behavior_cases" json:"pendingBehaviorCases"`
	GeneratedAt          time.Time `db:"-" json:"generatedAt"`
}

// DashboardCounts are the raw counters behind DashboardStats.
type DashboardCounts struct {
	TotalStudents        int `db:"total_students"`
	TotalTeachers        int `db:"total_teachers"`
	PendingReports       int `db:"pending_reports"`
	PendingBehaviorCases int `db:"pending_behavior_cases"`
	TotalAttendance      int `db:"total_attendance"`
	PresentAttendance    int `db:"present_attendance"`
}

// ScoreDrift describes a student whose stored balance disagrees with the ledger.
type ScoreDrift struct {
	StudentID     string `db:"student_id" json:"studentId"`
	StudentCode   string `db:"student_code" json:"studentCode"`
	StoredScore   int    `db:"stored_score" json:"storedScore"`
	ExpectedScore int    `db:"expected_score" json:"expectedScore"`
}

// ReconciliationResult summarises one audit pass.
type ReconciliationResult struct {
	CheckedAt time.Time    `json:"checkedAt"`
	Drifts    []ScoreDrift `json:"drifts"`
}

// GradeAttendance is the raw per-grade tally behind the attendance chart.
type GradeAttendance struct {
	Grade   string `db:"grade"`
	Total   int    `db:"total"`
	Present int    `db:"present"`
	Absent  int    `db:"absent"`
}

// GradeAttendanceRate is one bar of the attendance chart, in whole percent.
type GradeAttendanceRate struct {
	Grade      string `json:"grade"`
	Attendance int    `json:"attendance"`
	Absence    int    `json:"absence"`
}

// AttendanceChart compares grades over a trailing window.
type AttendanceChart struct {
	Period string                `json:"period"`
	Since  time.Time             `json:"since"`
	Grades []GradeAttendanceRate `json:"grades"`
}
