package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ReportType enumerates the periods a report may cover.
type ReportType string

const (
	ReportTypeDaily    ReportType = "daily"
	ReportTypeWeekly   ReportType = "weekly"
	ReportTypeMonthly  ReportType = "monthly"
	ReportTypeSemester ReportType = "semester"
	ReportTypeAnnual   ReportType = "annual"
	ReportTypeCustom   ReportType = "custom"
)

// Valid returns true when the type is a supported value.
func (t ReportType) Valid() bool {
	switch t {
	case ReportTypeDaily, ReportTypeWeekly, ReportTypeMonthly, ReportTypeSemester, ReportTypeAnnual, ReportTypeCustom:
		return true
	default:
		return false
	}
}

// ReportStatus captures the approval lifecycle.
type ReportStatus string

const (
	ReportStatusDraft     ReportStatus = "draft"
	ReportStatusPending   ReportStatus = "pending"
	ReportStatusApproved  ReportStatus = "approved"
	ReportStatusRejected  ReportStatus = "rejected"
	ReportStatusPublished ReportStatus = "published"
)

// Valid returns true when the status is a supported value.
func (s ReportStatus) Valid() bool {
	switch s {
	case ReportStatusDraft, ReportStatusPending, ReportStatusApproved, ReportStatusRejected, ReportStatusPublished:
		return true
	default:
		return false
	}
}

// ReportSummary is frozen at creation and never rewritten.
type ReportSummary struct {
	AttendanceRate    int `json:"attendanceRate"`
	BehaviorIncidents int `json:"behaviorIncidents"`
	TotalRecords      int `json:"totalRecords"`
}

// Value marshals the summary to JSON for persistence.
func (s ReportSummary) Value() (driver.Value, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal report summary: %w", err)
	}
	return data, nil
}

// Scan unmarshals the JSONB column.
func (s *ReportSummary) Scan(value interface{}) error {
	if value == nil {
		*s = ReportSummary{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for ReportSummary", value)
	}
	if len(data) == 0 {
		*s = ReportSummary{}
		return nil
	}
	if err := json.Unmarshal(data, s); err != nil {
		return fmt.Errorf("unmarshal report summary: %w", err)
	}
	return nil
}

// Report is a point-in-time snapshot under approval control.
type Report struct {
	ID            string        `db:"id" json:"id"`
	ReportNumber  string        `db:"report_number" json:"reportNumber"`
	Title         string        `db:"title" json:"title"`
	Type          ReportType    `db:"type" json:"type"`
	Grade         *string       `db:"grade" json:"grade,omitempty"`
	ClassID       *string       `db:"class_id" json:"classId,omitempty"`
	PeriodStart   time.Time     `db:"period_start" json:"periodStart"`
	PeriodEnd     time.Time     `db:"period_end" json:"periodEnd"`
	CreatedByID   string        `db:"created_by_id" json:"createdById"`
	Status        ReportStatus  `db:"status" json:"status"`
	Summary       ReportSummary `db:"summary" json:"summary"`
	Content       *string       `db:"content" json:"content,omitempty"`
	Comments      *string       `db:"comments" json:"comments,omitempty"`
	ApprovedByID  *string       `db:"approved_by_id" json:"approvedById,omitempty"`
	ApprovedAt    *time.Time    `db:"approved_at" json:"approvedAt,omitempty"`
	PublishedAt   *time.Time    `db:"published_at" json:"publishedAt,omitempty"`
	DownloadCount int           `db:"download_count" json:"downloadCount"`
	CreatedAt     time.Time     `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time     `db:"updated_at" json:"updatedAt"`
}

// ReportDetail joins a report with creator and class identity.
type ReportDetail struct {
	Report
	CreatedByName *string `db:"created_by_name" json:"createdBy,omitempty"`
	ClassName     *string `db:"class_name" json:"className,omitempty"`
	ClassGrade    *string `db:"class_grade" json:"classGrade,omitempty"`
	ClassSection  *string `db:"class_section" json:"classSection,omitempty"`
}

// ReportFilter scopes ListReports.
type ReportFilter struct {
	Status    *ReportStatus
	Type      *ReportType
	ClassID   string
	CreatedBy string
	Page      int
	PageSize  int
}

// ReportSnapshot is the plain data handed to the document renderer.
type ReportSnapshot struct {
	ReportNumber string        `json:"reportNumber"`
	Title        string        `json:"title"`
	Type         ReportType    `json:"type"`
	Grade        string        `json:"grade"`
	CreatedAt    time.Time     `json:"createdAt"`
	Content      string        `json:"content"`
	Summary      ReportSummary `json:"summary"`
	CreatedBy    string        `json:"createdBy"`
	ClassInfo    string        `json:"classInfo"`
	PeriodStart  time.Time     `json:"periodStart"`
	PeriodEnd    time.Time     `json:"periodEnd"`
}

// ReportDocument is a rendered export ready to stream.
type ReportDocument struct {
	Filename    string
	ContentType string
	Payload     []byte
}
