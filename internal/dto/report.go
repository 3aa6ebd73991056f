package dto

import "github.com/noah-isme/sma-records-api/internal/models"

// CreateReportRequest captures POST /reports.
type CreateReportRequest struct {
	Title       string            `json:"title" validate:"required,max=200"`
	Type        models.ReportType `json:"type" validate:"omitempty,report_type"`
	Grade       *string           `json:"grade,omitempty"`
	ClassID     string            `json:"classId"`
	PeriodStart string            `json:"periodStart"`
	PeriodEnd   string            `json:"periodEnd"`
	Content     *string           `json:"content,omitempty"`
	Draft       bool              `json:"draft,omitempty"`
}

// RejectReportRequest captures PUT /reports/:id/reject.
type RejectReportRequest struct {
	Comments string `json:"comments" validate:"required"`
}

// ReportQuery filters GET /reports.
type ReportQuery struct {
	Status  string `form:"status"`
	Type    string `form:"type"`
	ClassID string `form:"classId"`
	Mine    bool   `form:"mine"`
	Page    int    `form:"page"`
	Limit   int    `form:"limit"`
}

// ReportSummaryQuery captures GET /reports/summary.
type ReportSummaryQuery struct {
	ClassID     string `form:"classId"`
	PeriodStart string `form:"periodStart"`
	PeriodEnd   string `form:"periodEnd"`
}
