package dto

import "github.com/noah-isme/sma-records-api/internal/models"

// RecordViolationRequest reports a violation by external codes.
type RecordViolationRequest struct {
	StudentCode  string                  `json:"studentIdCode" validate:"required"`
	EmployeeCode string                  `json:"employeeId" validate:"required"`
	Type         string                  `json:"type" validate:"required,max=100"`
	Severity     models.BehaviorSeverity `json:"severity" validate:"required,behavior_severity"`
	Description  string                  `json:"description" validate:"required"`
	Date         string                  `json:"date,omitempty"`
}

// RecordPositiveRequest awards points for positive behaviour.
type RecordPositiveRequest struct {
	StudentCode  string `json:"studentIdCode" validate:"required"`
	EmployeeCode string `json:"employeeId" validate:"required"`
	Type         string `json:"type" validate:"required,max=100"`
	Description  string `json:"description" validate:"required"`
	Points       *int   `json:"points,omitempty" validate:"omitempty,gte=0"`
	Date         string `json:"date,omitempty"`
}

// ResolveViolationRequest moves a violation through its workflow.
type ResolveViolationRequest struct {
	Status models.BehaviorStatus `json:"status" validate:"required,behavior_status"`
	Action *string               `json:"action,omitempty"`
	Points *int                  `json:"points,omitempty"`
}

// ViolationQuery filters GET /behavior/violations.
type ViolationQuery struct {
	Severity string `form:"severity"`
	Status   string `form:"status"`
	Page     int    `form:"page"`
	Limit    int    `form:"limit"`
}
