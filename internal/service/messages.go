package service

import "fmt"

// Message keys used for user-facing error text. Callers branch on error codes, never on text.
const (
	msgDateRequired         = "date_required"
	msgDateInvalid          = "date_invalid"
	msgRecordsRequired      = "records_required"
	msgDuplicateStudentCode = "duplicate_student_code"
	msgInvalidPayload       = "invalid_payload"
	msgStudentNotFound      = "student_not_found"
	msgStudentCodeNotFound  = "student_code_not_found"
	msgTeacherCodeNotFound  = "teacher_code_not_found"
	msgViolationNotFound    = "violation_not_found"
	msgInvalidTransition    = "invalid_transition"
	msgAlreadyResolved      = "already_resolved"
	msgPointsOnlyOnResolve  = "points_only_on_resolve"
	msgPointsMustBeNegative = "points_must_be_negative"
	msgClassRequired        = "class_required"
	msgClassNotFound        = "class_not_found"
	msgPeriodOrder          = "period_order"
	msgReportNotFound       = "report_not_found"
	msgCannotApprove        = "cannot_approve"
	msgCannotReject         = "cannot_reject"
	msgCannotPublish        = "cannot_publish"
	msgCannotSubmit         = "cannot_submit"
	msgNotReportAuthor      = "not_report_author"
	msgUnsupportedFormat    = "unsupported_format"
	msgChartPeriod          = "chart_period"
	msgTransactionFailed    = "transaction_failed"
	msgTransactionStart     = "transaction_start"
)

var messageCatalog = map[string]string{
	msgDateRequired:         "%s is required",
	msgDateInvalid:          "%s must be formatted as YYYY-MM-DD",
	msgRecordsRequired:      "at least one attendance record is required",
	msgDuplicateStudentCode: "student %s appears more than once in the batch",
	msgInvalidPayload:       "invalid %s payload",
	msgStudentNotFound:      "student not found",
	msgStudentCodeNotFound:  "student with code %s not found",
	msgTeacherCodeNotFound:  "teacher with employee id %s not found",
	msgViolationNotFound:    "violation record not found",
	msgInvalidTransition:    "cannot move violation from %s to %s",
	msgAlreadyResolved:      "violation is already resolved",
	msgPointsOnlyOnResolve:  "points can only be assigned when resolving",
	msgPointsMustBeNegative: "resolution points must be zero or negative",
	msgClassRequired:        "classId is required",
	msgClassNotFound:        "class not found",
	msgPeriodOrder:          "periodStart must not be after periodEnd",
	msgReportNotFound:       "report not found",
	msgCannotApprove:        "cannot approve a report with current status: %s",
	msgCannotReject:         "cannot reject a report with current status: %s",
	msgCannotPublish:        "cannot publish a report with current status: %s",
	msgCannotSubmit:         "cannot submit a report with current status: %s",
	msgNotReportAuthor:      "only the author or an administrator can submit this report",
	msgUnsupportedFormat:    "unsupported export format: %s",
	msgChartPeriod:          "period must be one of week, month, semester",
	msgTransactionFailed:    "failed to commit %s",
	msgTransactionStart:     "failed to begin transaction",
}

func msg(key string, args ...interface{}) string {
	format, ok := messageCatalog[key]
	if !ok {
		return key
	}
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}
