package models

import "time"

// BehaviorCategory distinguishes rewards from infractions.
type BehaviorCategory string

const (
	BehaviorCategoryPositive  BehaviorCategory = "positive"
	BehaviorCategoryViolation BehaviorCategory = "violation"
)

// BehaviorSeverity grades a violation.
type BehaviorSeverity string

const (
	SeverityLow      BehaviorSeverity = "low"
	SeverityMedium   BehaviorSeverity = "medium"
	SeverityHigh     BehaviorSeverity = "high"
	SeverityCritical BehaviorSeverity = "critical"
)

// Valid returns true when the severity is a supported value.
func (s BehaviorSeverity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	default:
		return false
	}
}

// BehaviorStatus is the resolution workflow state of an event.
type BehaviorStatus string

const (
	BehaviorStatusPending      BehaviorStatus = "pending"
	BehaviorStatusAcknowledged BehaviorStatus = "acknowledged"
	BehaviorStatusResolved     BehaviorStatus = "resolved"
	BehaviorStatusEscalated    BehaviorStatus = "escalated"
)

// Valid returns true when the status is a supported value.
func (s BehaviorStatus) Valid() bool {
	switch s {
	case BehaviorStatusPending, BehaviorStatusAcknowledged, BehaviorStatusResolved, BehaviorStatusEscalated:
		return true
	default:
		return false
	}
}

var behaviorTransitions = map[BehaviorStatus][]BehaviorStatus{
	BehaviorStatusPending:      {BehaviorStatusAcknowledged, BehaviorStatusResolved, BehaviorStatusEscalated},
	BehaviorStatusAcknowledged: {BehaviorStatusResolved, BehaviorStatusEscalated},
	BehaviorStatusEscalated:    {BehaviorStatusResolved},
}

// CanTransitionTo reports whether the workflow permits moving from s to next.
func (s BehaviorStatus) CanTransitionTo(next BehaviorStatus) bool {
	for _, allowed := range behaviorTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// DefaultPositivePoints is awarded when a positive event omits points.
const DefaultPositivePoints = 10

// BehaviorEvent is one entry of the behaviour ledger.
type BehaviorEvent struct {
	ID           string            `db:"id" json:"id"`
	StudentID    string            `db:"student_id" json:"studentId"`
	ReportedByID string            `db:"reported_by_id" json:"reportedById"`
	Type         string            `db:"type" json:"type"`
	Category     BehaviorCategory  `db:"category" json:"category"`
	Severity     *BehaviorSeverity `db:"severity" json:"severity,omitempty"`
	Description  string            `db:"description" json:"description"`
	Date         time.Time         `db:"date" json:"date"`
	Status       BehaviorStatus    `db:"status" json:"status"`
	Action       *string           `db:"action" json:"action,omitempty"`
	Points       int               `db:"points" json:"points"`
	ResolvedAt   *time.Time        `db:"resolved_at" json:"resolvedAt,omitempty"`
	CreatedAt    time.Time         `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time         `db:"updated_at" json:"updatedAt"`
}

// BehaviorEventDetail joins an event with student and reporter identity.
type BehaviorEventDetail struct {
	BehaviorEvent
	StudentCode    string  `db:"student_code" json:"studentCode"`
	StudentName    string  `db:"student_name" json:"studentName"`
	ReportedByName *string `db:"reported_by_name" json:"reportedBy,omitempty"`
	CurrentScore   int     `db:"current_score" json:"currentScore"`
}

// BehaviorEventFilter scopes ledger listings.
type BehaviorEventFilter struct {
	Category BehaviorCategory
	Severity *BehaviorSeverity
	Status   *BehaviorStatus
	Page     int
	PageSize int
}

// ViolationStats accompanies a violation page.
type ViolationStats struct {
	Total    int `json:"total"`
	Pending  int `json:"pending"`
	Resolved int `json:"resolved"`
}

// ViolationList is the response of ListViolations.
type ViolationList struct {
	Violations []BehaviorEventDetail `json:"violations"`
	Stats      ViolationStats        `json:"stats"`
}

// BehaviorResolution is returned after a status change.
type BehaviorResolution struct {
	ID           string         `json:"id"`
	Status       BehaviorStatus `json:"status"`
	Action       *string        `json:"action,omitempty"`
	Points       int            `json:"points"`
	CurrentScore int            `json:"currentScore"`
}

// PositiveAward is returned after a positive event is recorded.
type PositiveAward struct {
	Event        BehaviorEvent `json:"event"`
	StudentName  string        `json:"studentName"`
	CurrentScore int           `json:"currentScore"`
}
