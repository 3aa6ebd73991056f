package models

// BaselineBehaviorScore seeds every student's running balance.
const BaselineBehaviorScore = 100

// Student represents a learner registered in the institution.
type Student struct {
	ID            string  `db:"id" json:"id"`
	StudentCode   string  `db:"student_code" json:"studentCode"`
	FullName      string  `db:"full_name" json:"fullName"`
	ClassID       *string `db:"class_id" json:"classId,omitempty"`
	BehaviorScore int     `db:"behavior_score" json:"behaviorScore"`
	Active        bool    `db:"active" json:"active"`
}

// StudentRef is the minimal identity returned by code lookups.
type StudentRef struct {
	ID          string `db:"id" json:"id"`
	StudentCode string `db:"student_code" json:"studentCode"`
	FullName    string `db:"full_name" json:"fullName"`
}
