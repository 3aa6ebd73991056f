package models

// Teacher represents a staff member able to report behaviour events.
type Teacher struct {
	ID           string  `db:"id" json:"id"`
	EmployeeCode string  `db:"employee_code" json:"employeeCode"`
	FullName     string  `db:"full_name" json:"fullName"`
	UserID       *string `db:"user_id" json:"userId,omitempty"`
}
