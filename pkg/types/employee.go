package types

import "time"

// Employee states.
const (
	EmployeeActive     = "active"
	EmployeeOnLeave    = "on_leave"
	EmployeeTerminated = "terminated"
)

// Employee is a person on the payroll.
type Employee struct {
	Meta
	FirstName  string    `json:"first_name" validate:"required"`
	LastName   string    `json:"last_name" validate:"required"`
	Email      string    `json:"email" validate:"omitempty,email"`
	Department string    `json:"department,omitempty"`
	Title      string    `json:"title,omitempty"`
	Status     string    `json:"status" validate:"omitempty,oneof=active on_leave terminated"`
	OfficeID   string    `json:"office_id,omitempty"`
	HiredAt    time.Time `json:"hired_at,omitzero"`
}

// FullName returns "First Last".
func (e *Employee) FullName() string {
	if e.LastName == "" {
		return e.FirstName
	}
	return e.FirstName + " " + e.LastName
}

// Field returns the value of an employee field by JSON name.
func (e *Employee) Field(name string) (any, bool) {
	switch name {
	case "first_name":
		return e.FirstName, true
	case "last_name":
		return e.LastName, true
	case "email":
		return e.Email, true
	case "department":
		return e.Department, true
	case "title":
		return e.Title, true
	case "status":
		return e.Status, true
	case "office_id":
		return e.OfficeID, true
	case "hired_at":
		return e.HiredAt, true
	}
	return e.Meta.field(name)
}

// Validate checks names, email format and status.
func (e *Employee) Validate() error { return validateStruct(e) }

// ApplyDefaults marks new employees active.
func (e *Employee) ApplyDefaults() {
	if e.Status == "" {
		e.Status = EmployeeActive
	}
}
