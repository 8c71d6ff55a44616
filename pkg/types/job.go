package types

import "time"

// Job posting states.
const (
	JobOpen   = "open"
	JobClosed = "closed"
)

// Job is an open or closed job posting.
type Job struct {
	Meta
	Title      string    `json:"title" validate:"required"`
	Department string    `json:"department,omitempty"`
	OfficeID   string    `json:"office_id,omitempty"`
	Status     string    `json:"status" validate:"omitempty,oneof=open closed"`
	PostedAt   time.Time `json:"posted_at,omitzero"`
}

// Field returns the value of a job field by JSON name.
func (j *Job) Field(name string) (any, bool) {
	switch name {
	case "title":
		return j.Title, true
	case "department":
		return j.Department, true
	case "office_id":
		return j.OfficeID, true
	case "status":
		return j.Status, true
	case "posted_at":
		return j.PostedAt, true
	}
	return j.Meta.field(name)
}

// Validate requires a title and checks the status.
func (j *Job) Validate() error { return validateStruct(j) }

// Close marks the posting closed. Idempotent.
func (j *Job) Close() {
	j.Status = JobClosed
	j.UpdatedAt = time.Now()
}

// ApplyDefaults opens new postings.
func (j *Job) ApplyDefaults() {
	if j.Status == "" {
		j.Status = JobOpen
	}
}
