package model

import "time"

// Enrollment statuses recognized by the evaluators.
const (
	EnrollmentStatusEnrolled   = "enrolled"
	EnrollmentStatusInProgress = "in_progress"
	EnrollmentStatusCompleted  = "completed"
)

// Enrollment is a learner's enrollment record in a course, supplied by the
// enrollment collaborator and read-only here.
type Enrollment struct {
	UserID      string     `db:"user_id" json:"user_id"`
	CourseID    int64      `db:"course_id" json:"course_id"`
	Status      string     `db:"status" json:"status"`
	FinalScore  *float64   `db:"final_score" json:"final_score,omitempty"`
	EnrolledAt  time.Time  `db:"enrolled_at" json:"enrolled_at"`
	CompletedAt *time.Time `db:"completed_at" json:"completed_at,omitempty"`
}

// IsCompleted reports whether the learner finished the course.
func (e *Enrollment) IsCompleted() bool {
	return e.Status == EnrollmentStatusCompleted
}

// IsActive reports whether the learner holds any live or finished enrollment.
func (e *Enrollment) IsActive() bool {
	switch e.Status {
	case EnrollmentStatusEnrolled, EnrollmentStatusInProgress, EnrollmentStatusCompleted:
		return true
	}
	return false
}
