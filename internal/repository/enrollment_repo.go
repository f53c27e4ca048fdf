package repository

import (
	"context"
	"database/sql"

	"app/internal/model"
)

// EnrollmentRepository supplies the enrollment facts the per-type evaluators
// consume. The prerequisite engine never writes enrollments.
type EnrollmentRepository interface {
	// GetEnrollment retrieves a learner's enrollment in a course, or nil if absent.
	GetEnrollment(ctx context.Context, userID string, courseID int64) (*model.Enrollment, error)
}

type enrollmentRepo struct {
	db *sql.DB
}

// NewEnrollmentRepo creates a new EnrollmentRepository
func NewEnrollmentRepo(db *sql.DB) EnrollmentRepository {
	return &enrollmentRepo{db: db}
}

// GetEnrollment retrieves a learner's enrollment record in a course
func (r *enrollmentRepo) GetEnrollment(ctx context.Context, userID string, courseID int64) (*model.Enrollment, error) {
	query := `
		SELECT user_id, course_id, status, final_score, enrolled_at, completed_at
		FROM enrollments
		WHERE user_id = $1 AND course_id = $2
	`
	var e model.Enrollment
	err := r.db.QueryRowContext(ctx, query, userID, courseID).Scan(
		&e.UserID,
		&e.CourseID,
		&e.Status,
		&e.FinalScore,
		&e.EnrolledAt,
		&e.CompletedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}
