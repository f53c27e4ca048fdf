package repository

import (
	"context"
	"database/sql"

	"app/internal/model"
)

// CourseRepository is the read-only view of the course catalog the
// prerequisite engine needs: existence and published state.
type CourseRepository interface {
	// GetCourseByID retrieves a course by its ID, or nil if absent.
	GetCourseByID(ctx context.Context, courseID int64) (*model.Course, error)
}

type courseRepo struct {
	db *sql.DB
}

// NewCourseRepo creates a new CourseRepository
func NewCourseRepo(db *sql.DB) CourseRepository {
	return &courseRepo{db: db}
}

// GetCourseByID retrieves a course by its ID
func (r *courseRepo) GetCourseByID(ctx context.Context, courseID int64) (*model.Course, error) {
	query := `
		SELECT id, title, status, created_at, updated_at
		FROM courses
		WHERE id = $1
	`
	var c model.Course
	err := r.db.QueryRowContext(ctx, query, courseID).Scan(
		&c.ID,
		&c.Title,
		&c.Status,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}
