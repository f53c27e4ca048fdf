package model

import "time"

// Course statuses as stored by the catalog.
const (
	CourseStatusDraft     = "draft"
	CourseStatusPublished = "published"
	CourseStatusArchived  = "archived"
)

// Course is the catalog's view of a course. The prerequisite engine only
// reads courses; it never creates or mutates them.
type Course struct {
	ID        int64     `db:"id" json:"id"`
	Title     string    `db:"title" json:"title"`
	Status    string    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// IsPublished reports whether the course is visible to learners.
func (c *Course) IsPublished() bool {
	return c.Status == CourseStatusPublished
}
