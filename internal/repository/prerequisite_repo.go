package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"app/internal/model"

	"github.com/rs/zerolog"
)

// PrerequisiteRepository persists the directed course-to-prerequisite edges.
type PrerequisiteRepository interface {
	// CreateEdge inserts a new edge and fills in its generated fields.
	CreateEdge(ctx context.Context, p *model.Prerequisite) error
	// GetEdgeByID retrieves an edge by its row ID, or nil if absent.
	GetEdgeByID(ctx context.Context, edgeID int64) (*model.Prerequisite, error)
	// UpdateEdge writes all mutable fields of an existing edge.
	UpdateEdge(ctx context.Context, p *model.Prerequisite) error
	// DeleteEdge removes an edge and reports whether a row was deleted.
	DeleteEdge(ctx context.Context, edgeID int64) (bool, error)
	// ListEdgesByCourse returns a course's edges ordered by "order" asc, id asc.
	ListEdgesByCourse(ctx context.Context, courseID int64) ([]model.Prerequisite, error)
	// ListAdjacency returns the whole graph as course_id -> prerequisite course IDs.
	ListAdjacency(ctx context.Context) (map[int64][]int64, error)
	// Stats aggregates counts over the whole edge store.
	Stats(ctx context.Context) (*model.PrerequisiteStats, error)
}

type prerequisiteRepo struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewPrerequisiteRepo creates a new PrerequisiteRepository
func NewPrerequisiteRepo(db *sql.DB, logger zerolog.Logger) PrerequisiteRepository {
	return &prerequisiteRepo{db: db, logger: logger}
}

// CreateEdge inserts a new edge and returns the created record
func (r *prerequisiteRepo) CreateEdge(ctx context.Context, p *model.Prerequisite) error {
	metadata, err := marshalMetadata(p.Metadata)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO course_prerequisites
			(course_id, prerequisite_course_id, prerequisite_type, requirement_value,
			 evaluation_method, is_mandatory, "order", description, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`
	err = r.db.QueryRowContext(ctx, query,
		p.CourseID, p.PrerequisiteCourseID, p.Type, p.RequirementValue,
		p.EvaluationMethod, p.IsMandatory, p.Order, p.Description, metadata,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		r.logger.Error().Err(err).
			Int64("course_id", p.CourseID).
			Int64("prerequisite_course_id", p.PrerequisiteCourseID).
			Msg("Failed to insert prerequisite edge")
		return fmt.Errorf("insert prerequisite edge failed: %w", err)
	}
	return nil
}

// GetEdgeByID retrieves an edge by its row ID
func (r *prerequisiteRepo) GetEdgeByID(ctx context.Context, edgeID int64) (*model.Prerequisite, error) {
	query := `
		SELECT id, course_id, prerequisite_course_id, prerequisite_type, requirement_value,
			evaluation_method, is_mandatory, "order", description, metadata, created_at, updated_at
		FROM course_prerequisites
		WHERE id = $1
	`
	p, err := scanEdge(r.db.QueryRowContext(ctx, query, edgeID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

// UpdateEdge writes all mutable fields of an existing edge
func (r *prerequisiteRepo) UpdateEdge(ctx context.Context, p *model.Prerequisite) error {
	metadata, err := marshalMetadata(p.Metadata)
	if err != nil {
		return err
	}
	query := `
		UPDATE course_prerequisites
		SET prerequisite_course_id = $1, prerequisite_type = $2, requirement_value = $3,
			evaluation_method = $4, is_mandatory = $5, "order" = $6, description = $7,
			metadata = $8, updated_at = NOW()
		WHERE id = $9
		RETURNING created_at, updated_at
	`
	err = r.db.QueryRowContext(ctx, query,
		p.PrerequisiteCourseID, p.Type, p.RequirementValue,
		p.EvaluationMethod, p.IsMandatory, p.Order, p.Description, metadata, p.ID,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		r.logger.Error().Err(err).Int64("edge_id", p.ID).Msg("Failed to update prerequisite edge")
		return fmt.Errorf("update prerequisite edge failed: %w", err)
	}
	return nil
}

// DeleteEdge removes an edge by its row ID
func (r *prerequisiteRepo) DeleteEdge(ctx context.Context, edgeID int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM course_prerequisites WHERE id = $1`, edgeID)
	if err != nil {
		r.logger.Error().Err(err).Int64("edge_id", edgeID).Msg("Failed to delete prerequisite edge")
		return false, fmt.Errorf("delete prerequisite edge failed: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// ListEdgesByCourse returns all edges of a course in display order
func (r *prerequisiteRepo) ListEdgesByCourse(ctx context.Context, courseID int64) ([]model.Prerequisite, error) {
	query := `
		SELECT id, course_id, prerequisite_course_id, prerequisite_type, requirement_value,
			evaluation_method, is_mandatory, "order", description, metadata, created_at, updated_at
		FROM course_prerequisites
		WHERE course_id = $1
		ORDER BY "order" ASC, id ASC
	`
	rows, err := r.db.QueryContext(ctx, query, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	edges := []model.Prerequisite{}
	for rows.Next() {
		p, err := scanEdge(rows)
		if err != nil {
			return nil, err
		}
		edges = append(edges, *p)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return edges, nil
}

// ListAdjacency loads the whole graph as course_id -> prerequisite course IDs
func (r *prerequisiteRepo) ListAdjacency(ctx context.Context) (map[int64][]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT course_id, prerequisite_course_id FROM course_prerequisites`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	adjacency := make(map[int64][]int64)
	for rows.Next() {
		var courseID, prereqID int64
		if err := rows.Scan(&courseID, &prereqID); err != nil {
			return nil, err
		}
		adjacency[courseID] = append(adjacency[courseID], prereqID)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return adjacency, nil
}

// Stats aggregates counts over the whole edge store
func (r *prerequisiteRepo) Stats(ctx context.Context) (*model.PrerequisiteStats, error) {
	stats := &model.PrerequisiteStats{
		ByType:             make(map[string]int),
		ByEvaluationMethod: make(map[string]int),
	}

	summary := `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE is_mandatory),
			COUNT(DISTINCT course_id)
		FROM course_prerequisites
	`
	if err := r.db.QueryRowContext(ctx, summary).
		Scan(&stats.TotalEdges, &stats.MandatoryEdges, &stats.CoursesWithEdges); err != nil {
		return nil, err
	}
	stats.OptionalEdges = stats.TotalEdges - stats.MandatoryEdges
	if stats.CoursesWithEdges > 0 {
		stats.AvgEdgesPerCourse = float64(stats.TotalEdges) / float64(stats.CoursesWithEdges)
	}

	byType, err := r.db.QueryContext(ctx,
		`SELECT prerequisite_type, COUNT(*) FROM course_prerequisites GROUP BY prerequisite_type`)
	if err != nil {
		return nil, err
	}
	defer byType.Close()
	for byType.Next() {
		var t string
		var n int
		if err := byType.Scan(&t, &n); err != nil {
			return nil, err
		}
		stats.ByType[t] = n
	}
	if err = byType.Err(); err != nil {
		return nil, err
	}

	byMethod, err := r.db.QueryContext(ctx,
		`SELECT evaluation_method, COUNT(*) FROM course_prerequisites GROUP BY evaluation_method`)
	if err != nil {
		return nil, err
	}
	defer byMethod.Close()
	for byMethod.Next() {
		var m string
		var n int
		if err := byMethod.Scan(&m, &n); err != nil {
			return nil, err
		}
		stats.ByEvaluationMethod[m] = n
	}
	if err = byMethod.Err(); err != nil {
		return nil, err
	}

	return stats, nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanEdge(row scanner) (*model.Prerequisite, error) {
	var p model.Prerequisite
	var metadata []byte
	err := row.Scan(
		&p.ID,
		&p.CourseID,
		&p.PrerequisiteCourseID,
		&p.Type,
		&p.RequirementValue,
		&p.EvaluationMethod,
		&p.IsMandatory,
		&p.Order,
		&p.Description,
		&metadata,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &p.Metadata); err != nil {
			return nil, fmt.Errorf("decode edge metadata failed: %w", err)
		}
	}
	return &p, nil
}

func marshalMetadata(metadata map[string]any) ([]byte, error) {
	if metadata == nil {
		return nil, nil
	}
	data, err := json.Marshal(metadata)
	if err != nil {
		return nil, fmt.Errorf("encode edge metadata failed: %w", err)
	}
	return data, nil
}
