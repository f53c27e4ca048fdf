package dto

import (
	"time"

	"app/internal/model"
)

// PrerequisiteCreateDTO is used for incoming edge creation requests
type PrerequisiteCreateDTO struct {
	PrerequisiteCourseID int64          `json:"prerequisite_course_id" validate:"required"`
	PrerequisiteType     string         `json:"prerequisite_type" validate:"required"`
	RequirementValue     *float64       `json:"requirement_value,omitempty"`
	EvaluationMethod     *string        `json:"evaluation_method,omitempty"`
	IsMandatory          *bool          `json:"is_mandatory,omitempty"`
	Order                *int           `json:"order,omitempty"`
	Description          *string        `json:"description,omitempty"`
	Metadata             map[string]any `json:"metadata,omitempty"`
}

// PrerequisiteUpdateDTO is used for incoming partial edge updates
type PrerequisiteUpdateDTO struct {
	PrerequisiteCourseID *int64         `json:"prerequisite_course_id,omitempty"`
	PrerequisiteType     *string        `json:"prerequisite_type,omitempty"`
	RequirementValue     *float64       `json:"requirement_value,omitempty"`
	EvaluationMethod     *string        `json:"evaluation_method,omitempty"`
	IsMandatory          *bool          `json:"is_mandatory,omitempty"`
	Order                *int           `json:"order,omitempty"`
	Description          *string        `json:"description,omitempty"`
	Metadata             map[string]any `json:"metadata,omitempty"`
}

// PrerequisiteResponseDTO is returned in API responses for edges
type PrerequisiteResponseDTO struct {
	ID                   int64          `json:"id"`
	CourseID             int64          `json:"course_id"`
	PrerequisiteCourseID int64          `json:"prerequisite_course_id"`
	PrerequisiteType     string         `json:"prerequisite_type"`
	RequirementValue     *float64       `json:"requirement_value,omitempty"`
	EvaluationMethod     string         `json:"evaluation_method"`
	IsMandatory          bool           `json:"is_mandatory"`
	Order                int            `json:"order"`
	Description          string         `json:"description"`
	Metadata             map[string]any `json:"metadata,omitempty"`
	CreatedAt            time.Time      `json:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at"`
}

// NewPrerequisiteResponse maps an edge model to its response DTO
func NewPrerequisiteResponse(p *model.Prerequisite) PrerequisiteResponseDTO {
	return PrerequisiteResponseDTO{
		ID:                   p.ID,
		CourseID:             p.CourseID,
		PrerequisiteCourseID: p.PrerequisiteCourseID,
		PrerequisiteType:     string(p.Type),
		RequirementValue:     p.RequirementValue,
		EvaluationMethod:     string(p.EvaluationMethod),
		IsMandatory:          p.IsMandatory,
		Order:                p.Order,
		Description:          p.Description,
		Metadata:             p.Metadata,
		CreatedAt:            p.CreatedAt,
		UpdatedAt:            p.UpdatedAt,
	}
}

// NewPrerequisiteListResponse maps a slice of edges to response DTOs
func NewPrerequisiteListResponse(edges []model.Prerequisite) []PrerequisiteResponseDTO {
	out := make([]PrerequisiteResponseDTO, 0, len(edges))
	for i := range edges {
		out = append(out, NewPrerequisiteResponse(&edges[i]))
	}
	return out
}
