package model

import "time"

// PrerequisiteType identifies the kind of requirement an edge carries.
type PrerequisiteType string

const (
	TypeCourseCompletion  PrerequisiteType = "course_completion"
	TypeCourseEnrollment  PrerequisiteType = "course_enrollment"
	TypeMinimumScore      PrerequisiteType = "minimum_score"
	TypeTimeRequirement   PrerequisiteType = "time_requirement"
	TypeSkillAssessment   PrerequisiteType = "skill_assessment"
	TypeCertification     PrerequisiteType = "certification"
	TypeExperienceLevel   PrerequisiteType = "experience_level"
	TypeCustomRequirement PrerequisiteType = "custom_requirement"
)

// PrerequisiteTypes lists every known requirement type.
var PrerequisiteTypes = []PrerequisiteType{
	TypeCourseCompletion,
	TypeCourseEnrollment,
	TypeMinimumScore,
	TypeTimeRequirement,
	TypeSkillAssessment,
	TypeCertification,
	TypeExperienceLevel,
	TypeCustomRequirement,
}

// Valid reports whether t is one of the known requirement types.
func (t PrerequisiteType) Valid() bool {
	for _, known := range PrerequisiteTypes {
		if t == known {
			return true
		}
	}
	return false
}

// EvaluationMethod describes how an edge's requirement is checked.
type EvaluationMethod string

const (
	MethodAutomatic          EvaluationMethod = "automatic"
	MethodManualReview       EvaluationMethod = "manual_review"
	MethodAdminApproval      EvaluationMethod = "admin_approval"
	MethodInstructorApproval EvaluationMethod = "instructor_approval"
)

// Valid reports whether m is one of the known evaluation methods.
func (m EvaluationMethod) Valid() bool {
	switch m {
	case MethodAutomatic, MethodManualReview, MethodAdminApproval, MethodInstructorApproval:
		return true
	}
	return false
}

// Prerequisite is a directed edge from a dependent course to the course it
// requires, plus the rule attached to that edge. Metadata is caller-defined
// annotation and is never interpreted by the engine.
type Prerequisite struct {
	ID                   int64            `db:"id" json:"id"`
	CourseID             int64            `db:"course_id" json:"course_id"`
	PrerequisiteCourseID int64            `db:"prerequisite_course_id" json:"prerequisite_course_id"`
	Type                 PrerequisiteType `db:"prerequisite_type" json:"prerequisite_type"`
	RequirementValue     *float64         `db:"requirement_value" json:"requirement_value,omitempty"`
	EvaluationMethod     EvaluationMethod `db:"evaluation_method" json:"evaluation_method"`
	IsMandatory          bool             `db:"is_mandatory" json:"is_mandatory"`
	Order                int              `db:"order" json:"order"`
	Description          string           `db:"description" json:"description"`
	Metadata             map[string]any   `db:"metadata" json:"metadata,omitempty"`
	CreatedAt            time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time        `db:"updated_at" json:"updated_at"`
}
