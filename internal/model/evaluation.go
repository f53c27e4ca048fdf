package model

// Overall evaluation statuses.
const (
	EvaluationEligible    = "eligible"
	EvaluationNotEligible = "not_eligible"
)

// EdgeEvaluation is the outcome of checking a single prerequisite edge for a
// learner. Details holds required-vs-actual values for the client to render.
type EdgeEvaluation struct {
	Edge    Prerequisite   `json:"prerequisite"`
	Met     bool           `json:"met"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// EvaluationResult aggregates per-edge outcomes for one learner and one
// target course. Eligible is the AND over mandatory edges only; advisory
// edges are reported but never block.
type EvaluationResult struct {
	UserID   string           `json:"user_id"`
	CourseID int64            `json:"course_id"`
	Eligible bool             `json:"eligible"`
	Status   string           `json:"status"`
	Met      []EdgeEvaluation `json:"met"`
	NotMet   []EdgeEvaluation `json:"not_met"`
	Total    int              `json:"total"`
	MetCount int              `json:"met_count"`
}

// ChainIssue is one problem found while auditing a course's prerequisite chain.
type ChainIssue struct {
	EdgeID               int64  `json:"edge_id"`
	PrerequisiteCourseID int64  `json:"prerequisite_course_id"`
	Issue                string `json:"issue"`
}

// ChainValidation is the read-only audit of a course's prerequisite edges.
type ChainValidation struct {
	CourseID int64        `json:"course_id"`
	Valid    bool         `json:"valid"`
	Issues   []ChainIssue `json:"issues"`
}
