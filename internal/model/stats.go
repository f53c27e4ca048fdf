package model

// PrerequisiteStats is a read-only aggregation over the whole edge store.
type PrerequisiteStats struct {
	TotalEdges         int            `json:"total_edges"`
	ByType             map[string]int `json:"by_type"`
	ByEvaluationMethod map[string]int `json:"by_evaluation_method"`
	MandatoryEdges     int            `json:"mandatory_edges"`
	OptionalEdges      int            `json:"optional_edges"`
	CoursesWithEdges   int            `json:"courses_with_edges"`
	AvgEdgesPerCourse  float64        `json:"avg_edges_per_course"`
}
