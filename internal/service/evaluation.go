package service

import (
	"context"
	"fmt"

	"app/internal/model"
)

// Default thresholds applied when an edge carries no requirement_value.
const (
	defaultMinimumScore    = 70.0
	defaultRequiredDays    = 30.0
	evaluationFailedMsg    = "Evaluation failed"
	notImplementedTemplate = "Evaluation for %s is not implemented"
)

// Evaluate checks every prerequisite edge of courseID for the learner. A
// course without edges passes trivially. A failing evaluator never aborts the
// run; its edge is reported unmet with a generic message instead.
func (s *prerequisiteService) Evaluate(ctx context.Context, userID string, courseID int64) (*model.EvaluationResult, error) {
	edges, err := s.ListEdges(ctx, courseID)
	if err != nil {
		return nil, err
	}

	result := &model.EvaluationResult{
		UserID:   userID,
		CourseID: courseID,
		Eligible: true,
		Met:      []model.EdgeEvaluation{},
		NotMet:   []model.EdgeEvaluation{},
	}

	for _, edge := range edges {
		eval, err := s.evaluateEdge(ctx, userID, edge)
		if err != nil {
			s.logger.Error().Err(err).
				Int64("edge_id", edge.ID).
				Int64("course_id", edge.CourseID).
				Str("user_id", userID).
				Msg("Prerequisite evaluator failed")
			eval = model.EdgeEvaluation{Edge: edge, Met: false, Message: evaluationFailedMsg}
		}
		if eval.Met {
			result.Met = append(result.Met, eval)
		} else {
			result.NotMet = append(result.NotMet, eval)
			// Advisory edges are reported but never block eligibility.
			if edge.IsMandatory {
				result.Eligible = false
			}
		}
	}

	result.Total = len(edges)
	result.MetCount = len(result.Met)
	result.Status = model.EvaluationEligible
	if !result.Eligible {
		result.Status = model.EvaluationNotEligible
	}
	return result, nil
}

// evaluateEdge dispatches on the edge's requirement type. Types the engine
// does not implement report a deterministic unmet outcome rather than
// silently passing.
func (s *prerequisiteService) evaluateEdge(ctx context.Context, userID string, edge model.Prerequisite) (model.EdgeEvaluation, error) {
	switch edge.Type {
	case model.TypeCourseCompletion:
		return s.evalCourseCompletion(ctx, userID, edge)
	case model.TypeCourseEnrollment:
		return s.evalCourseEnrollment(ctx, userID, edge)
	case model.TypeMinimumScore:
		return s.evalMinimumScore(ctx, userID, edge)
	case model.TypeTimeRequirement:
		return s.evalTimeRequirement(ctx, userID, edge)
	case model.TypeSkillAssessment, model.TypeCertification,
		model.TypeExperienceLevel, model.TypeCustomRequirement:
		return model.EdgeEvaluation{
			Edge:    edge,
			Met:     false,
			Message: fmt.Sprintf(notImplementedTemplate, edge.Type),
		}, nil
	default:
		return model.EdgeEvaluation{}, fmt.Errorf("unknown prerequisite type %q on edge %d", edge.Type, edge.ID)
	}
}

func (s *prerequisiteService) evalCourseCompletion(ctx context.Context, userID string, edge model.Prerequisite) (model.EdgeEvaluation, error) {
	enrollment, err := s.enrollments.GetEnrollment(ctx, userID, edge.PrerequisiteCourseID)
	if err != nil {
		return model.EdgeEvaluation{}, err
	}
	status := "none"
	if enrollment != nil {
		status = enrollment.Status
	}
	details := map[string]any{
		"required_status": model.EnrollmentStatusCompleted,
		"user_status":     status,
	}
	if enrollment == nil || !enrollment.IsCompleted() {
		return model.EdgeEvaluation{
			Edge:    edge,
			Met:     false,
			Message: "Prerequisite course must be completed",
			Details: details,
		}, nil
	}
	return model.EdgeEvaluation{
		Edge:    edge,
		Met:     true,
		Message: "Prerequisite course completed",
		Details: details,
	}, nil
}

func (s *prerequisiteService) evalCourseEnrollment(ctx context.Context, userID string, edge model.Prerequisite) (model.EdgeEvaluation, error) {
	enrollment, err := s.enrollments.GetEnrollment(ctx, userID, edge.PrerequisiteCourseID)
	if err != nil {
		return model.EdgeEvaluation{}, err
	}
	if enrollment == nil || !enrollment.IsActive() {
		return model.EdgeEvaluation{
			Edge:    edge,
			Met:     false,
			Message: "Enrollment in the prerequisite course is required",
			Details: map[string]any{"user_status": "none"},
		}, nil
	}
	return model.EdgeEvaluation{
		Edge:    edge,
		Met:     true,
		Message: "Enrolled in prerequisite course",
		Details: map[string]any{"user_status": enrollment.Status},
	}, nil
}

func (s *prerequisiteService) evalMinimumScore(ctx context.Context, userID string, edge model.Prerequisite) (model.EdgeEvaluation, error) {
	required := defaultMinimumScore
	if edge.RequirementValue != nil {
		required = *edge.RequirementValue
	}
	enrollment, err := s.enrollments.GetEnrollment(ctx, userID, edge.PrerequisiteCourseID)
	if err != nil {
		return model.EdgeEvaluation{}, err
	}
	if enrollment == nil || !enrollment.IsCompleted() {
		return model.EdgeEvaluation{
			Edge:    edge,
			Met:     false,
			Message: "Prerequisite course must be completed with a minimum score",
			Details: map[string]any{"required_score": required},
		}, nil
	}
	score := 0.0
	if enrollment.FinalScore != nil {
		score = *enrollment.FinalScore
	}
	if score >= required {
		return model.EdgeEvaluation{
			Edge:    edge,
			Met:     true,
			Message: "Minimum score requirement met",
			Details: map[string]any{
				"required_score": required,
				"user_score":     score,
				"excess":         score - required,
			},
		}, nil
	}
	return model.EdgeEvaluation{
		Edge:    edge,
		Met:     false,
		Message: "Score in prerequisite course is below the required minimum",
		Details: map[string]any{
			"required_score": required,
			"user_score":     score,
			"difference":     required - score,
		},
	}, nil
}

func (s *prerequisiteService) evalTimeRequirement(ctx context.Context, userID string, edge model.Prerequisite) (model.EdgeEvaluation, error) {
	requiredDays := defaultRequiredDays
	if edge.RequirementValue != nil {
		requiredDays = *edge.RequirementValue
	}
	enrollment, err := s.enrollments.GetEnrollment(ctx, userID, edge.PrerequisiteCourseID)
	if err != nil {
		return model.EdgeEvaluation{}, err
	}
	if enrollment == nil {
		return model.EdgeEvaluation{
			Edge:    edge,
			Met:     false,
			Message: "Enrollment in the prerequisite course is required",
			Details: map[string]any{"required_days": requiredDays},
		}, nil
	}
	daysEnrolled := s.now().Sub(enrollment.EnrolledAt).Hours() / 24
	details := map[string]any{
		"required_days": requiredDays,
		"days_enrolled": daysEnrolled,
	}
	if daysEnrolled >= requiredDays {
		return model.EdgeEvaluation{
			Edge:    edge,
			Met:     true,
			Message: "Time requirement met",
			Details: details,
		}, nil
	}
	details["remaining_days"] = requiredDays - daysEnrolled
	return model.EdgeEvaluation{
		Edge:    edge,
		Met:     false,
		Message: "Not enough time has passed since enrollment in the prerequisite course",
		Details: details,
	}, nil
}
