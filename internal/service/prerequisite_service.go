package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"app/internal/apperr"
	"app/internal/cache"
	"app/internal/model"
	"app/internal/pubsub"
	"app/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// PrerequisiteService maintains the directed graph of course-to-prerequisite
// edges and answers eligibility questions over it.
type PrerequisiteService interface {
	CreateEdge(ctx context.Context, input CreateEdgeInput) (*model.Prerequisite, error)
	UpdateEdge(ctx context.Context, edgeID int64, patch UpdateEdgeInput) (*model.Prerequisite, error)
	DeleteEdge(ctx context.Context, edgeID int64) error
	// ListEdges returns a course's edges ordered by "order" asc, insertion order.
	ListEdges(ctx context.Context, courseID int64) ([]model.Prerequisite, error)
	// Evaluate checks every edge of courseID against the learner's enrollment facts.
	Evaluate(ctx context.Context, userID string, courseID int64) (*model.EvaluationResult, error)
	// HasCircularDependency reports whether adding courseID -> prerequisiteCourseID
	// would let a walk from the prerequisite reach back to the dependent course.
	HasCircularDependency(ctx context.Context, courseID, prerequisiteCourseID int64) (bool, error)
	// ValidateChain audits a course's edges for dangling, unpublished, or cyclic
	// prerequisites. Pure read, mutates nothing.
	ValidateChain(ctx context.Context, courseID int64) (*model.ChainValidation, error)
	Statistics(ctx context.Context) (*model.PrerequisiteStats, error)
}

// CreateEdgeInput carries the fields for a new edge. EvaluationMethod defaults
// to automatic, IsMandatory to true, Order to 0.
type CreateEdgeInput struct {
	CourseID             int64
	PrerequisiteCourseID int64
	Type                 model.PrerequisiteType
	RequirementValue     *float64
	EvaluationMethod     model.EvaluationMethod
	IsMandatory          *bool
	Order                *int
	Description          string
	Metadata             map[string]any
}

// UpdateEdgeInput is a partial update; nil fields are left unchanged.
type UpdateEdgeInput struct {
	PrerequisiteCourseID *int64
	Type                 *model.PrerequisiteType
	RequirementValue     *float64
	EvaluationMethod     *model.EvaluationMethod
	IsMandatory          *bool
	Order                *int
	Description          *string
	Metadata             map[string]any
}

type prerequisiteService struct {
	repo        repository.PrerequisiteRepository
	courses     repository.CourseRepository
	enrollments repository.EnrollmentRepository
	cache       cache.Store
	cacheTTL    time.Duration
	publisher   pubsub.Publisher
	eventTopic  string
	logger      zerolog.Logger
	now         func() time.Time

	// mu serializes the cycle-check-then-write sequence of mutating calls so
	// two concurrent inserts cannot individually pass validation and jointly
	// introduce a cycle. Reads never take it.
	mu sync.Mutex
}

// NewPrerequisiteService creates a new PrerequisiteService. publisher may be
// nil; edge-change events are then skipped.
func NewPrerequisiteService(
	repo repository.PrerequisiteRepository,
	courses repository.CourseRepository,
	enrollments repository.EnrollmentRepository,
	cacheStore cache.Store,
	cacheTTL time.Duration,
	publisher pubsub.Publisher,
	eventTopic string,
	logger zerolog.Logger,
) PrerequisiteService {
	return &prerequisiteService{
		repo:        repo,
		courses:     courses,
		enrollments: enrollments,
		cache:       cacheStore,
		cacheTTL:    cacheTTL,
		publisher:   publisher,
		eventTopic:  eventTopic,
		logger:      logger,
		now:         time.Now,
	}
}

func edgeCacheKey(courseID int64) string {
	return fmt.Sprintf("prereq:edges:%d", courseID)
}

// CreateEdge validates and persists a new prerequisite edge.
func (s *prerequisiteService) CreateEdge(ctx context.Context, input CreateEdgeInput) (*model.Prerequisite, error) {
	if !input.Type.Valid() {
		return nil, apperr.NewValidation(fmt.Sprintf("Invalid prerequisite type: %s", input.Type))
	}
	method := input.EvaluationMethod
	if method == "" {
		method = model.MethodAutomatic
	}
	if !method.Valid() {
		return nil, apperr.NewValidation(fmt.Sprintf("Invalid evaluation method: %s", method))
	}
	if input.CourseID == input.PrerequisiteCourseID {
		return nil, apperr.NewValidation("Course cannot be a prerequisite for itself")
	}

	course, err := s.courses.GetCourseByID(ctx, input.CourseID)
	if err != nil {
		return nil, err
	}
	if course == nil {
		return nil, apperr.ErrCourseNotFound
	}
	prereqCourse, err := s.courses.GetCourseByID(ctx, input.PrerequisiteCourseID)
	if err != nil {
		return nil, err
	}
	if prereqCourse == nil {
		return nil, apperr.NewValidation("Prerequisite course not found")
	}

	mandatory := true
	if input.IsMandatory != nil {
		mandatory = *input.IsMandatory
	}
	order := 0
	if input.Order != nil {
		order = *input.Order
	}
	edge := &model.Prerequisite{
		CourseID:             input.CourseID,
		PrerequisiteCourseID: input.PrerequisiteCourseID,
		Type:                 input.Type,
		RequirementValue:     input.RequirementValue,
		EvaluationMethod:     method,
		IsMandatory:          mandatory,
		Order:                order,
		Description:          input.Description,
		Metadata:             input.Metadata,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cyclic, err := s.wouldCreateCycle(ctx, input.CourseID, input.PrerequisiteCourseID)
	if err != nil {
		return nil, err
	}
	if cyclic {
		s.logger.Warn().
			Int64("course_id", input.CourseID).
			Int64("prerequisite_course_id", input.PrerequisiteCourseID).
			Msg("Rejected prerequisite edge that would form a cycle")
		return nil, apperr.NewValidation("Circular dependency detected")
	}

	if err := s.repo.CreateEdge(ctx, edge); err != nil {
		return nil, err
	}
	s.forgetEdges(ctx, edge.CourseID)
	s.publishEvent(ctx, "created", edge)
	return edge, nil
}

// UpdateEdge applies a partial update. The cycle check reruns only when the
// prerequisite endpoint changes; other fields are updated in place.
func (s *prerequisiteService) UpdateEdge(ctx context.Context, edgeID int64, patch UpdateEdgeInput) (*model.Prerequisite, error) {
	edge, err := s.repo.GetEdgeByID(ctx, edgeID)
	if err != nil {
		return nil, err
	}
	if edge == nil {
		return nil, apperr.ErrPrerequisiteNotFound
	}

	if patch.Type != nil {
		if !patch.Type.Valid() {
			return nil, apperr.NewValidation(fmt.Sprintf("Invalid prerequisite type: %s", *patch.Type))
		}
		edge.Type = *patch.Type
	}
	if patch.EvaluationMethod != nil {
		if !patch.EvaluationMethod.Valid() {
			return nil, apperr.NewValidation(fmt.Sprintf("Invalid evaluation method: %s", *patch.EvaluationMethod))
		}
		edge.EvaluationMethod = *patch.EvaluationMethod
	}
	if patch.RequirementValue != nil {
		edge.RequirementValue = patch.RequirementValue
	}
	if patch.IsMandatory != nil {
		edge.IsMandatory = *patch.IsMandatory
	}
	if patch.Order != nil {
		edge.Order = *patch.Order
	}
	if patch.Description != nil {
		edge.Description = *patch.Description
	}
	if patch.Metadata != nil {
		edge.Metadata = patch.Metadata
	}

	prereqChanged := patch.PrerequisiteCourseID != nil && *patch.PrerequisiteCourseID != edge.PrerequisiteCourseID
	if prereqChanged {
		newPrereq := *patch.PrerequisiteCourseID
		if newPrereq == edge.CourseID {
			return nil, apperr.NewValidation("Course cannot be a prerequisite for itself")
		}
		prereqCourse, err := s.courses.GetCourseByID(ctx, newPrereq)
		if err != nil {
			return nil, err
		}
		if prereqCourse == nil {
			return nil, apperr.NewValidation("Prerequisite course not found")
		}
		edge.PrerequisiteCourseID = newPrereq
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if prereqChanged {
		cyclic, err := s.wouldCreateCycle(ctx, edge.CourseID, edge.PrerequisiteCourseID)
		if err != nil {
			return nil, err
		}
		if cyclic {
			s.logger.Warn().
				Int64("edge_id", edgeID).
				Int64("course_id", edge.CourseID).
				Int64("prerequisite_course_id", edge.PrerequisiteCourseID).
				Msg("Rejected prerequisite update that would form a cycle")
			return nil, apperr.NewValidation("Circular dependency detected")
		}
	}

	if err := s.repo.UpdateEdge(ctx, edge); err != nil {
		return nil, err
	}
	s.forgetEdges(ctx, edge.CourseID)
	s.publishEvent(ctx, "updated", edge)
	return edge, nil
}

// DeleteEdge removes an edge. No cascading: edges pointing at the same
// prerequisite course elsewhere are left untouched.
func (s *prerequisiteService) DeleteEdge(ctx context.Context, edgeID int64) error {
	edge, err := s.repo.GetEdgeByID(ctx, edgeID)
	if err != nil {
		return err
	}
	if edge == nil {
		return apperr.ErrPrerequisiteNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	deleted, err := s.repo.DeleteEdge(ctx, edgeID)
	if err != nil {
		return err
	}
	if !deleted {
		return apperr.ErrPrerequisiteNotFound
	}
	s.forgetEdges(ctx, edge.CourseID)
	s.publishEvent(ctx, "deleted", edge)
	return nil
}

// ListEdges reads through the cache; entries expire after cacheTTL and are
// forgotten eagerly on writes to the same course.
func (s *prerequisiteService) ListEdges(ctx context.Context, courseID int64) ([]model.Prerequisite, error) {
	key := edgeCacheKey(courseID)
	if data, ok, err := s.cache.Get(ctx, key); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("Cache read failed, falling back to DB")
	} else if ok {
		var edges []model.Prerequisite
		if err := json.Unmarshal(data, &edges); err == nil {
			return edges, nil
		}
		s.logger.Warn().Str("key", key).Msg("Discarding undecodable cache entry")
	}

	edges, err := s.repo.ListEdgesByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(edges); err == nil {
		if err := s.cache.Put(ctx, key, data, s.cacheTTL); err != nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("Cache write failed")
		}
	}
	return edges, nil
}

// HasCircularDependency is the standalone cycle query used by create/update
// and by chain validation.
func (s *prerequisiteService) HasCircularDependency(ctx context.Context, courseID, prerequisiteCourseID int64) (bool, error) {
	return s.wouldCreateCycle(ctx, courseID, prerequisiteCourseID)
}

// wouldCreateCycle walks outward from prerequisiteCourseID over the persisted
// edges, each step moving from a course to its own prerequisites. Reaching
// courseID means the candidate edge courseID -> prerequisiteCourseID would
// close a cycle. The explicit worklist and visited set keep the walk
// terminating even if the stored graph already contains a cycle.
func (s *prerequisiteService) wouldCreateCycle(ctx context.Context, courseID, prerequisiteCourseID int64) (bool, error) {
	if courseID == prerequisiteCourseID {
		return true, nil
	}
	adjacency, err := s.repo.ListAdjacency(ctx)
	if err != nil {
		return false, err
	}

	visited := map[int64]bool{}
	worklist := []int64{prerequisiteCourseID}
	for len(worklist) > 0 {
		current := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]
		if current == courseID {
			return true, nil
		}
		if visited[current] {
			continue
		}
		visited[current] = true
		worklist = append(worklist, adjacency[current]...)
	}
	return false, nil
}

// ValidateChain audits every edge of a course without mutating anything.
func (s *prerequisiteService) ValidateChain(ctx context.Context, courseID int64) (*model.ChainValidation, error) {
	edges, err := s.ListEdges(ctx, courseID)
	if err != nil {
		return nil, err
	}

	result := &model.ChainValidation{CourseID: courseID, Valid: true, Issues: []model.ChainIssue{}}
	for _, edge := range edges {
		course, err := s.courses.GetCourseByID(ctx, edge.PrerequisiteCourseID)
		if err != nil {
			return nil, err
		}
		switch {
		case course == nil:
			result.Issues = append(result.Issues, model.ChainIssue{
				EdgeID:               edge.ID,
				PrerequisiteCourseID: edge.PrerequisiteCourseID,
				Issue:                "Prerequisite course does not exist",
			})
		case !course.IsPublished():
			result.Issues = append(result.Issues, model.ChainIssue{
				EdgeID:               edge.ID,
				PrerequisiteCourseID: edge.PrerequisiteCourseID,
				Issue:                "Prerequisite course is not published",
			})
		}

		cyclic, err := s.wouldCreateCycle(ctx, courseID, edge.PrerequisiteCourseID)
		if err != nil {
			return nil, err
		}
		if cyclic {
			result.Issues = append(result.Issues, model.ChainIssue{
				EdgeID:               edge.ID,
				PrerequisiteCourseID: edge.PrerequisiteCourseID,
				Issue:                "Circular dependency detected",
			})
		}
	}
	result.Valid = len(result.Issues) == 0
	return result, nil
}

// Statistics aggregates counts over the whole edge store.
func (s *prerequisiteService) Statistics(ctx context.Context) (*model.PrerequisiteStats, error) {
	return s.repo.Stats(ctx)
}

func (s *prerequisiteService) forgetEdges(ctx context.Context, courseID int64) {
	key := edgeCacheKey(courseID)
	if err := s.cache.Forget(ctx, key); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("Cache invalidation failed")
	}
}

// edgeEvent is the payload published on edge mutations.
type edgeEvent struct {
	EventID              string `json:"event_id"`
	Action               string `json:"action"`
	EdgeID               int64  `json:"edge_id"`
	CourseID             int64  `json:"course_id"`
	PrerequisiteCourseID int64  `json:"prerequisite_course_id"`
}

func (s *prerequisiteService) publishEvent(ctx context.Context, action string, edge *model.Prerequisite) {
	if s.publisher == nil || s.eventTopic == "" {
		return
	}
	payload, err := json.Marshal(edgeEvent{
		EventID:              uuid.NewString(),
		Action:               action,
		EdgeID:               edge.ID,
		CourseID:             edge.CourseID,
		PrerequisiteCourseID: edge.PrerequisiteCourseID,
	})
	if err != nil {
		return
	}
	if _, err := s.publisher.Publish(ctx, s.eventTopic, payload); err != nil {
		s.logger.Warn().Err(err).
			Int64("edge_id", edge.ID).
			Str("action", action).
			Msg("Failed to publish prerequisite change event")
	}
}
