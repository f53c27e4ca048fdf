package service

import (
	"context"
	"sort"
	"time"

	"app/internal/cache"
	"app/internal/model"

	"github.com/rs/zerolog"
)

// fakePrereqRepo is an in-memory PrerequisiteRepository.
type fakePrereqRepo struct {
	edges  map[int64]*model.Prerequisite
	nextID int64
}

func newFakePrereqRepo() *fakePrereqRepo {
	return &fakePrereqRepo{edges: map[int64]*model.Prerequisite{}}
}

func (r *fakePrereqRepo) CreateEdge(_ context.Context, p *model.Prerequisite) error {
	r.nextID++
	p.ID = r.nextID
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	stored := *p
	r.edges[p.ID] = &stored
	return nil
}

func (r *fakePrereqRepo) GetEdgeByID(_ context.Context, edgeID int64) (*model.Prerequisite, error) {
	edge, ok := r.edges[edgeID]
	if !ok {
		return nil, nil
	}
	copied := *edge
	return &copied, nil
}

func (r *fakePrereqRepo) UpdateEdge(_ context.Context, p *model.Prerequisite) error {
	p.UpdatedAt = time.Now()
	stored := *p
	r.edges[p.ID] = &stored
	return nil
}

func (r *fakePrereqRepo) DeleteEdge(_ context.Context, edgeID int64) (bool, error) {
	if _, ok := r.edges[edgeID]; !ok {
		return false, nil
	}
	delete(r.edges, edgeID)
	return true, nil
}

func (r *fakePrereqRepo) ListEdgesByCourse(_ context.Context, courseID int64) ([]model.Prerequisite, error) {
	out := []model.Prerequisite{}
	for _, edge := range r.edges {
		if edge.CourseID == courseID {
			out = append(out, *edge)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *fakePrereqRepo) ListAdjacency(_ context.Context) (map[int64][]int64, error) {
	adjacency := map[int64][]int64{}
	for _, edge := range r.edges {
		adjacency[edge.CourseID] = append(adjacency[edge.CourseID], edge.PrerequisiteCourseID)
	}
	return adjacency, nil
}

func (r *fakePrereqRepo) Stats(_ context.Context) (*model.PrerequisiteStats, error) {
	stats := &model.PrerequisiteStats{
		ByType:             map[string]int{},
		ByEvaluationMethod: map[string]int{},
	}
	courses := map[int64]bool{}
	for _, edge := range r.edges {
		stats.TotalEdges++
		stats.ByType[string(edge.Type)]++
		stats.ByEvaluationMethod[string(edge.EvaluationMethod)]++
		if edge.IsMandatory {
			stats.MandatoryEdges++
		} else {
			stats.OptionalEdges++
		}
		courses[edge.CourseID] = true
	}
	stats.CoursesWithEdges = len(courses)
	if stats.CoursesWithEdges > 0 {
		stats.AvgEdgesPerCourse = float64(stats.TotalEdges) / float64(stats.CoursesWithEdges)
	}
	return stats, nil
}

// fakeCourseRepo serves canned catalog entries.
type fakeCourseRepo struct {
	courses map[int64]*model.Course
}

func newFakeCourseRepo(ids ...int64) *fakeCourseRepo {
	r := &fakeCourseRepo{courses: map[int64]*model.Course{}}
	for _, id := range ids {
		r.courses[id] = &model.Course{ID: id, Title: "Course", Status: model.CourseStatusPublished}
	}
	return r
}

func (r *fakeCourseRepo) GetCourseByID(_ context.Context, courseID int64) (*model.Course, error) {
	course, ok := r.courses[courseID]
	if !ok {
		return nil, nil
	}
	copied := *course
	return &copied, nil
}

type enrollmentKey struct {
	userID   string
	courseID int64
}

// fakeEnrollmentRepo serves canned enrollment facts and can simulate a
// failing collaborator per course.
type fakeEnrollmentRepo struct {
	enrollments map[enrollmentKey]*model.Enrollment
	failFor     map[int64]error
}

func newFakeEnrollmentRepo() *fakeEnrollmentRepo {
	return &fakeEnrollmentRepo{
		enrollments: map[enrollmentKey]*model.Enrollment{},
		failFor:     map[int64]error{},
	}
}

func (r *fakeEnrollmentRepo) put(e model.Enrollment) {
	r.enrollments[enrollmentKey{e.UserID, e.CourseID}] = &e
}

func (r *fakeEnrollmentRepo) GetEnrollment(_ context.Context, userID string, courseID int64) (*model.Enrollment, error) {
	if err, ok := r.failFor[courseID]; ok {
		return nil, err
	}
	enrollment, ok := r.enrollments[enrollmentKey{userID, courseID}]
	if !ok {
		return nil, nil
	}
	copied := *enrollment
	return &copied, nil
}

// fakePublisher records published payloads.
type fakePublisher struct {
	topics   []string
	payloads [][]byte
}

func (p *fakePublisher) Publish(_ context.Context, topic string, payload []byte) (string, error) {
	p.topics = append(p.topics, topic)
	p.payloads = append(p.payloads, payload)
	return "msg-1", nil
}

type testEnv struct {
	svc         *prerequisiteService
	prereqs     *fakePrereqRepo
	courses     *fakeCourseRepo
	enrollments *fakeEnrollmentRepo
	publisher   *fakePublisher
	cache       *cache.MemoryStore
}

func newTestEnv(courseIDs ...int64) *testEnv {
	prereqs := newFakePrereqRepo()
	courses := newFakeCourseRepo(courseIDs...)
	enrollments := newFakeEnrollmentRepo()
	publisher := &fakePublisher{}
	store := cache.NewMemoryStore()

	svc := NewPrerequisiteService(
		prereqs, courses, enrollments,
		store, time.Hour,
		publisher, "prerequisite-events",
		zerolog.Nop(),
	).(*prerequisiteService)

	return &testEnv{
		svc:         svc,
		prereqs:     prereqs,
		courses:     courses,
		enrollments: enrollments,
		publisher:   publisher,
		cache:       store,
	}
}

func floatPtr(v float64) *float64 { return &v }
func boolPtr(v bool) *bool        { return &v }
func intPtr(v int) *int           { return &v }
func int64Ptr(v int64) *int64     { return &v }
func strPtr(v string) *string     { return &v }
