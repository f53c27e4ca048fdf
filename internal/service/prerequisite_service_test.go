package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"app/internal/apperr"
	"app/internal/model"
)

func mustCreate(t *testing.T, env *testEnv, courseID, prereqID int64) *model.Prerequisite {
	t.Helper()
	edge, err := env.svc.CreateEdge(context.Background(), CreateEdgeInput{
		CourseID:             courseID,
		PrerequisiteCourseID: prereqID,
		Type:                 model.TypeCourseCompletion,
	})
	if err != nil {
		t.Fatalf("create edge %d -> %d: %v", courseID, prereqID, err)
	}
	return edge
}

func TestCreateEdgeRejectsSelfLoop(t *testing.T) {
	env := newTestEnv(1)
	_, err := env.svc.CreateEdge(context.Background(), CreateEdgeInput{
		CourseID:             1,
		PrerequisiteCourseID: 1,
		Type:                 model.TypeCourseCompletion,
	})
	if !apperr.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err.Error() != "Course cannot be a prerequisite for itself" {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestCreateEdgeRejectsUnknownType(t *testing.T) {
	env := newTestEnv(1, 2)
	_, err := env.svc.CreateEdge(context.Background(), CreateEdgeInput{
		CourseID:             1,
		PrerequisiteCourseID: 2,
		Type:                 "telepathy",
	})
	if !apperr.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateEdgeRejectsUnknownCourses(t *testing.T) {
	env := newTestEnv(1)
	_, err := env.svc.CreateEdge(context.Background(), CreateEdgeInput{
		CourseID:             99,
		PrerequisiteCourseID: 1,
		Type:                 model.TypeCourseCompletion,
	})
	if !errors.Is(err, apperr.ErrCourseNotFound) {
		t.Fatalf("expected course not found, got %v", err)
	}

	_, err = env.svc.CreateEdge(context.Background(), CreateEdgeInput{
		CourseID:             1,
		PrerequisiteCourseID: 99,
		Type:                 model.TypeCourseCompletion,
	})
	if !apperr.IsValidation(err) {
		t.Fatalf("expected validation error for missing prerequisite course, got %v", err)
	}
}

func TestCreateEdgeDefaults(t *testing.T) {
	env := newTestEnv(1, 2)
	edge := mustCreate(t, env, 1, 2)
	if edge.EvaluationMethod != model.MethodAutomatic {
		t.Fatalf("expected automatic method, got %s", edge.EvaluationMethod)
	}
	if !edge.IsMandatory {
		t.Fatal("expected edge to default to mandatory")
	}
	if edge.Order != 0 {
		t.Fatalf("expected default order 0, got %d", edge.Order)
	}
	if edge.ID == 0 {
		t.Fatal("expected edge to receive an ID")
	}
}

func TestCreateEdgeRejectsTransitiveCycle(t *testing.T) {
	env := newTestEnv(1, 2, 3, 4)
	// A(1) depends on B(2), B depends on C(3).
	mustCreate(t, env, 1, 2)
	mustCreate(t, env, 2, 3)

	// C depending on A closes the loop.
	_, err := env.svc.CreateEdge(context.Background(), CreateEdgeInput{
		CourseID:             3,
		PrerequisiteCourseID: 1,
		Type:                 model.TypeCourseCompletion,
	})
	if !apperr.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err.Error() != "Circular dependency detected" {
		t.Fatalf("unexpected message: %q", err.Error())
	}

	// C depending on unrelated D(4) is fine.
	if _, err := env.svc.CreateEdge(context.Background(), CreateEdgeInput{
		CourseID:             3,
		PrerequisiteCourseID: 4,
		Type:                 model.TypeCourseCompletion,
	}); err != nil {
		t.Fatalf("unrelated edge should succeed: %v", err)
	}
}

func TestCreateEdgePublishesChangeEvent(t *testing.T) {
	env := newTestEnv(1, 2)
	edge := mustCreate(t, env, 1, 2)

	if len(env.publisher.payloads) != 1 {
		t.Fatalf("expected 1 published event, got %d", len(env.publisher.payloads))
	}
	var event map[string]any
	if err := json.Unmarshal(env.publisher.payloads[0], &event); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if event["action"] != "created" {
		t.Fatalf("expected created action, got %v", event["action"])
	}
	if int64(event["edge_id"].(float64)) != edge.ID {
		t.Fatalf("expected edge_id %d, got %v", edge.ID, event["edge_id"])
	}
}

func TestListEdgesOrderingAndCacheConsistency(t *testing.T) {
	env := newTestEnv(1, 2, 3, 4)
	ctx := context.Background()

	if _, err := env.svc.CreateEdge(ctx, CreateEdgeInput{
		CourseID: 1, PrerequisiteCourseID: 2,
		Type: model.TypeCourseCompletion, Order: intPtr(2),
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := env.svc.CreateEdge(ctx, CreateEdgeInput{
		CourseID: 1, PrerequisiteCourseID: 3,
		Type: model.TypeCourseCompletion, Order: intPtr(1),
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := env.svc.CreateEdge(ctx, CreateEdgeInput{
		CourseID: 1, PrerequisiteCourseID: 4,
		Type: model.TypeCourseCompletion, Order: intPtr(1),
	}); err != nil {
		t.Fatal(err)
	}

	edges, err := env.svc.ListEdges(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(edges) != 3 {
		t.Fatalf("expected 3 edges, got %d", len(edges))
	}
	// Order asc, ties broken by insertion order.
	if edges[0].PrerequisiteCourseID != 3 || edges[1].PrerequisiteCourseID != 4 || edges[2].PrerequisiteCourseID != 2 {
		t.Fatalf("unexpected ordering: %d, %d, %d",
			edges[0].PrerequisiteCourseID, edges[1].PrerequisiteCourseID, edges[2].PrerequisiteCourseID)
	}

	// A read with no intervening writes is served from cache and identical,
	// even if the store changes underneath.
	delete(env.prereqs.edges, edges[0].ID)
	cached, err := env.svc.ListEdges(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(cached) != 3 {
		t.Fatalf("expected cached read to return 3 edges, got %d", len(cached))
	}
}

func TestWritesInvalidateCache(t *testing.T) {
	env := newTestEnv(1, 2, 3)
	ctx := context.Background()

	edge := mustCreate(t, env, 1, 2)
	if _, err := env.svc.ListEdges(ctx, 1); err != nil {
		t.Fatal(err)
	}

	// Create a second edge for the same course; the cached list must refresh.
	mustCreate(t, env, 1, 3)
	edges, err := env.svc.ListEdges(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(edges) != 2 {
		t.Fatalf("expected 2 edges after invalidation, got %d", len(edges))
	}

	// Delete invalidates too.
	if err := env.svc.DeleteEdge(ctx, edge.ID); err != nil {
		t.Fatal(err)
	}
	edges, err = env.svc.ListEdges(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(edges) != 1 {
		t.Fatalf("expected 1 edge after delete, got %d", len(edges))
	}
}

func TestUpdateEdgeNotFound(t *testing.T) {
	env := newTestEnv(1, 2)
	_, err := env.svc.UpdateEdge(context.Background(), 42, UpdateEdgeInput{Order: intPtr(5)})
	if !errors.Is(err, apperr.ErrPrerequisiteNotFound) {
		t.Fatalf("expected prerequisite not found, got %v", err)
	}
}

func TestUpdateEdgeFieldsInPlace(t *testing.T) {
	env := newTestEnv(1, 2)
	edge := mustCreate(t, env, 1, 2)

	updated, err := env.svc.UpdateEdge(context.Background(), edge.ID, UpdateEdgeInput{
		RequirementValue: floatPtr(85),
		IsMandatory:      boolPtr(false),
		Order:            intPtr(7),
		Description:      strPtr("advisory score gate"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if updated.RequirementValue == nil || *updated.RequirementValue != 85 {
		t.Fatalf("requirement value not applied: %+v", updated.RequirementValue)
	}
	if updated.IsMandatory {
		t.Fatal("expected edge to become advisory")
	}
	if updated.Order != 7 || updated.Description != "advisory score gate" {
		t.Fatalf("fields not applied: order=%d description=%q", updated.Order, updated.Description)
	}
	if updated.PrerequisiteCourseID != 2 {
		t.Fatalf("prerequisite endpoint must be unchanged, got %d", updated.PrerequisiteCourseID)
	}
}

func TestUpdateEdgeCycleLeavesEdgeUnchanged(t *testing.T) {
	env := newTestEnv(5, 10, 20)
	ctx := context.Background()

	// Course 10 transitively depends on course 20: 10 -> 20.
	mustCreate(t, env, 10, 20)
	// Course 20 depends on course 5... and the edge under test: 20 -> 5.
	edge := mustCreate(t, env, 20, 5)

	// Repointing 20 -> 5 at course 10 would close 20 -> 10 -> 20.
	_, err := env.svc.UpdateEdge(ctx, edge.ID, UpdateEdgeInput{
		PrerequisiteCourseID: int64Ptr(10),
	})
	if !apperr.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err.Error() != "Circular dependency detected" {
		t.Fatalf("unexpected message: %q", err.Error())
	}

	stored, err := env.prereqs.GetEdgeByID(ctx, edge.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.PrerequisiteCourseID != 5 {
		t.Fatalf("edge must be unchanged after rejected update, got prerequisite %d", stored.PrerequisiteCourseID)
	}
}

func TestUpdateEdgeSameEndpointSkipsCycleCheck(t *testing.T) {
	env := newTestEnv(1, 2)
	edge := mustCreate(t, env, 1, 2)

	// Re-sending the current endpoint is not a change and must not fail.
	updated, err := env.svc.UpdateEdge(context.Background(), edge.ID, UpdateEdgeInput{
		PrerequisiteCourseID: int64Ptr(2),
		Order:                intPtr(3),
	})
	if err != nil {
		t.Fatal(err)
	}
	if updated.Order != 3 {
		t.Fatalf("expected order 3, got %d", updated.Order)
	}
}

func TestDeleteEdgeNotFound(t *testing.T) {
	env := newTestEnv(1)
	err := env.svc.DeleteEdge(context.Background(), 42)
	if !errors.Is(err, apperr.ErrPrerequisiteNotFound) {
		t.Fatalf("expected prerequisite not found, got %v", err)
	}
}

func TestHasCircularDependencyTerminatesOnExistingCycle(t *testing.T) {
	env := newTestEnv(1, 2, 3)
	// Seed a pre-existing cycle directly in the store, bypassing validation.
	env.prereqs.edges[100] = &model.Prerequisite{ID: 100, CourseID: 1, PrerequisiteCourseID: 2, Type: model.TypeCourseCompletion}
	env.prereqs.edges[101] = &model.Prerequisite{ID: 101, CourseID: 2, PrerequisiteCourseID: 1, Type: model.TypeCourseCompletion}

	cyclic, err := env.svc.HasCircularDependency(context.Background(), 3, 1)
	if err != nil {
		t.Fatal(err)
	}
	if cyclic {
		t.Fatal("course 3 is outside the cycle and must not be flagged")
	}

	cyclic, err = env.svc.HasCircularDependency(context.Background(), 1, 2)
	if err != nil {
		t.Fatal(err)
	}
	if !cyclic {
		t.Fatal("expected cycle between 1 and 2 to be detected")
	}
}

func TestValidateChain(t *testing.T) {
	env := newTestEnv(1, 2, 3)
	ctx := context.Background()

	mustCreate(t, env, 1, 2)
	edgeDangling := mustCreate(t, env, 1, 3)

	// Course 3 disappears from the catalog, course 2 is unpublished.
	delete(env.courses.courses, 3)
	env.courses.courses[2].Status = model.CourseStatusDraft
	env.cache.Forget(ctx, edgeCacheKey(1))

	result, err := env.svc.ValidateChain(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if result.Valid {
		t.Fatal("expected chain to be invalid")
	}
	if len(result.Issues) != 2 {
		t.Fatalf("expected 2 issues, got %d: %+v", len(result.Issues), result.Issues)
	}
	for _, issue := range result.Issues {
		if issue.EdgeID == edgeDangling.ID && issue.Issue != "Prerequisite course does not exist" {
			t.Fatalf("unexpected issue for dangling edge: %q", issue.Issue)
		}
	}

	// A clean chain reports valid with no issues.
	clean := newTestEnv(1, 2)
	mustCreate(t, clean, 1, 2)
	ok, err := clean.svc.ValidateChain(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if !ok.Valid || len(ok.Issues) != 0 {
		t.Fatalf("expected valid chain, got %+v", ok)
	}
}

func TestStatistics(t *testing.T) {
	env := newTestEnv(1, 2, 3)
	ctx := context.Background()

	mustCreate(t, env, 1, 2)
	if _, err := env.svc.CreateEdge(ctx, CreateEdgeInput{
		CourseID: 1, PrerequisiteCourseID: 3,
		Type:        model.TypeMinimumScore,
		IsMandatory: boolPtr(false),
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := env.svc.CreateEdge(ctx, CreateEdgeInput{
		CourseID: 2, PrerequisiteCourseID: 3,
		Type: model.TypeCourseCompletion,
	}); err != nil {
		t.Fatal(err)
	}

	stats, err := env.svc.Statistics(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalEdges != 3 {
		t.Fatalf("expected 3 edges, got %d", stats.TotalEdges)
	}
	if stats.ByType["course_completion"] != 2 || stats.ByType["minimum_score"] != 1 {
		t.Fatalf("unexpected type breakdown: %+v", stats.ByType)
	}
	if stats.MandatoryEdges != 2 || stats.OptionalEdges != 1 {
		t.Fatalf("unexpected mandatory split: %d/%d", stats.MandatoryEdges, stats.OptionalEdges)
	}
	if stats.CoursesWithEdges != 2 {
		t.Fatalf("expected 2 courses with edges, got %d", stats.CoursesWithEdges)
	}
	if stats.AvgEdgesPerCourse != 1.5 {
		t.Fatalf("expected avg 1.5, got %v", stats.AvgEdgesPerCourse)
	}
}
