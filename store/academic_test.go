package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedCatalog(t *testing.T, s *Store) {
	t.Helper()
	require.NoError(t, s.SeedCourses([]Course{
		{Code: "CS101", Name: "Intro to Computing", Credits: 3, Semester: "Fall"},
		{Code: "MA201", Name: "Linear Algebra", Credits: 4, Semester: "Fall"},
		{Code: "PH150", Name: "Mechanics", Credits: 3, Semester: "Spring"},
	}))
}

func fptr(v float64) *float64 { return &v }

func TestEnrollUpsertsToActive(t *testing.T) {
	s := newTestStore(t)
	seedCatalog(t, s)
	academic := s.Academic()
	ctx := context.Background()

	enrolled, err := academic.Enroll(ctx, "u1", "CS101", "2030-Fall")
	require.NoError(t, err)
	assert.True(t, enrolled)

	// second enroll while active reports false, not an error
	enrolled, err = academic.Enroll(ctx, "u1", "CS101", "2030-Fall")
	require.NoError(t, err)
	assert.False(t, enrolled)

	// completing then re-enrolling reactivates the same row
	done, err := academic.CompleteCourse(ctx, "u1", "CS101", fptr(4.0), "A")
	require.NoError(t, err)
	assert.True(t, done)

	enrolled, err = academic.Enroll(ctx, "u1", "CS101", "2031-Fall")
	require.NoError(t, err)
	assert.True(t, enrolled)

	active, err := academic.Enrolled(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "CS101", active[0].CourseCode)
}

func TestEnrollUnknownCourse(t *testing.T) {
	s := newTestStore(t)
	seedCatalog(t, s)

	_, err := s.Academic().Enroll(context.Background(), "u1", "XX999", "2030-Fall")
	assert.Error(t, err)
}

func TestUnenrollOnlyActive(t *testing.T) {
	s := newTestStore(t)
	seedCatalog(t, s)
	academic := s.Academic()
	ctx := context.Background()

	_, err := academic.Enroll(ctx, "u1", "CS101", "2030-Fall")
	require.NoError(t, err)
	_, err = academic.CompleteCourse(ctx, "u1", "CS101", fptr(3.0), "B")
	require.NoError(t, err)

	// completed rows are history, not droppable enrollments
	removed, err := academic.Unenroll(ctx, "u1", "CS101")
	require.NoError(t, err)
	assert.False(t, removed)

	_, err = academic.Enroll(ctx, "u1", "MA201", "2030-Fall")
	require.NoError(t, err)
	removed, err = academic.Unenroll(ctx, "u1", "MA201")
	require.NoError(t, err)
	assert.True(t, removed)
}

func TestHistoryGPAExcludesUngraded(t *testing.T) {
	s := newTestStore(t)
	seedCatalog(t, s)
	academic := s.Academic()
	ctx := context.Background()

	// A (4.0) in a 3-credit course and B (3.0) in a 4-credit course:
	// (4*3 + 3*4) / (3+4) = 24/7
	for _, code := range []string{"CS101", "MA201", "PH150"} {
		_, err := academic.Enroll(ctx, "u1", code, "2030-Fall")
		require.NoError(t, err)
	}
	_, err := academic.CompleteCourse(ctx, "u1", "CS101", fptr(4.0), "A")
	require.NoError(t, err)
	_, err = academic.CompleteCourse(ctx, "u1", "MA201", fptr(3.0), "B")
	require.NoError(t, err)
	// PH150 stays ungraded and must not drag the GPA down

	hist, err := academic.History(ctx, "u1")
	require.NoError(t, err)
	assert.InDelta(t, 24.0/7.0, hist.CumulativeGPA, 1e-9)
	assert.Equal(t, 7.0, hist.TotalCredits)

	var courses int
	for _, sem := range hist.Semesters {
		courses += len(sem.Courses)
	}
	assert.Equal(t, 3, courses)
}

func TestHistoryEmpty(t *testing.T) {
	s := newTestStore(t)
	seedCatalog(t, s)

	hist, err := s.Academic().History(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Zero(t, hist.CumulativeGPA)
	assert.Empty(t, hist.Semesters)
}

func TestSeedCoursesIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	seedCatalog(t, s)
	seedCatalog(t, s)

	courses, err := s.Academic().ListCourses(context.Background())
	require.NoError(t, err)
	assert.Len(t, courses, 3)
}
