package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenInMemory(nil)
	require.NoError(t, err)
	require.NoError(t, s.AutoMigrate())
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestEventStoreAddDuplicateRejected(t *testing.T) {
	s := newTestStore(t)
	events := s.Events()
	ctx := context.Background()

	id, added, err := events.Add(ctx, &ScheduleEvent{
		UserID:    "u1",
		Title:     "CS101 Lecture",
		StartTime: "2030-09-01T10:00:00",
	})
	require.NoError(t, err)
	assert.True(t, added)
	assert.NotZero(t, id)

	// same (user, title, start): silently rejected
	id2, added2, err := events.Add(ctx, &ScheduleEvent{
		UserID:    "u1",
		Title:     "CS101 Lecture",
		StartTime: "2030-09-01T10:00:00",
	})
	require.NoError(t, err)
	assert.False(t, added2)
	assert.Zero(t, id2)

	// different start time is a new event
	_, added3, err := events.Add(ctx, &ScheduleEvent{
		UserID:    "u1",
		Title:     "CS101 Lecture",
		StartTime: "2030-09-08T10:00:00",
	})
	require.NoError(t, err)
	assert.True(t, added3)

	// another user may hold the same title/start
	_, added4, err := events.Add(ctx, &ScheduleEvent{
		UserID:    "u2",
		Title:     "CS101 Lecture",
		StartTime: "2030-09-01T10:00:00",
	})
	require.NoError(t, err)
	assert.True(t, added4)
}

func TestEventStoreAddNormalizes(t *testing.T) {
	s := newTestStore(t)
	events := s.Events()
	ctx := context.Background()

	id, added, err := events.Add(ctx, &ScheduleEvent{
		UserID:    "u1",
		Title:     "Exam",
		StartTime: "2030-12-10T09:00:00",
		Priority:  "urgent",
		Category:  "aCADEMIC",
	})
	require.NoError(t, err)
	require.True(t, added)

	ev, err := events.Get(ctx, "u1", id)
	require.NoError(t, err)
	assert.Equal(t, PriorityHigh, ev.Priority)
	assert.Equal(t, "Academic", ev.Category)
	assert.Equal(t, SourceManual, ev.Source)
}

func TestEventStoreUpdateNormalizesPatch(t *testing.T) {
	s := newTestStore(t)
	events := s.Events()
	ctx := context.Background()

	id, _, err := events.Add(ctx, &ScheduleEvent{
		UserID:    "u1",
		Title:     "Lab",
		StartTime: "2030-10-01T14:00:00",
	})
	require.NoError(t, err)

	updated, err := events.Update(ctx, "u1", id, map[string]any{
		"priority": "low",
		"category": "STUDY",
	})
	require.NoError(t, err)
	assert.True(t, updated)

	ev, err := events.Get(ctx, "u1", id)
	require.NoError(t, err)
	assert.Equal(t, PriorityLow, ev.Priority)
	assert.Equal(t, "Study", ev.Category)

	// unknown field keys are dropped, making the patch a no-op
	updated, err = events.Update(ctx, "u1", id, map[string]any{"user_id": "u2"})
	require.NoError(t, err)
	assert.False(t, updated)

	// wrong user never matches
	updated, err = events.Update(ctx, "u2", id, map[string]any{"title": "Stolen"})
	require.NoError(t, err)
	assert.False(t, updated)
}

func TestEventStoreDateQueries(t *testing.T) {
	s := newTestStore(t)
	events := s.Events()
	ctx := context.Background()

	seed := []ScheduleEvent{
		{UserID: "u1", Title: "Morning lecture", StartTime: "2030-03-04T09:00:00"},
		{UserID: "u1", Title: "Evening lab", StartTime: "2030-03-04T18:00:00"},
		{UserID: "u1", Title: "Next day seminar", StartTime: "2030-03-05T11:00:00"},
		{UserID: "u2", Title: "Other user", StartTime: "2030-03-04T09:00:00"},
	}
	for i := range seed {
		_, added, err := events.Add(ctx, &seed[i])
		require.NoError(t, err)
		require.True(t, added)
	}

	byDate, err := events.ByDate(ctx, "u1", "2030-03-04")
	require.NoError(t, err)
	assert.Len(t, byDate, 2)
	assert.Equal(t, "Morning lecture", byDate[0].Title)

	inRange, err := events.ByRange(ctx, "u1", "2030-03-04", "2030-03-05")
	require.NoError(t, err)
	assert.Len(t, inRange, 3)

	removed, err := events.DeleteByDate(ctx, "u1", "2030-03-04")
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	left, err := events.ByRange(ctx, "u1", "", "")
	require.NoError(t, err)
	assert.Len(t, left, 1)
}

func TestEventStoreSearch(t *testing.T) {
	s := newTestStore(t)
	events := s.Events()
	ctx := context.Background()

	_, _, err := events.Add(ctx, &ScheduleEvent{
		UserID: "u1", Title: "Physics revision", StartTime: "2030-05-20T10:00:00", Category: "Study",
	})
	require.NoError(t, err)
	_, _, err = events.Add(ctx, &ScheduleEvent{
		UserID: "u1", Title: "Dentist", StartTime: "2030-05-21T08:30:00", Category: "Personal",
	})
	require.NoError(t, err)

	hits, err := events.Search(ctx, "u1", "physics")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "Physics revision", hits[0].Title)

	// a date-shaped query matches by start date prefix
	hits, err = events.Search(ctx, "u1", "2030-05-21")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "Dentist", hits[0].Title)
}

func TestEventStoreClearAll(t *testing.T) {
	s := newTestStore(t)
	events := s.Events()
	ctx := context.Background()

	for i, title := range []string{"breakfast", "lecture", "gym"} {
		_, _, err := events.Add(ctx, &ScheduleEvent{
			UserID:    "u1",
			Title:     title,
			StartTime: []string{"2030-01-01T08:00:00", "2030-01-01T10:00:00", "2030-01-01T17:00:00"}[i],
		})
		require.NoError(t, err)
	}
	_, _, err := events.Add(ctx, &ScheduleEvent{UserID: "u2", Title: "keep", StartTime: "2030-01-01T09:00:00"})
	require.NoError(t, err)

	count, err := events.ClearAll(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	others, err := events.ByRange(ctx, "u2", "", "")
	require.NoError(t, err)
	assert.Len(t, others, 1)
}
