package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatHistoryLimitKeepsNewest(t *testing.T) {
	s := newTestStore(t)
	chats := s.Chats()
	ctx := context.Background()

	for _, text := range []string{"one", "two", "three", "four"} {
		require.NoError(t, chats.Save(ctx, &ChatMessage{
			UserID: "u1", ThreadID: "t1", Role: "user", Content: text,
		}))
	}

	msgs, err := chats.History(ctx, "u1", "t1", 2)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "three", msgs[0].Content)
	assert.Equal(t, "four", msgs[1].Content)

	all, err := chats.History(ctx, "u1", "t1", 0)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestThreadsSummaries(t *testing.T) {
	s := newTestStore(t)
	chats := s.Chats()
	ctx := context.Background()

	require.NoError(t, chats.Save(ctx, &ChatMessage{UserID: "u1", ThreadID: "t1", Role: "user", Content: "hi"}))
	require.NoError(t, chats.Save(ctx, &ChatMessage{UserID: "u1", ThreadID: "t1", Role: "assistant", Content: "hello"}))
	require.NoError(t, chats.Save(ctx, &ChatMessage{UserID: "u1", ThreadID: "t2", Role: "user", Content: "yo"}))
	require.NoError(t, chats.Save(ctx, &ChatMessage{UserID: "u2", ThreadID: "t9", Role: "user", Content: "other"}))

	threads, err := chats.Threads(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, threads, 2)
	var total int64
	for _, th := range threads {
		total += th.MessageCount
		assert.False(t, th.LastActivity.IsZero(), "last activity must decode from the aggregate")
	}
	assert.Equal(t, int64(3), total)
}

func TestDeleteThreadCascadesToSourcedEvents(t *testing.T) {
	s := newTestStore(t)
	chats := s.Chats()
	events := s.Events()
	ctx := context.Background()

	require.NoError(t, chats.Save(ctx, &ChatMessage{UserID: "u1", ThreadID: "t1", Role: "user", Content: "plan my week"}))
	require.NoError(t, chats.Save(ctx, &ChatMessage{UserID: "u1", ThreadID: "t1", Role: "assistant", Content: "done"}))
	require.NoError(t, chats.Save(ctx, &ChatMessage{UserID: "u1", ThreadID: "t2", Role: "user", Content: "unrelated"}))

	// one event created by the thread, one manual, one for another user
	_, _, err := events.Add(ctx, &ScheduleEvent{UserID: "u1", Title: "From thread", StartTime: "2030-06-01T10:00:00", Source: "t1"})
	require.NoError(t, err)
	_, _, err = events.Add(ctx, &ScheduleEvent{UserID: "u1", Title: "Manual", StartTime: "2030-06-02T10:00:00"})
	require.NoError(t, err)
	_, _, err = events.Add(ctx, &ScheduleEvent{UserID: "u2", Title: "Foreign", StartTime: "2030-06-01T10:00:00", Source: "t1"})
	require.NoError(t, err)

	removed, err := chats.DeleteThread(ctx, "u1", "t1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	// t2 untouched
	left, err := chats.History(ctx, "u1", "t2", 0)
	require.NoError(t, err)
	assert.Len(t, left, 1)

	// only the thread-sourced event of u1 is gone
	mine, err := events.ByRange(ctx, "u1", "", "")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "Manual", mine[0].Title)

	theirs, err := events.ByRange(ctx, "u2", "", "")
	require.NoError(t, err)
	assert.Len(t, theirs, 1)
}
