package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chedhq/ched/core"
	"github.com/chedhq/ched/store"
)

func stateWithIntent(intent, query string) *core.State {
	st := core.NewState(context.Background(), query, "u1", "t1")
	st.Decision = &core.RouterDecision{Target: intent, Confidence: 0.9}
	return st
}

func TestSynthesizeAcademicDirectAnswer(t *testing.T) {
	st := stateWithIntent(core.TargetAcademic, "am I enrolled in CS101?")
	st.Academic = &core.AcademicReply{DirectAnswer: "Yes, you are enrolled in CS101."}

	NewSynthesizer(nil, nil).Run(st)

	assert.Equal(t, "Yes, you are enrolled in CS101.", st.Final)
	require.Len(t, st.Messages, 1)
	assert.Equal(t, core.RoleAssistant, st.Messages[0].Role)
}

func TestSynthesizeAcademicReport(t *testing.T) {
	st := stateWithIntent(core.TargetAcademic, "can I reach a 3.8?")
	st.Academic = &core.AcademicReply{
		CurrentGPA:  3.43,
		TargetGPA:   3.8,
		Feasibility: "achievable with two A grades",
		GradePaths:  []string{"A in CS101 and A in MA201"},
	}

	NewSynthesizer(nil, nil).Run(st)

	assert.Contains(t, st.Final, "3.43")
	assert.Contains(t, st.Final, "3.80")
	assert.Contains(t, st.Final, "A in CS101")
}

func TestSynthesizeExtractionLists(t *testing.T) {
	st := stateWithIntent(core.TargetExtractor, "what's due?")
	st.Extraction = &core.ExtractionResult{
		Answer:    "Two items are due soon.",
		Deadlines: []core.Deadline{{Title: "Essay", DueDate: "2030-03-10", Description: "five pages"}},
		Timetable: []core.TimetableEntry{{Course: "CS101", Weekday: "Monday", StartTime: "10:00", EndTime: "11:00", Location: "Room A"}},
	}

	NewSynthesizer(nil, nil).Run(st)

	assert.Contains(t, st.Final, "Two items are due soon.")
	assert.Contains(t, st.Final, "Essay")
	assert.Contains(t, st.Final, "CS101: Monday 10:00-11:00 @ Room A")
}

func TestSynthesizeScheduleWithPendingAndRejected(t *testing.T) {
	st := stateWithIntent(core.TargetScheduler, "plan my week")
	st.Proposal = &core.Proposal{
		Rationale: "Planned around your classes.",
		Actions:   []string{"Added event 'CS101 Lecture' (id 3)"},
	}
	st.Verification = &core.Verification{
		IsValid: true,
		ApprovedEvents: []core.EventDraft{
			{Title: "CS101 Lecture", StartTime: "2030-09-02T10:00:00"},
			{Title: "Study block", StartTime: "2030-09-03T14:00:00"},
		},
		RejectedEvents: []core.RejectedEvent{
			{Event: core.EventDraft{Title: "Nap"}, Reason: "overlaps lecture"},
		},
		Warnings: []string{"verification degraded"},
	}

	NewSynthesizer(nil, nil).Run(st)

	assert.Contains(t, st.Final, "Planned around your classes.")
	assert.Contains(t, st.Final, "Added event 'CS101 Lecture'")
	// executed events are not re-listed as pending
	assert.NotContains(t, st.Final, "CS101 Lecture at")
	assert.Contains(t, st.Final, "Study block at 2030-09-03T14:00:00")
	assert.Contains(t, st.Final, `Skipped "Nap": overlaps lecture`)
	assert.Contains(t, st.Final, "Note: verification degraded")
}

func TestSynthesizeCalendarFromSnapshot(t *testing.T) {
	st := stateWithIntent(core.TargetCalendar, "show my events")
	st.Events = []core.EventSnapshot{
		{ID: 1, Title: "Lecture", StartTime: "2030-09-02T10:00:00", Category: "Academic"},
	}

	NewSynthesizer(nil, nil).Run(st)

	assert.Contains(t, st.Final, "Upcoming events:")
	assert.Contains(t, st.Final, "Lecture at 2030-09-02T10:00:00 [Academic]")
}

func TestSynthesizeCalendarFreshReadFallback(t *testing.T) {
	s, err := store.OpenInMemory(nil)
	require.NoError(t, err)
	require.NoError(t, s.AutoMigrate())
	t.Cleanup(func() { _ = s.Close() })

	_, _, err = s.Events().Add(context.Background(), &store.ScheduleEvent{
		UserID: "u1", Title: "Seminar", StartTime: "2099-01-15T13:00:00",
	})
	require.NoError(t, err)

	st := stateWithIntent(core.TargetCalendar, "what's coming up?")
	NewSynthesizer(s.Events(), nil).Run(st)

	assert.Contains(t, st.Final, "Seminar")
}

func TestSynthesizeCalendarEmpty(t *testing.T) {
	st := stateWithIntent(core.TargetCalendar, "show my events")
	NewSynthesizer(nil, nil).Run(st)
	assert.Contains(t, st.Final, "calendar is clear")
}

func TestSynthesizeChatWithSuggestions(t *testing.T) {
	st := stateWithIntent(core.TargetChat, "hey")
	st.Chat = &core.ChatReply{
		Response:    "Hello! Ready to plan your week?",
		Suggestions: []string{"Show my events"},
	}

	NewSynthesizer(nil, nil).Run(st)

	assert.Contains(t, st.Final, "Hello! Ready to plan your week?")
	assert.Contains(t, st.Final, "- Show my events")
}

func TestSynthesizeNoOutputGenericMessage(t *testing.T) {
	st := stateWithIntent(core.TargetChat, "???")
	NewSynthesizer(nil, nil).Run(st)
	assert.Contains(t, st.Final, "more detail")
}
