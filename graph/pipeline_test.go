package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chedhq/ched/agent"
	"github.com/chedhq/ched/core"
	"github.com/chedhq/ched/model"
	"github.com/chedhq/ched/retrieval"
	"github.com/chedhq/ched/store"
	"github.com/chedhq/ched/tool"
)

// newTestPipeline wires the full graph over one scripted model and an
// in-memory store.
func newTestPipeline(t *testing.T, m model.Model) (*Graph, *store.Store) {
	t.Helper()
	s, err := store.OpenInMemory(nil)
	require.NoError(t, err)
	require.NoError(t, s.AutoMigrate())
	t.Cleanup(func() { _ = s.Close() })

	calendarReg := tool.NewRegistry()
	tool.RegisterCalendarTools(calendarReg, s.Events())
	courseReg := tool.NewRegistry()
	tool.RegisterCourseTools(courseReg, s.Academic())
	chatReg := tool.NewRegistry()
	tool.RegisterDateTool(chatReg)

	g := NewPipeline(Deps{
		Router:    agent.NewRouter(m),
		Extractor: agent.NewExtractor(m, retrieval.NewIndex(), chatReg),
		Scheduler: agent.NewScheduler(m, calendarReg),
		Verifier:  agent.NewVerifier(m),
		Academic:  agent.NewAcademic(m, courseReg),
		Chat:      agent.NewChat(m, chatReg),
		Events:    s.Events(),
	})
	return g, s
}

func TestPipelineChatPath(t *testing.T) {
	m := model.NewScriptedModel().
		EnqueueText(`{"target": "chat", "confidence": 0.9, "rationale": "greeting", "cleaned_query": "hello"}`).
		EnqueueText(`{"response": "Hi there!", "suggestions": []}`)

	g, _ := newTestPipeline(t, m)
	st := core.NewState(context.Background(), "hello", "u1", "t1")

	require.NoError(t, g.Run(st))
	assert.Equal(t, "Hi there!", st.Final)
	assert.Equal(t, 2, m.Calls())
}

func TestPipelineCalendarReadSkipsAgents(t *testing.T) {
	m := model.NewScriptedModel().
		EnqueueText(`{"target": "calendar", "confidence": 0.9, "rationale": "read", "cleaned_query": "show events"}`)

	g, s := newTestPipeline(t, m)
	_, _, err := s.Events().Add(context.Background(), &store.ScheduleEvent{
		UserID: "u1", Title: "Lecture", StartTime: "2099-09-02T10:00:00",
	})
	require.NoError(t, err)

	st := core.NewState(context.Background(), "show my events", "u1", "t1")
	require.NoError(t, g.Run(st))

	assert.Contains(t, st.Final, "Lecture")
	assert.Equal(t, 1, m.Calls(), "read path makes no generator calls beyond routing")
}

func TestPipelineSchedulePathRunsVerifier(t *testing.T) {
	m := model.NewScriptedModel().
		// router
		EnqueueText(`{"target": "scheduler", "confidence": 0.95, "rationale": "mutation", "cleaned_query": "add my exam"}`).
		// scheduler: one tool round then a structured proposal with one
		// still-pending event
		EnqueueToolCall("c1", "add_event", `{"title": "Final Exam", "start_time": "2099-12-10T09:00:00"}`).
		EnqueueText(`{"proposed_events": [{"title": "Revision session", "start_time": "2099-12-08T15:00:00"}], "modified_events": [], "deletions": [], "rationale": "Exam scheduled.", "conflicts": [], "optimizations": []}`).
		// verifier
		EnqueueText(`{"is_valid": true, "approved_events": [{"title": "Revision session", "start_time": "2099-12-08T15:00:00"}], "approved_deletions": [], "rejected_events": [], "notes": "clean"}`)

	g, s := newTestPipeline(t, m)
	st := core.NewState(context.Background(), "add my exam on december 10th", "u1", "t1")

	require.NoError(t, g.Run(st))

	assert.Contains(t, st.Final, "Exam scheduled.")
	assert.Contains(t, st.Final, "Revision session at 2099-12-08T15:00:00")
	require.NotNil(t, st.Verification)
	assert.True(t, st.Verification.IsValid)
	assert.Equal(t, 4, m.Calls())

	evs, err := s.Events().ByDate(context.Background(), "u1", "2099-12-10")
	require.NoError(t, err)
	assert.Len(t, evs, 1)
}

func TestPipelineDeleteNeverRoutesToCalendar(t *testing.T) {
	m := model.NewScriptedModel().
		// the router misclassifies; the hard guard must still force the
		// mutation path, whose next scripted step is the scheduler reply
		EnqueueText(`{"target": "calendar", "confidence": 0.9, "rationale": "listing", "cleaned_query": "clear my calendar"}`).
		EnqueueToolCall("c1", "clear_full_calendar", `{}`).
		EnqueueText(`{"proposed_events": [], "modified_events": [], "deletions": [], "rationale": "All events removed.", "conflicts": [], "optimizations": []}`).
		EnqueueText(`{"is_valid": true, "approved_events": [], "approved_deletions": [], "rejected_events": [], "notes": ""}`)

	g, s := newTestPipeline(t, m)
	_, _, err := s.Events().Add(context.Background(), &store.ScheduleEvent{
		UserID: "u1", Title: "Doomed", StartTime: "2099-05-01T10:00:00",
	})
	require.NoError(t, err)

	st := core.NewState(context.Background(), "clear my calendar please", "u1", "t1")
	require.NoError(t, g.Run(st))

	assert.Equal(t, core.TargetScheduler, st.Decision.Target)
	left, err := s.Events().ByRange(context.Background(), "u1", "", "")
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestPipelineAcademicPath(t *testing.T) {
	m := model.NewScriptedModel().
		EnqueueText(`{"target": "academic", "confidence": 0.9, "rationale": "gpa", "cleaned_query": "what's my gpa"}`).
		EnqueueText(`{"direct_answer": "Your cumulative GPA is 3.43.", "current_gpa": 3.43, "target_gpa": 0, "feasibility": "", "grade_paths": [], "rationale": ""}`)

	g, _ := newTestPipeline(t, m)
	st := core.NewState(context.Background(), "what's my gpa?", "u1", "t1")

	require.NoError(t, g.Run(st))
	assert.Equal(t, "Your cumulative GPA is 3.43.", st.Final)
}
