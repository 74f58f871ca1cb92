package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/chedhq/ched/core"
	"github.com/chedhq/ched/model"
)

func TestRouteParsesStructuredDecision(t *testing.T) {
	m := model.NewScriptedModel().EnqueueText(
		`{"target": "academic", "confidence": 0.9, "retrieval_first": false, "rationale": "gpa question", "cleaned_query": "what is my gpa"}`,
	)
	st := core.NewState(context.Background(), "what's my GPA?", "u1", "t1")

	decision := NewRouter(m).Route(st)

	assert.Equal(t, core.TargetAcademic, decision.Target)
	assert.InDelta(t, 0.9, decision.Confidence, 1e-9)
	assert.Equal(t, "what is my gpa", decision.CleanedQuery)
	assert.Same(t, decision, st.Decision)
}

func TestRouteDeleteLanguageOverridesCalendar(t *testing.T) {
	// the model wrongly picks the read-only path for a deletion request
	m := model.NewScriptedModel().EnqueueText(
		`{"target": "calendar", "confidence": 0.8, "rationale": "listing", "cleaned_query": "clear my calendar"}`,
	)
	st := core.NewState(context.Background(), "please clear my calendar for tomorrow", "u1", "t1")

	decision := NewRouter(m).Route(st)

	assert.Equal(t, core.TargetScheduler, decision.Target)
	assert.Contains(t, decision.Rationale, "deletion language")
}

func TestRouteKeywordFallbackOnGarbage(t *testing.T) {
	m := model.NewScriptedModel().EnqueueText("sure! here's what I think, no JSON today")
	st := core.NewState(context.Background(), "delete my 3pm meeting", "u1", "t1")

	decision := NewRouter(m).Route(st)

	assert.Equal(t, core.TargetScheduler, decision.Target)
	assert.InDelta(t, 0.3, decision.Confidence, 1e-9)
	assert.Contains(t, decision.Rationale, "keyword fallback")
}

func TestRouteSalvagesTargetFromMalformedJSON(t *testing.T) {
	// the reply is cut off mid-object, so neither parse tier accepts it, but
	// the target field is still readable
	m := model.NewScriptedModel().EnqueueText(`{"target": "academic", "confidence": 0.9, "rationale": "truncat`)
	st := core.NewState(context.Background(), "hm", "u1", "t1")

	decision := NewRouter(m).Route(st)

	assert.Equal(t, core.TargetAcademic, decision.Target)
	assert.InDelta(t, 0.5, decision.Confidence, 1e-9)
	assert.Contains(t, decision.Rationale, "salvaged target field")
}

func TestRouteKeywordFallbackTargets(t *testing.T) {
	cases := []struct {
		query  string
		target string
	}{
		{"summarize the syllabus file", core.TargetExtractor},
		{"what grade do I need this semester", core.TargetAcademic},
		{"show my upcoming events", core.TargetCalendar},
		{"hello there", core.TargetChat},
	}
	for _, tc := range cases {
		m := model.NewScriptedModel().EnqueueText("not json at all")
		st := core.NewState(context.Background(), tc.query, "u1", "t1")
		decision := NewRouter(m).Route(st)
		assert.Equal(t, tc.target, decision.Target, "query %q", tc.query)
	}
}

func TestRouteCallFailureFallsBackToChat(t *testing.T) {
	m := model.NewScriptedModel().EnqueueError(errors.New("upstream down"))
	st := core.NewState(context.Background(), "hi", "u1", "t1")

	decision := NewRouter(m).Route(st)

	assert.Equal(t, core.TargetChat, decision.Target)
	assert.InDelta(t, 0.1, decision.Confidence, 1e-9)
	assert.Error(t, st.Err)
}

func TestRouteUnknownTargetCoercedToChat(t *testing.T) {
	m := model.NewScriptedModel().EnqueueText(
		`{"target": "weather", "confidence": 2.5, "rationale": "?", "cleaned_query": "hm"}`,
	)
	st := core.NewState(context.Background(), "hm", "u1", "t1")

	decision := NewRouter(m).Route(st)

	assert.Equal(t, core.TargetChat, decision.Target)
	assert.Equal(t, 1.0, decision.Confidence)
}
