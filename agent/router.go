package agent

import (
	"strings"
	"time"

	"github.com/chedhq/ched/core"
	"github.com/chedhq/ched/internal/util"
	"github.com/chedhq/ched/logging"
	"github.com/chedhq/ched/model"
	"github.com/chedhq/ched/structured"
)

const routerPrompt = `You are the intent router of an academic scheduling assistant.
Today is {{.Today}} ({{.Weekday}}).

Classify the user's request into exactly one target:
- "scheduler": creating, modifying, deleting or clearing calendar events. Any
  explicit delete/clear/wipe/remove/cancel instruction ALWAYS goes here, never
  to "calendar". Planning a schedule FROM uploaded document content also goes
  here, with retrieval_first set to true.
- "extractor": questions about an attached or previously uploaded document,
  file, syllabus or timetable (summaries, deadlines, what does it say).
- "calendar": pure read-only requests to show, list or view existing events.
- "academic": course enrollment, dropping courses, GPA and grade planning.
- "chat": greetings, small talk and anything else.

Documents attached to this request: {{.HasDocs}}.

Respond with JSON only:
{"target": "...", "confidence": 0.0-1.0, "retrieval_first": false, "rationale": "...", "cleaned_query": "..."}`

// Router classifies a request into one of the five targets. Route is total:
// every failure path yields a usable decision.
type Router struct {
	model  model.Model
	logger logging.Logger
}

// RouterOption mutates router construction.
type RouterOption func(*Router)

// WithRouterLogger sets the router's logger.
func WithRouterLogger(l logging.Logger) RouterOption {
	return func(r *Router) { r.logger = l }
}

// NewRouter builds a Router over the given model.
func NewRouter(m model.Model, opts ...RouterOption) *Router {
	r := &Router{model: m, logger: logging.NoOpLogger{}}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Route classifies the state's query and stores the decision on the state.
// On parse failure it falls back to keyword heuristics tagged low-confidence;
// on total call failure it returns a hard-coded chat fallback and records the
// error marker.
func (r *Router) Route(st *core.State) *core.RouterDecision {
	now := time.Now()
	prompt, err := util.RenderTemplate(routerPrompt, map[string]any{
		"Today":   now.Format("2006-01-02"),
		"Weekday": now.Weekday().String(),
		"HasDocs": len(st.Documents) > 0,
	})
	if err != nil {
		prompt = routerPrompt
	}

	contents := []core.Content{
		core.SystemText(prompt),
		core.UserText(st.Query),
	}

	resp, err := generate(st.Context, r.model, model.Request{Contents: contents}, nil)
	if err != nil {
		r.logger.Error("router.call.failed", "error", err.Error())
		st.Err = err
		decision := &core.RouterDecision{
			Target:       core.TargetChat,
			Confidence:   0.1,
			Rationale:    "routing call failed: " + err.Error(),
			CleanedQuery: st.Query,
		}
		st.Decision = decision
		return decision
	}

	decision, tier := structured.DecodeOr(resp.Text(), func(raw string) core.RouterDecision {
		return r.keywordFallback(st, raw)
	})
	decision.Normalize()
	if decision.CleanedQuery == "" {
		decision.CleanedQuery = st.Query
	}

	// Deletion language always routes to the mutation path.
	if hasDeleteLanguage(st.Query) && decision.Target == core.TargetCalendar {
		decision.Target = core.TargetScheduler
		decision.Rationale = "deletion language overrides read-only routing. " + decision.Rationale
	}

	r.logger.Info("router.decision",
		"target", decision.Target,
		"confidence", decision.Confidence,
		"retrieval_first", decision.RetrievalFirst,
		"parse_tier", tier.String(),
	)
	st.Decision = &decision
	return &decision
}

// keywordFallback synthesizes a decision when the structured parse fails:
// first by salvaging a readable target field out of the malformed reply,
// then by keyword scoring. Tagged low-confidence with the raw text noted.
func (r *Router) keywordFallback(st *core.State, raw string) core.RouterDecision {
	if target := structured.Field(raw, "target"); core.ValidTarget(target) {
		return core.RouterDecision{
			Target:       target,
			Confidence:   0.5,
			Rationale:    "structured parse failed, salvaged target field",
			CleanedQuery: st.Query,
		}
	}

	q := strings.ToLower(st.Query)
	target := core.TargetChat

	switch {
	case hasDeleteLanguage(st.Query) || containsAny(q, "schedule", "plan", "remind", "appointment", "meeting"):
		target = core.TargetScheduler
	case len(st.Documents) > 0 || containsAny(q, "document", "file", "syllabus", "timetable", "pdf", "upload", "slides"):
		target = core.TargetExtractor
	case containsAny(q, "gpa", "grade", "enroll", "course", "credit", "semester"):
		target = core.TargetAcademic
	case containsAny(q, "show", "list", "view", "upcoming", "what's on", "what is on", "my calendar", "my events"):
		target = core.TargetCalendar
	}

	rationale := "structured parse failed, keyword fallback"
	if snippet := strings.TrimSpace(raw); snippet != "" {
		if len(snippet) > 120 {
			snippet = snippet[:120]
		}
		rationale += " (raw: " + snippet + ")"
	}

	return core.RouterDecision{
		Target:       target,
		Confidence:   0.3,
		Rationale:    rationale,
		CleanedQuery: st.Query,
	}
}

// hasDeleteLanguage detects explicit deletion/clearing instructions.
func hasDeleteLanguage(query string) bool {
	return containsAny(strings.ToLower(query), "delete", "remove", "clear", "wipe", "cancel", "erase", "reset my")
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
