package agent

import (
	"github.com/chedhq/ched/core"
	"github.com/chedhq/ched/logging"
	"github.com/chedhq/ched/model"
	"github.com/chedhq/ched/structured"
	"github.com/chedhq/ched/tool"
)

const academicPrompt = `You are an academic planning assistant with tools for
course catalog lookup, enrollment management and academic history.

Use the tools to answer enrollment requests and GPA questions. For grade
planning, compute what grade points are needed to reach the target GPA given
the recorded history.

If a tool result already answers the question directly, put that answer in
direct_answer and leave the report fields zeroed.

Respond with JSON only:
{"direct_answer": "...", "current_gpa": 0.0, "target_gpa": 0.0, "feasibility": "...", "grade_paths": [...], "rationale": "..."}`

// Academic handles enrollment management and GPA strategy through the
// bounded tool loop.
type Academic struct {
	model    model.Model
	registry *tool.Registry
	rounds   int
	logger   logging.Logger
}

// AcademicOption mutates academic agent construction.
type AcademicOption func(*Academic)

// WithAcademicLogger sets the academic agent's logger.
func WithAcademicLogger(l logging.Logger) AcademicOption {
	return func(a *Academic) { a.logger = l }
}

// NewAcademic builds the academic planning agent over the course tool
// registry.
func NewAcademic(m model.Model, registry *tool.Registry, opts ...AcademicOption) *Academic {
	a := &Academic{model: m, registry: registry, rounds: 5, logger: logging.NoOpLogger{}}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run drives the academic tool loop and stores the reply on the state.
// Total: failures yield a direct-answer fallback carrying the error text.
func (a *Academic) Run(st *core.State) *core.AcademicReply {
	contents := []core.Content{
		core.SystemText(academicPrompt),
		core.UserText(st.Query),
	}

	loop := &toolLoop{model: a.model, registry: a.registry, maxRounds: a.rounds, logger: a.logger}
	res, err := loop.run(st, contents)
	if err != nil {
		a.logger.Error("academic.failed", "error", err.Error())
		st.Err = err
		fallback := &core.AcademicReply{DirectAnswer: "Could not complete the academic request: " + err.Error()}
		st.Academic = fallback
		return fallback
	}

	reply, tier := structured.DecodeOr(res.Text, func(raw string) core.AcademicReply {
		return core.AcademicReply{DirectAnswer: raw}
	})
	a.logger.Info("academic.done", "parse_tier", tier.String(), "rounds", res.Rounds)
	st.Academic = &reply
	return &reply
}
