package agent

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/chedhq/ched/core"
	"github.com/chedhq/ched/logging"
	"github.com/chedhq/ched/model"
	"github.com/chedhq/ched/structured"
	"github.com/chedhq/ched/tool"
)

const schedulePrompt = `You are a scheduling assistant managing a student's calendar with tools.
Today is %s (%s).

Weekday reference for the next 14 days (always pick the FIRST upcoming
occurrence of a named weekday):
%s

Rules:
- A request to clear/wipe/reset the ENTIRE schedule must be exactly one
  clear_full_calendar call. No reads or searches first.
- When scheduling from timetable data, issue one add_event call per timetable
  row. Never batch multiple classes into one event.
- When the request is a deletion or a search, do NOT re-add timetable rows.
- Use ISO-8601 timestamps (YYYY-MM-DDTHH:MM:SS).

When the calendar work is done, respond with JSON only:
{"proposed_events": [...], "modified_events": [...], "deletions": [...], "rationale": "...", "conflicts": [...], "optimizations": [...]}
proposed_events entries: {"title","start_time","end_time","priority","category","description"}.
List only events you did NOT already add with tools in proposed_events.`

// Scheduler plans and executes calendar mutations through the bounded tool
// loop, then reports a structured proposal.
type Scheduler struct {
	model    model.Model
	registry *tool.Registry
	rounds   int
	logger   logging.Logger
}

// SchedulerOption mutates scheduler construction.
type SchedulerOption func(*Scheduler)

// WithSchedulerLogger sets the scheduler's logger.
func WithSchedulerLogger(l logging.Logger) SchedulerOption {
	return func(s *Scheduler) { s.logger = l }
}

// NewScheduler builds the scheduling agent over the calendar tool registry.
func NewScheduler(m model.Model, registry *tool.Registry, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{model: m, registry: registry, rounds: 6, logger: logging.NoOpLogger{}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run drives the scheduling tool loop and stores the proposal on the state.
// Model failures yield a rationale-only fallback proposal.
func (s *Scheduler) Run(st *core.State) *core.Proposal {
	now := time.Now()
	prompt := fmt.Sprintf(schedulePrompt,
		now.Format("2006-01-02"),
		now.Weekday(),
		weekdayTable(now, 14),
	)

	user := st.Query
	if st.Decision != nil && st.Decision.CleanedQuery != "" {
		user = st.Decision.CleanedQuery
	}
	if st.Extraction != nil {
		if ctx := extractionContext(st.Extraction); ctx != "" {
			user += "\n\nExtracted from the user's documents:\n" + ctx
		}
	}

	contents := []core.Content{
		core.SystemText(prompt),
		core.UserText(user),
	}

	loop := &toolLoop{model: s.model, registry: s.registry, maxRounds: s.rounds, logger: s.logger}
	res, err := loop.run(st, contents)
	if err != nil {
		s.logger.Error("scheduler.failed", "error", err.Error())
		st.Err = err
		fallback := &core.Proposal{Rationale: "Scheduling failed: " + err.Error()}
		st.Proposal = fallback
		return fallback
	}

	proposal, tier := structured.DecodeOr(res.Text, func(raw string) core.Proposal {
		return core.Proposal{Rationale: raw}
	})
	proposal.Actions = res.Actions
	s.logger.Info("scheduler.done",
		"parse_tier", tier.String(),
		"rounds", res.Rounds,
		"actions", len(res.Actions),
		"proposed", len(proposal.ProposedEvents),
	)
	st.Proposal = &proposal
	return &proposal
}

// weekdayTable renders a rolling weekday-to-date lookup so natural-language
// weekday references resolve to absolute dates.
func weekdayTable(from time.Time, days int) string {
	var b strings.Builder
	for i := 0; i < days; i++ {
		d := from.AddDate(0, 0, i)
		fmt.Fprintf(&b, "%-9s -> %s\n", d.Weekday(), d.Format("2006-01-02"))
	}
	return b.String()
}

// extractionContext renders the document extraction's structured records for
// the scheduler's prompt.
func extractionContext(ex *core.ExtractionResult) string {
	var parts []string
	if len(ex.Timetable) > 0 {
		raw, err := json.Marshal(ex.Timetable)
		if err == nil {
			parts = append(parts, "timetable: "+string(raw))
		}
	}
	if len(ex.Deadlines) > 0 {
		raw, err := json.Marshal(ex.Deadlines)
		if err == nil {
			parts = append(parts, "deadlines: "+string(raw))
		}
	}
	if len(ex.Events) > 0 {
		raw, err := json.Marshal(ex.Events)
		if err == nil {
			parts = append(parts, "events: "+string(raw))
		}
	}
	return strings.Join(parts, "\n")
}
