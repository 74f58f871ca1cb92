package graph

import (
	"fmt"
	"strings"

	"github.com/chedhq/ched/core"
	"github.com/chedhq/ched/logging"
	"github.com/chedhq/ched/store"
)

// Synthesizer is the deterministic merge node. It formats whichever agent
// output is populated into the final user-facing reply; it never calls a
// model.
type Synthesizer struct {
	events *store.EventStore
	logger logging.Logger
}

// NewSynthesizer builds the merge node. The event store backs the fresh read
// on the calendar path when no snapshot was loaded.
func NewSynthesizer(events *store.EventStore, logger logging.Logger) *Synthesizer {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Synthesizer{events: events, logger: logger}
}

// Run assembles the final response for the routed intent, stores it on the
// state and appends it to the conversation history.
func (s *Synthesizer) Run(st *core.State) {
	var text string
	switch st.Intent() {
	case core.TargetAcademic:
		text = s.academicText(st)
	case core.TargetExtractor:
		text = s.extractionText(st)
	case core.TargetScheduler:
		text = s.scheduleText(st)
	case core.TargetCalendar:
		text = s.calendarText(st)
	default:
		text = s.chatText(st)
	}
	if strings.TrimSpace(text) == "" {
		text = "I need a bit more detail to help with that. Could you rephrase your request?"
	}

	st.Final = text
	st.AppendMessage(core.AssistantText(text))
	s.logger.Debug("synthesize.done", "intent", st.Intent(), "chars", len(text))
}

func (s *Synthesizer) academicText(st *core.State) string {
	r := st.Academic
	if r == nil {
		return ""
	}
	if r.DirectAnswer != "" {
		return r.DirectAnswer
	}

	var b strings.Builder
	b.WriteString("Academic Plan\n")
	fmt.Fprintf(&b, "- Current GPA: %.2f\n", r.CurrentGPA)
	if r.TargetGPA > 0 {
		fmt.Fprintf(&b, "- Target GPA: %.2f\n", r.TargetGPA)
	}
	if r.Feasibility != "" {
		fmt.Fprintf(&b, "- Feasibility: %s\n", r.Feasibility)
	}
	if len(r.GradePaths) > 0 {
		b.WriteString("\nSuggested grade paths:\n")
		for _, p := range r.GradePaths {
			fmt.Fprintf(&b, "- %s\n", p)
		}
	}
	if r.Rationale != "" {
		b.WriteString("\n" + r.Rationale)
	}
	return b.String()
}

func (s *Synthesizer) extractionText(st *core.State) string {
	r := st.Extraction
	if r == nil {
		return ""
	}

	var b strings.Builder
	if r.Answer != "" {
		b.WriteString(r.Answer)
	}
	if len(r.Deadlines) > 0 {
		b.WriteString("\n\nDeadlines:\n")
		for _, d := range r.Deadlines {
			fmt.Fprintf(&b, "- %s (due %s)", d.Title, d.DueDate)
			if d.Description != "" {
				fmt.Fprintf(&b, ": %s", d.Description)
			}
			b.WriteString("\n")
		}
	}
	if len(r.Tasks) > 0 {
		b.WriteString("\nTasks:\n")
		for _, t := range r.Tasks {
			fmt.Fprintf(&b, "- %s", t.Title)
			if t.DueDate != "" {
				fmt.Fprintf(&b, " (due %s)", t.DueDate)
			}
			b.WriteString("\n")
		}
	}
	if len(r.Timetable) > 0 {
		b.WriteString("\nTimetable:\n")
		for _, row := range r.Timetable {
			fmt.Fprintf(&b, "- %s: %s %s-%s", row.Course, row.Weekday, row.StartTime, row.EndTime)
			if row.Location != "" {
				fmt.Fprintf(&b, " @ %s", row.Location)
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (s *Synthesizer) scheduleText(st *core.State) string {
	p := st.Proposal
	if p == nil {
		return ""
	}

	var b strings.Builder
	if p.Rationale != "" {
		b.WriteString(p.Rationale)
	}
	if len(p.Actions) > 0 {
		b.WriteString("\n\nDone:\n")
		for _, a := range p.Actions {
			fmt.Fprintf(&b, "- %s\n", a)
		}
	}

	// Approved events the tool loop did not already persist are surfaced so
	// the user can confirm them.
	if v := st.Verification; v != nil {
		if pending := unexecuted(v.ApprovedEvents, p.Actions); len(pending) > 0 {
			b.WriteString("\nProposed (awaiting your confirmation):\n")
			for _, ev := range pending {
				fmt.Fprintf(&b, "- %s at %s\n", ev.Title, ev.StartTime)
			}
		}
		for _, rej := range v.RejectedEvents {
			fmt.Fprintf(&b, "\nSkipped %q: %s", rej.Event.Title, rej.Reason)
		}
		for _, w := range v.Warnings {
			fmt.Fprintf(&b, "\nNote: %s", w)
		}
	}
	return b.String()
}

// unexecuted filters approved drafts whose title already shows up in an
// executed tool action line.
func unexecuted(approved []core.EventDraft, actions []string) []core.EventDraft {
	var out []core.EventDraft
	for _, ev := range approved {
		done := false
		for _, a := range actions {
			if ev.Title != "" && strings.Contains(a, ev.Title) {
				done = true
				break
			}
		}
		if !done {
			out = append(out, ev)
		}
	}
	return out
}

func (s *Synthesizer) calendarText(st *core.State) string {
	snapshot := st.Events
	if len(snapshot) == 0 && s.events != nil {
		evs, err := s.events.Upcoming(st.Context, st.UserID, 20)
		if err != nil {
			s.logger.Warn("synthesize.calendar_read.failed", "error", err.Error())
			return "I couldn't read your calendar right now. Please try again."
		}
		for _, ev := range evs {
			snapshot = append(snapshot, core.EventSnapshot{
				ID:        ev.ID,
				Title:     ev.Title,
				StartTime: ev.StartTime,
				EndTime:   ev.EndTime,
				Priority:  ev.Priority,
				Category:  ev.Category,
			})
		}
	}
	if len(snapshot) == 0 {
		return "Your calendar is clear. No upcoming events."
	}

	var b strings.Builder
	b.WriteString("Upcoming events:\n")
	for _, ev := range snapshot {
		fmt.Fprintf(&b, "- %s at %s", ev.Title, ev.StartTime)
		if ev.Category != "" {
			fmt.Fprintf(&b, " [%s]", ev.Category)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (s *Synthesizer) chatText(st *core.State) string {
	r := st.Chat
	if r == nil {
		return ""
	}
	text := r.Response
	if len(r.Suggestions) > 0 {
		text += "\n\nYou could also ask:\n"
		for _, sug := range r.Suggestions {
			text += "- " + sug + "\n"
		}
	}
	return text
}
