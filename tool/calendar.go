package tool

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/chedhq/ched/core"
	"github.com/chedhq/ched/store"
)

// argString reads an optional string argument.
func argString(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}

// argInt64 reads an integer argument regardless of JSON number decoding.
func argInt64(args map[string]any, key string) (int64, bool) {
	switch v := args[key].(type) {
	case float64:
		return int64(v), true
	case int64:
		return v, true
	case int:
		return int64(v), true
	case json.Number:
		n, err := v.Int64()
		return n, err == nil
	}
	return 0, false
}

// eventSource picks the source tag for agent-created events: the thread id
// when present, so thread deletion can cascade to the events it produced.
func eventSource(tc *core.ToolContext) string {
	if tid := tc.ThreadID(); tid != "" {
		return tid
	}
	return "agent"
}

type addEventArgs struct {
	Title       string `json:"title" description:"Event title"`
	StartTime   string `json:"start_time" description:"ISO-8601 start timestamp, e.g. 2026-09-01T10:00:00"`
	EndTime     string `json:"end_time,omitempty" description:"ISO-8601 end timestamp"`
	Priority    string `json:"priority,omitempty" description:"Event priority" enum:"High,Medium,Low"`
	Category    string `json:"category,omitempty" description:"Event category, e.g. Academic, Personal"`
	Description string `json:"description,omitempty" description:"Free-text details"`
}

type updateEventArgs struct {
	EventID     int64  `json:"event_id" description:"Identifier of the event to update"`
	Title       string `json:"title,omitempty" description:"New title"`
	StartTime   string `json:"start_time,omitempty" description:"New ISO-8601 start timestamp"`
	EndTime     string `json:"end_time,omitempty" description:"New ISO-8601 end timestamp"`
	Priority    string `json:"priority,omitempty" description:"New priority" enum:"High,Medium,Low"`
	Category    string `json:"category,omitempty" description:"New category"`
	Description string `json:"description,omitempty" description:"New description"`
}

type deleteEventArgs struct {
	EventID int64 `json:"event_id" description:"Identifier of the event to delete"`
}

type deleteByDateArgs struct {
	Date string `json:"date" description:"Calendar date YYYY-MM-DD"`
}

type searchCalendarArgs struct {
	Query string `json:"query" description:"Free text or a YYYY-MM-DD date to match"`
}

type listEventsArgs struct {
	Limit int64 `json:"limit,omitempty" description:"Maximum events to return (default 20)"`
}

// RegisterDateTool binds the date-resolution capability. Every agent role
// carries it.
func RegisterDateTool(r *Registry) {
	r.RegisterReadOnly(NewFunctionTool(
		"get_current_date",
		"Get today's date and weekday",
		map[string]any{"type": "object", "properties": map[string]any{}},
		func(tc *core.ToolContext, _ map[string]any) (any, error) {
			now := time.Now()
			return fmt.Sprintf("Today is %s, %s", now.Weekday(), now.Format("2006-01-02")), nil
		},
	))
}

// RegisterCalendarTools binds the date and calendar capabilities onto the
// registry with their idempotency classes.
func RegisterCalendarTools(r *Registry, events *store.EventStore) {
	RegisterDateTool(r)

	r.RegisterReadOnly(NewFunctionToolFromStruct(
		"list_calendar_events",
		"List the user's upcoming calendar events, soonest first",
		listEventsArgs{},
		func(tc *core.ToolContext, args map[string]any) (any, error) {
			limit, ok := argInt64(args, "limit")
			if !ok || limit <= 0 {
				limit = 20
			}
			evs, err := events.Upcoming(tc.Context(), tc.UserID(), int(limit))
			if err != nil {
				return nil, err
			}
			return formatEvents(evs), nil
		},
	))

	r.RegisterReadOnly(NewFunctionToolFromStruct(
		"search_calendar",
		"Search calendar events by text or date",
		searchCalendarArgs{},
		func(tc *core.ToolContext, args map[string]any) (any, error) {
			evs, err := events.Search(tc.Context(), tc.UserID(), argString(args, "query"))
			if err != nil {
				return nil, err
			}
			if len(evs) == 0 {
				return "No matching events found.", nil
			}
			return formatEvents(evs), nil
		},
	))

	r.RegisterMutating(NewFunctionToolFromStruct(
		"add_event",
		"Add one event to the user's calendar. Call once per event.",
		addEventArgs{},
		func(tc *core.ToolContext, args map[string]any) (any, error) {
			ev := &store.ScheduleEvent{
				UserID:      tc.UserID(),
				Title:       argString(args, "title"),
				StartTime:   argString(args, "start_time"),
				EndTime:     argString(args, "end_time"),
				Priority:    argString(args, "priority"),
				Category:    argString(args, "category"),
				Description: argString(args, "description"),
				Source:      eventSource(tc),
			}
			id, added, err := events.Add(tc.Context(), ev)
			if err != nil {
				return nil, err
			}
			if !added {
				return fmt.Sprintf("Event %q at %s already exists, not added.", ev.Title, ev.StartTime), nil
			}
			return fmt.Sprintf("Added event %q (id %d) starting %s.", ev.Title, id, ev.StartTime), nil
		},
	))

	r.RegisterMutating(NewFunctionToolFromStruct(
		"update_calendar_event",
		"Update fields of an existing calendar event by id",
		updateEventArgs{},
		func(tc *core.ToolContext, args map[string]any) (any, error) {
			id, ok := argInt64(args, "event_id")
			if !ok {
				return nil, NewToolError("update_calendar_event", "event_id is required", "VALIDATION_ERROR")
			}
			fields := map[string]any{}
			for _, k := range []string{"title", "start_time", "end_time", "priority", "category", "description"} {
				if v := argString(args, k); v != "" {
					fields[k] = v
				}
			}
			ok, err := events.Update(tc.Context(), tc.UserID(), id, fields)
			if err != nil {
				return nil, err
			}
			if !ok {
				return fmt.Sprintf("No event with id %d found.", id), nil
			}
			return fmt.Sprintf("Updated event %d.", id), nil
		},
	))

	r.RegisterMutating(NewFunctionToolFromStruct(
		"delete_calendar_event",
		"Delete one calendar event by id",
		deleteEventArgs{},
		func(tc *core.ToolContext, args map[string]any) (any, error) {
			id, ok := argInt64(args, "event_id")
			if !ok {
				return nil, NewToolError("delete_calendar_event", "event_id is required", "VALIDATION_ERROR")
			}
			ok, err := events.Delete(tc.Context(), tc.UserID(), id)
			if err != nil {
				return nil, err
			}
			if !ok {
				return fmt.Sprintf("No event with id %d found.", id), nil
			}
			return fmt.Sprintf("Deleted event %d.", id), nil
		},
	))

	r.RegisterMutating(NewFunctionToolFromStruct(
		"delete_events_on_date",
		"Delete every event on a calendar date",
		deleteByDateArgs{},
		func(tc *core.ToolContext, args map[string]any) (any, error) {
			date := argString(args, "date")
			n, err := events.DeleteByDate(tc.Context(), tc.UserID(), date)
			if err != nil {
				return nil, err
			}
			return fmt.Sprintf("Deleted %d event(s) on %s.", n, date), nil
		},
	))

	r.RegisterMutating(NewFunctionTool(
		"clear_full_calendar",
		"Wipe the user's entire calendar. Use for clear/reset/start-over requests.",
		map[string]any{"type": "object", "properties": map[string]any{}},
		func(tc *core.ToolContext, _ map[string]any) (any, error) {
			n, err := events.ClearAll(tc.Context(), tc.UserID())
			if err != nil {
				return nil, err
			}
			return fmt.Sprintf("Cleared the calendar, removed %d event(s).", n), nil
		},
	))
}

// formatEvents renders events as one line each for model consumption.
func formatEvents(evs []store.ScheduleEvent) string {
	if len(evs) == 0 {
		return "The calendar is empty."
	}
	out := fmt.Sprintf("%d event(s):\n", len(evs))
	for _, ev := range evs {
		out += fmt.Sprintf("- [%d] %s | %s to %s | %s | %s\n",
			ev.ID, ev.Title, ev.StartTime, ev.EndTime, ev.Priority, ev.Category)
	}
	return out
}
