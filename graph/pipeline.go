package graph

import (
	"github.com/chedhq/ched/agent"
	"github.com/chedhq/ched/core"
	"github.com/chedhq/ched/logging"
	"github.com/chedhq/ched/store"
)

// Node names of the assistant pipeline.
const (
	NodeRouter     = "router"
	NodeExtract    = "extract"
	NodeSchedule   = "schedule"
	NodeVerify     = "verify"
	NodeAcademic   = "academic"
	NodeChat       = "chat"
	NodeSynthesize = "synthesize"
)

// Deps bundles the agents and stores the pipeline wires together.
type Deps struct {
	Router    *agent.Router
	Extractor *agent.Extractor
	Scheduler *agent.Scheduler
	Verifier  *agent.Verifier
	Academic  *agent.Academic
	Chat      *agent.Chat
	Events    *store.EventStore
	Logger    logging.Logger
}

// NewPipeline assembles the assistant's orchestration graph:
//
//	router -> extract | schedule | academic | chat | synthesize
//	router(scheduler + retrieval-first) -> extract -> schedule
//	extract -> schedule (scheduling intent) | synthesize
//	schedule -> verify -> synthesize
//	academic -> synthesize; chat -> synthesize; synthesize -> End
//
// The read-only calendar path bypasses all agents and goes straight to
// synthesis.
func NewPipeline(d Deps) *Graph {
	logger := d.Logger
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	synth := NewSynthesizer(d.Events, logger)

	g := New(WithLogger(logger))

	g.AddNode(NodeRouter, func(st *core.State) error {
		d.Router.Route(st)
		return nil
	})
	g.AddConditional(NodeRouter, func(st *core.State) string {
		decision := st.Decision
		switch decision.Target {
		case core.TargetExtractor:
			return NodeExtract
		case core.TargetScheduler:
			if decision.RetrievalFirst {
				return NodeExtract
			}
			return NodeSchedule
		case core.TargetAcademic:
			return NodeAcademic
		case core.TargetCalendar:
			return NodeSynthesize
		default:
			return NodeChat
		}
	})

	g.AddNode(NodeExtract, func(st *core.State) error {
		d.Extractor.Run(st)
		return nil
	})
	g.AddConditional(NodeExtract, func(st *core.State) string {
		if st.Intent() == core.TargetScheduler {
			return NodeSchedule
		}
		return NodeSynthesize
	})

	g.AddNode(NodeSchedule, func(st *core.State) error {
		loadSnapshot(st, d.Events, logger)
		d.Scheduler.Run(st)
		return nil
	})
	g.AddEdge(NodeSchedule, NodeVerify)

	g.AddNode(NodeVerify, func(st *core.State) error {
		d.Verifier.Verify(st)
		return nil
	})
	g.AddEdge(NodeVerify, NodeSynthesize)

	g.AddNode(NodeAcademic, func(st *core.State) error {
		d.Academic.Run(st)
		return nil
	})
	g.AddEdge(NodeAcademic, NodeSynthesize)

	g.AddNode(NodeChat, func(st *core.State) error {
		d.Chat.Run(st)
		return nil
	})
	g.AddEdge(NodeChat, NodeSynthesize)

	g.AddNode(NodeSynthesize, func(st *core.State) error {
		synth.Run(st)
		return nil
	})
	g.AddEdge(NodeSynthesize, End)

	g.SetEntry(NodeRouter)
	return g
}

// loadSnapshot fills the state's event snapshot for conflict checks.
func loadSnapshot(st *core.State, events *store.EventStore, logger logging.Logger) {
	if events == nil || len(st.Events) > 0 {
		return
	}
	evs, err := events.Upcoming(st.Context, st.UserID, 25)
	if err != nil {
		logger.Warn("pipeline.snapshot.failed", "error", err.Error())
		return
	}
	for _, ev := range evs {
		st.Events = append(st.Events, core.EventSnapshot{
			ID:          ev.ID,
			Title:       ev.Title,
			StartTime:   ev.StartTime,
			EndTime:     ev.EndTime,
			Priority:    ev.Priority,
			Category:    ev.Category,
			Description: ev.Description,
		})
	}
}
