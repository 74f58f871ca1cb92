package agent

import (
	"fmt"
	"strings"

	"github.com/chedhq/ched/core"
	"github.com/chedhq/ched/logging"
	"github.com/chedhq/ched/model"
	"github.com/chedhq/ched/retrieval"
	"github.com/chedhq/ched/structured"
	"github.com/chedhq/ched/tool"
)

// truncateBudget is the per-document character budget for direct context
// injection.
const truncateBudget = 5000

const extractPrompt = `You are a document analysis assistant for a student.
Answer the question using the document excerpts provided. Then extract
structured records:
- deadlines: every dated obligation {title, due_date, description}
- tasks: undated action items
- timetable: EVERY recurring class/lab/tutorial row. Recognize
  weekday-plus-time-range table patterns. One entry per class row. Preserve
  course name, weekday, start/end time and location exactly as written.
- events: one-off dated events

Emit an empty list rather than omitting a field when nothing is found.

Respond with JSON only:
{"answer": "...", "deadlines": [...], "tasks": [...], "timetable": [{"course": "...", "weekday": "...", "start_time": "...", "end_time": "...", "location": "..."}], "events": [...]}`

// Extractor synthesizes answers and structured records from attached and
// previously ingested documents.
type Extractor struct {
	model    model.Model
	index    *retrieval.Index
	registry *tool.Registry
	topK     int
	rounds   int
	logger   logging.Logger
}

// ExtractorOption mutates extractor construction.
type ExtractorOption func(*Extractor)

// WithExtractorLogger sets the extractor's logger.
func WithExtractorLogger(l logging.Logger) ExtractorOption {
	return func(e *Extractor) { e.logger = l }
}

// NewExtractor builds the extraction agent. The registry should carry the
// document search tool; the index serves both direct search and background
// ingestion of new attachments.
func NewExtractor(m model.Model, index *retrieval.Index, registry *tool.Registry, opts ...ExtractorOption) *Extractor {
	e := &Extractor{
		model:    m,
		index:    index,
		registry: registry,
		topK:     5,
		rounds:   4,
		logger:   logging.NoOpLogger{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run assembles document context, drives the tool loop and stores the
// extraction result on the state. Failures yield a raw-text fallback.
func (e *Extractor) Run(st *core.State) *core.ExtractionResult {
	// new attachments become searchable in future turns
	if len(st.Documents) > 0 {
		docs := append([]string(nil), st.Documents...)
		namespace := st.UserID
		go func() {
			if err := e.index.Ingest(docs, namespace); err != nil {
				e.logger.Warn("extract.ingest.failed", "error", err.Error())
			}
		}()
	}

	var contextParts []string
	for _, path := range st.Documents {
		text, err := retrieval.LoadText(path)
		if err != nil {
			e.logger.Warn("extract.load.failed", "path", path, "error", err.Error())
			continue
		}
		if runes := []rune(text); len(runes) > truncateBudget {
			text = string(runes[:truncateBudget]) + "\n... [truncated]"
		}
		contextParts = append(contextParts, fmt.Sprintf("--- Attached document: %s ---\n%s", path, text))
	}

	snippets := e.index.Retrieve(st.Query, st.UserID, e.topK)
	for _, s := range snippets {
		contextParts = append(contextParts, fmt.Sprintf("--- From %s (score %.2f) ---\n%s", s.Source, s.Score, s.Content))
	}

	user := st.Query
	if len(contextParts) > 0 {
		user = strings.Join(contextParts, "\n\n") + "\n\nQuestion: " + st.Query
	}

	contents := []core.Content{
		core.SystemText(extractPrompt),
		core.UserText(user),
	}

	loop := &toolLoop{model: e.model, registry: e.registry, maxRounds: e.rounds, logger: e.logger}
	res, err := loop.run(st, contents)
	if err != nil {
		e.logger.Error("extract.failed", "error", err.Error())
		st.Err = err
		fallback := &core.ExtractionResult{
			Answer:    "Could not analyze the documents: " + err.Error(),
			Deadlines: []core.Deadline{},
			Tasks:     []core.Task{},
			Timetable: []core.TimetableEntry{},
			Events:    []core.EventDraft{},
			Snippets:  snippets,
		}
		st.Extraction = fallback
		return fallback
	}

	result, tier := structured.DecodeOr(res.Text, func(raw string) core.ExtractionResult {
		return core.ExtractionResult{
			Answer:    raw,
			Deadlines: []core.Deadline{},
			Tasks:     []core.Task{},
			Timetable: []core.TimetableEntry{},
			Events:    []core.EventDraft{},
		}
	})
	// retrieval diagnostics are appended after generation
	result.Snippets = snippets
	e.logger.Info("extract.done",
		"parse_tier", tier.String(),
		"timetable_rows", len(result.Timetable),
		"deadlines", len(result.Deadlines),
	)
	st.Extraction = &result
	return &result
}
