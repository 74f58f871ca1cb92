package runner

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/chedhq/ched/core"
	"github.com/chedhq/ched/graph"
	"github.com/chedhq/ched/logging"
	"github.com/chedhq/ched/store"
)

// historyLimit is how many recent messages are preloaded into request state.
const historyLimit = 5

// Request is one user query entering the pipeline.
type Request struct {
	Query     string
	UserID    string
	ThreadID  string
	Documents []string
}

// Options holds dependency and configuration overrides passed to New().
type Options struct {
	// ChunkBufferSize sets channel buffering for streamed chunks.
	ChunkBufferSize int
	// Logger receives runner and pipeline logs.
	Logger logging.Logger
}

// Runner coordinates request execution: persists the user message, preloads
// conversation history, drives the orchestration graph, forwards streamed
// chunks, and persists the assistant reply. Public methods are safe for
// concurrent use.
type Runner struct {
	graph *graph.Graph
	chats *store.ChatStore

	chunkBufferSize int
	logger          logging.Logger

	activeRuns map[string]context.CancelFunc
	mu         sync.Mutex
}

// New constructs a Runner over an assembled pipeline graph.
func New(g *graph.Graph, chats *store.ChatStore, optFns ...func(o *Options)) *Runner {
	opts := Options{
		ChunkBufferSize: 64,
		Logger:          logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Runner{
		graph:           g,
		chats:           chats,
		chunkBufferSize: opts.ChunkBufferSize,
		logger:          opts.Logger,
		activeRuns:      map[string]context.CancelFunc{},
	}
}

// StreamQuery runs one request through the graph and streams chunks as they
// are produced. The channel carries zero or more token chunks followed by
// exactly one final chunk, then closes. The returned run id can cancel the
// run.
func (r *Runner) StreamQuery(ctx context.Context, req Request) (<-chan core.Chunk, string, error) {
	if req.Query == "" {
		return nil, "", fmt.Errorf("empty query")
	}
	if req.UserID == "" {
		return nil, "", fmt.Errorf("missing user id")
	}
	if req.ThreadID == "" {
		req.ThreadID = uuid.NewString()
	}
	runID := uuid.NewString()

	history, err := r.chats.History(ctx, req.UserID, req.ThreadID, historyLimit)
	if err != nil {
		r.logger.Warn("runner.history.failed", "error", err.Error())
	}

	if err := r.chats.Save(ctx, &store.ChatMessage{
		UserID:   req.UserID,
		ThreadID: req.ThreadID,
		Role:     core.RoleUser,
		Content:  req.Query,
	}); err != nil {
		return nil, "", err
	}

	runCtx, cancel := context.WithCancel(ctx)
	r.mu.Lock()
	r.activeRuns[runID] = cancel
	r.mu.Unlock()

	ch := make(chan core.Chunk, r.chunkBufferSize)
	st := core.NewState(runCtx, req.Query, req.UserID, req.ThreadID,
		core.WithDocuments(req.Documents),
		core.WithLogger(r.logger),
		core.WithEmit(func(c core.Chunk) {
			select {
			case ch <- c:
			case <-runCtx.Done():
			}
		}),
	)
	for _, msg := range history {
		st.AppendMessage(core.Content{
			Role:  msg.Role,
			Parts: []core.Part{core.TextPart{Text: msg.Content}},
		})
	}

	go func() {
		defer close(ch)
		defer r.finish(runID, cancel)

		if err := r.graph.Run(st); err != nil {
			r.logger.Error("runner.graph.failed", "run_id", runID, "error", err.Error())
			st.Final = "Something went wrong while processing your request. Please try again."
			st.Err = err
		}

		status := "success"
		if st.Err != nil {
			status = "degraded"
		}

		// The reply is persisted before the terminal chunk goes out, so a
		// client that reads its history right after the stream ends sees it.
		if err := r.chats.Save(runCtx, &store.ChatMessage{
			UserID:   req.UserID,
			ThreadID: req.ThreadID,
			Role:     core.RoleAssistant,
			Content:  st.Final,
			Intent:   st.Intent(),
		}); err != nil {
			r.logger.Warn("runner.persist_reply.failed", "error", err.Error())
		}

		st.EmitFinal(st.Final, status)
	}()

	return ch, runID, nil
}

// Query runs a request to completion and returns the final response text.
func (r *Runner) Query(ctx context.Context, req Request) (string, error) {
	ch, _, err := r.StreamQuery(ctx, req)
	if err != nil {
		return "", err
	}
	var final string
	for chunk := range ch {
		if chunk.Kind == core.ChunkFinal {
			final = chunk.Response
		}
	}
	return final, nil
}

// Cancel aborts an in-flight run. Returns false when the run id is unknown
// or already finished.
func (r *Runner) Cancel(runID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	cancel, ok := r.activeRuns[runID]
	if !ok {
		return false
	}
	cancel()
	delete(r.activeRuns, runID)
	return true
}

func (r *Runner) finish(runID string, cancel context.CancelFunc) {
	cancel()
	r.mu.Lock()
	delete(r.activeRuns, runID)
	r.mu.Unlock()
}
