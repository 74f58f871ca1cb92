package core

import (
	"context"

	"github.com/chedhq/ched/logging"
)

// ChunkKind discriminates streamed chunk types.
type ChunkKind string

const (
	// ChunkToken carries an incremental text delta.
	ChunkToken ChunkKind = "token"
	// ChunkFinal carries the complete assembled response and a status marker.
	ChunkFinal ChunkKind = "final"
)

// Chunk is one client-visible streaming unit. Token chunks populate Content;
// the single terminal chunk populates Response and Status.
type Chunk struct {
	Kind     ChunkKind `json:"type"`
	Content  string    `json:"content,omitempty"`
	Response string    `json:"response,omitempty"`
	Status   string    `json:"status,omitempty"`
}

// State is the unit of work flowing through the orchestration graph. It is
// created once per request and passed by pointer through every node; exactly
// one node owns it at a time.
type State struct {
	Context   context.Context
	Query     string
	UserID    string
	ThreadID  string
	Documents []string // attached file paths

	// Per-stage output slots, filled by the owning node.
	Decision     *RouterDecision
	Extraction   *ExtractionResult
	Proposal     *Proposal
	Verification *Verification
	Chat         *ChatReply
	Academic     *AcademicReply

	// Events is a snapshot of the user's upcoming events, loaded for
	// conflict checks and calendar-read synthesis.
	Events []EventSnapshot

	// Messages accumulates the conversation contents built up during the run.
	Messages []Content

	// Final holds the synthesized user-facing reply.
	Final string

	// Err marks a degraded run. It is logged, never surfaced as a failure.
	Err error

	emit func(Chunk)

	*loggerAdapter
}

// StateOption mutates state construction.
type StateOption func(*State)

// WithDocuments attaches document file paths to the request.
func WithDocuments(paths []string) StateOption {
	return func(s *State) { s.Documents = paths }
}

// WithEmit sets the streaming callback invoked for each chunk.
func WithEmit(emit func(Chunk)) StateOption {
	return func(s *State) { s.emit = emit }
}

// WithLogger sets the request logger.
func WithLogger(l logging.Logger) StateOption {
	return func(s *State) { s.loggerAdapter = newLoggerAdapter(l) }
}

// NewState creates request state for one query.
func NewState(ctx context.Context, query, userID, threadID string, opts ...StateOption) *State {
	if ctx == nil {
		ctx = context.Background()
	}
	s := &State{
		Context:       ctx,
		Query:         query,
		UserID:        userID,
		ThreadID:      threadID,
		loggerAdapter: newLoggerAdapter(nil),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EmitToken streams an incremental text delta when a callback is configured.
func (s *State) EmitToken(text string) {
	if s.emit == nil || text == "" {
		return
	}
	s.emit(Chunk{Kind: ChunkToken, Content: text})
}

// EmitFinal streams the terminal chunk.
func (s *State) EmitFinal(response, status string) {
	if s.emit == nil {
		return
	}
	s.emit(Chunk{Kind: ChunkFinal, Response: response, Status: status})
}

// AppendMessage adds a content entry to the accumulated history.
func (s *State) AppendMessage(c Content) {
	s.Messages = append(s.Messages, c)
}

// Intent returns the routed target, defaulting to chat before routing ran.
func (s *State) Intent() string {
	if s.Decision == nil {
		return TargetChat
	}
	return s.Decision.Target
}
