package core

import (
	"context"
	"fmt"

	"github.com/chedhq/ched/logging"
)

// ToolContext provides a constrained, auditable surface for tool / function
// implementations invoked by an agent. Tools see the caller's user and thread
// scope plus a logger, nothing else.
type ToolContext struct {
	ctx            context.Context
	userID         string
	threadID       string
	functionCallID string

	*loggerAdapter
}

// NewToolContext constructs a tool context bound to a request's user/thread
// scope and a unique functionCallID.
func NewToolContext(ctx context.Context, userID, threadID, functionCallID string, logger logging.Logger) *ToolContext {
	if ctx == nil {
		ctx = context.Background()
	}
	return &ToolContext{
		ctx:            ctx,
		userID:         userID,
		threadID:       threadID,
		functionCallID: functionCallID,
		loggerAdapter:  newLoggerAdapter(logger),
	}
}

// Context returns the context associated with the tool invocation.
func (tc *ToolContext) Context() context.Context { return tc.ctx }

// UserID returns the user scope of the invocation.
func (tc *ToolContext) UserID() string { return tc.userID }

// ThreadID returns the conversation thread scope of the invocation.
func (tc *ToolContext) ThreadID() string { return tc.threadID }

// FunctionCallID returns the function call ID associated with the tool invocation.
func (tc *ToolContext) FunctionCallID() string { return tc.functionCallID }

// Logger returns the logger associated with the tool invocation.
func (tc *ToolContext) Logger() logging.Logger { return tc.loggerAdapter.Logger() }

// Validate performs a structural sanity check of the context.
func (tc *ToolContext) Validate() error {
	if tc.userID == "" || tc.functionCallID == "" {
		return fmt.Errorf("invalid ToolContext")
	}
	return nil
}
