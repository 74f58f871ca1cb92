// Package tool implements the function / tool calling subsystem that lets agents
// invoke structured capabilities (calendar CRUD, enrollment, document search)
// with schema validated arguments, consistent error handling and an explicit
// idempotency class per binding.
package tool

import (
	"fmt"

	"github.com/chedhq/ched/core"
	"github.com/chedhq/ched/internal/util"
)

// Tool is one capability an agent can invoke. A call is a synchronous
// request/response with no side-channel state: the tool sees the caller's
// user/thread scope through the ToolContext and nothing else, which is what
// keeps every calendar and enrollment mutation scoped to the requesting user.
type Tool interface {
	// Name is the snake_case identifier the model calls the tool by.
	Name() string

	// Description tells the model when to pick this tool.
	Description() string

	// Parameters is the JSON schema of the argument object. Calls are
	// validated against it before execution.
	Parameters() map[string]interface{}

	// Call runs the tool with validated arguments.
	Call(toolCtx *core.ToolContext, args map[string]interface{}) (interface{}, error)
}

// ValidationError reports an argument that failed schema validation.
type ValidationError = util.ValidationError

// ToolError is a failed tool execution, coded so callers can distinguish bad
// arguments from runtime failures from unknown tool names.
type ToolError struct {
	Tool    string      `json:"tool"`
	Message string      `json:"message"`
	Code    string      `json:"code"`
	Details interface{} `json:"details,omitempty"`
}

func (e *ToolError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

// NewToolError creates a new ToolError with the specified details.
func NewToolError(tool, message, code string) *ToolError {
	return &ToolError{
		Tool:    tool,
		Message: message,
		Code:    code,
	}
}
