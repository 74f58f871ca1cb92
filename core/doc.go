// Package core defines the shared primitives of the assistant: role-based
// content parts, per-request state threaded through the orchestration graph,
// the structured outputs each agent produces, streaming chunks, and the
// constrained tool invocation context.
package core
