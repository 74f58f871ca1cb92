// Package runner executes one user query end to end: it persists the user
// message, preloads recent conversation history, drives the orchestration
// graph, streams chunks to the caller, and persists the assistant reply.
package runner
