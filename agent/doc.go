// Package agent implements the specialized handlers a request can be routed
// to: the Router classifier, the document Extractor, the Scheduler, the
// Verifier, the Academic planner and the conversational Chat fallback.
//
// Every agent operation is total: any model, parse or tool failure is
// converted into a best-effort fallback value at the agent's boundary and
// recorded on the request state, never propagated to the caller.
package agent
