package agent

import (
	"encoding/json"
	"fmt"

	"github.com/chedhq/ched/core"
	"github.com/chedhq/ched/logging"
	"github.com/chedhq/ched/model"
	"github.com/chedhq/ched/structured"
)

// snapshotCap bounds how many existing events are shown to the verifier.
const snapshotCap = 10

const verifyPrompt = `You verify proposed calendar changes for a student.
Check the proposal against the existing events for:
- time conflicts with existing events
- unrealistic durations (multi-day classes, zero-length events)
- missing required fields (title, start time)
- logical inversions (end before start, dates in the past)

Respond with JSON only:
{"is_valid": true, "conflicts": [...], "warnings": [...], "approved_events": [...], "approved_deletions": [...], "rejected_events": [{"event": {...}, "reason": "..."}], "notes": "..."}
approved_events must contain every proposed event you do not reject.`

// Verifier checks scheduling proposals against a snapshot of existing
// events. Fail-open: any failure to obtain or parse a verdict approves the
// original proposal in full, with the reason surfaced as a warning.
type Verifier struct {
	model  model.Model
	logger logging.Logger
}

// VerifierOption mutates verifier construction.
type VerifierOption func(*Verifier)

// WithVerifierLogger sets the verifier's logger.
func WithVerifierLogger(l logging.Logger) VerifierOption {
	return func(v *Verifier) { v.logger = l }
}

// NewVerifier builds the verification agent.
func NewVerifier(m model.Model, opts ...VerifierOption) *Verifier {
	v := &Verifier{model: m, logger: logging.NoOpLogger{}}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Verify stores a verification verdict for the state's proposal. An empty
// proposal short-circuits to valid without a model call.
func (v *Verifier) Verify(st *core.State) *core.Verification {
	if st.Proposal.Empty() {
		verdict := &core.Verification{IsValid: true, Notes: "no changes proposed"}
		st.Verification = verdict
		return verdict
	}

	snapshot := st.Events
	if len(snapshot) > snapshotCap {
		snapshot = snapshot[:snapshotCap]
	}

	proposalJSON, err := json.Marshal(st.Proposal)
	if err != nil {
		return v.failOpen(st, "could not serialize proposal: "+err.Error())
	}
	snapshotJSON, err := json.Marshal(snapshot)
	if err != nil {
		snapshotJSON = []byte("[]")
	}

	contents := []core.Content{
		core.SystemText(verifyPrompt),
		core.UserText(fmt.Sprintf("Proposal:\n%s\n\nExisting events (sample):\n%s", proposalJSON, snapshotJSON)),
	}

	resp, err := generate(st.Context, v.model, model.Request{Contents: contents}, nil)
	if err != nil {
		return v.failOpen(st, "verification call failed: "+err.Error())
	}

	var verdict core.Verification
	if _, err := structured.Decode(resp.Text(), &verdict); err != nil {
		return v.failOpen(st, "verification output unparseable: "+err.Error())
	}

	v.logger.Info("verifier.done",
		"is_valid", verdict.IsValid,
		"approved", len(verdict.ApprovedEvents),
		"rejected", len(verdict.RejectedEvents),
	)
	st.Verification = &verdict
	return &verdict
}

// failOpen approves the full proposal, recording reason as a warning only.
func (v *Verifier) failOpen(st *core.State, reason string) *core.Verification {
	v.logger.Warn("verifier.fail_open", "reason", reason)
	verdict := core.ApproveAll(st.Proposal, reason)
	st.Verification = verdict
	return verdict
}
