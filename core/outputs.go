package core

// Routing targets form a closed set. The router must pick one of these; an
// out-of-set value is coerced to TargetChat during normalization.
const (
	// TargetExtractor routes to the document extraction agent.
	TargetExtractor = "extractor"
	// TargetScheduler routes to the calendar mutation agent.
	TargetScheduler = "scheduler"
	// TargetCalendar routes to the read-only calendar path (straight to synthesis).
	TargetCalendar = "calendar"
	// TargetAcademic routes to the academic planning agent.
	TargetAcademic = "academic"
	// TargetChat routes to the conversational fallback agent.
	TargetChat = "chat"
)

// ValidTarget reports whether t is one of the enumerated routing targets.
func ValidTarget(t string) bool {
	switch t {
	case TargetExtractor, TargetScheduler, TargetCalendar, TargetAcademic, TargetChat:
		return true
	}
	return false
}

// RouterDecision is the router's structured classification of a query.
type RouterDecision struct {
	Target         string  `json:"target"`
	Confidence     float64 `json:"confidence"`
	RetrievalFirst bool    `json:"retrieval_first"`
	Rationale      string  `json:"rationale"`
	CleanedQuery   string  `json:"cleaned_query"`
}

// Normalize clamps the confidence into [0,1] and coerces an out-of-set
// target to chat.
func (d *RouterDecision) Normalize() {
	if !ValidTarget(d.Target) {
		d.Rationale = "unknown target '" + d.Target + "', defaulting to chat. " + d.Rationale
		d.Target = TargetChat
	}
	if d.Confidence < 0 {
		d.Confidence = 0
	}
	if d.Confidence > 1 {
		d.Confidence = 1
	}
}

// Deadline is a dated obligation pulled out of document text.
type Deadline struct {
	Title       string `json:"title"`
	DueDate     string `json:"due_date"`
	Description string `json:"description"`
}

// Task is an undated action item pulled out of document text.
type Task struct {
	Title       string `json:"title"`
	DueDate     string `json:"due_date,omitempty"`
	Description string `json:"description,omitempty"`
}

// TimetableEntry is one recurring class/lab/tutorial row. Fields carry the
// source text verbatim.
type TimetableEntry struct {
	Course    string `json:"course"`
	Weekday   string `json:"weekday"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Location  string `json:"location"`
}

// Snippet is a ranked retrieval hit. Score is normalized to [0,1] where
// distance = 1 - score.
type Snippet struct {
	Content string  `json:"content"`
	Score   float64 `json:"score"`
	Source  string  `json:"source"`
}

// ExtractionResult is the document synthesizer's structured output. Snippets
// are retrieval diagnostics appended after generation, never produced by the
// generator itself.
type ExtractionResult struct {
	Answer    string           `json:"answer"`
	Deadlines []Deadline       `json:"deadlines"`
	Tasks     []Task           `json:"tasks"`
	Timetable []TimetableEntry `json:"timetable"`
	Events    []EventDraft     `json:"events"`
	Snippets  []Snippet        `json:"-"`
}

// EventDraft is a not-yet-persisted schedule event as agents propose it.
// Timestamps are ISO-8601 strings.
type EventDraft struct {
	Title       string `json:"title"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	Priority    string `json:"priority"`
	Category    string `json:"category"`
	Description string `json:"description,omitempty"`
}

// EventPatch describes a partial modification of an existing event. Zero
// fields are left untouched.
type EventPatch struct {
	ID          int64  `json:"id"`
	Title       string `json:"title,omitempty"`
	StartTime   string `json:"start_time,omitempty"`
	EndTime     string `json:"end_time,omitempty"`
	Priority    string `json:"priority,omitempty"`
	Category    string `json:"category,omitempty"`
	Description string `json:"description,omitempty"`
}

// Proposal is the scheduler's structured output. It may be empty when the
// request required no calendar change.
type Proposal struct {
	ProposedEvents []EventDraft `json:"proposed_events"`
	ModifiedEvents []EventPatch `json:"modified_events"`
	Deletions      []int64      `json:"deletions"`
	Rationale      string       `json:"rationale"`
	Conflicts      []string     `json:"conflicts"`
	Optimizations  []string     `json:"optimizations"`
	Actions        []string     `json:"-"`
}

// Empty reports whether the proposal carries no changes at all.
func (p *Proposal) Empty() bool {
	return p == nil || (len(p.ProposedEvents) == 0 && len(p.ModifiedEvents) == 0 && len(p.Deletions) == 0)
}

// RejectedEvent pairs a rejected draft with the verifier's reason.
type RejectedEvent struct {
	Event  EventDraft `json:"event"`
	Reason string     `json:"reason"`
}

// Verification is the verifier's verdict on a proposal. With the fail-open
// policy, a verification failure still yields IsValid=true with all proposed
// changes approved and the failure reason recorded as a warning.
type Verification struct {
	IsValid           bool            `json:"is_valid"`
	Conflicts         []string        `json:"conflicts"`
	Warnings          []string        `json:"warnings"`
	ApprovedEvents    []EventDraft    `json:"approved_events"`
	ApprovedDeletions []int64         `json:"approved_deletions"`
	RejectedEvents    []RejectedEvent `json:"rejected_events"`
	Notes             string          `json:"notes"`
}

// ApproveAll builds the fail-open verification for a proposal: every proposed
// event and deletion is approved and reason is surfaced as a warning only.
func ApproveAll(p *Proposal, reason string) *Verification {
	v := &Verification{IsValid: true}
	if p != nil {
		v.ApprovedEvents = p.ProposedEvents
		v.ApprovedDeletions = p.Deletions
	}
	if reason != "" {
		v.Warnings = append(v.Warnings, reason)
	}
	return v
}

// ChatReply is the conversational agent's structured output.
type ChatReply struct {
	Response    string   `json:"response"`
	Suggestions []string `json:"suggestions"`
}

// AcademicReply is the academic planner's structured output. DirectAnswer is
// set when a tool result already answers the question without a full report.
type AcademicReply struct {
	DirectAnswer string   `json:"direct_answer,omitempty"`
	CurrentGPA   float64  `json:"current_gpa"`
	TargetGPA    float64  `json:"target_gpa"`
	Feasibility  string   `json:"feasibility"`
	GradePaths   []string `json:"grade_paths"`
	Rationale    string   `json:"rationale"`
}

// EventSnapshot is a read-only view of a persisted event, carried in request
// state for conflict checks and listings.
type EventSnapshot struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	Priority    string `json:"priority"`
	Category    string `json:"category"`
	Description string `json:"description,omitempty"`
}
