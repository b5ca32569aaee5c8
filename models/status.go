package models

import "strings"

// Decision is the shared status vocabulary used by submissions, review
// slots, the chair gate and the chair verdict. Each surface accepts only a
// subset of the values; the Valid* helpers encode those subsets.
type Decision string

const (
	// Submission lifecycle.
	StatusSubmitted     Decision = "submitted"
	StatusUnderReview   Decision = "under_review"
	StatusNeedsRevision Decision = "needs_revision"
	StatusMinorRevision Decision = "minor_revision"
	StatusMajorRevision Decision = "major_revision"
	StatusApproved      Decision = "approved"
	StatusRejected      Decision = "rejected"

	// Review slots start here and end on one of the submission terminals.
	StatusPending Decision = "pending"

	// Chair gate values (review_gate_status).
	GatePassed        Decision = "passed"
	GateMinorRevision Decision = "passed_minor_revision"
	GateMajorRevision Decision = "passed_major_revision"
	GateRedefense     Decision = "redefense"
	GateFailed        Decision = "failed"

	// Chair verdict recorded alongside the final decision.
	VerdictPassed       Decision = "passed"
	VerdictWithRevision Decision = "passed_with_revision"
	VerdictFailed       Decision = "failed"
)

// Endorsement request statuses share the same column type but a narrower set.
const (
	RequestPending  Decision = "pending"
	RequestApproved Decision = "approved"
	RequestRejected Decision = "rejected"
)

var submissionTerminals = map[Decision]bool{
	StatusNeedsRevision: true,
	StatusMinorRevision: true,
	StatusMajorRevision: true,
	StatusApproved:      true,
	StatusRejected:      true,
}

var gateValues = map[Decision]bool{
	GatePassed:        true,
	GateMinorRevision: true,
	GateMajorRevision: true,
	GateRedefense:     true,
	GateFailed:        true,
}

var verdictValues = map[Decision]bool{
	VerdictPassed:       true,
	VerdictWithRevision: true,
	VerdictFailed:       true,
}

// ParseDecision normalizes raw request input into a Decision. It does not
// check set membership; callers pair it with the Valid* helpers.
func ParseDecision(raw string) Decision {
	return Decision(strings.ToLower(strings.TrimSpace(raw)))
}

// ValidFinalStatus reports whether d may be recorded as a submission-level
// final decision by the committee chairperson.
func ValidFinalStatus(d Decision) bool {
	return submissionTerminals[d]
}

// ValidSlotStatus reports whether d may be posted as an individual
// reviewer verdict on a review slot.
func ValidSlotStatus(d Decision) bool {
	return submissionTerminals[d]
}

// ValidGate reports whether d is an acceptable review_gate_status value.
func ValidGate(d Decision) bool {
	return gateValues[d]
}

// ValidVerdict reports whether d is an acceptable chair verdict.
func ValidVerdict(d Decision) bool {
	return verdictValues[d]
}

// IsTerminal reports whether a submission status ends the review round.
func (d Decision) IsTerminal() bool {
	return submissionTerminals[d]
}

// decisionGate is the canonical mapping between the chair-facing final
// status vocabulary and the gate vocabulary. It is applied exactly once:
// when a final decision is recorded while the gate is still unset. A gate
// the chair set earlier is never overwritten, so the two columns may
// legitimately diverge afterwards.
var decisionGate = map[Decision]Decision{
	StatusApproved:      GatePassed,
	StatusMinorRevision: GateMinorRevision,
	StatusMajorRevision: GateMajorRevision,
	StatusNeedsRevision: GateRedefense,
	StatusRejected:      GateFailed,
}

// GateForDecision returns the default gate value for a final status.
func GateForDecision(status Decision) (Decision, bool) {
	gate, ok := decisionGate[status]
	return gate, ok
}
