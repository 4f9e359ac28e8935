package domain

// Decision represents the outcome of processing an inbound message
type Decision string

const (
	DecisionSkippedEmpty     Decision = "skipped_empty"     // no identifying content
	DecisionNotMonitored     Decision = "not_monitored"     // group outside the allow-list
	DecisionFirstSeen        Decision = "first_seen"        // fingerprint recorded
	DecisionDuplicateRemoved Decision = "duplicate_removed" // deleted and counted
	DecisionDuplicateKept    Decision = "duplicate_kept"    // deletion failed, record untouched
)

// IsDuplicate reports whether the decision classified the message as a duplicate
func (d Decision) IsDuplicate() bool {
	return d == DecisionDuplicateRemoved || d == DecisionDuplicateKept
}

// DecisionResult describes what happened to a single message
type DecisionResult struct {
	Decision       Decision `json:"decision"`
	GroupID        string   `json:"group_id"`
	MessageID      int64    `json:"message_id"`
	Fingerprint    string   `json:"fingerprint,omitempty"`
	FirstMessageID int64    `json:"first_message_id,omitempty"`
	DuplicateCount int      `json:"duplicate_count"`
}
