package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CompareOp is a parameter comparison operator.
type CompareOp string

const (
	OpGT CompareOp = ">"
	OpLT CompareOp = "<"
	OpEQ CompareOp = "=="
	OpNE CompareOp = "!="
	OpGE CompareOp = ">="
	OpLE CompareOp = "<="
)

// Eval applies the operator to (actual, expected).
func (op CompareOp) Eval(actual, expected int64) (bool, error) {
	switch op {
	case OpGT:
		return actual > expected, nil
	case OpLT:
		return actual < expected, nil
	case OpEQ:
		return actual == expected, nil
	case OpNE:
		return actual != expected, nil
	case OpGE:
		return actual >= expected, nil
	case OpLE:
		return actual <= expected, nil
	}
	return false, fmt.Errorf("unknown comparison operator %q", op)
}

// ParameterCheck is one predicate over a decoded event parameter.
type ParameterCheck struct {
	Param string    `json:"param"`
	Op    CompareOp `json:"op"`
	Value int64     `json:"value"`
}

// Repeatability bounds how often a reactive quest may be satisfied.
type Repeatability string

const (
	RepeatOnce      Repeatability = "once"
	RepeatDaily     Repeatability = "daily"
	RepeatWeekly    Repeatability = "weekly"
	RepeatUnlimited Repeatability = "unlimited"
)

// Period returns the minimum gap between completions, or 0 for once and
// unlimited (once is enforced separately).
func (r Repeatability) Period() time.Duration {
	switch r {
	case RepeatDaily:
		return 24 * time.Hour
	case RepeatWeekly:
		return 7 * 24 * time.Hour
	}
	return 0
}

// EventCriteria is a reactive quest's completion contract against chain
// events. TimeWindow 0 means unbounded; otherwise events timestamped more
// than TimeWindow after quest activation are rejected. DeltaParam, when
// set, names the decoded parameter forwarded as a counting delta; empty
// means a discrete occurred signal.
type EventCriteria struct {
	Signature     string           `json:"signature"`
	Checks        []ParameterCheck `json:"checks,omitempty"`
	TimeWindow    time.Duration    `json:"time_window,omitempty"`
	Repeatability Repeatability    `json:"repeatability"`
	ObjectiveID   string           `json:"objective_id"`
	DeltaParam    string           `json:"delta_param,omitempty"`
}

// EventRecord is one decoded blockchain event delivered by the feed.
// UniqueID is the transaction hash, or hash:logIndex for multi-log
// transactions; delivery is at-least-once and unordered.
type EventRecord struct {
	UniqueID   string           `json:"unique_id"`
	PlayerID   uuid.UUID        `json:"player_id"`
	Signature  string           `json:"signature"`
	Parameters map[string]int64 `json:"parameters,omitempty"`
	Timestamp  time.Time        `json:"timestamp"`
}

// Validate checks the envelope fields the engine depends on.
func (e EventRecord) Validate() error {
	if e.UniqueID == "" {
		return fmt.Errorf("event unique_id is required")
	}
	if e.PlayerID == uuid.Nil {
		return fmt.Errorf("event player_id is required")
	}
	if e.Signature == "" {
		return fmt.Errorf("event signature is required")
	}
	if e.Timestamp.IsZero() {
		return fmt.Errorf("event timestamp is required")
	}
	return nil
}
