package access

import (
	"fmt"
	"strings"
)

// Decision is the tri-state outcome of an access evaluation.
type Decision string

const (
	DecisionAllow  Decision = "ALLOW"
	DecisionDeny   Decision = "DENY"
	DecisionReview Decision = "REVIEW"
)

// Strictness orders decisions for combination purposes: DENY > REVIEW > ALLOW.
func (d Decision) Strictness() int {
	switch d {
	case DecisionDeny:
		return 2
	case DecisionReview:
		return 1
	default:
		return 0
	}
}

// Valid reports whether d is one of the three known decisions.
func (d Decision) Valid() bool {
	switch d {
	case DecisionAllow, DecisionDeny, DecisionReview:
		return true
	}
	return false
}

// ParseDecision converts a policy document value ("allow", "DENY", ...) into a Decision.
func ParseDecision(s string) (Decision, error) {
	d := Decision(strings.ToUpper(strings.TrimSpace(s)))
	if !d.Valid() {
		return "", fmt.Errorf("unknown decision %q", s)
	}
	return d, nil
}
