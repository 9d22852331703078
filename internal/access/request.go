package access

import (
	"fmt"
	"strings"
	"time"
)

// Request is a single inbound access request. Immutable once constructed.
type Request struct {
	User        string    `json:"user"`
	Action      string    `json:"action"`
	Resource    string    `json:"resource"`
	SourceIP    string    `json:"source_ip"`
	DeviceID    string    `json:"device_id"`
	RequestTime time.Time `json:"request_time"`
}

// MalformedRequestError reports required request fields that are missing.
// Malformed requests are rejected before evaluation and never audited as decisions.
type MalformedRequestError struct {
	Missing []string
}

func (e *MalformedRequestError) Error() string {
	return fmt.Sprintf("malformed access request: missing %s", strings.Join(e.Missing, ", "))
}

// Validate checks that every required field is present.
func (r Request) Validate() error {
	var missing []string
	if r.User == "" {
		missing = append(missing, "user")
	}
	if r.Action == "" {
		missing = append(missing, "action")
	}
	if r.Resource == "" {
		missing = append(missing, "resource")
	}
	if r.SourceIP == "" {
		missing = append(missing, "source_ip")
	}
	if r.DeviceID == "" {
		missing = append(missing, "device_id")
	}
	if len(missing) > 0 {
		return &MalformedRequestError{Missing: missing}
	}
	return nil
}

// ContextVerdict is the outcome of evaluating environmental trust signals
// (network, time, device) for one request.
type ContextVerdict struct {
	Decision Decision
	Reason   string
}

// Outcome is the final result of enforcing one request. It is forwarded to
// monitoring and returned to the caller; it is not retained beyond that.
type Outcome struct {
	Request            Request  `json:"request"`
	Decision           Decision `json:"decision"`
	Reason             string   `json:"reason"`
	Cloud              Cloud    `json:"cloud"`
	RemediationActions []string `json:"remediation_actions,omitempty"`
}
