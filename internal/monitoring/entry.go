// Package monitoring is the central audit and metrics component. Every event
// in the pipeline is appended to a durable JSONL log and folded into an
// aggregate metrics state behind a single-writer actor; the log is the source
// of truth and the metrics are a rebuildable cache.
package monitoring

import (
	"time"

	"github.com/Harshad725250/Zero-Trust-Multi-Cloud-Framework/internal/access"
)

// EventType classifies a log entry.
type EventType string

const (
	EventAccessRequest EventType = "ACCESS_REQUEST"
	EventRemediation   EventType = "REMEDIATION"
	EventPolicyChange  EventType = "POLICY_CHANGE"
)

// Entry is one append-only audit record. Once written it is never mutated or
// deleted.
type Entry struct {
	Timestamp    time.Time         `json:"timestamp"`
	Module       string            `json:"module"`
	EventType    EventType         `json:"event_type"`
	User         string            `json:"user"`
	Resource     string            `json:"resource"`
	Cloud        access.Cloud      `json:"cloud"`
	Decision     access.Decision   `json:"decision,omitempty"`
	Reason       string            `json:"reason,omitempty"`
	ActionsTaken []string          `json:"actions_taken"`
	Details      map[string]string `json:"details,omitempty"`
}
