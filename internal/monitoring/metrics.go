package monitoring

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/Harshad725250/Zero-Trust-Multi-Cloud-Framework/internal/access"
)

// Metrics is the aggregate counter state derived from the event log.
type Metrics struct {
	TotalAccessRequests int            `json:"total_access_requests"`
	DenyCount           int            `json:"deny_count"`
	ReviewCount         int            `json:"review_count"`
	AllowCount          int            `json:"allow_count"`
	TotalRemediations   int            `json:"total_remediations"`
	PerCloud            map[string]int `json:"per_cloud"`
	EventsByType        map[string]int `json:"events_by_type"`
}

// NewMetrics returns a zeroed metrics state with the known clouds pre-seeded.
func NewMetrics() Metrics {
	return Metrics{
		PerCloud: map[string]int{
			string(access.CloudAWS):   0,
			string(access.CloudAzure): 0,
			string(access.CloudGCP):   0,
		},
		EventsByType: map[string]int{},
	}
}

// Apply folds one event into the counters. Decision and per-cloud counters
// track access requests only; a REMEDIATION entry carries the decision it
// remediates, and folding it too would double-count the request. The sum of
// the decision counters always equals TotalAccessRequests.
func (m *Metrics) Apply(e Entry) {
	switch e.EventType {
	case EventAccessRequest:
		m.TotalAccessRequests++

		switch e.Decision {
		case access.DecisionDeny:
			m.DenyCount++
		case access.DecisionReview:
			m.ReviewCount++
		case access.DecisionAllow:
			m.AllowCount++
		}

		if _, ok := m.PerCloud[string(e.Cloud)]; ok {
			m.PerCloud[string(e.Cloud)]++
		}

	case EventRemediation:
		m.TotalRemediations++
	}

	m.EventsByType[string(e.EventType)]++
}

// Clone returns a deep, independently mutable copy.
func (m Metrics) Clone() Metrics {
	out := m
	out.PerCloud = make(map[string]int, len(m.PerCloud))
	for k, v := range m.PerCloud {
		out.PerCloud[k] = v
	}
	out.EventsByType = make(map[string]int, len(m.EventsByType))
	for k, v := range m.EventsByType {
		out.EventsByType[k] = v
	}
	return out
}

// WriteFile persists the metrics state as indented JSON.
func (m Metrics) WriteFile(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode metrics: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write metrics file: %w", err)
	}
	return nil
}

// ReadMetricsFile loads a previously persisted metrics state.
func ReadMetricsFile(path string) (Metrics, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Metrics{}, fmt.Errorf("failed to read metrics file: %w", err)
	}
	m := NewMetrics()
	if err := json.Unmarshal(data, &m); err != nil {
		return Metrics{}, fmt.Errorf("failed to parse metrics file: %w", err)
	}
	return m, nil
}
