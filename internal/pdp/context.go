// Package pdp implements the Policy Decision Point: context evaluation,
// action-policy evaluation, and their zero-trust combination.
package pdp

import (
	"fmt"
	"strings"
	"time"

	"github.com/Harshad725250/Zero-Trust-Multi-Cloud-Framework/internal/access"
)

// HoursWindow is a half-open hour-of-day interval [Start, End) in local time.
type HoursWindow struct {
	Start int
	End   int
}

// Contains reports whether the hour falls inside the window.
func (w HoursWindow) Contains(hour int) bool {
	return hour >= w.Start && hour < w.End
}

// TrustConfig is the static context configuration: which networks and devices
// are trusted, and when access is expected.
type TrustConfig struct {
	TrustedNetworks []string
	TrustedDevices  []string
	BusinessHours   HoursWindow
}

// ContextEvaluator evaluates network/device/time trust signals for a request.
// It is stateless per request and safe for concurrent use.
type ContextEvaluator struct {
	networks []string
	devices  map[string]struct{}
	hours    HoursWindow
	clock    func() time.Time
}

// NewContextEvaluator builds an evaluator from static trust configuration.
func NewContextEvaluator(cfg TrustConfig) *ContextEvaluator {
	devices := make(map[string]struct{}, len(cfg.TrustedDevices))
	for _, d := range cfg.TrustedDevices {
		devices[d] = struct{}{}
	}
	return &ContextEvaluator{
		networks: cfg.TrustedNetworks,
		devices:  devices,
		hours:    cfg.BusinessHours,
		clock:    time.Now,
	}
}

// Evaluate runs the context checks in priority order: network, then business
// hours, then device. The first failing check determines the verdict; this
// ordering is observable behavior and must not change.
func (e *ContextEvaluator) Evaluate(req access.Request) access.ContextVerdict {
	if !e.inTrustedNetwork(req.SourceIP) {
		return access.ContextVerdict{
			Decision: access.DecisionDeny,
			Reason:   fmt.Sprintf("untrusted network source (%s)", req.SourceIP),
		}
	}

	if !e.hours.Contains(e.requestHour(req)) {
		return access.ContextVerdict{
			Decision: access.DecisionDeny,
			Reason:   "outside business hours",
		}
	}

	if _, ok := e.devices[req.DeviceID]; !ok {
		return access.ContextVerdict{
			Decision: access.DecisionReview,
			Reason:   fmt.Sprintf("unrecognized device (%s)", req.DeviceID),
		}
	}

	return access.ContextVerdict{
		Decision: access.DecisionAllow,
		Reason:   "context validated",
	}
}

func (e *ContextEvaluator) inTrustedNetwork(ip string) bool {
	for _, prefix := range e.networks {
		if strings.HasPrefix(ip, prefix) {
			return true
		}
	}
	return false
}

func (e *ContextEvaluator) requestHour(req access.Request) int {
	t := req.RequestTime
	if t.IsZero() {
		t = e.clock()
	}
	return t.Local().Hour()
}
