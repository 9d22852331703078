// Package pep is the Policy Enforcement Point: it orchestrates decision,
// enforcement, remediation, and audit for each access request.
package pep

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/Harshad725250/Zero-Trust-Multi-Cloud-Framework/internal/access"
	"github.com/Harshad725250/Zero-Trust-Multi-Cloud-Framework/internal/monitoring"
	"github.com/Harshad725250/Zero-Trust-Multi-Cloud-Framework/internal/pdp"
)

// Remediator triggers corrective actions for non-ALLOW decisions.
type Remediator interface {
	Remediate(ctx context.Context, user, resource string, decision access.Decision, reason string, cloud access.Cloud) []string
}

// Enforcer applies decisions: it invokes the PDP, enforces the result, calls
// remediation for DENY/REVIEW, and records exactly one ACCESS_REQUEST event
// per enforced request. It is safe for concurrent use.
type Enforcer struct {
	pdp        *pdp.PDP
	remediator Remediator
	recorder   monitoring.Recorder
	logger     zerolog.Logger
}

// NewEnforcer wires the PDP, the remediation dispatcher, and monitoring.
func NewEnforcer(decider *pdp.PDP, remediator Remediator, recorder monitoring.Recorder, logger zerolog.Logger) *Enforcer {
	return &Enforcer{
		pdp:        decider,
		remediator: remediator,
		recorder:   recorder,
		logger:     logger.With().Str("component", "pep").Logger(),
	}
}

// Enforce runs the full pipeline for one request. Malformed requests are
// rejected up front and never reach the PDP or the audit log. For well-formed
// requests the decision is authoritative the moment the PDP returns:
// remediation and audit failures are degraded-but-non-fatal and the caller
// always receives a well-formed outcome.
func (e *Enforcer) Enforce(ctx context.Context, req access.Request) (access.Outcome, error) {
	if err := req.Validate(); err != nil {
		return access.Outcome{}, err
	}

	decision, reason := e.pdp.Decide(req)
	cloud := access.CloudFromResource(req.Resource)

	msg := "request granted"
	switch decision {
	case access.DecisionDeny:
		msg = "request blocked"
	case access.DecisionReview:
		msg = "request flagged for manual review"
	}
	e.logger.Info().
		Str("user", req.User).
		Str("resource", req.Resource).
		Str("decision", string(decision)).
		Str("reason", reason).
		Msg(msg)

	// REVIEW is blocked pending review, so it remediates like DENY; the two
	// stay distinguishable in the audit trail.
	var actions []string
	if decision == access.DecisionDeny || decision == access.DecisionReview {
		actions = e.remediator.Remediate(ctx, req.User, req.Resource, decision, reason, cloud)
	}

	entry := monitoring.Entry{
		Module:       "PEP",
		EventType:    monitoring.EventAccessRequest,
		User:         req.User,
		Resource:     req.Resource,
		Cloud:        cloud,
		Decision:     decision,
		Reason:       reason,
		ActionsTaken: actions,
	}
	if err := e.recorder.RecordEvent(ctx, entry); err != nil {
		e.logger.Error().Err(err).Msg("failed to record access request event")
	}

	return access.Outcome{
		Request:            req,
		Decision:           decision,
		Reason:             reason,
		Cloud:              cloud,
		RemediationActions: actions,
	}, nil
}
