package arm

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/Harshad725250/Zero-Trust-Multi-Cloud-Framework/internal/access"
	"github.com/Harshad725250/Zero-Trust-Multi-Cloud-Framework/internal/monitoring"
)

const defaultAdapterTimeout = 5 * time.Second

// Dispatcher maps a non-ALLOW decision to remediation actions via the adapter
// registered for the target cloud. Adapter failures never escape Remediate;
// they are captured as failure descriptions in the action list.
type Dispatcher struct {
	adapters map[access.Cloud]CloudAdapter
	recorder monitoring.Recorder
	timeout  time.Duration
	logger   zerolog.Logger
}

// NewDispatcher builds a dispatcher over the given adapters. A non-positive
// timeout falls back to the default adapter timeout.
func NewDispatcher(adapters []CloudAdapter, recorder monitoring.Recorder, timeout time.Duration, logger zerolog.Logger) *Dispatcher {
	byCloud := make(map[access.Cloud]CloudAdapter, len(adapters))
	for _, a := range adapters {
		byCloud[a.Cloud()] = a
	}
	if timeout <= 0 {
		timeout = defaultAdapterTimeout
	}
	return &Dispatcher{
		adapters: byCloud,
		recorder: recorder,
		timeout:  timeout,
		logger:   logger.With().Str("component", "arm").Logger(),
	}
}

// Remediate executes the corrective action for a DENY or REVIEW decision and
// returns the descriptions of the actions taken. Exactly one REMEDIATION
// event is appended per call. The call is retryable: the stub adapters have
// no external side effects, and production adapters are required to be
// idempotent.
func (d *Dispatcher) Remediate(ctx context.Context, user, resource string, decision access.Decision, reason string, cloud access.Cloud) []string {
	var actions []string

	switch decision {
	case access.DecisionDeny:
		if adapter, ok := d.adapters[cloud]; ok {
			actions = append(actions, d.revoke(ctx, adapter, user))
		} else {
			d.logger.Debug().Str("cloud", string(cloud)).Msg("no adapter registered, skipping remediation")
		}
	case access.DecisionReview:
		actions = append(actions, fmt.Sprintf("Admin review needed for %s on %s: %s", user, resource, reason))
	}

	entry := monitoring.Entry{
		Module:       "ARM",
		EventType:    monitoring.EventRemediation,
		User:         user,
		Resource:     resource,
		Cloud:        cloud,
		Decision:     decision,
		Reason:       reason,
		ActionsTaken: actions,
	}
	if err := d.recorder.RecordEvent(ctx, entry); err != nil {
		d.logger.Warn().Err(err).Msg("failed to record remediation event")
	}

	d.logger.Info().
		Str("user", user).
		Str("cloud", string(cloud)).
		Str("decision", string(decision)).
		Strs("actions", actions).
		Msg("remediation dispatched")

	return actions
}

// revoke bounds the adapter call with the dispatcher timeout. The adapter is
// the only point in the pipeline doing external I/O, so no shared lock is
// held while the call is outstanding; a timeout is an adapter failure, not a
// request cancellation.
func (d *Dispatcher) revoke(ctx context.Context, adapter CloudAdapter, user string) string {
	callCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	type result struct {
		description string
		err         error
	}
	done := make(chan result, 1)

	go func() {
		description, err := adapter.RevokeAccess(callCtx, user)
		done <- result{description, err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return fmt.Sprintf("%s remediation failed for %s: %v", adapter.Cloud(), user, res.err)
		}
		return res.description
	case <-callCtx.Done():
		return fmt.Sprintf("%s remediation timed out for %s: %v", adapter.Cloud(), user, callCtx.Err())
	}
}
