package pdp

import (
	"github.com/Harshad725250/Zero-Trust-Multi-Cloud-Framework/internal/access"
	"github.com/Harshad725250/Zero-Trust-Multi-Cloud-Framework/internal/policy"
)

// PDP combines context evaluation with action-policy lookups into a single
// authoritative decision. Decide is pure and side-effect free; the only shared
// state is the read-only policy set behind the store, so it is safe for
// unlimited concurrent invocation.
type PDP struct {
	store   *policy.Store
	context *ContextEvaluator
}

// New creates a PDP backed by the given policy store and context evaluator.
func New(store *policy.Store, context *ContextEvaluator) *PDP {
	return &PDP{store: store, context: context}
}

// EvaluateAction matches the request action against the policy set in order;
// the first matching policy wins. With no match the set's default decision
// applies.
func EvaluateAction(req access.Request, set *policy.Set) (access.Decision, string) {
	if p, ok := set.Match(req.Action); ok {
		return p.Decision, p.Description
	}
	return set.DefaultDecision, "no matching policy (default)"
}

// Combine applies deny-overrides semantics to a context verdict and an action
// decision:
//
//   - either side DENY wins outright
//   - context REVIEW with action ALLOW stays REVIEW
//   - both ALLOW is the only path to ALLOW
//   - anything else fails closed to DENY
//
// Note the asymmetry: context ALLOW with action REVIEW is DENY, not REVIEW.
// That is the upstream policy owner's observed behavior and is preserved here.
//
// The returned reason belongs to whichever side determined the result; when
// both sides agree, the context reason wins because context is the
// higher-priority signal.
func Combine(ctxVerdict access.ContextVerdict, actionDecision access.Decision, actionReason string) (access.Decision, string) {
	var final access.Decision
	switch {
	case ctxVerdict.Decision == access.DecisionDeny || actionDecision == access.DecisionDeny:
		final = access.DecisionDeny
	case ctxVerdict.Decision == access.DecisionReview && actionDecision == access.DecisionAllow:
		final = access.DecisionReview
	case ctxVerdict.Decision == access.DecisionAllow && actionDecision == access.DecisionAllow:
		final = access.DecisionAllow
	default:
		final = access.DecisionDeny
	}

	if final == ctxVerdict.Decision {
		return final, ctxVerdict.Reason
	}
	return final, actionReason
}

// Decide evaluates context and action policy for the request and combines the
// two. Every well-formed request terminates in a decision; this path never
// errors.
func (p *PDP) Decide(req access.Request) (access.Decision, string) {
	set := p.store.Current()
	ctxVerdict := p.context.Evaluate(req)
	actionDecision, actionReason := EvaluateAction(req, set)
	return Combine(ctxVerdict, actionDecision, actionReason)
}
