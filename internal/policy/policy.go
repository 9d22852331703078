// Package policy loads and serves the versioned action-policy rule set.
package policy

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/Harshad725250/Zero-Trust-Multi-Cloud-Framework/internal/access"
)

// Policy is one action-matching rule. Actions are matched case-insensitively;
// an entry of "*" matches any action and an entry ending in "*" matches by prefix.
type Policy struct {
	Actions     []string
	Decision    access.Decision
	Description string
}

// Matches reports whether the request action is covered by this policy.
func (p Policy) Matches(action string) bool {
	action = strings.ToLower(action)
	for _, entry := range p.Actions {
		entry = strings.ToLower(entry)
		switch {
		case entry == "*":
			return true
		case strings.HasSuffix(entry, "*"):
			if strings.HasPrefix(action, strings.TrimSuffix(entry, "*")) {
				return true
			}
		case entry == action:
			return true
		}
	}
	return false
}

// Set is an ordered rule set plus the default decision applied when no rule
// matches. A Set is read-only after construction; concurrent readers share it.
type Set struct {
	Policies        []Policy
	DefaultDecision access.Decision
}

// Match returns the first policy covering the action, in document order.
func (s *Set) Match(action string) (*Policy, bool) {
	for i := range s.Policies {
		if s.Policies[i].Matches(action) {
			return &s.Policies[i], true
		}
	}
	return nil, false
}

// document is the on-disk policies.json schema.
type document struct {
	Policies []struct {
		Conditions struct {
			Action []string `json:"action"`
		} `json:"conditions"`
		Decision    string `json:"decision"`
		Description string `json:"description"`
	} `json:"policies"`
	DefaultAction string `json:"default_action"`
}

// Parse builds a Set from a policy document. Unknown decisions are rejected so
// a typo in the document cannot silently widen access.
func Parse(data []byte) (*Set, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse policy document: %w", err)
	}

	set := &Set{DefaultDecision: access.DecisionDeny}
	if doc.DefaultAction != "" {
		d, err := access.ParseDecision(doc.DefaultAction)
		if err != nil {
			return nil, fmt.Errorf("invalid default_action: %w", err)
		}
		set.DefaultDecision = d
	}

	for i, p := range doc.Policies {
		d, err := access.ParseDecision(p.Decision)
		if err != nil {
			return nil, fmt.Errorf("policy %d (%q): %w", i, p.Description, err)
		}
		set.Policies = append(set.Policies, Policy{
			Actions:     p.Conditions.Action,
			Decision:    d,
			Description: p.Description,
		})
	}

	return set, nil
}

// Load reads and parses a policy document from disk.
func Load(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file: %w", err)
	}
	return Parse(data)
}
