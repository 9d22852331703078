package policy

import (
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// Store holds the active PolicySet and supports hot reload. Readers always see
// a fully parsed set: Reload parses into a fresh Set and swaps the pointer, so
// a partially updated set is never observable. A failed reload keeps the
// last-known-good set — the store never falls back to permissive defaults.
type Store struct {
	path    string
	current atomic.Pointer[Set]
	logger  zerolog.Logger
}

// NewStore loads the policy document at path. The initial load is fatal on
// error: the pipeline must not serve requests with no policy.
func NewStore(path string, logger zerolog.Logger) (*Store, error) {
	set, err := Load(path)
	if err != nil {
		return nil, fmt.Errorf("initial policy load: %w", err)
	}

	s := &Store{
		path:   path,
		logger: logger.With().Str("component", "policy-store").Logger(),
	}
	s.current.Store(set)

	s.logger.Info().
		Str("path", path).
		Int("policies", len(set.Policies)).
		Str("default", string(set.DefaultDecision)).
		Msg("policy set loaded")

	return s, nil
}

// Current returns the active set. Safe for unlimited concurrent callers.
func (s *Store) Current() *Set {
	return s.current.Load()
}

// Reload re-parses the policy document and swaps it in. On failure the
// previous set stays active and the error is surfaced as a warning.
func (s *Store) Reload() error {
	set, err := Load(s.path)
	if err != nil {
		s.logger.Warn().Err(err).Msg("policy reload failed, retaining last-known-good set")
		return err
	}

	s.current.Store(set)
	s.logger.Info().Int("policies", len(set.Policies)).Msg("policy set reloaded")
	return nil
}
