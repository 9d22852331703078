package policy

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/Harshad725250/Zero-Trust-Multi-Cloud-Framework/internal/monitoring"
)

// Watcher reloads the store whenever the policy document changes on disk.
// The parent directory is watched rather than the file itself because most
// editors and config pushers replace the file (write temp + rename), which
// would drop a watch on the file's inode.
type Watcher struct {
	watcher  *fsnotify.Watcher
	store    *Store
	recorder monitoring.Recorder
	name     string
	logger   zerolog.Logger
}

// NewWatcher creates a watcher for the store's policy file. A successful
// reload is recorded as a POLICY_CHANGE event when a recorder is given; nil
// disables audit.
func NewWatcher(store *Store, recorder monitoring.Recorder, logger zerolog.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	dir := filepath.Dir(store.path)
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch directory %s: %w", dir, err)
	}

	return &Watcher{
		watcher:  fw,
		store:    store,
		recorder: recorder,
		name:     filepath.Base(store.path),
		logger:   logger.With().Str("component", "policy-watcher").Logger(),
	}, nil
}

// Start blocks processing filesystem events until ctx is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	defer w.watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher channel closed")
			}
			if filepath.Base(event.Name) != w.name {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			// Reload logs its own failure and keeps the active set.
			if err := w.store.Reload(); err == nil {
				w.recordChange(ctx)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher error channel closed")
			}
			if err != nil {
				w.logger.Warn().Err(err).Msg("watcher error")
			}
		}
	}
}

func (w *Watcher) recordChange(ctx context.Context) {
	if w.recorder == nil {
		return
	}

	set := w.store.Current()
	entry := monitoring.Entry{
		Module:    "PDP",
		EventType: monitoring.EventPolicyChange,
		Resource:  w.store.path,
		Details: map[string]string{
			"policy_count":   strconv.Itoa(len(set.Policies)),
			"default_action": string(set.DefaultDecision),
		},
	}
	if err := w.recorder.RecordEvent(ctx, entry); err != nil {
		w.logger.Warn().Err(err).Msg("failed to record policy change event")
	}
}
