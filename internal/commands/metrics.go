package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/Harshad725250/Zero-Trust-Multi-Cloud-Framework/internal/monitoring"
)

// Metrics prints the current metrics state. It prefers the persisted metrics
// file and falls back to replaying the audit log when the file is missing.
func (c *Controller) Metrics(ctx context.Context) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}

	metrics, err := monitoring.ReadMetricsFile(cfg.MetricsFile)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		metrics, err = monitoring.Replay(cfg.AuditLog)
		if err != nil {
			return err
		}
	}

	return printJSON(metrics)
}

// Replay rebuilds the metrics file from the audit log. The log is the source
// of truth; this is the recovery path after a crash between a log append and
// the metrics persist.
func (c *Controller) Replay(ctx context.Context) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}

	metrics, err := monitoring.Replay(cfg.AuditLog)
	if err != nil {
		return err
	}

	if err := metrics.WriteFile(cfg.MetricsFile); err != nil {
		return err
	}

	c.Logger.Info().
		Int("access_requests", metrics.TotalAccessRequests).
		Int("remediations", metrics.TotalRemediations).
		Str("metrics_file", cfg.MetricsFile).
		Msg("metrics rebuilt from audit log")

	return printJSON(metrics)
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	fmt.Println(string(data))
	return nil
}
