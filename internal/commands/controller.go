// Package commands contains the CLI commands for the framework.
package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/Harshad725250/Zero-Trust-Multi-Cloud-Framework/internal/arm"
	"github.com/Harshad725250/Zero-Trust-Multi-Cloud-Framework/internal/config"
	"github.com/Harshad725250/Zero-Trust-Multi-Cloud-Framework/internal/monitoring"
	"github.com/Harshad725250/Zero-Trust-Multi-Cloud-Framework/internal/pdp"
	"github.com/Harshad725250/Zero-Trust-Multi-Cloud-Framework/internal/pep"
	"github.com/Harshad725250/Zero-Trust-Multi-Cloud-Framework/internal/policy"
)

// Flags holds the global CLI flags.
type Flags struct {
	LogLevel   string
	ConfigPath string
}

// Controller executes the CLI commands.
type Controller struct {
	Flags  *Flags
	Logger zerolog.Logger
}

func (c *Controller) loadConfig() (*config.Config, error) {
	if c.Flags != nil && c.Flags.ConfigPath != "" {
		return config.LoadConfigFromPath(c.Flags.ConfigPath)
	}
	return config.LoadConfig()
}

// pipeline is the wired decision-and-enforcement stack shared by the serve,
// enforce, and simulate commands.
type pipeline struct {
	cfg      *config.Config
	store    *policy.Store
	monitor  *monitoring.Monitor
	enforcer *pep.Enforcer
}

// buildPipeline wires config -> policy store -> monitoring -> ARM -> PDP ->
// PEP. A policy load failure is fatal here: the pipeline never serves
// requests without a policy set.
func (c *Controller) buildPipeline(ctx context.Context) (*pipeline, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	store, err := policy.NewStore(cfg.PolicyFile, c.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load policy set: %w", err)
	}

	monitor, err := monitoring.New(ctx, monitoring.Config{
		LogPath:     cfg.AuditLog,
		MetricsPath: cfg.MetricsFile,
		Logger:      c.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start monitoring: %w", err)
	}

	dispatcher := arm.NewDispatcher(
		arm.DefaultAdapters(),
		monitor,
		time.Duration(cfg.Remediation.AdapterTimeoutSeconds)*time.Second,
		c.Logger,
	)

	decider := pdp.New(store, pdp.NewContextEvaluator(pdp.TrustConfig{
		TrustedNetworks: cfg.Trust.TrustedNetworks,
		TrustedDevices:  cfg.Trust.TrustedDevices,
		BusinessHours: pdp.HoursWindow{
			Start: cfg.Trust.BusinessHours.Start,
			End:   cfg.Trust.BusinessHours.End,
		},
	}))

	return &pipeline{
		cfg:      cfg,
		store:    store,
		monitor:  monitor,
		enforcer: pep.NewEnforcer(decider, dispatcher, monitor, c.Logger),
	}, nil
}

// close shuts the monitoring actor system down, flushing the audit log.
func (p *pipeline) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = p.monitor.Close(ctx)
}
