package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Harshad725250/Zero-Trust-Multi-Cloud-Framework/internal/policy"
	"github.com/Harshad725250/Zero-Trust-Multi-Cloud-Framework/internal/serve"
)

// ServeOptions contains options for the serve command.
type ServeOptions struct {
	// Port overrides the configured API port when positive.
	Port int
	// Watch enables policy hot reload while serving.
	Watch bool
}

// Serve starts the decision API server and, optionally, the policy watcher,
// and blocks until interrupted.
func (c *Controller) Serve(ctx context.Context, opts ServeOptions) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	p, err := c.buildPipeline(ctx)
	if err != nil {
		return err
	}
	defer p.close()

	port := p.cfg.Server.Port
	if opts.Port > 0 {
		port = opts.Port
	}

	if opts.Watch {
		watcher, err := policy.NewWatcher(p.store, p.monitor, c.Logger)
		if err != nil {
			return fmt.Errorf("failed to start policy watcher: %w", err)
		}
		go func() {
			if err := watcher.Start(ctx); err != nil && ctx.Err() == nil {
				c.Logger.Warn().Err(err).Msg("policy watcher stopped")
			}
		}()
	}

	c.Logger.Info().Int("port", port).Msg("starting decision API server")

	server := serve.NewAPIServer(p.enforcer, p.monitor, c.Logger)
	if err := server.Start(ctx, port); err != nil {
		return fmt.Errorf("api server error: %w", err)
	}
	return nil
}
