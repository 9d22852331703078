package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/Harshad725250/Zero-Trust-Multi-Cloud-Framework/internal/access"
)

// EnforceOptions identifies the single request to enforce.
type EnforceOptions struct {
	User     string
	Action   string
	Resource string
	SourceIP string
	DeviceID string
}

// Enforce runs one access request through the full pipeline and prints the
// decision.
func (c *Controller) Enforce(ctx context.Context, opts EnforceOptions) error {
	p, err := c.buildPipeline(ctx)
	if err != nil {
		return err
	}
	defer p.close()

	outcome, err := p.enforcer.Enforce(ctx, access.Request{
		User:        opts.User,
		Action:      opts.Action,
		Resource:    opts.Resource,
		SourceIP:    opts.SourceIP,
		DeviceID:    opts.DeviceID,
		RequestTime: time.Now(),
	})
	if err != nil {
		return err
	}

	fmt.Printf("Decision: %s\n", outcome.Decision)
	fmt.Printf("Reason:   %s\n", outcome.Reason)
	fmt.Printf("Cloud:    %s\n", outcome.Cloud)
	for _, action := range outcome.RemediationActions {
		fmt.Printf("Action:   %s\n", action)
	}
	return nil
}
