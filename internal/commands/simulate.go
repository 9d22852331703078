package commands

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/Harshad725250/Zero-Trust-Multi-Cloud-Framework/internal/access"
)

// Synthetic event pools for pipeline demos and load checks.
var (
	simUsers     = []string{"alice", "bob", "charlie", "david"}
	simActions   = []string{"s3:GetObject", "s3:PutObject", "iam:PassRole", "ec2:DescribeInstances"}
	simIPs       = []string{"192.168.1.12", "8.8.8.8", "10.0.0.7"}
	simDevices   = []string{"device-laptop-001", "device-unknown", "device-admin-001"}
	simResources = []string{
		"arn:aws:s3:::secure-bucket",
		"azure:storage:prod-archive",
		"projects/prod/buckets/analytics",
	}
)

// SimulateOptions contains options for the simulate command.
type SimulateOptions struct {
	Count int
	Seed  int64
}

// Simulate pushes synthetic access events through the full pipeline and
// prints the resulting metrics snapshot.
func (c *Controller) Simulate(ctx context.Context, opts SimulateOptions) error {
	count := opts.Count
	if count <= 0 {
		count = 20
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	p, err := c.buildPipeline(ctx)
	if err != nil {
		return err
	}
	defer p.close()

	counts := map[access.Decision]int{}
	for i := 0; i < count; i++ {
		req := access.Request{
			User:        simUsers[rng.Intn(len(simUsers))],
			Action:      simActions[rng.Intn(len(simActions))],
			Resource:    simResources[rng.Intn(len(simResources))],
			SourceIP:    simIPs[rng.Intn(len(simIPs))],
			DeviceID:    simDevices[rng.Intn(len(simDevices))],
			RequestTime: time.Now(),
		}

		outcome, err := p.enforcer.Enforce(ctx, req)
		if err != nil {
			return fmt.Errorf("simulated request %d: %w", i, err)
		}
		counts[outcome.Decision]++
	}

	fmt.Printf("Simulated %d access requests: %d allowed, %d denied, %d flagged for review\n",
		count,
		counts[access.DecisionAllow],
		counts[access.DecisionDeny],
		counts[access.DecisionReview],
	)

	snapshot, err := p.monitor.Snapshot(ctx)
	if err != nil {
		return err
	}
	return printJSON(snapshot)
}
