// Package arm dispatches corrective remediation actions for non-ALLOW
// decisions, selecting a cloud adapter per target provider.
package arm

import (
	"context"
	"fmt"

	"github.com/Harshad725250/Zero-Trust-Multi-Cloud-Framework/internal/access"
)

// CloudAdapter is the per-provider remediation capability. A production
// implementation must make RevokeAccess idempotent: the dispatcher may be
// retry-called for the same decision.
type CloudAdapter interface {
	// Cloud identifies the provider this adapter serves.
	Cloud() access.Cloud
	// RevokeAccess revokes the user's risky access and returns a
	// human-readable description of what was done.
	RevokeAccess(ctx context.Context, user string) (string, error)
}

// The stub adapters stand in for real provider SDK integrations. They model
// the control-plane call as an immediate success so the pipeline around them
// is fully exercisable.

type awsAdapter struct{}

// NewAWSAdapter returns the stub AWS remediation adapter.
func NewAWSAdapter() CloudAdapter { return awsAdapter{} }

func (awsAdapter) Cloud() access.Cloud { return access.CloudAWS }

func (awsAdapter) RevokeAccess(ctx context.Context, user string) (string, error) {
	return fmt.Sprintf("Removed %s from SensitiveAccess group in AWS (stub)", user), nil
}

type azureAdapter struct{}

// NewAzureAdapter returns the stub Azure remediation adapter.
func NewAzureAdapter() CloudAdapter { return azureAdapter{} }

func (azureAdapter) Cloud() access.Cloud { return access.CloudAzure }

func (azureAdapter) RevokeAccess(ctx context.Context, user string) (string, error) {
	return fmt.Sprintf("Removed risky role assignment for %s in Azure (stub)", user), nil
}

type gcpAdapter struct{}

// NewGCPAdapter returns the stub GCP remediation adapter.
func NewGCPAdapter() CloudAdapter { return gcpAdapter{} }

func (gcpAdapter) Cloud() access.Cloud { return access.CloudGCP }

func (gcpAdapter) RevokeAccess(ctx context.Context, user string) (string, error) {
	return fmt.Sprintf("Revoked IAM bindings for %s in GCP (stub)", user), nil
}

// DefaultAdapters returns the stub adapter set for all supported clouds.
func DefaultAdapters() []CloudAdapter {
	return []CloudAdapter{NewAWSAdapter(), NewAzureAdapter(), NewGCPAdapter()}
}
