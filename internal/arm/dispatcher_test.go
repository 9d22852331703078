package arm

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Harshad725250/Zero-Trust-Multi-Cloud-Framework/internal/access"
	"github.com/Harshad725250/Zero-Trust-Multi-Cloud-Framework/internal/monitoring"
)

// Test plan for the remediation dispatcher:
// 1. Test DENY invokes the adapter for the matched cloud only
// 2. Test adapter errors are captured as failure strings, never raised
// 3. Test adapter calls are bounded by the timeout
// 4. Test REVIEW appends an admin-review action without touching adapters
// 5. Test unmatched clouds produce no adapter action
// 6. Test exactly one REMEDIATION event is recorded per call
// 7. Test a recorder failure does not break the action result

type fakeRecorder struct {
	mu      sync.Mutex
	entries []monitoring.Entry
	err     error
}

func (f *fakeRecorder) RecordEvent(ctx context.Context, e monitoring.Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, e)
	return nil
}

func (f *fakeRecorder) recorded() []monitoring.Entry {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]monitoring.Entry(nil), f.entries...)
}

type fakeAdapter struct {
	cloud access.Cloud
	desc  string
	err   error
	delay time.Duration

	mu    sync.Mutex
	calls int
}

func (f *fakeAdapter) Cloud() access.Cloud { return f.cloud }

func (f *fakeAdapter) RevokeAccess(ctx context.Context, user string) (string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	// A deliberately unresponsive adapter: it ignores ctx so the dispatcher's
	// own timeout handling is what gets exercised.
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	return f.desc, f.err
}

func (f *fakeAdapter) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newTestDispatcher(recorder monitoring.Recorder, adapters ...CloudAdapter) *Dispatcher {
	return NewDispatcher(adapters, recorder, 100*time.Millisecond, zerolog.Nop())
}

func TestRemediate_DenyInvokesMatchedAdapter(t *testing.T) {
	aws := &fakeAdapter{cloud: access.CloudAWS, desc: "revoked in aws"}
	gcp := &fakeAdapter{cloud: access.CloudGCP, desc: "revoked in gcp"}
	recorder := &fakeRecorder{}
	d := newTestDispatcher(recorder, aws, gcp)

	actions := d.Remediate(context.Background(), "eve", "arn:aws:s3:::secure-bucket",
		access.DecisionDeny, "untrusted network source", access.CloudAWS)

	// Test: only the AWS adapter fired and its description was collected
	assert.Equal(t, []string{"revoked in aws"}, actions)
	assert.Equal(t, 1, aws.callCount())
	assert.Equal(t, 0, gcp.callCount())
}

func TestRemediate_AdapterFailureCaptured(t *testing.T) {
	aws := &fakeAdapter{cloud: access.CloudAWS, err: errors.New("throttled by control plane")}
	recorder := &fakeRecorder{}
	d := newTestDispatcher(recorder, aws)

	actions := d.Remediate(context.Background(), "eve", "arn:aws:s3:::secure-bucket",
		access.DecisionDeny, "untrusted network source", access.CloudAWS)

	// Test: the failure is represented as an action string, not an error
	require.Len(t, actions, 1)
	assert.Contains(t, actions[0], "remediation failed")
	assert.Contains(t, actions[0], "throttled by control plane")
}

func TestRemediate_AdapterTimeout(t *testing.T) {
	slow := &fakeAdapter{cloud: access.CloudAWS, desc: "too late", delay: time.Second}
	recorder := &fakeRecorder{}
	d := newTestDispatcher(recorder, slow)

	start := time.Now()
	actions := d.Remediate(context.Background(), "eve", "arn:aws:s3:::secure-bucket",
		access.DecisionDeny, "untrusted network source", access.CloudAWS)

	// Test: the call is bounded by the dispatcher timeout
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	require.Len(t, actions, 1)
	assert.Contains(t, actions[0], "timed out")
}

func TestRemediate_ReviewSkipsAdapters(t *testing.T) {
	aws := &fakeAdapter{cloud: access.CloudAWS, desc: "revoked in aws"}
	recorder := &fakeRecorder{}
	d := newTestDispatcher(recorder, aws)

	actions := d.Remediate(context.Background(), "carol", "arn:aws:s3:::secure-bucket",
		access.DecisionReview, "unrecognized device", access.CloudAWS)

	// Test: REVIEW produces a single admin-review note and no revocation
	require.Len(t, actions, 1)
	assert.Contains(t, actions[0], "Admin review needed for carol")
	assert.Contains(t, actions[0], "unrecognized device")
	assert.Equal(t, 0, aws.callCount())
}

func TestRemediate_UnmatchedCloud(t *testing.T) {
	aws := &fakeAdapter{cloud: access.CloudAWS, desc: "revoked in aws"}
	recorder := &fakeRecorder{}
	d := newTestDispatcher(recorder, aws)

	actions := d.Remediate(context.Background(), "eve", "projects/prod/buckets/analytics",
		access.DecisionDeny, "untrusted network source", access.CloudGCP)

	// Test: no adapter for the cloud means no action, and no panic
	assert.Empty(t, actions)
	assert.Equal(t, 0, aws.callCount())
}

func TestRemediate_RecordsOneEvent(t *testing.T) {
	aws := &fakeAdapter{cloud: access.CloudAWS, desc: "revoked in aws"}
	recorder := &fakeRecorder{}
	d := newTestDispatcher(recorder, aws)

	d.Remediate(context.Background(), "eve", "arn:aws:s3:::secure-bucket",
		access.DecisionDeny, "untrusted network source", access.CloudAWS)

	entries := recorder.recorded()
	require.Len(t, entries, 1)
	assert.Equal(t, monitoring.EventRemediation, entries[0].EventType)
	assert.Equal(t, "ARM", entries[0].Module)
	assert.Equal(t, access.DecisionDeny, entries[0].Decision)
	assert.Equal(t, []string{"revoked in aws"}, entries[0].ActionsTaken)
}

func TestRemediate_RecorderFailureNonFatal(t *testing.T) {
	aws := &fakeAdapter{cloud: access.CloudAWS, desc: "revoked in aws"}
	recorder := &fakeRecorder{err: errors.New("log storage unavailable")}
	d := newTestDispatcher(recorder, aws)

	// Test: the action list is still returned when the event write fails
	actions := d.Remediate(context.Background(), "eve", "arn:aws:s3:::secure-bucket",
		access.DecisionDeny, "untrusted network source", access.CloudAWS)
	assert.Equal(t, []string{"revoked in aws"}, actions)
}

func TestDefaultAdapters(t *testing.T) {
	// Test: the stub set covers all three clouds and revocation succeeds
	adapters := DefaultAdapters()
	require.Len(t, adapters, 3)

	seen := map[access.Cloud]bool{}
	for _, a := range adapters {
		seen[a.Cloud()] = true
		desc, err := a.RevokeAccess(context.Background(), "eve")
		require.NoError(t, err)
		assert.Contains(t, desc, "eve")
	}
	assert.True(t, seen[access.CloudAWS])
	assert.True(t, seen[access.CloudAzure])
	assert.True(t, seen[access.CloudGCP])
}
