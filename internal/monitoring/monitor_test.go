package monitoring

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Harshad725250/Zero-Trust-Multi-Cloud-Framework/internal/access"
)

// Test plan for central monitoring:
// 1. Test RecordEvent appends one JSONL line per event
// 2. Test metrics counters track decisions, clouds, and event types
// 3. Test Snapshot returns a deep copy that cannot mutate live state
// 4. Test metrics-log consistency under concurrent writers
// 5. Test the metrics side file is persisted on every update
// 6. Test Replay reconstructs metrics from the log, tolerating a torn tail
// 7. Test startup fails when the audit log cannot be opened
// 8. Test appendLine gives up after bounded retries

func newTestMonitor(t *testing.T) (*Monitor, string, string) {
	t.Helper()
	dir := t.TempDir()
	logPath := filepath.Join(dir, "audit.jsonl")
	metricsPath := filepath.Join(dir, "metrics.json")

	monitor, err := New(context.Background(), Config{
		LogPath:     logPath,
		MetricsPath: metricsPath,
		Logger:      zerolog.Nop(),
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = monitor.Close(ctx)
	})

	return monitor, logPath, metricsPath
}

func accessEntry(decision access.Decision, cloud access.Cloud) Entry {
	return Entry{
		Module:    "PEP",
		EventType: EventAccessRequest,
		User:      "alice",
		Resource:  "arn:aws:s3:::secure-bucket",
		Cloud:     cloud,
		Decision:  decision,
		Reason:    "context validated",
	}
}

func remediationEntry(decision access.Decision, cloud access.Cloud) Entry {
	return Entry{
		Module:       "ARM",
		EventType:    EventRemediation,
		User:         "alice",
		Resource:     "arn:aws:s3:::secure-bucket",
		Cloud:        cloud,
		Decision:     decision,
		Reason:       "untrusted network source (8.8.8.8)",
		ActionsTaken: []string{"Removed alice from SensitiveAccess group in AWS (stub)"},
	}
}

func countLogLines(t *testing.T, path string) int {
	t.Helper()
	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	count := 0
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if len(scanner.Bytes()) > 0 {
			count++
		}
	}
	require.NoError(t, scanner.Err())
	return count
}

func TestRecordEvent_AppendsOneLinePerEvent(t *testing.T) {
	monitor, logPath, _ := newTestMonitor(t)
	ctx := context.Background()

	require.NoError(t, monitor.RecordEvent(ctx, accessEntry(access.DecisionAllow, access.CloudAWS)))
	require.NoError(t, monitor.RecordEvent(ctx, accessEntry(access.DecisionDeny, access.CloudGCP)))

	assert.Equal(t, 2, countLogLines(t, logPath))

	// Test: entries round-trip with timestamps filled in
	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	var first Entry
	require.NoError(t, json.Unmarshal([]byte(splitLines(string(data))[0]), &first))
	assert.Equal(t, EventAccessRequest, first.EventType)
	assert.False(t, first.Timestamp.IsZero())
}

func splitLines(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			if i > start {
				out = append(out, s[start:i])
			}
			start = i + 1
		}
	}
	if start < len(s) {
		out = append(out, s[start:])
	}
	return out
}

func TestMetricsCounters(t *testing.T) {
	monitor, _, _ := newTestMonitor(t)
	ctx := context.Background()

	require.NoError(t, monitor.RecordEvent(ctx, accessEntry(access.DecisionAllow, access.CloudAWS)))
	require.NoError(t, monitor.RecordEvent(ctx, accessEntry(access.DecisionDeny, access.CloudAWS)))
	require.NoError(t, monitor.RecordEvent(ctx, accessEntry(access.DecisionReview, access.CloudAzure)))
	require.NoError(t, monitor.RecordEvent(ctx, remediationEntry(access.DecisionDeny, access.CloudAWS)))

	snapshot, err := monitor.Snapshot(ctx)
	require.NoError(t, err)

	assert.Equal(t, 3, snapshot.TotalAccessRequests)
	assert.Equal(t, 1, snapshot.TotalRemediations)

	// Test: the remediation entry carries decision DENY but must not inflate
	// the decision or per-cloud counters; those track access requests only
	assert.Equal(t, 1, snapshot.AllowCount)
	assert.Equal(t, 1, snapshot.DenyCount)
	assert.Equal(t, 1, snapshot.ReviewCount)
	assert.Equal(t, 2, snapshot.PerCloud["AWS"])
	assert.Equal(t, 1, snapshot.PerCloud["Azure"])
	assert.Equal(t, 0, snapshot.PerCloud["GCP"])
	assert.Equal(t, 3, snapshot.EventsByType["ACCESS_REQUEST"])
	assert.Equal(t, 1, snapshot.EventsByType["REMEDIATION"])
}

func TestSnapshot_IsDeepCopy(t *testing.T) {
	monitor, _, _ := newTestMonitor(t)
	ctx := context.Background()

	require.NoError(t, monitor.RecordEvent(ctx, accessEntry(access.DecisionAllow, access.CloudAWS)))

	first, err := monitor.Snapshot(ctx)
	require.NoError(t, err)

	// Test: mutating the snapshot has no effect on the live state
	first.PerCloud["AWS"] = 999
	first.EventsByType["ACCESS_REQUEST"] = 999
	first.TotalAccessRequests = 999

	second, err := monitor.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, second.TotalAccessRequests)
	assert.Equal(t, 1, second.PerCloud["AWS"])
	assert.Equal(t, 1, second.EventsByType["ACCESS_REQUEST"])
}

func TestMetricsLogConsistency_ConcurrentWriters(t *testing.T) {
	monitor, logPath, _ := newTestMonitor(t)
	ctx := context.Background()

	const writers = 8
	const perWriter = 24

	// Each writer records the entry pairs the pipeline emits: DENY and REVIEW
	// requests produce a REMEDIATION entry followed by the ACCESS_REQUEST
	// entry, both carrying the decision; ALLOW produces only the latter.
	var wg sync.WaitGroup
	decisions := []access.Decision{access.DecisionAllow, access.DecisionDeny, access.DecisionReview}
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				decision := decisions[(w+i)%len(decisions)]
				if decision != access.DecisionAllow {
					if err := monitor.RecordEvent(ctx, remediationEntry(decision, access.CloudAWS)); err != nil {
						t.Errorf("record failed: %v", err)
						return
					}
				}
				if err := monitor.RecordEvent(ctx, accessEntry(decision, access.CloudAWS)); err != nil {
					t.Errorf("record failed: %v", err)
					return
				}
			}
		}(w)
	}
	wg.Wait()

	snapshot, err := monitor.Snapshot(ctx)
	require.NoError(t, err)

	// Test: sum of decision counts equals ACCESS_REQUEST entries in the log,
	// with the interleaved REMEDIATION entries leaving the counters untouched
	total := writers * perWriter
	remediations := total * 2 / 3
	assert.Equal(t, total, snapshot.TotalAccessRequests)
	assert.Equal(t, total, snapshot.AllowCount+snapshot.DenyCount+snapshot.ReviewCount)
	assert.Equal(t, remediations, snapshot.TotalRemediations)
	assert.Equal(t, total, snapshot.PerCloud["AWS"])

	byType := countLogEntries(t, logPath)
	assert.Equal(t, total, byType[EventAccessRequest])
	assert.Equal(t, remediations, byType[EventRemediation])
}

func countLogEntries(t *testing.T, path string) map[EventType]int {
	t.Helper()
	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	byType := map[EventType]int{}
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var e Entry
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &e))
		byType[e.EventType]++
	}
	require.NoError(t, scanner.Err())
	return byType
}

func TestMetricsFilePersistedOnUpdate(t *testing.T) {
	monitor, _, metricsPath := newTestMonitor(t)
	ctx := context.Background()

	require.NoError(t, monitor.RecordEvent(ctx, accessEntry(access.DecisionAllow, access.CloudAWS)))

	persisted, err := ReadMetricsFile(metricsPath)
	require.NoError(t, err)
	assert.Equal(t, 1, persisted.TotalAccessRequests)
	assert.Equal(t, 1, persisted.AllowCount)
}

func TestReplay_ReconstructsMetrics(t *testing.T) {
	monitor, logPath, _ := newTestMonitor(t)
	ctx := context.Background()

	require.NoError(t, monitor.RecordEvent(ctx, accessEntry(access.DecisionAllow, access.CloudAWS)))
	require.NoError(t, monitor.RecordEvent(ctx, accessEntry(access.DecisionDeny, access.CloudGCP)))

	live, err := monitor.Snapshot(ctx)
	require.NoError(t, err)

	// Test: replaying the log from empty equals the live cache
	replayed, err := Replay(logPath)
	require.NoError(t, err)
	assert.Equal(t, live, replayed)
}

func TestReplay_ToleratesTornTail(t *testing.T) {
	monitor, logPath, _ := newTestMonitor(t)
	ctx := context.Background()

	require.NoError(t, monitor.RecordEvent(ctx, accessEntry(access.DecisionAllow, access.CloudAWS)))

	// Simulate a crash mid-append: a trailing partial JSON line.
	file, err := os.OpenFile(logPath, os.O_WRONLY|os.O_APPEND, 0644)
	require.NoError(t, err)
	_, err = file.WriteString(`{"timestamp":"2026-0`)
	require.NoError(t, err)
	require.NoError(t, file.Close())

	replayed, err := Replay(logPath)
	require.NoError(t, err)
	assert.Equal(t, 1, replayed.TotalAccessRequests)
}

func TestReplay_MissingLogIsEmpty(t *testing.T) {
	// Test: no log yet means zeroed metrics, not an error
	metrics, err := Replay(filepath.Join(t.TempDir(), "absent.jsonl"))
	require.NoError(t, err)
	assert.Equal(t, 0, metrics.TotalAccessRequests)
	assert.Equal(t, 0, metrics.PerCloud["AWS"])
}

func TestNew_UnopenableLogFails(t *testing.T) {
	// Test: a regular file in the directory position makes startup fail
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	_, err := New(context.Background(), Config{
		LogPath:     filepath.Join(blocker, "audit.jsonl"),
		MetricsPath: filepath.Join(dir, "metrics.json"),
		Logger:      zerolog.Nop(),
	})
	assert.Error(t, err)
}

func TestAppendLine_BoundedRetries(t *testing.T) {
	// Test: a file opened read-only exhausts the retry budget and errors
	dir := t.TempDir()
	path := filepath.Join(dir, "audit.jsonl")
	require.NoError(t, os.WriteFile(path, nil, 0644))

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	actor := &monitorActor{logger: zerolog.Nop(), file: file}
	err = actor.appendLine([]byte(`{}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "append failed after 3 attempts")
}
