package monitoring

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/tochemey/goakt/v2/actors"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ErrAuditWrite reports that an event could not be durably recorded even after
// the bounded retries. Callers treat this as degraded operation, never as a
// reason to change an already-issued decision.
var ErrAuditWrite = errors.New("audit log write failed")

const (
	appendAttempts = 3
	appendBackoff  = 50 * time.Millisecond
	askTimeout     = 5 * time.Second
)

// Config configures a Monitor.
type Config struct {
	// LogPath is the append-only JSONL audit log.
	LogPath string
	// MetricsPath is the side file the metrics cache is persisted to on every
	// update.
	MetricsPath string
	// Alarm is invoked when an append still fails after retries. Defaults to
	// an error-level log; deployments hook their paging here.
	Alarm func(error)
	// Logger is the base logger for the component.
	Logger zerolog.Logger
}

// Monitor is the central monitoring component. All event appends and metrics
// mutations funnel through a single-writer actor, which is the one
// serialization point in the pipeline; a snapshot is therefore always
// consistent with some prefix of the log.
type Monitor struct {
	system actors.ActorSystem
	pid    *actors.PID
	logger zerolog.Logger
}

// Recorder is the write-side interface other components depend on.
type Recorder interface {
	RecordEvent(ctx context.Context, e Entry) error
}

// New starts the monitoring actor system and spawns the single writer.
func New(ctx context.Context, cfg Config) (*Monitor, error) {
	logger := cfg.Logger.With().Str("component", "monitoring").Logger()
	if cfg.Alarm == nil {
		cfg.Alarm = func(err error) {
			logger.Error().Err(err).Msg("audit write failure escalated")
		}
	}

	system, err := actors.NewActorSystem("ztmc-monitoring")
	if err != nil {
		return nil, fmt.Errorf("failed to create actor system: %w", err)
	}
	if err := system.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start actor system: %w", err)
	}

	actor := &monitorActor{
		logPath:     cfg.LogPath,
		metricsPath: cfg.MetricsPath,
		alarm:       cfg.Alarm,
		logger:      logger,
	}

	pid, err := system.Spawn(ctx, "monitor", actor)
	if err != nil {
		stopCtx, cancel := context.WithTimeout(context.Background(), askTimeout)
		defer cancel()
		_ = system.Stop(stopCtx)
		return nil, fmt.Errorf("failed to spawn monitor actor: %w", err)
	}

	return &Monitor{system: system, pid: pid, logger: logger}, nil
}

// RecordEvent appends the entry to the audit log and updates the metrics
// cache. The entry's timestamp is filled in if unset.
func (m *Monitor) RecordEvent(ctx context.Context, e Entry) error {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	if e.ActionsTaken == nil {
		e.ActionsTaken = []string{}
	}

	line, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	reply, err := actors.Ask(ctx, m.pid, wrapperspb.Bytes(line), askTimeout)
	if err != nil {
		return fmt.Errorf("monitor actor unavailable: %w", err)
	}

	status, ok := reply.(*wrapperspb.StringValue)
	if !ok {
		return fmt.Errorf("unexpected monitor reply type %T", reply)
	}
	if status.GetValue() != "" {
		return fmt.Errorf("%w: %s", ErrAuditWrite, status.GetValue())
	}
	return nil
}

// Snapshot returns a deep, independently mutable copy of the metrics state.
func (m *Monitor) Snapshot(ctx context.Context) (Metrics, error) {
	reply, err := actors.Ask(ctx, m.pid, &emptypb.Empty{}, askTimeout)
	if err != nil {
		return Metrics{}, fmt.Errorf("monitor actor unavailable: %w", err)
	}

	payload, ok := reply.(*wrapperspb.BytesValue)
	if !ok {
		return Metrics{}, fmt.Errorf("unexpected monitor reply type %T", reply)
	}

	snapshot := NewMetrics()
	if err := json.Unmarshal(payload.GetValue(), &snapshot); err != nil {
		return Metrics{}, fmt.Errorf("failed to decode metrics snapshot: %w", err)
	}
	return snapshot, nil
}

// Close shuts the actor system down, flushing the log file.
func (m *Monitor) Close(ctx context.Context) error {
	return m.system.Stop(ctx)
}

// monitorActor is the single writer. Events cross its mailbox as the exact
// JSONL bytes that get appended, so the mailbox encoding and the durable
// encoding cannot drift apart.
type monitorActor struct {
	logPath     string
	metricsPath string
	alarm       func(error)
	logger      zerolog.Logger

	file    *os.File
	metrics Metrics
}

// PreStart opens the audit log for appending, creating parent directories as
// needed. Metrics always start from zero at process start; `ztmc replay`
// rebuilds them from the log after a crash.
func (a *monitorActor) PreStart(ctx context.Context) error {
	if dir := filepath.Dir(a.logPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
	}

	file, err := os.OpenFile(a.logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open audit log: %w", err)
	}

	a.file = file
	a.metrics = NewMetrics()
	return nil
}

// Receive handles record and snapshot messages.
func (a *monitorActor) Receive(ctx *actors.ReceiveContext) {
	switch msg := ctx.Message().(type) {
	case *wrapperspb.BytesValue:
		a.handleRecord(ctx, msg.GetValue())

	case *emptypb.Empty:
		a.handleSnapshot(ctx)

	default:
		a.logger.Warn().Str("type", fmt.Sprintf("%T", msg)).Msg("unknown message")
		ctx.Unhandled()
	}
}

// PostStop closes the log file.
func (a *monitorActor) PostStop(ctx context.Context) error {
	if a.file != nil {
		return a.file.Close()
	}
	return nil
}

func (a *monitorActor) handleRecord(ctx *actors.ReceiveContext, line []byte) {
	if err := a.appendLine(line); err != nil {
		// The append is the audit invariant; an undurable decision must be
		// escalated, never silently dropped.
		a.alarm(err)
		ctx.Response(wrapperspb.String(err.Error()))
		return
	}

	var e Entry
	if err := json.Unmarshal(line, &e); err != nil {
		ctx.Response(wrapperspb.String(fmt.Sprintf("malformed event: %v", err)))
		return
	}

	a.metrics.Apply(e)
	if err := a.metrics.WriteFile(a.metricsPath); err != nil {
		// Metrics are a cache over the log; a failed persist degrades
		// recovery convenience, not the audit trail.
		a.logger.Warn().Err(err).Msg("failed to persist metrics file")
	}

	ctx.Response(wrapperspb.String(""))
}

func (a *monitorActor) handleSnapshot(ctx *actors.ReceiveContext) {
	data, err := json.Marshal(a.metrics)
	if err != nil {
		a.logger.Error().Err(err).Msg("failed to encode metrics snapshot")
		ctx.Response(wrapperspb.Bytes(nil))
		return
	}
	ctx.Response(wrapperspb.Bytes(data))
}

func (a *monitorActor) appendLine(line []byte) error {
	record := make([]byte, 0, len(line)+1)
	record = append(record, line...)
	record = append(record, '\n')

	var lastErr error
	for attempt := 0; attempt < appendAttempts; attempt++ {
		if attempt > 0 {
			time.Sleep(appendBackoff)
		}
		if _, err := a.file.Write(record); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return fmt.Errorf("append failed after %d attempts: %w", appendAttempts, lastErr)
}
