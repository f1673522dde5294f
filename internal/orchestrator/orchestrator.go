// Package orchestrator drives Sessions across a dependency graph of Specs:
// registration, wave-ordered starts, a periodic monitor tick that detects
// timeouts and terminal transitions, retry-before-rollback failure
// handling, and escalation.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/aad-go/aad/internal/bus"
	"github.com/aad-go/aad/internal/depgraph"
	"github.com/aad-go/aad/internal/errs"
	"github.com/aad-go/aad/internal/ids"
	"github.com/aad-go/aad/internal/model"
	"github.com/aad-go/aad/internal/obs"
	"github.com/aad-go/aad/internal/registry"
)

// Config holds the orchestrator's tunables. Zero values are replaced with
// their documented defaults by New.
type Config struct {
	MaxParallelSessions int
	SessionTimeout      time.Duration
	MonitorInterval     time.Duration
	MaxRetryAttempts    int
	RetryDelay          time.Duration
}

func (c Config) withDefaults() Config {
	if c.MaxParallelSessions <= 0 {
		c.MaxParallelSessions = runtime.NumCPU()
		if c.MaxParallelSessions <= 0 {
			c.MaxParallelSessions = 4
		}
	}
	if c.SessionTimeout <= 0 {
		c.SessionTimeout = 3600 * time.Second
	}
	if c.MonitorInterval <= 0 {
		c.MonitorInterval = time.Second
	}
	if c.MaxRetryAttempts <= 0 {
		c.MaxRetryAttempts = 3
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = 5 * time.Second
	}
	return c
}

// Hooks are optional extension points invoked around completion and
// escalation. Both default to no-ops.
type Hooks struct {
	OnCompletion func(id ids.SessionID)
	OnEscalation func(id ids.SessionID, reason string)
}

// EscalationWriter persists an escalation record somewhere durable (a
// Markdown file under the escalation directory, typically). Injected so
// the orchestrator core never touches a filesystem path directly.
type EscalationWriter func(sess model.Session, level, reason string) (string, error)

// Orchestrator owns the session registry, the spec dependency graph, the
// event bus, and the escalation/hook extension points.
type Orchestrator struct {
	mu sync.Mutex

	cfg      Config
	registry *registry.Registry
	graph    *depgraph.Graph
	bus      *bus.Bus
	logger   *slog.Logger
	hooks    Hooks
	escalate EscalationWriter
	tracer   trace.Tracer

	specPhases map[ids.SpecID]ids.Phase
	sessionSet map[ids.SessionID]ids.SpecID
}

// New creates an Orchestrator. A nil logger defaults to slog.Default(); a
// nil escalate writer falls back to a no-op that returns an empty path; a
// nil tracer falls back to a genuine no-op tracer, so callers that don't
// care about tracing pay nothing for it.
func New(cfg Config, b *bus.Bus, logger *slog.Logger, hooks Hooks, escalate EscalationWriter, tracer trace.Tracer) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	if escalate == nil {
		escalate = func(model.Session, string, string) (string, error) { return "", nil }
	}
	if tracer == nil {
		tracer = nooptrace.NewTracerProvider().Tracer(obs.TracerName)
	}
	return &Orchestrator{
		cfg:        cfg.withDefaults(),
		registry:   registry.New(),
		graph:      depgraph.New(),
		bus:        b,
		logger:     logger,
		hooks:      hooks,
		escalate:   escalate,
		tracer:     tracer,
		specPhases: make(map[ids.SpecID]ids.Phase),
		sessionSet: make(map[ids.SessionID]ids.SpecID),
	}
}

// RegisterSpec creates a Session for specID/phase and inserts specID as a
// graph node with no prerequisites.
func (o *Orchestrator) RegisterSpec(id ids.SessionID, specID ids.SpecID, phase ids.Phase) (err error) {
	_, span := obs.StartSpan(context.Background(), o.tracer, "orchestrator.RegisterSpec",
		obs.AttrSpecID.String(string(specID)), obs.AttrSessionID.String(string(id)), obs.AttrPhase.String(phase.String()))
	defer func() {
		if err != nil {
			span.RecordError(err)
		}
		span.End()
	}()

	o.mu.Lock()
	defer o.mu.Unlock()
	err = o.registerSpecLocked(id, specID, phase, nil)
	return err
}

// RegisterSpecWithDependencies is RegisterSpec plus a prerequisite edge per
// entry in prereqs. Fails with KindCyclicDependency if any edge would
// create a cycle; the session is registered regardless, matching
// §4.4's "callers must treat cycle failure as a terminal configuration
// error."
func (o *Orchestrator) RegisterSpecWithDependencies(id ids.SessionID, specID ids.SpecID, phase ids.Phase, prereqs []ids.SpecID) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.registerSpecLocked(id, specID, phase, prereqs)
}

func (o *Orchestrator) registerSpecLocked(id ids.SessionID, specID ids.SpecID, phase ids.Phase, prereqs []ids.SpecID) error {
	sess := model.NewSession(id, specID, phase)
	if err := o.registry.Add(*sess); err != nil {
		return err
	}
	o.specPhases[specID] = phase
	o.sessionSet[id] = specID
	o.graph.EnsureNode(specID)

	for _, prereq := range prereqs {
		if err := o.graph.AddEdge(specID, prereq); err != nil {
			return err
		}
	}
	return nil
}

// StartSession moves id from Pending to Running and stamps its start time.
func (o *Orchestrator) StartSession(id ids.SessionID) (err error) {
	_, span := obs.StartSpan(context.Background(), o.tracer, "orchestrator.StartSession",
		obs.AttrSessionID.String(string(id)))
	defer func() {
		if err != nil {
			span.RecordError(err)
		}
		span.End()
	}()

	o.mu.Lock()
	defer o.mu.Unlock()
	err = o.startSessionLocked(id)
	return err
}

func (o *Orchestrator) startSessionLocked(id ids.SessionID) error {
	if _, ok := o.registry.Status(id); !ok {
		return errs.New(errs.KindValidation, "session not found")
	}
	o.registry.SetStatus(id, ids.SessionRunning)
	o.registry.SetStartTime(id, time.Now())
	o.bus.Publish(bus.TopicSessionStarted, bus.SessionEvent{
		SessionID: string(id),
		SpecID:    string(o.sessionSet[id]),
		OldStatus: ids.SessionPending.String(),
		NewStatus: ids.SessionRunning.String(),
	})
	o.logger.Info("session started", "session_id", id, "spec_id", o.sessionSet[id])
	return nil
}

// StartAllSessions topologically sorts the dependency graph and starts the
// session registered against each spec, in order. Returns the started
// SessionIds in start order.
func (o *Orchestrator) StartAllSessions() ([]ids.SessionID, error) {
	o.mu.Lock()
	order, err := o.graph.TopologicalSort()
	specToSession := make(map[ids.SpecID]ids.SessionID, len(o.sessionSet))
	for sessID, specID := range o.sessionSet {
		specToSession[specID] = sessID
	}
	o.mu.Unlock()
	if err != nil {
		return nil, err
	}

	started := make([]ids.SessionID, 0, len(order))
	for _, specID := range order {
		sessID, ok := specToSession[specID]
		if !ok {
			continue
		}
		if err := o.StartSession(sessID); err != nil {
			return started, err
		}
		started = append(started, sessID)
	}
	return started, nil
}

// MarkSessionCompleted sets id's status to Completed.
func (o *Orchestrator) MarkSessionCompleted(id ids.SessionID) {
	_, span := obs.StartSpan(context.Background(), o.tracer, "orchestrator.MarkSessionCompleted",
		obs.AttrSessionID.String(string(id)))
	defer span.End()

	o.mu.Lock()
	defer o.mu.Unlock()
	o.registry.SetStatus(id, ids.SessionCompleted)
}

// MarkSessionFailed sets id's status to Failed.
func (o *Orchestrator) MarkSessionFailed(id ids.SessionID) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.registry.SetStatus(id, ids.SessionFailed)
}

// GetSessionStatus returns id's current status.
func (o *Orchestrator) GetSessionStatus(id ids.SessionID) (ids.SessionStatus, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.registry.Status(id)
}

// DetermineSessionStatus returns id's terminal status unchanged; otherwise,
// if the session has been running at least SessionTimeout, upgrades it to
// TimedOut via an explicit write and returns the new status.
func (o *Orchestrator) DetermineSessionStatus(id ids.SessionID) (ids.SessionStatus, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.determineSessionStatusLocked(id)
}

func (o *Orchestrator) determineSessionStatusLocked(id ids.SessionID) (ids.SessionStatus, error) {
	status, ok := o.registry.Status(id)
	if !ok {
		return status, errs.New(errs.KindValidation, "session not found")
	}
	if status.IsTerminal() {
		return status, nil
	}
	start, hasStart := o.registry.StartTime(id)
	if hasStart && time.Since(start) >= o.cfg.SessionTimeout {
		o.registry.SetStatus(id, ids.SessionTimedOut)
		return ids.SessionTimedOut, nil
	}
	return status, nil
}

// ProgressCounters tallies every SessionStatus variant plus totals.
type ProgressCounters struct {
	Counts  map[ids.SessionStatus]int
	Total   int
	Percent float64
}

// CalculateProgress scans the registry's status snapshot and returns
// per-status counters, total, and percent complete (terminal / total * 100).
func (o *Orchestrator) CalculateProgress() ProgressCounters {
	snapshot := o.registry.Snapshot()
	counts := make(map[ids.SessionStatus]int)
	for _, s := range ids.AllSessionStatuses() {
		counts[s] = 0
	}
	for _, status := range snapshot {
		counts[status]++
	}
	total := len(snapshot)
	terminal := counts[ids.SessionCompleted] + counts[ids.SessionFailed] + counts[ids.SessionTimedOut]
	percent := 100.0
	if total > 0 {
		percent = float64(terminal) * 100 / float64(total)
	}
	return ProgressCounters{Counts: counts, Total: total, Percent: percent}
}

// Escalate fetches the session, writes an escalation record via the
// injected EscalationWriter, publishes it on the event bus, and logs to
// stderr. Does not mutate session status.
func (o *Orchestrator) Escalate(id ids.SessionID, level, reason string) error {
	o.mu.Lock()
	sess, ok := o.registry.Get(id)
	o.mu.Unlock()
	if !ok {
		return errs.New(errs.KindValidation, "session not found")
	}

	path, err := o.escalate(sess, level, reason)
	if err != nil {
		return err
	}

	o.bus.Publish(bus.TopicSpecEscalated, bus.EscalationEvent{
		SessionID: string(id),
		SpecID:    string(sess.SpecID),
		Reason:    reason,
		LogPath:   path,
	})
	fmt.Fprintf(os.Stderr, "[%s] escalation for session %s: %s\n", level, id, reason)
	if o.hooks.OnEscalation != nil {
		o.hooks.OnEscalation(id, reason)
	}
	return nil
}

// HandleSessionCompletion marks id Completed, clears its retry counter,
// logs success, and invokes the optional completion hook.
func (o *Orchestrator) HandleSessionCompletion(id ids.SessionID) {
	o.mu.Lock()
	o.registry.SetStatus(id, ids.SessionCompleted)
	o.registry.ClearRetry(id)
	start, hasStart := o.registry.StartTime(id)
	o.mu.Unlock()

	duration := time.Duration(0)
	if hasStart {
		duration = time.Since(start)
	}
	o.bus.Publish(bus.TopicSessionCompleted, bus.SessionEvent{
		SessionID: string(id),
		NewStatus: ids.SessionCompleted.String(),
	})
	o.logger.Info("session completed", "session_id", id, "duration", duration)
	if o.hooks.OnCompletion != nil {
		o.hooks.OnCompletion(id)
	}
}

// HandleSessionFailure emits an Error-level escalation, then branches on
// should_retry (retry_counts[id] < max_retry_attempts): retry
// increments the counter, releases guards, sleeps retry_delay_secs, and
// restarts the session; rollback marks it Failed and clears its
// bookkeeping.
func (o *Orchestrator) HandleSessionFailure(id ids.SessionID, reason string) (err error) {
	_, span := obs.StartSpan(context.Background(), o.tracer, "orchestrator.HandleSessionFailure",
		obs.AttrSessionID.String(string(id)))
	defer func() {
		if err != nil {
			span.RecordError(err)
		}
		span.End()
	}()

	if err := o.Escalate(id, "Error", reason); err != nil {
		o.logger.Error("failed to write escalation", "session_id", id, "error", err)
	}

	o.mu.Lock()
	retries := o.registry.RetryCount(id)
	shouldRetry := retries < o.cfg.MaxRetryAttempts
	if shouldRetry {
		o.registry.IncrementRetry(id)
	}
	delay := o.cfg.RetryDelay
	o.mu.Unlock()

	if shouldRetry {
		o.logger.Warn("session failed, retrying", "session_id", id, "reason", reason, "attempt", retries+1)
		o.bus.Publish(bus.TopicSessionRetrying, bus.SessionEvent{SessionID: string(id), NewStatus: ids.SessionPending.String()})
		time.Sleep(delay)

		o.mu.Lock()
		o.registry.SetStatus(id, ids.SessionPending)
		o.mu.Unlock()

		return o.StartSession(id)
	}

	o.logger.Error("session failed, exhausted retries", "session_id", id, "reason", reason)
	o.mu.Lock()
	o.registry.SetStatus(id, ids.SessionFailed)
	o.registry.ClearRetry(id)
	o.registry.ClearStartTime(id)
	o.mu.Unlock()

	o.bus.Publish(bus.TopicSessionFailed, bus.SessionEvent{SessionID: string(id), NewStatus: ids.SessionFailed.String()})
	return nil
}

// MonitorLoop ticks at MonitorInterval, re-evaluating every session's
// status and reacting to newly terminal transitions, until every session
// is terminal or ctx is cancelled.
func (o *Orchestrator) MonitorLoop(ctx context.Context) error {
	ticker := time.NewTicker(o.cfg.MonitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if o.tick() {
				return nil
			}
		}
	}
}

// tick re-evaluates every session once and returns true once every
// registered session has reached a terminal status.
func (o *Orchestrator) tick() bool {
	o.mu.Lock()
	snapshot := o.registry.Snapshot()
	sessionIDs := make([]ids.SessionID, 0, len(snapshot))
	for id := range snapshot {
		sessionIDs = append(sessionIDs, id)
	}
	o.mu.Unlock()

	pending, running := 0, 0
	for _, id := range sessionIDs {
		prior, _ := o.GetSessionStatus(id)
		newStatus, err := o.DetermineSessionStatus(id)
		if err != nil {
			continue
		}
		if newStatus != prior && newStatus.IsTerminal() {
			switch newStatus {
			case ids.SessionCompleted:
				o.HandleSessionCompletion(id)
			case ids.SessionTimedOut:
				o.bus.Publish(bus.TopicSessionTimedOut, bus.SessionEvent{SessionID: string(id), NewStatus: ids.SessionTimedOut.String()})
				o.logger.Warn("session timed out", "session_id", id, "timeout", o.cfg.SessionTimeout)
				_ = o.HandleSessionFailure(id, "session timed out")
			}
		}
		switch newStatus {
		case ids.SessionPending:
			pending++
		case ids.SessionRunning:
			running++
		}
	}

	progress := o.CalculateProgress()
	if progress.Total > 0 {
		o.bus.Publish(bus.TopicSpecProgress, bus.ProgressEvent{
			Completed:   progress.Counts[ids.SessionCompleted],
			Failed:      progress.Counts[ids.SessionFailed],
			TimedOut:    progress.Counts[ids.SessionTimedOut],
			Total:       progress.Total,
			PercentDone: progress.Percent,
		})
	}

	return pending == 0 && running == 0 && progress.Total > 0
}

// Waves returns the dependency graph's parallel execution waves.
func (o *Orchestrator) Waves() ([][]ids.SpecID, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.graph.Waves()
}
