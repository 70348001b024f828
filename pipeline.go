package opz

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/zoobzio/clockz"
	"github.com/zoobzio/hookz"
	"github.com/zoobzio/metricz"
	"github.com/zoobzio/tracez"
)

// Observability constants for the Pipeline connector.
const (
	// Metrics.
	PipelineProcessedTotal = metricz.Key("pipeline.processed.total")
	PipelineSuccessesTotal = metricz.Key("pipeline.successes.total")
	PipelineFailuresTotal  = metricz.Key("pipeline.failures.total")
	PipelineOpsCompleted   = metricz.Key("pipeline.ops.completed")
	PipelineOpsTotal       = metricz.Key("pipeline.ops.total")
	PipelineDurationMs     = metricz.Key("pipeline.duration.ms")

	// Spans.
	PipelineExecuteSpan = tracez.Key("pipeline.execute")
	PipelineOpSpan      = tracez.Key("pipeline.op")

	// Tags.
	PipelineTagOpCount  = tracez.Tag("pipeline.op_count")
	PipelineTagOpNumber = tracez.Tag("pipeline.op_number")
	PipelineTagOpName   = tracez.Tag("pipeline.op_name")
	PipelineTagSuccess  = tracez.Tag("pipeline.success")
	PipelineTagError    = tracez.Tag("pipeline.error")

	// Hook event keys.
	PipelineEventOpComplete  = hookz.Key("pipeline.op_complete")
	PipelineEventAllComplete = hookz.Key("pipeline.all_complete")
)

// Pipeline modification errors.
var (
	ErrEmptyPipeline = errors.New("pipeline is empty")
)

// PipelineEvent represents a pipeline execution event.
// This is emitted via hookz when individual operations complete or when
// all operations have finished, providing visibility into run progress.
type PipelineEvent struct {
	Name          Name          // Pipeline name
	OpName        Name          // Name of the operation
	OpNumber      int           // Current operation number (1-based)
	TotalOps      int           // Total number of operations
	Success       bool          // Whether the operation succeeded
	Error         error         // Error if the operation failed
	Duration      time.Duration // How long this operation took
	CompletedOps  int           // Number of operations completed (for all_complete)
	TotalDuration time.Duration // Total time for all operations (for all_complete)
	Timestamp     time.Time     // When the event occurred
}

// Pipeline provides a named, observable container for operations that
// mutate a shared context of type C. It maintains an ordered list of
// executables that run sequentially against the same *C.
//
// Pipeline offers a rich API with methods to modify the operation list at
// runtime. Use it when the plain SequenceMut slice is not enough: when runs
// should be observable, when operations are registered incrementally, or
// when the list changes between runs.
//
// Key features:
//   - Thread-safe for concurrent access
//   - Dynamic modification of the operation list
//   - Fail-fast execution with detailed errors
//   - Panic recovery around every operation
//
// # Observability
//
// Pipeline provides metrics, tracing, and events for every run:
//
// Metrics:
//   - pipeline.processed.total: Counter of pipeline runs
//   - pipeline.successes.total: Counter of successful runs
//   - pipeline.failures.total: Counter of failed runs
//   - pipeline.ops.completed: Gauge of operations completed
//   - pipeline.ops.total: Gauge of total operations
//   - pipeline.duration.ms: Gauge of total run duration
//
// Traces:
//   - pipeline.execute: Parent span for the entire run
//   - pipeline.op: Child span for each individual operation
//
// Events (via hooks):
//   - pipeline.op_complete: Fired as each operation completes
//   - pipeline.all_complete: Fired when all operations succeed
//
// Example with hooks:
//
//	pipeline := opz.NewPipeline[Canvas]("render",
//	    Forward{Dist: 10},
//	    Turn{Deg: 90},
//	)
//
//	pipeline.OnOpComplete(func(ctx context.Context, event opz.PipelineEvent) error {
//	    log.Printf("op %d/%d complete: %s (%v)",
//	        event.OpNumber, event.TotalOps, event.OpName, event.Duration)
//	    return nil
//	})
type Pipeline[C any] struct {
	name    Name
	ops     []ExecutableWithMut[C]
	mu      sync.RWMutex
	clock   clockz.Clock
	metrics *metricz.Registry
	tracer  *tracez.Tracer
	hooks   *hookz.Hooks[PipelineEvent]
}

// NewPipeline creates a new Pipeline with optional initial operations.
// The pipeline is ready to use immediately and can be safely accessed
// concurrently. Additional operations can be added using Register or the
// various modification methods.
//
// Example:
//
//	const RenderPipelineName opz.Name = "render"
//	pipeline := opz.NewPipeline[Canvas](RenderPipelineName,
//	    PenDown{},
//	    Forward{Dist: 10},
//	)
//
//	// Or create empty and add later
//	pipeline := opz.NewPipeline[Canvas](RenderPipelineName)
//	pipeline.Register(PenDown{}, Forward{Dist: 10})
func NewPipeline[C any](name Name, ops ...ExecutableWithMut[C]) *Pipeline[C] {
	// Initialize observability
	metrics := metricz.New()
	metrics.Counter(PipelineProcessedTotal)
	metrics.Counter(PipelineSuccessesTotal)
	metrics.Counter(PipelineFailuresTotal)
	metrics.Gauge(PipelineOpsCompleted)
	metrics.Gauge(PipelineOpsTotal)
	metrics.Gauge(PipelineDurationMs)

	return &Pipeline[C]{
		name:    name,
		ops:     slices.Clone(ops),
		metrics: metrics,
		tracer:  tracez.New(),
		hooks:   hookz.New[PipelineEvent](),
	}
}

// Register adds operations to this Pipeline.
// Operations are executed in the order they are registered.
//
// This method is thread-safe and can be called concurrently. New operations
// are appended to the existing list, making Register ideal for building
// pipelines incrementally.
func (p *Pipeline[C]) Register(ops ...ExecutableWithMut[C]) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ops = append(p.ops, ops...)
}

// ExecuteWithMut runs all registered operations against the shared context.
// Every operation receives the same *C, so mutations made by one handler are
// visible to the handlers after it. The context is checked before each
// operation: if it is canceled or expired, execution stops immediately.
// If any operation returns an error, execution stops and a *Error is
// returned with the pipeline's name prepended to the failure path.
//
// ExecuteWithMut is thread-safe and can be called concurrently, though
// concurrent runs against the same *C are only as safe as C itself.
func (p *Pipeline[C]) ExecuteWithMut(ctx context.Context, arg *C) (err error) {
	defer recoverToError(p.name, &err)

	p.mu.RLock()
	ops := make([]ExecutableWithMut[C], len(p.ops))
	copy(ops, p.ops)
	clock := p.getClock()
	p.mu.RUnlock()

	// Handle nil context
	if ctx == nil {
		ctx = context.Background()
	}

	// Track metrics
	p.metrics.Counter(PipelineProcessedTotal).Inc()
	p.metrics.Gauge(PipelineOpsTotal).Set(float64(len(ops)))
	start := clock.Now()

	// Start main span
	ctx, span := p.tracer.StartSpan(ctx, PipelineExecuteSpan)
	span.SetTag(PipelineTagOpCount, fmt.Sprintf("%d", len(ops)))
	defer func() {
		// Record duration
		elapsed := clock.Since(start)
		p.metrics.Gauge(PipelineDurationMs).Set(float64(elapsed.Milliseconds()))

		// Set success status
		if err == nil {
			span.SetTag(PipelineTagSuccess, "true")
			p.metrics.Counter(PipelineSuccessesTotal).Inc()
		} else {
			span.SetTag(PipelineTagSuccess, "false")
			span.SetTag(PipelineTagError, err.Error())
			p.metrics.Counter(PipelineFailuresTotal).Inc()
		}
		span.Finish()
	}()

	opsCompleted := 0

	for i, op := range ops {
		// Check context before starting the operation
		select {
		case <-ctx.Done():
			return &Error{
				Err:       ctx.Err(),
				Path:      []Name{p.name},
				Timeout:   errors.Is(ctx.Err(), context.DeadlineExceeded),
				Canceled:  errors.Is(ctx.Err(), context.Canceled),
				Timestamp: time.Now(),
			}
		default:
			// Start span for this operation
			opCtx, opSpan := p.tracer.StartSpan(ctx, PipelineOpSpan)
			opSpan.SetTag(PipelineTagOpNumber, fmt.Sprintf("%d", i+1))
			opSpan.SetTag(PipelineTagOpName, string(opName(op)))

			opStart := clock.Now()
			opErr := op.ExecuteWithMut(opCtx, arg)
			opDuration := clock.Since(opStart)
			opSpan.Finish()

			_ = p.hooks.Emit(ctx, PipelineEventOpComplete, PipelineEvent{ //nolint:errcheck
				Name:      p.name,
				OpName:    opName(op),
				OpNumber:  i + 1,
				TotalOps:  len(ops),
				Success:   opErr == nil,
				Error:     opErr,
				Duration:  opDuration,
				Timestamp: time.Now(),
			})

			if opErr != nil {
				// Attribute the failing op unless it already reported itself.
				var opE *Error
				if !errors.As(opErr, &opE) {
					opErr = wrapError(opName(op), opErr, opDuration)
				}
				return wrapError(p.name, opErr, opDuration)
			}

			opsCompleted++
			p.metrics.Gauge(PipelineOpsCompleted).Set(float64(opsCompleted))
		}
	}

	// All operations completed successfully - emit all_complete event
	totalDuration := clock.Since(start)
	_ = p.hooks.Emit(ctx, PipelineEventAllComplete, PipelineEvent{ //nolint:errcheck
		Name:          p.name,
		TotalOps:      len(ops),
		CompletedOps:  opsCompleted,
		TotalDuration: totalDuration,
		Success:       true,
		Timestamp:     time.Now(),
	})

	return nil
}

// Len returns the number of operations in the Pipeline.
func (p *Pipeline[C]) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.ops)
}

// Clear removes all operations from the Pipeline.
func (p *Pipeline[C]) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ops = p.ops[:0]
}

// Unshift adds operations to the front of the Pipeline (runs first).
func (p *Pipeline[C]) Unshift(ops ...ExecutableWithMut[C]) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ops = slices.Insert(p.ops, 0, ops...)
}

// Push adds operations to the back of the Pipeline (runs last).
func (p *Pipeline[C]) Push(ops ...ExecutableWithMut[C]) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ops = append(p.ops, ops...)
}

// Shift removes and returns the first operation.
func (p *Pipeline[C]) Shift() (ExecutableWithMut[C], error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.ops) == 0 {
		return nil, ErrEmptyPipeline
	}

	op := p.ops[0]
	p.ops = p.ops[1:]
	return op, nil
}

// Pop removes and returns the last operation.
func (p *Pipeline[C]) Pop() (ExecutableWithMut[C], error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.ops) == 0 {
		return nil, ErrEmptyPipeline
	}

	lastIndex := len(p.ops) - 1
	op := p.ops[lastIndex]
	p.ops = p.ops[:lastIndex]
	return op, nil
}

// Names returns the names of all operations in order. Operations that do
// not implement Named are identified by their Go type name.
func (p *Pipeline[C]) Names() []Name {
	p.mu.RLock()
	defer p.mu.RUnlock()

	names := make([]Name, len(p.ops))
	for i, op := range p.ops {
		names[i] = opName(op)
	}
	return names
}

// Remove removes the first operation with the specified name.
func (p *Pipeline[C]) Remove(name Name) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, op := range p.ops {
		if opName(op) == name {
			p.ops = slices.Delete(p.ops, i, i+1)
			return nil
		}
	}

	return fmt.Errorf("operation %q not found", name)
}

// Replace replaces the first operation with the specified name.
func (p *Pipeline[C]) Replace(name Name, op ExecutableWithMut[C]) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, existing := range p.ops {
		if opName(existing) == name {
			p.ops[i] = op
			return nil
		}
	}

	return fmt.Errorf("operation %q not found", name)
}

// After inserts operations after the first operation with the specified name.
func (p *Pipeline[C]) After(afterName Name, ops ...ExecutableWithMut[C]) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, op := range p.ops {
		if opName(op) == afterName {
			p.ops = slices.Insert(p.ops, i+1, ops...)
			return nil
		}
	}

	return fmt.Errorf("operation %q not found", afterName)
}

// Before inserts operations before the first operation with the specified name.
func (p *Pipeline[C]) Before(beforeName Name, ops ...ExecutableWithMut[C]) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, op := range p.ops {
		if opName(op) == beforeName {
			p.ops = slices.Insert(p.ops, i, ops...)
			return nil
		}
	}

	return fmt.Errorf("operation %q not found", beforeName)
}

// Name returns the name of this pipeline.
func (p *Pipeline[C]) Name() Name {
	return p.name
}

// WithClock sets a custom clock for testing.
func (p *Pipeline[C]) WithClock(clock clockz.Clock) *Pipeline[C] {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clock = clock
	return p
}

// getClock returns the clock to use.
func (p *Pipeline[C]) getClock() clockz.Clock {
	if p.clock == nil {
		return clockz.RealClock
	}
	return p.clock
}

// Close gracefully shuts down observability components.
func (p *Pipeline[C]) Close() error {
	if p.tracer != nil {
		p.tracer.Close()
	}
	p.hooks.Close()
	return nil
}

// OnOpComplete registers a handler for when an individual operation
// completes. The handler is called asynchronously each time an operation
// finishes, whether it succeeds or fails.
func (p *Pipeline[C]) OnOpComplete(handler func(context.Context, PipelineEvent) error) error {
	_, err := p.hooks.Hook(PipelineEventOpComplete, handler)
	return err
}

// OnAllComplete registers a handler for when all operations have completed
// successfully. The handler is called asynchronously after the entire run
// finishes without errors and includes aggregate statistics.
func (p *Pipeline[C]) OnAllComplete(handler func(context.Context, PipelineEvent) error) error {
	_, err := p.hooks.Hook(PipelineEventAllComplete, handler)
	return err
}

// opName resolves the display name of an operation: its Name method when it
// implements Named, its Go type name otherwise.
func opName(op any) Name {
	if named, ok := op.(Named); ok {
		return named.Name()
	}
	return fmt.Sprintf("%T", op)
}
