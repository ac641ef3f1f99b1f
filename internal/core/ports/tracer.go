package ports

import "context"

// SpanConfig holds the options a SpanOption may set on span creation. It is
// empty today; it exists so Tracer.Start can grow span-creation knobs (kind,
// links, start attributes) without changing every call site's signature.
type SpanConfig struct{}

// SpanOption configures a SpanConfig at span-creation time.
type SpanOption func(*SpanConfig)

// Tracer abstracts span creation and plan emission so the scheduler and
// orchestrator never import an OpenTelemetry type directly; the concrete
// adapter lives in internal/adapters/telemetry.
//
//go:generate mockgen -source=tracer.go -destination=mocks/mock_tracer.go -package=mocks
type Tracer interface {
	// Start begins a new span named name, returning the derived context and
	// the span handle.
	Start(ctx context.Context, name string, opts ...SpanOption) (context.Context, Span)
	// EmitPlan signals that taskNames has been scheduled to run, with
	// dependencies and targets for renderers that visualize the plan.
	EmitPlan(ctx context.Context, taskNames []string, dependencies map[string][]string, targets []string)
	// Shutdown flushes and releases any resources held by the tracer.
	Shutdown(ctx context.Context) error
}

// Span represents a single unit of traced work. It also satisfies io.Writer
// so task stdout/stderr can be attached directly as span events.
type Span interface {
	// End completes the span.
	End()
	// RecordError attaches err to the span and marks it as errored.
	RecordError(err error)
	// SetAttribute records a key-value pair on the span.
	SetAttribute(key string, value any)
	// Write appends p as a log event on the span, satisfying io.Writer.
	Write(p []byte) (n int, err error)
	// MarkExecStart signals that command execution has begun, distinguishing
	// scheduling/setup latency from the process's own runtime in traces.
	MarkExecStart()
}
