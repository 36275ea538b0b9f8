package planexec

import (
	"log/slog"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/zero-day-ai/planexec/agent"
	"github.com/zero-day-ai/planexec/executor"
	"github.com/zero-day-ai/planexec/interrupt"
	"github.com/zero-day-ai/planexec/recorder"
)

// Option configures an Engine.
type Option func(*engineConfig)

// engineConfig holds the collaborators supplied to New.
type engineConfig struct {
	logger       *slog.Logger
	tracer       trace.Tracer
	meter        metric.Meter
	recorder     recorder.Recorder
	files        executor.FileSyncer
	memory       executor.MemoryCleaner
	service      agent.Service
	configurable agent.ConfigurableFactory
	tools        agent.ToolCatalog
	finalizer    executor.Finalizer
	store        interrupt.Store
}

// WithLogger sets a custom logger for the engine.
// If not provided, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(c *engineConfig) {
		c.logger = logger
	}
}

// WithTracer sets an OpenTelemetry tracer for plan and step spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(c *engineConfig) {
		c.tracer = tracer
	}
}

// WithMeter sets an OpenTelemetry meter for worker pool metrics.
func WithMeter(meter metric.Meter) Option {
	return func(c *engineConfig) {
		c.meter = meter
	}
}

// WithRecorder sets the sink for plan and step lifecycle events.
func WithRecorder(r recorder.Recorder) Option {
	return func(c *engineConfig) {
		c.recorder = r
	}
}

// WithFileSyncer overrides the file syncer built from configuration.
func WithFileSyncer(f executor.FileSyncer) Option {
	return func(c *engineConfig) {
		c.files = f
	}
}

// WithMemory sets the agent memory cleared after every run.
func WithMemory(m executor.MemoryCleaner) Option {
	return func(c *engineConfig) {
		c.memory = m
	}
}

// WithAgentService sets the registry that creates agents for tagged steps.
func WithAgentService(s agent.Service) Option {
	return func(c *engineConfig) {
		c.service = s
	}
}

// WithConfigurableFactory sets the factory for the configurable agent used by untagged steps.
func WithConfigurableFactory(f agent.ConfigurableFactory) Option {
	return func(c *engineConfig) {
		c.configurable = f
	}
}

// WithToolCatalog sets the catalog agents look tools up in.
func WithToolCatalog(t agent.ToolCatalog) Option {
	return func(c *engineConfig) {
		c.tools = t
	}
}

// WithFinalizer sets a finalizer applied to every run started through the engine.
func WithFinalizer(f executor.Finalizer) Option {
	return func(c *engineConfig) {
		c.finalizer = f
	}
}

// WithInterruptStore overrides the interruption store built from configuration.
func WithInterruptStore(s interrupt.Store) Option {
	return func(c *engineConfig) {
		c.store = s
	}
}
