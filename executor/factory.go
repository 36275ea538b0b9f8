package executor

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/zero-day-ai/planexec/agent"
	"github.com/zero-day-ai/planexec/plan"
)

// Plan types understood by Factory.
const (
	PlanTypeDynamicAgent = "dynamic_agent"
	PlanTypeSimple       = "simple"
	PlanTypeDirect       = "direct"
)

// FactoryConfig holds the collaborators shared by every executor a Factory builds.
type FactoryConfig struct {
	Service      agent.Service
	Configurable agent.ConfigurableFactory
	Tools        agent.ToolCatalog

	// Options are applied to every executor.
	Options []Option

	Logger *slog.Logger
}

// Factory selects an executor by plan type. Executors are built once and reused.
type Factory struct {
	cfg    FactoryConfig
	logger *slog.Logger

	mu        sync.Mutex
	executors map[string]*Executor
}

// NewFactory creates a factory.
func NewFactory(cfg FactoryConfig) *Factory {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{
		cfg:       cfg,
		logger:    logger,
		executors: make(map[string]*Executor),
	}
}

// ForPlan returns the executor for p's plan type.
// Unknown types fall back to the dynamic agent executor.
func (f *Factory) ForPlan(p *plan.Plan) (*Executor, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: plan is nil", ErrInvalidPlan)
	}
	planType := strings.ToLower(strings.TrimSpace(p.PlanType))
	if planType == "" {
		return nil, fmt.Errorf("%w: plan %s has no plan type", ErrInvalidPlan, p.CurrentPlanID)
	}
	if !f.IsPlanTypeSupported(planType) {
		f.logger.Warn("unsupported plan type, using dynamic agent executor",
			"plan_type", p.PlanType,
			"plan_id", p.CurrentPlanID,
		)
		planType = PlanTypeDynamicAgent
	}
	return f.executor(planType), nil
}

// ForType returns the executor for planType without plan validation.
func (f *Factory) ForType(planType string) *Executor {
	planType = strings.ToLower(strings.TrimSpace(planType))
	if !f.IsPlanTypeSupported(planType) {
		planType = PlanTypeDynamicAgent
	}
	return f.executor(planType)
}

func (f *Factory) executor(planType string) *Executor {
	f.mu.Lock()
	defer f.mu.Unlock()

	if e, ok := f.executors[planType]; ok {
		return e
	}

	registry := &RegistryResolver{Service: f.cfg.Service, Tools: f.cfg.Tools}

	var resolver Resolver = registry
	if planType == PlanTypeDynamicAgent {
		resolver = &ConfigurableResolver{
			Factory:  f.cfg.Configurable,
			Tools:    f.cfg.Tools,
			Fallback: registry,
		}
	}

	opts := append([]Option{WithLogger(f.logger)}, f.cfg.Options...)
	e := New(resolver, opts...)
	f.executors[planType] = e
	return e
}

// SupportedPlanTypes lists the plan types with a dedicated executor.
func (f *Factory) SupportedPlanTypes() []string {
	types := []string{PlanTypeDynamicAgent, PlanTypeSimple, PlanTypeDirect}
	sort.Strings(types)
	return types
}

// IsPlanTypeSupported reports whether planType has a dedicated executor.
func (f *Factory) IsPlanTypeSupported(planType string) bool {
	switch strings.ToLower(strings.TrimSpace(planType)) {
	case PlanTypeDynamicAgent, PlanTypeSimple, PlanTypeDirect:
		return true
	default:
		return false
	}
}
