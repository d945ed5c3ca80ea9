package crew

import (
	"fmt"

	"ContentForge/internal/ports"
	"ContentForge/internal/progress"
)

// Registry keeps a mapping from pipeline stages to their crews.
type Registry struct {
	executors map[progress.Stage]ports.StageExecutor
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{executors: map[progress.Stage]ports.StageExecutor{}}
}

// Register adds or replaces the crew for its stage.
func (r *Registry) Register(executor ports.StageExecutor) {
	if r.executors == nil {
		r.executors = map[progress.Stage]ports.StageExecutor{}
	}
	r.executors[executor.Stage()] = executor
}

// Resolve returns the crew for a stage or an error if it is absent.
func (r *Registry) Resolve(stage progress.Stage) (ports.StageExecutor, error) {
	if executor, ok := r.executors[stage]; ok {
		return executor, nil
	}
	return nil, fmt.Errorf("no crew registered for stage %s", stage)
}

// Executors exposes the stage mapping for orchestrator wiring.
func (r *Registry) Executors() map[progress.Stage]ports.StageExecutor {
	copied := make(map[progress.Stage]ports.StageExecutor, len(r.executors))
	for stage, executor := range r.executors {
		copied[stage] = executor
	}
	return copied
}
