package progress

import (
	"fmt"
	"math"
)

// Stage names one phase of the content-production pipeline. The five
// processable stages are ordered; the remaining values are terminal
// meta-states and never appear in a Catalog.
type Stage string

const (
	StageTopicDiscovery  Stage = "topic_discovery"
	StageTopicResearch   Stage = "topic_research"
	StageArticleWriting  Stage = "article_writing"
	StageStyleAdaptation Stage = "style_adaptation"
	StageArticleReview   Stage = "article_review"

	StageCompleted Stage = "completed"
	StageFailed    Stage = "failed"
	StagePaused    Stage = "paused"
)

// StageStatus tracks the lifecycle of a single stage inside a run.
type StageStatus string

const (
	StatusPending    StageStatus = "pending"
	StatusInProgress StageStatus = "in_progress"
	StatusCompleted  StageStatus = "completed"
	StatusFailed     StageStatus = "failed"
	StatusPaused     StageStatus = "paused"
)

// OverallStatus tracks the whole run. Completed and failed are absorbing.
type OverallStatus string

const (
	OverallPending    OverallStatus = "pending"
	OverallInProgress OverallStatus = "in_progress"
	OverallCompleted  OverallStatus = "completed"
	OverallFailed     OverallStatus = "failed"
	OverallPaused     OverallStatus = "paused"
)

// weightTolerance absorbs float rounding when checking the sum invariant.
const weightTolerance = 1e-9

// Catalog holds the fixed stage order and per-stage progress weights for one
// pipeline definition. Weights must sum to 1.0.
type Catalog struct {
	stages  []Stage
	weights map[Stage]float64
}

// NewCatalog validates the order/weight tables and returns an immutable catalog.
func NewCatalog(stages []Stage, weights map[Stage]float64) (*Catalog, error) {
	if len(stages) == 0 {
		return nil, fmt.Errorf("catalog requires at least one stage")
	}

	sum := 0.0
	for _, stage := range stages {
		w, ok := weights[stage]
		if !ok {
			return nil, fmt.Errorf("stage %s has no weight", stage)
		}
		if w < 0 {
			return nil, fmt.Errorf("stage %s has negative weight %f", stage, w)
		}
		sum += w
	}
	if len(weights) != len(stages) {
		return nil, fmt.Errorf("weight table has %d entries for %d stages", len(weights), len(stages))
	}
	if math.Abs(sum-1.0) > weightTolerance {
		return nil, fmt.Errorf("stage weights sum to %f, want 1.0", sum)
	}

	copied := make(map[Stage]float64, len(weights))
	for stage, w := range weights {
		copied[stage] = w
	}

	return &Catalog{
		stages:  append([]Stage(nil), stages...),
		weights: copied,
	}, nil
}

// ArticleProductionCatalog returns the standard five-stage article pipeline.
func ArticleProductionCatalog() *Catalog {
	catalog, err := NewCatalog(
		[]Stage{
			StageTopicDiscovery,
			StageTopicResearch,
			StageArticleWriting,
			StageStyleAdaptation,
			StageArticleReview,
		},
		map[Stage]float64{
			StageTopicDiscovery:  0.10,
			StageTopicResearch:   0.20,
			StageArticleWriting:  0.30,
			StageStyleAdaptation: 0.20,
			StageArticleReview:   0.20,
		},
	)
	if err != nil {
		panic(fmt.Sprintf("default catalog invalid: %v", err))
	}
	return catalog
}

// Stages returns the processable stages in pipeline order.
func (c *Catalog) Stages() []Stage {
	return append([]Stage(nil), c.stages...)
}

// First returns the opening stage of the pipeline.
func (c *Catalog) First() Stage {
	return c.stages[0]
}

// Contains reports whether the stage belongs to this pipeline.
func (c *Catalog) Contains(stage Stage) bool {
	for _, s := range c.stages {
		if s == stage {
			return true
		}
	}
	return false
}

// Next returns the stage immediately following the given one. The second
// return is false when the stage is the last, or unknown to the catalog.
func (c *Catalog) Next(stage Stage) (Stage, bool) {
	for i, s := range c.stages {
		if s == stage {
			if i+1 < len(c.stages) {
				return c.stages[i+1], true
			}
			return "", false
		}
	}
	return "", false
}

// Weight returns the progress weight of a stage; zero for unknown stages.
func (c *Catalog) Weight(stage Stage) float64 {
	return c.weights[stage]
}
