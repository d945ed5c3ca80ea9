package domain

import "time"

// SeedParams supplies the first pipeline stage with its inputs: how many
// candidate topics to discover and in which editorial category.
type SeedParams struct {
	Category string
	Count    int
}

// WorkItem is the unit of content flowing through the pipeline. Each stage
// enriches it: discovery fills Topic, research fills Notes, writing and
// style adaptation fill Content, review finalizes it.
type WorkItem struct {
	ID        string
	Category  string
	Topic     string
	Title     string
	Notes     string
	Content   string
	CreatedAt time.Time
}

// StageResult pairs a stage's output for one item with its feedback score.
// Scores come from automatic scoring or injected human review; both look
// the same to the pipeline.
type StageResult struct {
	Item  WorkItem
	Score float64
}

// ProducedArticle is the final accepted output of a completed run.
type ProducedArticle struct {
	Item       WorkItem
	FinalScore float64
	ProducedAt time.Time
}
