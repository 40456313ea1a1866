// Package pipeline implements the lead-generation run: six stages executed
// in fixed order over one batch of leads, with all resilience stage-internal.
package pipeline

import (
	"fmt"
	"sync"
	"time"

	"github.com/palmgate/leadgen-cli/internal/config"
	"github.com/palmgate/leadgen-cli/internal/model"
)

// RunContext carries per-run state between stages: the config snapshot, an
// append-only event log and the counters the analytics stage aggregates.
// Stages run their internal workers concurrently, so every mutation goes
// through the single mutex here; the lead slice itself is partitioned by
// index and never needs locking.
type RunContext struct {
	RunID     string
	StartedAt time.Time
	Config    *config.Config

	mu             sync.Mutex
	events         []string
	stages         []model.StageResult
	sourceCounts   map[string]int
	sourceFailures map[string]int
	leadsScraped   int
	syntheticUsed  bool
}

// NewRunContext creates the context for one run.
func NewRunContext(runID string, cfg *config.Config, start time.Time) *RunContext {
	return &RunContext{
		RunID:          runID,
		StartedAt:      start,
		Config:         cfg,
		sourceCounts:   make(map[string]int),
		sourceFailures: make(map[string]int),
	}
}

// AddEvent appends a formatted entry to the run's event log.
func (rc *RunContext) AddEvent(format string, args ...any) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.events = append(rc.events, fmt.Sprintf(format, args...))
}

// DrainEvents returns and clears the accumulated events. Called once at the
// end of each stage so every event lands in exactly one stage result.
func (rc *RunContext) DrainEvents() []string {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	events := rc.events
	rc.events = nil
	return events
}

// RecordSource notes how many leads one adapter produced.
func (rc *RunContext) RecordSource(name string, count int) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.sourceCounts[name] += count
}

// RecordSourceFailure notes one failed adapter fetch.
func (rc *RunContext) RecordSourceFailure(name string) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.sourceFailures[name]++
}

// SetLeadsScraped records the pre-dedup lead count.
func (rc *RunContext) SetLeadsScraped(n int) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.leadsScraped = n
}

// MarkSynthetic records that the scrape stage fell back to synthetic leads.
func (rc *RunContext) MarkSynthetic() {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.syntheticUsed = true
}

// AppendStage records a completed stage's outcome.
func (rc *RunContext) AppendStage(stage model.StageResult) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.stages = append(rc.stages, stage)
}

// Stages returns a copy of the recorded stage outcomes.
func (rc *RunContext) Stages() []model.StageResult {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	out := make([]model.StageResult, len(rc.stages))
	copy(out, rc.stages)
	return out
}

// SourceCounts returns a copy of the per-source lead counts.
func (rc *RunContext) SourceCounts() map[string]int {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return copyCounts(rc.sourceCounts)
}

// SourceFailures returns a copy of the per-source failure counts.
func (rc *RunContext) SourceFailures() map[string]int {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return copyCounts(rc.sourceFailures)
}

// LeadsScraped returns the pre-dedup lead count.
func (rc *RunContext) LeadsScraped() int {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.leadsScraped
}

// SyntheticUsed reports whether the synthetic fallback fired.
func (rc *RunContext) SyntheticUsed() bool {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.syntheticUsed
}

func copyCounts(src map[string]int) map[string]int {
	out := make(map[string]int, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
