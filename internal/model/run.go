package model

import "time"

// RunStatus represents the orchestrator state machine. Transitions are
// strictly sequential; Failed is reachable only from configuration errors
// or a cancelled run, never from record-level failures.
type RunStatus string

const (
	RunStatusInit          RunStatus = "init"
	RunStatusScraping      RunStatus = "scraping"
	RunStatusVerifying     RunStatus = "verifying"
	RunStatusQualifying    RunStatus = "qualifying"
	RunStatusSyncing       RunStatus = "syncing"
	RunStatusCommunicating RunStatus = "communicating"
	RunStatusReporting     RunStatus = "reporting"
	RunStatusDone          RunStatus = "done"
	RunStatusFailed        RunStatus = "failed"
)

// StageStatus is the outcome of a single pipeline stage.
type StageStatus string

const (
	StageStatusComplete StageStatus = "complete"
	StageStatusDegraded StageStatus = "degraded"
	StageStatusSkipped  StageStatus = "skipped"
)

// StageResult records one stage's outcome for the run log.
type StageResult struct {
	Name     string         `json:"name"`
	Status   StageStatus    `json:"status"`
	Duration int64          `json:"duration_ms"`
	Events   []string       `json:"events,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Run is one complete execution of all stages over one batch of leads.
type Run struct {
	ID        string     `json:"id"`
	Status    RunStatus  `json:"status"`
	Report    *RunReport `json:"report,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// RunReport is the end-of-run metrics document produced by the analytics
// stage. All rates are in [0,1]; a rate with a zero denominator is 0.
type RunReport struct {
	RunID     string    `json:"run_id"`
	StartedAt time.Time `json:"started_at"`
	Duration  int64     `json:"duration_ms"`

	LeadsScraped int `json:"leads_scraped"` // pre-dedup
	LeadsUnique  int `json:"leads_unique"`  // post-dedup
	Qualified    int `json:"qualified"`
	Rejected     int `json:"rejected"`

	PerSource         map[string]int     `json:"per_source"`
	SourceFailures    map[string]int     `json:"source_failures,omitempty"`
	Verification      map[string]int     `json:"verification"`
	ScoreHistogram    [11]int            `json:"score_histogram"`
	QualifiedRate     float64            `json:"qualified_rate"`
	VerifiedRate      float64            `json:"verified_rate"`
	SinkSuccess       map[string]float64 `json:"sink_success"`
	ChannelSuccess    map[string]float64 `json:"channel_success"`
	StageDurations    map[string]int64   `json:"stage_durations_ms"`
	Stages            []StageResult      `json:"stages"`
	SyntheticFallback bool               `json:"synthetic_fallback"`

	// Budget analysis over qualified leads, in whole AED.
	AvgBudget     int64          `json:"avg_budget"`
	MinBudget     int64          `json:"min_budget"`
	MaxBudget     int64          `json:"max_budget"`
	TopAreas      map[string]int `json:"top_areas,omitempty"`
	PropertyTypes map[string]int `json:"property_types,omitempty"`
}
