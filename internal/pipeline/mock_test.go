package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/palmgate/leadgen-cli/internal/config"
	"github.com/palmgate/leadgen-cli/internal/model"
	"github.com/palmgate/leadgen-cli/internal/store"
	"github.com/palmgate/leadgen-cli/pkg/dld"
)

func fixedTime() time.Time {
	return time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
}

func leadWith(source string, attrs map[string]string) model.Lead {
	return model.NewLead(source, attrs, fixedTime())
}

// testRules mirrors the default qualification rule set.
func testRules() config.QualificationConfig {
	return config.QualificationConfig{
		Threshold:     6,
		MinBudget:     500_000,
		MaxBudget:     5_000_000,
		MinBedrooms:   1,
		MaxBedrooms:   4,
		PropertyTypes: []string{"apartment", "villa", "townhouse"},

		BudgetFullPoints:    3,
		BudgetPartialPoints: 1,
		PropertyTypePoints:  2,
		BedroomPoints:       2,
		ContactPoints:       2,
		VerifiedPoints:      1,
		VerificationPenalty: 3,
	}
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Scrape = config.ScrapeConfig{
		RatePerSec:        100,
		Burst:             10,
		TimeoutSecs:       5,
		SyntheticFallback: true,
	}
	cfg.Qualification = testRules()
	cfg.Retry = config.RetryConfig{MaxAttempts: 2, BaseDelayMs: 1, MaxDelayMs: 5, Multiplier: 2}
	cfg.Breaker = config.BreakerConfig{FailureThreshold: 3, CooldownSecs: 1}
	cfg.Pipeline = config.PipelineConfig{Concurrency: 4, CallTimeoutSecs: 5}
	cfg.Sinks.XLSX.Enabled = true
	cfg.Channels.Webhook.Enabled = true
	return cfg
}

type fakeAdapter struct {
	name  string
	leads []model.Lead
	err   error
}

func (a *fakeAdapter) Name() string { return a.name }

func (a *fakeAdapter) Fetch(_ context.Context) ([]model.Lead, error) {
	return a.leads, a.err
}

type fakeVerifier struct {
	fn func(lead model.Lead) (dld.Verdict, string, error)
}

func (v *fakeVerifier) Verify(_ context.Context, lead model.Lead) (dld.Verdict, string, error) {
	return v.fn(lead)
}

type fakeSink struct {
	name string
	fn   func(lead model.Lead, call int) (string, error)

	mu    sync.Mutex
	calls int
}

func (s *fakeSink) Name() string { return s.name }

func (s *fakeSink) Upsert(_ context.Context, lead model.Lead) (string, error) {
	s.mu.Lock()
	s.calls++
	call := s.calls
	s.mu.Unlock()

	if s.fn == nil {
		return s.name + "/" + lead.IdentityKey, nil
	}
	return s.fn(lead, call)
}

func (s *fakeSink) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type fakeChannel struct {
	name    string
	accepts func(model.Lead) bool
	err     error

	mu   sync.Mutex
	sent []string
}

func (c *fakeChannel) Name() string { return c.name }

func (c *fakeChannel) Accepts(lead model.Lead) bool {
	if c.accepts == nil {
		return true
	}
	return c.accepts(lead)
}

func (c *fakeChannel) Send(_ context.Context, lead model.Lead, _ string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.sent = append(c.sent, lead.IdentityKey)
	return nil
}

func (c *fakeChannel) sentKeys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.sent...)
}

type fakeStore struct {
	mu        sync.Mutex
	createErr error
	statuses  []model.RunStatus
	stages    []model.StageResult
	report    *model.RunReport
}

var _ store.Store = (*fakeStore)(nil)

func (s *fakeStore) CreateRun(_ context.Context) (*model.Run, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	now := time.Now().UTC()
	return &model.Run{ID: uuid.NewString(), Status: model.RunStatusInit, CreatedAt: now, UpdatedAt: now}, nil
}

func (s *fakeStore) UpdateRunStatus(_ context.Context, _ string, status model.RunStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses = append(s.statuses, status)
	return nil
}

func (s *fakeStore) SaveReport(_ context.Context, _ string, report *model.RunReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.report = report
	s.statuses = append(s.statuses, model.RunStatusDone)
	return nil
}

func (s *fakeStore) GetRun(_ context.Context, _ string) (*model.Run, error) { return nil, nil }

func (s *fakeStore) ListRuns(_ context.Context, _ store.RunFilter) ([]model.Run, error) {
	return nil, nil
}

func (s *fakeStore) AppendStage(_ context.Context, _ string, stage model.StageResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stages = append(s.stages, stage)
	return nil
}

func (s *fakeStore) Migrate(_ context.Context) error { return nil }

func (s *fakeStore) Close() error { return nil }

func (s *fakeStore) recordedStatuses() []model.RunStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.RunStatus(nil), s.statuses...)
}

func (s *fakeStore) savedReport() *model.RunReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.report
}
