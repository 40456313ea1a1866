package pipeline

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/palmgate/leadgen-cli/internal/channel"
	"github.com/palmgate/leadgen-cli/internal/config"
	"github.com/palmgate/leadgen-cli/internal/crm"
	"github.com/palmgate/leadgen-cli/internal/model"
	"github.com/palmgate/leadgen-cli/internal/outreach"
	"github.com/palmgate/leadgen-cli/internal/resilience"
	"github.com/palmgate/leadgen-cli/internal/source"
	"github.com/palmgate/leadgen-cli/internal/store"
)

// Pipeline orchestrates the six stages of a lead run. Stages execute
// strictly in order over one batch of leads; a stage only sees the output of
// the previous one. Record-level failures stay inside stages; the run itself
// fails only on invalid configuration or cancellation.
type Pipeline struct {
	cfg       *config.Config
	store     store.Store
	adapters  []source.Adapter
	verifier  Verifier
	sinks     []crm.Sink
	channels  []channel.Channel
	templates *outreach.Set
}

// New creates a Pipeline with all collaborators. A nil verifier disables the
// verification stage; empty sink or channel slices skip their stages.
func New(
	cfg *config.Config,
	st store.Store,
	adapters []source.Adapter,
	verifier Verifier,
	sinks []crm.Sink,
	channels []channel.Channel,
	templates *outreach.Set,
) *Pipeline {
	return &Pipeline{
		cfg:       cfg,
		store:     st,
		adapters:  adapters,
		verifier:  verifier,
		sinks:     sinks,
		channels:  channels,
		templates: templates,
	}
}

// Run executes one complete lead run and returns the final lead states and
// the run report.
func (p *Pipeline) Run(ctx context.Context) ([]model.Lead, *model.RunReport, error) {
	run, err := p.store.CreateRun(ctx)
	if err != nil {
		return nil, nil, eris.Wrap(err, "pipeline: create run")
	}

	log := zap.L().With(zap.String("run_id", run.ID))
	log.Info("pipeline: starting run")

	setStatus := func(status model.RunStatus) {
		if statusErr := p.store.UpdateRunStatus(ctx, run.ID, status); statusErr != nil {
			log.Warn("pipeline: failed to update status", zap.Error(statusErr))
		}
	}

	if err := p.cfg.Validate(); err != nil {
		setStatus(model.RunStatusFailed)
		return nil, nil, eris.Wrap(err, "pipeline: invalid configuration")
	}

	rc := NewRunContext(run.ID, p.cfg, time.Now())

	trackStage := func(name string, fn func() model.StageStatus) {
		start := time.Now()
		status := fn()
		stage := model.StageResult{
			Name:     name,
			Status:   status,
			Duration: time.Since(start).Milliseconds(),
			Events:   rc.DrainEvents(),
		}
		rc.AppendStage(stage)
		if stageErr := p.store.AppendStage(ctx, run.ID, stage); stageErr != nil {
			log.Warn("pipeline: failed to persist stage", zap.String("stage", name), zap.Error(stageErr))
		}
		log.Info("pipeline: stage complete",
			zap.String("stage", name),
			zap.String("status", string(status)),
			zap.Int64("duration_ms", stage.Duration),
		)
	}

	// Leads accumulated so far are returned even when the run is cancelled,
	// so callers can inspect partial progress.
	var leads []model.Lead
	cancelled := func() ([]model.Lead, *model.RunReport, error) {
		setStatus(model.RunStatusFailed)
		return leads, nil, eris.Wrap(ctx.Err(), "pipeline: run cancelled")
	}

	policy := resilience.NewPolicy(
		p.cfg.Retry.MaxAttempts,
		p.cfg.Retry.BaseDelayMs,
		p.cfg.Retry.MaxDelayMs,
		p.cfg.Retry.Multiplier,
	)
	breakers := resilience.NewBreakerSet(
		p.cfg.Breaker.FailureThreshold,
		time.Duration(p.cfg.Breaker.CooldownSecs)*time.Second,
	)

	// Stage 1: scrape and dedupe.
	setStatus(model.RunStatusScraping)
	trackStage("scrape", func() model.StageStatus {
		leads = NewScrapeStage(p.adapters, p.cfg.Scrape).Run(ctx, rc)
		if len(rc.SourceFailures()) > 0 {
			return model.StageStatusDegraded
		}
		return model.StageStatusComplete
	})
	if ctx.Err() != nil {
		return cancelled()
	}

	// Stage 2: verify.
	setStatus(model.RunStatusVerifying)
	trackStage("verify", func() model.StageStatus {
		NewVerifyStage(p.verifier, p.cfg.Pipeline).Run(ctx, rc, leads)
		if p.verifier == nil {
			return model.StageStatusSkipped
		}
		return model.StageStatusComplete
	})
	if ctx.Err() != nil {
		return cancelled()
	}

	// Stage 3: qualify.
	setStatus(model.RunStatusQualifying)
	trackStage("qualify", func() model.StageStatus {
		NewQualifyStage(p.cfg.Qualification).Run(rc, leads)
		return model.StageStatusComplete
	})
	if ctx.Err() != nil {
		return cancelled()
	}

	// Stage 4: CRM sync.
	setStatus(model.RunStatusSyncing)
	trackStage("crm_sync", func() model.StageStatus {
		NewSyncStage(p.sinks, policy, breakers, p.cfg.Pipeline).Run(ctx, rc, leads)
		if len(p.sinks) == 0 {
			return model.StageStatusSkipped
		}
		if countSyncFailures(leads) > 0 {
			return model.StageStatusDegraded
		}
		return model.StageStatusComplete
	})
	if ctx.Err() != nil {
		return cancelled()
	}

	// Stage 5: outreach.
	setStatus(model.RunStatusCommunicating)
	trackStage("communicate", func() model.StageStatus {
		NewCommunicateStage(p.channels, p.templates, policy, p.cfg.Pipeline).Run(ctx, rc, leads)
		if len(p.channels) == 0 {
			return model.StageStatusSkipped
		}
		if countSendFailures(leads) > 0 {
			return model.StageStatusDegraded
		}
		return model.StageStatusComplete
	})
	if ctx.Err() != nil {
		return cancelled()
	}

	// Stage 6: analytics and report.
	setStatus(model.RunStatusReporting)
	var report *model.RunReport
	trackStage("analytics", func() model.StageStatus {
		report = BuildReport(rc, leads, time.Now())
		return model.StageStatusComplete
	})
	report.Stages = rc.Stages()

	if err := p.store.SaveReport(ctx, run.ID, report); err != nil {
		log.Warn("pipeline: failed to persist report", zap.Error(err))
		setStatus(model.RunStatusDone)
	}

	log.Info("pipeline: run complete",
		zap.Int("leads_unique", report.LeadsUnique),
		zap.Int("qualified", report.Qualified),
		zap.Int64("duration_ms", report.Duration),
	)
	return leads, report, nil
}

func countSyncFailures(leads []model.Lead) int {
	n := 0
	for i := range leads {
		for _, r := range leads[i].CRMSync {
			if r.Status == model.SyncFailed {
				n++
			}
		}
	}
	return n
}

func countSendFailures(leads []model.Lead) int {
	n := 0
	for i := range leads {
		for _, r := range leads[i].Communication {
			if r.Status == model.SendFailed {
				n++
			}
		}
	}
	return n
}
