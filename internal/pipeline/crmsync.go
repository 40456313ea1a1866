package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/palmgate/leadgen-cli/internal/config"
	"github.com/palmgate/leadgen-cli/internal/crm"
	"github.com/palmgate/leadgen-cli/internal/model"
	"github.com/palmgate/leadgen-cli/internal/resilience"
)

// SyncStage upserts qualified leads into every configured sink. Sinks are
// independent: a dead Notion workspace never blocks the Salesforce upsert of
// the same lead. Rejected leads are not touched.
type SyncStage struct {
	sinks       []crm.Sink
	policy      resilience.Policy
	breakers    *resilience.BreakerSet
	concurrency int
	callTimeout time.Duration
	now         func() time.Time
}

// NewSyncStage creates the stage. The retry policy and breakers are shared
// across leads so consecutive failures against one sink trip its breaker.
func NewSyncStage(sinks []crm.Sink, policy resilience.Policy, breakers *resilience.BreakerSet, cfg config.PipelineConfig) *SyncStage {
	return &SyncStage{
		sinks:       sinks,
		policy:      policy,
		breakers:    breakers,
		concurrency: max(cfg.Concurrency, 1),
		callTimeout: time.Duration(cfg.CallTimeoutSecs) * time.Second,
		now:         time.Now,
	}
}

// Run syncs leads in place. Workers own disjoint indices.
func (s *SyncStage) Run(ctx context.Context, rc *RunContext, leads []model.Lead) {
	log := zap.L().With(zap.String("stage", "crm_sync"))

	if len(s.sinks) == 0 {
		rc.AddEvent("no sinks configured, sync skipped")
		log.Info("no sinks configured")
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i := range leads {
		if leads[i].Qualification != model.QualificationQualified {
			continue
		}
		g.Go(func() error {
			s.syncOne(gctx, &leads[i])
			return nil
		})
	}
	g.Wait() //nolint:errcheck // workers never return errors

	synced, failed := 0, 0
	for i := range leads {
		for _, r := range leads[i].CRMSync {
			switch r.Status {
			case model.SyncSynced:
				synced++
			case model.SyncFailed:
				failed++
			}
		}
	}
	rc.AddEvent("sink upserts: %d synced, %d failed", synced, failed)
	log.Info("crm sync complete", zap.Int("synced", synced), zap.Int("failed", failed))
}

func (s *SyncStage) syncOne(ctx context.Context, lead *model.Lead) {
	if lead.CRMSync == nil {
		lead.CRMSync = make(map[string]model.SyncResult, len(s.sinks))
	}

	for _, sink := range s.sinks {
		breaker := s.breakers.Get(sink.Name())
		policy := s.policy
		policy.OnRetry = resilience.RetryLogger(sink.Name(), "upsert")

		ref, err := resilience.DoVal(ctx, policy, func(ctx context.Context) (string, error) {
			if err := breaker.Allow(); err != nil {
				return "", err
			}
			callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
			defer cancel()
			ref, err := sink.Upsert(callCtx, *lead)
			breaker.Record(err)
			return ref, err
		})

		if err != nil {
			lead.CRMSync[sink.Name()] = model.SyncResult{
				Status: model.SyncFailed,
				Error:  err.Error(),
			}
			continue
		}
		lead.CRMSync[sink.Name()] = model.SyncResult{
			Status:    model.SyncSynced,
			RecordRef: ref,
		}
	}
	lead.Touch(s.now())
}
