package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/palmgate/leadgen-cli/internal/config"
	"github.com/palmgate/leadgen-cli/internal/model"
	"github.com/palmgate/leadgen-cli/internal/source"
)

// ScrapeStage invokes every configured adapter, applies deduplication and
// falls back to a deterministic synthetic batch when nothing was produced.
// Adapter failures are absorbed here and surface only as per-source failure
// counts; the stage itself never fails.
type ScrapeStage struct {
	adapters []source.Adapter
	limiters map[string]*rate.Limiter
	timeout  time.Duration
	fallback bool
	now      func() time.Time
}

// NewScrapeStage creates the stage. Rate limiting is enforced here, one
// limiter per adapter, so backpressure policy stays out of the adapters.
func NewScrapeStage(adapters []source.Adapter, cfg config.ScrapeConfig) *ScrapeStage {
	limiters := make(map[string]*rate.Limiter, len(adapters))
	for _, a := range adapters {
		limiters[a.Name()] = rate.NewLimiter(rate.Limit(cfg.RatePerSec), max(cfg.Burst, 1))
	}
	return &ScrapeStage{
		adapters: adapters,
		limiters: limiters,
		timeout:  time.Duration(cfg.TimeoutSecs) * time.Second,
		fallback: cfg.SyntheticFallback,
		now:      time.Now,
	}
}

// Run fetches, counts and dedupes. Always returns a usable lead set.
func (s *ScrapeStage) Run(ctx context.Context, rc *RunContext) []model.Lead {
	log := zap.L().With(zap.String("stage", "scrape"))

	var raw []model.Lead
	for _, adapter := range s.adapters {
		leads, err := s.fetchOne(ctx, adapter)
		if err != nil {
			rc.RecordSourceFailure(adapter.Name())
			rc.AddEvent("source %s failed: %v", adapter.Name(), err)
			log.Warn("adapter fetch failed", zap.String("source", adapter.Name()), zap.Error(err))
			continue
		}
		rc.RecordSource(adapter.Name(), len(leads))
		rc.AddEvent("source %s: %d leads", adapter.Name(), len(leads))
		raw = append(raw, leads...)
	}

	if len(raw) == 0 && s.fallback {
		raw = syntheticLeads(s.now())
		rc.MarkSynthetic()
		rc.RecordSource("synthetic", len(raw))
		rc.AddEvent("no adapter produced output, using %d synthetic leads", len(raw))
		log.Info("synthetic fallback engaged", zap.Int("leads", len(raw)))
	}

	rc.SetLeadsScraped(len(raw))

	unique := Dedupe(raw)
	if dropped := len(raw) - len(unique); dropped > 0 {
		rc.AddEvent("dedup dropped %d duplicates", dropped)
	}
	return unique
}

func (s *ScrapeStage) fetchOne(ctx context.Context, adapter source.Adapter) ([]model.Lead, error) {
	if err := s.limiters[adapter.Name()].Wait(ctx); err != nil {
		return nil, err
	}
	fetchCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return adapter.Fetch(fetchCtx)
}

// syntheticLeads is the fixed demo batch used when every adapter is disabled
// or down. Content is deterministic so demo runs and tests are repeatable.
func syntheticLeads(now time.Time) []model.Lead {
	mk := func(attrs map[string]string) model.Lead {
		return model.NewLead("synthetic", attrs, now)
	}
	return []model.Lead{
		mk(map[string]string{
			model.AttrName: "Ahmed Al Mansouri", model.AttrPhone: "+971501112233",
			model.AttrEmail: "ahmed.mansouri@example.com", model.AttrPropertyType: "apartment",
			model.AttrBedrooms: "2", model.AttrBudget: "1500000", model.AttrArea: "Dubai Marina",
		}),
		mk(map[string]string{
			model.AttrName: "Sara Khan", model.AttrPhone: "+971524445566",
			model.AttrEmail: "sara.khan@example.com", model.AttrPropertyType: "villa",
			model.AttrBedrooms: "4", model.AttrBudget: "4200000", model.AttrArea: "Arabian Ranches",
		}),
		mk(map[string]string{
			model.AttrName: "John Whitfield", model.AttrPhone: "+971557778899",
			model.AttrEmail: "j.whitfield@example.com", model.AttrPropertyType: "townhouse",
			model.AttrBedrooms: "3", model.AttrBudget: "2800000", model.AttrArea: "Jumeirah Village Circle",
		}),
		mk(map[string]string{
			model.AttrName: "Priya Sharma", model.AttrPhone: "+971503334455",
			model.AttrPropertyType: "apartment", model.AttrBedrooms: "1",
			model.AttrBudget: "750000", model.AttrArea: "Business Bay",
		}),
		mk(map[string]string{
			model.AttrName: "Mohammed Farooq", model.AttrEmail: "m.farooq@example.com",
			model.AttrPropertyType: "penthouse", model.AttrBedrooms: "5",
			model.AttrBudget: "9000000", model.AttrArea: "Palm Jumeirah",
		}),
	}
}
