package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/palmgate/leadgen-cli/internal/channel"
	"github.com/palmgate/leadgen-cli/internal/config"
	"github.com/palmgate/leadgen-cli/internal/model"
	"github.com/palmgate/leadgen-cli/internal/outreach"
	"github.com/palmgate/leadgen-cli/internal/resilience"
)

// CommunicateStage sends outreach to leads that both qualified and landed in
// at least one sink. Everything else is marked skipped on every channel so
// the report can show exactly why no message went out.
type CommunicateStage struct {
	channels    []channel.Channel
	templates   *outreach.Set
	policy      resilience.Policy
	concurrency int
	callTimeout time.Duration
	now         func() time.Time
}

// NewCommunicateStage creates the stage.
func NewCommunicateStage(channels []channel.Channel, templates *outreach.Set, policy resilience.Policy, cfg config.PipelineConfig) *CommunicateStage {
	return &CommunicateStage{
		channels:    channels,
		templates:   templates,
		policy:      policy,
		concurrency: max(cfg.Concurrency, 1),
		callTimeout: time.Duration(cfg.CallTimeoutSecs) * time.Second,
		now:         time.Now,
	}
}

// Run delivers outreach in place. Workers own disjoint indices.
func (s *CommunicateStage) Run(ctx context.Context, rc *RunContext, leads []model.Lead) {
	log := zap.L().With(zap.String("stage", "communicate"))

	if len(s.channels) == 0 {
		rc.AddEvent("no channels configured, outreach skipped")
		log.Info("no channels configured")
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i := range leads {
		g.Go(func() error {
			s.sendOne(gctx, &leads[i])
			return nil
		})
	}
	g.Wait() //nolint:errcheck // workers never return errors

	sent, failed, skipped := 0, 0, 0
	for i := range leads {
		for _, r := range leads[i].Communication {
			switch r.Status {
			case model.SendSent:
				sent++
			case model.SendFailed:
				failed++
			case model.SendSkipped:
				skipped++
			}
		}
	}
	rc.AddEvent("outreach: %d sent, %d failed, %d skipped", sent, failed, skipped)
	log.Info("communication complete",
		zap.Int("sent", sent),
		zap.Int("failed", failed),
		zap.Int("skipped", skipped),
	)
}

func (s *CommunicateStage) sendOne(ctx context.Context, lead *model.Lead) {
	if lead.Communication == nil {
		lead.Communication = make(map[string]model.SendResult, len(s.channels))
	}

	eligible := lead.Qualification == model.QualificationQualified && lead.Synced()
	for _, ch := range s.channels {
		lead.Communication[ch.Name()] = s.deliver(ctx, ch, lead, eligible)
	}
	lead.Touch(s.now())
}

func (s *CommunicateStage) deliver(ctx context.Context, ch channel.Channel, lead *model.Lead, eligible bool) model.SendResult {
	if !eligible {
		return model.SendResult{Status: model.SendSkipped, Error: "not qualified and synced"}
	}
	if !ch.Accepts(*lead) {
		return model.SendResult{Status: model.SendSkipped, Error: "missing contact details"}
	}

	message, err := s.templates.Render(ch.Name(), *lead)
	if err != nil {
		return model.SendResult{Status: model.SendFailed, Error: err.Error()}
	}

	policy := s.policy
	policy.OnRetry = resilience.RetryLogger(ch.Name(), "send")
	err = policy.Do(ctx, func(ctx context.Context) error {
		callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
		defer cancel()
		return ch.Send(callCtx, *lead, message)
	})
	if err != nil {
		return model.SendResult{Status: model.SendFailed, Error: err.Error()}
	}
	return model.SendResult{Status: model.SendSent}
}
