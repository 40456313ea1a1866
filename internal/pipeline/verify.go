package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/palmgate/leadgen-cli/internal/config"
	"github.com/palmgate/leadgen-cli/internal/model"
	"github.com/palmgate/leadgen-cli/pkg/dld"
)

// Verifier checks a lead's contact details against an external registry.
type Verifier interface {
	Verify(ctx context.Context, lead model.Lead) (dld.Verdict, string, error)
}

// RegistryVerifier verifies leads against the land-department buyer registry.
type RegistryVerifier struct {
	client dld.Client
}

// NewRegistryVerifier wraps a registry client as a Verifier.
func NewRegistryVerifier(client dld.Client) *RegistryVerifier {
	return &RegistryVerifier{client: client}
}

func (v *RegistryVerifier) Verify(ctx context.Context, lead model.Lead) (dld.Verdict, string, error) {
	res, err := v.client.Verify(ctx, dld.VerifyRequest{
		Name:  lead.Attr(model.AttrName),
		Phone: lead.Attr(model.AttrPhone),
		Email: lead.Attr(model.AttrEmail),
	})
	if err != nil {
		return "", "", err
	}
	return res.Verdict, res.Detail, nil
}

// VerifyStage resolves each lead's verification status. A nil verifier (or a
// registry outage) degrades every lead to skipped; the stage never drops a
// lead and never fails the run.
type VerifyStage struct {
	verifier    Verifier
	concurrency int
	callTimeout time.Duration
	now         func() time.Time
}

// NewVerifyStage creates the stage. Pass a nil verifier when verification is
// disabled in config.
func NewVerifyStage(verifier Verifier, cfg config.PipelineConfig) *VerifyStage {
	return &VerifyStage{
		verifier:    verifier,
		concurrency: max(cfg.Concurrency, 1),
		callTimeout: time.Duration(cfg.CallTimeoutSecs) * time.Second,
		now:         time.Now,
	}
}

// Run verifies leads in place. Workers own disjoint indices, so the slice
// needs no locking.
func (s *VerifyStage) Run(ctx context.Context, rc *RunContext, leads []model.Lead) {
	log := zap.L().With(zap.String("stage", "verify"))

	if s.verifier == nil {
		for i := range leads {
			leads[i].Verification = model.VerificationSkipped
			leads[i].VerificationNotes = "verifier disabled"
			leads[i].Touch(s.now())
		}
		rc.AddEvent("verifier disabled, skipped %d leads", len(leads))
		log.Info("verifier disabled", zap.Int("leads", len(leads)))
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i := range leads {
		g.Go(func() error {
			s.verifyOne(gctx, &leads[i])
			return nil
		})
	}
	g.Wait() //nolint:errcheck // workers never return errors

	var verified, failed, skipped int
	for i := range leads {
		switch leads[i].Verification {
		case model.VerificationVerified:
			verified++
		case model.VerificationFailed:
			failed++
		case model.VerificationSkipped:
			skipped++
		}
	}
	rc.AddEvent("verified %d, failed %d, skipped %d", verified, failed, skipped)
	log.Info("verification complete",
		zap.Int("verified", verified),
		zap.Int("failed", failed),
		zap.Int("skipped", skipped),
	)
}

func (s *VerifyStage) verifyOne(ctx context.Context, lead *model.Lead) {
	callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	verdict, detail, err := s.verifier.Verify(callCtx, *lead)
	switch {
	case err != nil:
		// A registry outage is not evidence against the lead.
		lead.Verification = model.VerificationSkipped
		lead.VerificationNotes = "registry unavailable: " + err.Error()
	case verdict == dld.VerdictConfirmed:
		lead.Verification = model.VerificationVerified
		lead.VerificationNotes = detail
	case verdict == dld.VerdictRejected:
		lead.Verification = model.VerificationFailed
		lead.VerificationNotes = detail
	default:
		lead.Verification = model.VerificationSkipped
		lead.VerificationNotes = detail
	}
	lead.Touch(s.now())
}
