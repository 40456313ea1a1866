package pipeline

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palmgate/leadgen-cli/internal/config"
	"github.com/palmgate/leadgen-cli/internal/model"
	"github.com/palmgate/leadgen-cli/pkg/dld"
)

func pipelineConfig() config.PipelineConfig {
	return config.PipelineConfig{Concurrency: 4, CallTimeoutSecs: 5}
}

func TestVerifyStage_MapsVerdicts(t *testing.T) {
	t.Parallel()

	leads := []model.Lead{
		leadWith("bayut", map[string]string{model.AttrPhone: "+971500000001"}),
		leadWith("bayut", map[string]string{model.AttrPhone: "+971500000002"}),
		leadWith("bayut", map[string]string{model.AttrPhone: "+971500000003"}),
	}
	verifier := &fakeVerifier{fn: func(lead model.Lead) (dld.Verdict, string, error) {
		switch lead.Attr(model.AttrPhone) {
		case "+971500000001":
			return dld.VerdictConfirmed, "registered buyer", nil
		case "+971500000002":
			return dld.VerdictRejected, "no such registration", nil
		default:
			return dld.VerdictUnavailable, "registry maintenance", nil
		}
	}}
	rc := NewRunContext("run-1", testConfig(), fixedTime())

	NewVerifyStage(verifier, pipelineConfig()).Run(context.Background(), rc, leads)

	assert.Equal(t, model.VerificationVerified, leads[0].Verification)
	assert.Equal(t, "registered buyer", leads[0].VerificationNotes)
	assert.Equal(t, model.VerificationFailed, leads[1].Verification)
	assert.Equal(t, model.VerificationSkipped, leads[2].Verification)
}

func TestVerifyStage_OutageDegradesToSkipped(t *testing.T) {
	t.Parallel()

	leads := []model.Lead{
		leadWith("bayut", map[string]string{model.AttrPhone: "+971500000001"}),
	}
	verifier := &fakeVerifier{fn: func(model.Lead) (dld.Verdict, string, error) {
		return "", "", eris.New("connection refused")
	}}
	rc := NewRunContext("run-1", testConfig(), fixedTime())

	NewVerifyStage(verifier, pipelineConfig()).Run(context.Background(), rc, leads)

	assert.Equal(t, model.VerificationSkipped, leads[0].Verification)
	assert.Contains(t, leads[0].VerificationNotes, "registry unavailable")
}

func TestVerifyStage_NilVerifierSkipsAll(t *testing.T) {
	t.Parallel()

	leads := []model.Lead{
		leadWith("bayut", map[string]string{model.AttrPhone: "+971500000001"}),
		leadWith("bayut", map[string]string{model.AttrPhone: "+971500000002"}),
	}
	rc := NewRunContext("run-1", testConfig(), fixedTime())

	NewVerifyStage(nil, pipelineConfig()).Run(context.Background(), rc, leads)

	for _, lead := range leads {
		assert.Equal(t, model.VerificationSkipped, lead.Verification)
		assert.Equal(t, "verifier disabled", lead.VerificationNotes)
	}
}

func TestVerifyStage_TouchesTimestamps(t *testing.T) {
	t.Parallel()

	leads := []model.Lead{
		leadWith("bayut", map[string]string{model.AttrPhone: "+971500000001"}),
	}
	verifier := &fakeVerifier{fn: func(model.Lead) (dld.Verdict, string, error) {
		return dld.VerdictConfirmed, "", nil
	}}
	rc := NewRunContext("run-1", testConfig(), fixedTime())

	NewVerifyStage(verifier, pipelineConfig()).Run(context.Background(), rc, leads)

	require.True(t, leads[0].LastUpdatedAt.After(leads[0].CreatedAt))
}
