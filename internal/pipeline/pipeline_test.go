package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palmgate/leadgen-cli/internal/channel"
	"github.com/palmgate/leadgen-cli/internal/crm"
	"github.com/palmgate/leadgen-cli/internal/model"
	"github.com/palmgate/leadgen-cli/internal/source"
	"github.com/palmgate/leadgen-cli/pkg/dld"
)

func TestPipeline_FullRun(t *testing.T) {
	t.Parallel()

	adapter := &fakeAdapter{name: "bayut", leads: []model.Lead{
		leadWith("bayut", map[string]string{
			model.AttrName: "Ahmed", model.AttrPhone: "+971501112233",
			model.AttrEmail: "ahmed@example.com", model.AttrBudget: "1500000",
			model.AttrPropertyType: "apartment", model.AttrBedrooms: "2",
		}),
		leadWith("bayut", map[string]string{
			model.AttrName: "Lowball", model.AttrPhone: "+971509998877",
			model.AttrBudget: "100000",
		}),
	}}
	verifier := &fakeVerifier{fn: func(model.Lead) (dld.Verdict, string, error) {
		return dld.VerdictConfirmed, "registered", nil
	}}
	sink := &fakeSink{name: "xlsx"}
	ch := &fakeChannel{name: "webhook"}
	st := &fakeStore{}
	templates := testTemplates(t)

	p := New(testConfig(), st, []source.Adapter{adapter}, verifier,
		[]crm.Sink{sink}, []channel.Channel{ch}, templates)

	leads, report, err := p.Run(context.Background())

	require.NoError(t, err)
	require.Len(t, leads, 2)
	require.NotNil(t, report)

	assert.Equal(t, 1, report.Qualified)
	assert.Equal(t, 1, report.Rejected)
	assert.Equal(t, 2, report.LeadsUnique)
	assert.False(t, report.SyntheticFallback)

	// Strong lead went all the way through.
	assert.Equal(t, model.QualificationQualified, leads[0].Qualification)
	assert.Equal(t, model.SyncSynced, leads[0].CRMSync["xlsx"].Status)
	assert.Equal(t, model.SendSent, leads[0].Communication["webhook"].Status)

	// Weak lead stopped at qualification.
	assert.Equal(t, model.QualificationRejected, leads[1].Qualification)
	assert.Empty(t, leads[1].CRMSync)
	assert.Equal(t, model.SendSkipped, leads[1].Communication["webhook"].Status)

	assert.Equal(t, []model.RunStatus{
		model.RunStatusScraping,
		model.RunStatusVerifying,
		model.RunStatusQualifying,
		model.RunStatusSyncing,
		model.RunStatusCommunicating,
		model.RunStatusReporting,
		model.RunStatusDone,
	}, st.recordedStatuses())

	stageNames := make([]string, 0, len(st.stages))
	for _, s := range st.stages {
		stageNames = append(stageNames, s.Name)
	}
	assert.Equal(t, []string{"scrape", "verify", "qualify", "crm_sync", "communicate", "analytics"}, stageNames)

	require.NotNil(t, st.savedReport())
	assert.Equal(t, report.RunID, st.savedReport().RunID)
}

func TestPipeline_SyntheticFallbackRun(t *testing.T) {
	t.Parallel()

	st := &fakeStore{}
	sink := &fakeSink{name: "xlsx"}
	ch := &fakeChannel{name: "webhook"}

	// No adapters at all; the run still completes on synthetic leads.
	p := New(testConfig(), st, nil, nil, []crm.Sink{sink}, []channel.Channel{ch}, testTemplates(t))

	leads, report, err := p.Run(context.Background())

	require.NoError(t, err)
	assert.Len(t, leads, 5)
	assert.True(t, report.SyntheticFallback)
	assert.Equal(t, model.RunStatusDone, st.recordedStatuses()[len(st.recordedStatuses())-1])

	// Verification skipped for every lead when no verifier is wired.
	assert.Equal(t, 5, report.Verification[string(model.VerificationSkipped)])
}

func TestPipeline_InvalidConfigFailsRun(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Qualification.Threshold = 20

	st := &fakeStore{}
	p := New(cfg, st, nil, nil, nil, nil, testTemplates(t))

	_, _, err := p.Run(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "threshold")
	statuses := st.recordedStatuses()
	require.NotEmpty(t, statuses)
	assert.Equal(t, model.RunStatusFailed, statuses[len(statuses)-1])
}

func TestPipeline_CancelledContextFailsRun(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	st := &fakeStore{}
	sink := &fakeSink{name: "xlsx"}
	ch := &fakeChannel{name: "webhook"}
	p := New(testConfig(), st, nil, nil, []crm.Sink{sink}, []channel.Channel{ch}, testTemplates(t))

	_, _, err := p.Run(ctx)

	require.Error(t, err)
	statuses := st.recordedStatuses()
	require.NotEmpty(t, statuses)
	assert.Equal(t, model.RunStatusFailed, statuses[len(statuses)-1])
	assert.Nil(t, st.savedReport())
}

func TestPipeline_CancelledMidRunReturnsPartialLeads(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	adapter := &fakeAdapter{name: "bayut", leads: []model.Lead{
		leadWith("bayut", map[string]string{model.AttrName: "Ahmed", model.AttrPhone: "+971501112233"}),
	}}
	// Cancel while verification is in flight; the run must stop at the next
	// stage boundary but still hand back the scraped leads.
	verifier := &fakeVerifier{fn: func(model.Lead) (dld.Verdict, string, error) {
		cancel()
		return dld.VerdictConfirmed, "registered", nil
	}}
	st := &fakeStore{}
	sink := &fakeSink{name: "xlsx"}
	ch := &fakeChannel{name: "webhook"}

	p := New(testConfig(), st, []source.Adapter{adapter}, verifier,
		[]crm.Sink{sink}, []channel.Channel{ch}, testTemplates(t))

	leads, report, err := p.Run(ctx)

	require.Error(t, err)
	assert.Nil(t, report)
	require.Len(t, leads, 1)
	assert.Equal(t, "phone:971501112233", leads[0].IdentityKey)
	assert.Equal(t, 0, sink.callCount())
	statuses := st.recordedStatuses()
	assert.Equal(t, model.RunStatusFailed, statuses[len(statuses)-1])
}

func TestPipeline_CreateRunErrorPropagates(t *testing.T) {
	t.Parallel()

	st := &fakeStore{createErr: assert.AnError}
	p := New(testConfig(), st, nil, nil, nil, nil, testTemplates(t))

	_, _, err := p.Run(context.Background())
	require.Error(t, err)
}

func TestPipeline_SinkOutageDegradesNotFails(t *testing.T) {
	t.Parallel()

	adapter := &fakeAdapter{name: "bayut", leads: []model.Lead{
		leadWith("bayut", map[string]string{
			model.AttrName: "Ahmed", model.AttrPhone: "+971501112233",
			model.AttrEmail: "ahmed@example.com", model.AttrBudget: "1500000",
			model.AttrPropertyType: "apartment", model.AttrBedrooms: "2",
		}),
	}}
	sink := &fakeSink{name: "notion", fn: func(model.Lead, int) (string, error) {
		return "", assert.AnError
	}}
	ch := &fakeChannel{name: "webhook"}
	st := &fakeStore{}

	p := New(testConfig(), st, []source.Adapter{adapter}, nil,
		[]crm.Sink{sink}, []channel.Channel{ch}, testTemplates(t))

	leads, report, err := p.Run(context.Background())

	require.NoError(t, err)
	require.NotNil(t, report)
	assert.Equal(t, model.SyncFailed, leads[0].CRMSync["notion"].Status)
	// Unsynced means no outreach, but the run still reaches done.
	assert.Equal(t, model.SendSkipped, leads[0].Communication["webhook"].Status)
	assert.Equal(t, model.RunStatusDone, st.recordedStatuses()[len(st.recordedStatuses())-1])

	var syncStage *model.StageResult
	for i := range st.stages {
		if st.stages[i].Name == "crm_sync" {
			syncStage = &st.stages[i]
		}
	}
	require.NotNil(t, syncStage)
	assert.Equal(t, model.StageStatusDegraded, syncStage.Status)
}
