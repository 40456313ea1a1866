package pipeline

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palmgate/leadgen-cli/internal/config"
	"github.com/palmgate/leadgen-cli/internal/model"
	"github.com/palmgate/leadgen-cli/internal/source"
)

func scrapeConfig() config.ScrapeConfig {
	return config.ScrapeConfig{
		RatePerSec:        100,
		Burst:             10,
		TimeoutSecs:       5,
		SyntheticFallback: true,
	}
}

func TestScrapeStage_MergesAdapters(t *testing.T) {
	t.Parallel()

	adapters := []source.Adapter{
		&fakeAdapter{name: "bayut", leads: []model.Lead{
			leadWith("bayut", map[string]string{model.AttrPhone: "+971500000001"}),
			leadWith("bayut", map[string]string{model.AttrPhone: "+971500000002"}),
		}},
		&fakeAdapter{name: "dubizzle", leads: []model.Lead{
			leadWith("dubizzle", map[string]string{model.AttrPhone: "+971500000003"}),
		}},
	}
	rc := NewRunContext("run-1", testConfig(), fixedTime())

	out := NewScrapeStage(adapters, scrapeConfig()).Run(context.Background(), rc)

	assert.Len(t, out, 3)
	assert.Equal(t, 3, rc.LeadsScraped())
	assert.Equal(t, map[string]int{"bayut": 2, "dubizzle": 1}, rc.SourceCounts())
	assert.False(t, rc.SyntheticUsed())
}

func TestScrapeStage_FailureIsolation(t *testing.T) {
	t.Parallel()

	adapters := []source.Adapter{
		&fakeAdapter{name: "bayut", err: eris.New("api down")},
		&fakeAdapter{name: "dubizzle", leads: []model.Lead{
			leadWith("dubizzle", map[string]string{model.AttrPhone: "+971500000003"}),
		}},
	}
	rc := NewRunContext("run-1", testConfig(), fixedTime())

	out := NewScrapeStage(adapters, scrapeConfig()).Run(context.Background(), rc)

	require.Len(t, out, 1)
	assert.Equal(t, "dubizzle", out[0].Source)
	assert.Equal(t, map[string]int{"bayut": 1}, rc.SourceFailures())
	assert.False(t, rc.SyntheticUsed())
}

func TestScrapeStage_SyntheticFallback(t *testing.T) {
	t.Parallel()

	adapters := []source.Adapter{
		&fakeAdapter{name: "bayut", err: eris.New("api down")},
		&fakeAdapter{name: "dubizzle", err: eris.New("also down")},
	}
	rc := NewRunContext("run-1", testConfig(), fixedTime())

	out := NewScrapeStage(adapters, scrapeConfig()).Run(context.Background(), rc)

	require.Len(t, out, 5)
	assert.True(t, rc.SyntheticUsed())
	assert.Equal(t, 5, rc.SourceCounts()["synthetic"])
	for _, lead := range out {
		assert.Equal(t, "synthetic", lead.Source)
		assert.NotEmpty(t, lead.IdentityKey)
	}
}

func TestScrapeStage_FallbackDisabled(t *testing.T) {
	t.Parallel()

	cfg := scrapeConfig()
	cfg.SyntheticFallback = false
	adapters := []source.Adapter{&fakeAdapter{name: "bayut", err: eris.New("down")}}
	rc := NewRunContext("run-1", testConfig(), fixedTime())

	out := NewScrapeStage(adapters, cfg).Run(context.Background(), rc)

	assert.Empty(t, out)
	assert.False(t, rc.SyntheticUsed())
	assert.Equal(t, 0, rc.LeadsScraped())
}

func TestScrapeStage_DedupesAcrossAdapters(t *testing.T) {
	t.Parallel()

	adapters := []source.Adapter{
		&fakeAdapter{name: "bayut", leads: []model.Lead{
			leadWith("bayut", map[string]string{model.AttrPhone: "+971501112233"}),
		}},
		&fakeAdapter{name: "dubizzle", leads: []model.Lead{
			leadWith("dubizzle", map[string]string{model.AttrPhone: "971 50 111 2233"}),
		}},
	}
	rc := NewRunContext("run-1", testConfig(), fixedTime())

	out := NewScrapeStage(adapters, scrapeConfig()).Run(context.Background(), rc)

	// Raw count records both, dedup keeps the first.
	require.Len(t, out, 1)
	assert.Equal(t, 2, rc.LeadsScraped())
	assert.Equal(t, "bayut", out[0].Source)
}

func TestScrapeStage_CancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	adapters := []source.Adapter{&fakeAdapter{name: "bayut"}}
	cfg := scrapeConfig()
	cfg.SyntheticFallback = false
	rc := NewRunContext("run-1", testConfig(), fixedTime())

	out := NewScrapeStage(adapters, cfg).Run(ctx, rc)

	// Limiter wait fails under a cancelled context; recorded as a fetch
	// failure, never a panic.
	assert.Empty(t, out)
	assert.Equal(t, 1, rc.SourceFailures()["bayut"])
}
