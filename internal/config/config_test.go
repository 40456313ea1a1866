package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Qualification: QualificationConfig{
			Threshold:   6,
			MinBudget:   500_000,
			MaxBudget:   5_000_000,
			MinBedrooms: 1,
			MaxBedrooms: 4,
		},
		Retry:    RetryConfig{MaxAttempts: 3},
		Pipeline: PipelineConfig{Concurrency: 4},
		Sinks:    SinksConfig{XLSX: XLSXSinkConfig{Enabled: true, Path: "leads.xlsx"}},
		Channels: ChannelsConfig{Webhook: WebhookChannelConfig{Enabled: true, URL: "https://hooks.example.com"}},
	}
}

func TestValidate_OK(t *testing.T) {
	require.NoError(t, validConfig().Validate())
}

func TestValidate_ThresholdBounds(t *testing.T) {
	cfg := validConfig()
	cfg.Qualification.Threshold = 11
	require.Error(t, cfg.Validate())

	cfg.Qualification.Threshold = -1
	require.Error(t, cfg.Validate())
}

func TestValidate_InvertedBudgetBand(t *testing.T) {
	cfg := validConfig()
	cfg.Qualification.MinBudget = 9_000_000
	require.Error(t, cfg.Validate())
}

func TestValidate_InvertedBedroomBand(t *testing.T) {
	cfg := validConfig()
	cfg.Qualification.MinBedrooms = 5
	require.Error(t, cfg.Validate())
}

func TestValidate_NoSinks(t *testing.T) {
	cfg := validConfig()
	cfg.Sinks = SinksConfig{}
	require.Error(t, cfg.Validate())
}

func TestValidate_NoChannels(t *testing.T) {
	cfg := validConfig()
	cfg.Channels = ChannelsConfig{}
	require.Error(t, cfg.Validate())
}

func TestValidate_ZeroSourcesAllowed(t *testing.T) {
	// All sources disabled is valid: the scrape stage falls back to the
	// synthetic demo set.
	cfg := validConfig()
	cfg.Sources = SourcesConfig{}
	require.NoError(t, cfg.Validate())
}

func TestEnabledSinksAndChannels(t *testing.T) {
	cfg := validConfig()
	cfg.Sinks.Notion.Enabled = true
	cfg.Sinks.Postgres.Enabled = true
	cfg.Channels.Email.Enabled = true

	require.ElementsMatch(t, []string{"notion", "postgres", "xlsx"}, cfg.EnabledSinks())
	require.ElementsMatch(t, []string{"email", "webhook"}, cfg.EnabledChannels())
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, 6, cfg.Qualification.Threshold)
	require.Equal(t, int64(500_000), cfg.Qualification.MinBudget)
	require.Equal(t, 3, cfg.Retry.MaxAttempts)
	require.Equal(t, 4, cfg.Pipeline.Concurrency)
	require.Equal(t, "sqlite", cfg.Store.Driver)
	require.True(t, cfg.Scrape.SyntheticFallback)
	require.Contains(t, cfg.Qualification.PropertyTypes, "apartment")
}
