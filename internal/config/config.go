package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration. It is loaded once at
// startup and passed to the orchestrator as an immutable snapshot.
type Config struct {
	Store         StoreConfig         `yaml:"store" mapstructure:"store"`
	Sources       SourcesConfig       `yaml:"sources" mapstructure:"sources"`
	Scrape        ScrapeConfig        `yaml:"scrape" mapstructure:"scrape"`
	Verifier      VerifierConfig      `yaml:"verifier" mapstructure:"verifier"`
	Qualification QualificationConfig `yaml:"qualification" mapstructure:"qualification"`
	Retry         RetryConfig         `yaml:"retry" mapstructure:"retry"`
	Breaker       BreakerConfig       `yaml:"breaker" mapstructure:"breaker"`
	Sinks         SinksConfig         `yaml:"sinks" mapstructure:"sinks"`
	Channels      ChannelsConfig      `yaml:"channels" mapstructure:"channels"`
	Outreach      OutreachConfig      `yaml:"outreach" mapstructure:"outreach"`
	Pipeline      PipelineConfig      `yaml:"pipeline" mapstructure:"pipeline"`
	Server        ServerConfig        `yaml:"server" mapstructure:"server"`
	Log           LogConfig           `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures run persistence.
type StoreConfig struct {
	Driver string `yaml:"driver" mapstructure:"driver"` // "sqlite" or "postgres"
	DSN    string `yaml:"dsn" mapstructure:"dsn"`
}

// SourceConfig configures one portal inquiry feed.
type SourceConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Key     string `yaml:"key" mapstructure:"key"`
}

// CSVFeedConfig configures the partner lead export pulled over FTP.
type CSVFeedConfig struct {
	Enabled  bool   `yaml:"enabled" mapstructure:"enabled"`
	Host     string `yaml:"host" mapstructure:"host"`
	User     string `yaml:"user" mapstructure:"user"`
	Password string `yaml:"password" mapstructure:"password"`
	Path     string `yaml:"path" mapstructure:"path"`
}

// SourcesConfig enables and configures the lead sources.
type SourcesConfig struct {
	PropertyFinder SourceConfig  `yaml:"property_finder" mapstructure:"property_finder"`
	Bayut          SourceConfig  `yaml:"bayut" mapstructure:"bayut"`
	Dubizzle       SourceConfig  `yaml:"dubizzle" mapstructure:"dubizzle"`
	CSVFeed        CSVFeedConfig `yaml:"csv_feed" mapstructure:"csv_feed"`
}

// ScrapeConfig configures the scrape stage. The rate limit is enforced by
// the stage, not by adapters.
type ScrapeConfig struct {
	RatePerSec        float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	Burst             int     `yaml:"burst" mapstructure:"burst"`
	TimeoutSecs       int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	SyntheticFallback bool    `yaml:"synthetic_fallback" mapstructure:"synthetic_fallback"`
}

// VerifierConfig configures the registry verification collaborator.
type VerifierConfig struct {
	Enabled     bool   `yaml:"enabled" mapstructure:"enabled"`
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	Key         string `yaml:"key" mapstructure:"key"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// QualificationConfig holds the scoring rule set. All weights and bounds
// are configuration, not code.
type QualificationConfig struct {
	Threshold     int      `yaml:"threshold" mapstructure:"threshold"`
	MinBudget     int64    `yaml:"min_budget" mapstructure:"min_budget"`
	MaxBudget     int64    `yaml:"max_budget" mapstructure:"max_budget"`
	MinBedrooms   int      `yaml:"min_bedrooms" mapstructure:"min_bedrooms"`
	MaxBedrooms   int      `yaml:"max_bedrooms" mapstructure:"max_bedrooms"`
	PropertyTypes []string `yaml:"property_types" mapstructure:"property_types"`

	BudgetFullPoints    int `yaml:"budget_full_points" mapstructure:"budget_full_points"`
	BudgetPartialPoints int `yaml:"budget_partial_points" mapstructure:"budget_partial_points"`
	PropertyTypePoints  int `yaml:"property_type_points" mapstructure:"property_type_points"`
	BedroomPoints       int `yaml:"bedroom_points" mapstructure:"bedroom_points"`
	ContactPoints       int `yaml:"contact_points" mapstructure:"contact_points"`
	VerifiedPoints      int `yaml:"verified_points" mapstructure:"verified_points"`
	VerificationPenalty int `yaml:"verification_penalty" mapstructure:"verification_penalty"`
}

// RetryConfig configures the shared collaborator retry policy.
type RetryConfig struct {
	MaxAttempts int     `yaml:"max_attempts" mapstructure:"max_attempts"`
	BaseDelayMs int     `yaml:"base_delay_ms" mapstructure:"base_delay_ms"`
	MaxDelayMs  int     `yaml:"max_delay_ms" mapstructure:"max_delay_ms"`
	Multiplier  float64 `yaml:"multiplier" mapstructure:"multiplier"`
}

// BreakerConfig configures per-collaborator circuit breakers.
type BreakerConfig struct {
	FailureThreshold int `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	CooldownSecs     int `yaml:"cooldown_secs" mapstructure:"cooldown_secs"`
}

// NotionSinkConfig configures the Notion lead database sink.
type NotionSinkConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Token   string `yaml:"token" mapstructure:"token"`
	LeadDB  string `yaml:"lead_db" mapstructure:"lead_db"`
}

// SalesforceSinkConfig configures the Salesforce sink (JWT auth).
type SalesforceSinkConfig struct {
	Enabled  bool   `yaml:"enabled" mapstructure:"enabled"`
	ClientID string `yaml:"client_id" mapstructure:"client_id"`
	Username string `yaml:"username" mapstructure:"username"`
	KeyPath  string `yaml:"key_path" mapstructure:"key_path"`
	LoginURL string `yaml:"login_url" mapstructure:"login_url"`
	Object   string `yaml:"object" mapstructure:"object"`
}

// PostgresSinkConfig configures the relational record-store sink.
type PostgresSinkConfig struct {
	Enabled     bool   `yaml:"enabled" mapstructure:"enabled"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// XLSXSinkConfig configures the local spreadsheet sink.
type XLSXSinkConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Path    string `yaml:"path" mapstructure:"path"`
	Sheet   string `yaml:"sheet" mapstructure:"sheet"`
}

// SinksConfig enables and configures the CRM sinks.
type SinksConfig struct {
	Notion     NotionSinkConfig     `yaml:"notion" mapstructure:"notion"`
	Salesforce SalesforceSinkConfig `yaml:"salesforce" mapstructure:"salesforce"`
	Postgres   PostgresSinkConfig   `yaml:"postgres" mapstructure:"postgres"`
	XLSX       XLSXSinkConfig       `yaml:"xlsx" mapstructure:"xlsx"`
}

// WhatsAppChannelConfig configures the Twilio WhatsApp channel.
type WhatsAppChannelConfig struct {
	Enabled    bool   `yaml:"enabled" mapstructure:"enabled"`
	AccountSID string `yaml:"account_sid" mapstructure:"account_sid"`
	AuthToken  string `yaml:"auth_token" mapstructure:"auth_token"`
	FromNumber string `yaml:"from_number" mapstructure:"from_number"`
	BaseURL    string `yaml:"base_url" mapstructure:"base_url"`
}

// EmailChannelConfig configures the SMTP email channel.
type EmailChannelConfig struct {
	Enabled  bool   `yaml:"enabled" mapstructure:"enabled"`
	Host     string `yaml:"host" mapstructure:"host"`
	Port     int    `yaml:"port" mapstructure:"port"`
	Username string `yaml:"username" mapstructure:"username"`
	Password string `yaml:"password" mapstructure:"password"`
	From     string `yaml:"from" mapstructure:"from"`
	Subject  string `yaml:"subject" mapstructure:"subject"`
}

// WebhookChannelConfig configures the generic webhook channel.
type WebhookChannelConfig struct {
	Enabled   bool   `yaml:"enabled" mapstructure:"enabled"`
	URL       string `yaml:"url" mapstructure:"url"`
	AuthToken string `yaml:"auth_token" mapstructure:"auth_token"`
}

// ChannelsConfig enables and configures the outreach channels.
type ChannelsConfig struct {
	WhatsApp WhatsAppChannelConfig `yaml:"whatsapp" mapstructure:"whatsapp"`
	Email    EmailChannelConfig    `yaml:"email" mapstructure:"email"`
	Webhook  WebhookChannelConfig  `yaml:"webhook" mapstructure:"webhook"`
}

// OutreachConfig configures message templates.
type OutreachConfig struct {
	TemplatesPath string `yaml:"templates_path" mapstructure:"templates_path"`
}

// PipelineConfig configures stage-internal concurrency and per-call timeouts.
type PipelineConfig struct {
	Concurrency     int `yaml:"concurrency" mapstructure:"concurrency"`
	CallTimeoutSecs int `yaml:"call_timeout_secs" mapstructure:"call_timeout_secs"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from leadgen.yaml and the environment.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("leadgen")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("LEADGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.dsn", "leadgen.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)

	v.SetDefault("sources.property_finder.base_url", "https://api.propertyfinder.ae")
	v.SetDefault("sources.bayut.base_url", "https://api.bayut.com")
	v.SetDefault("sources.dubizzle.base_url", "https://api.dubizzle.com")

	v.SetDefault("scrape.rate_per_sec", 2.0)
	v.SetDefault("scrape.burst", 1)
	v.SetDefault("scrape.timeout_secs", 30)
	v.SetDefault("scrape.synthetic_fallback", true)

	v.SetDefault("verifier.base_url", "https://api.dubailand.gov.ae/v1")
	v.SetDefault("verifier.timeout_secs", 10)

	v.SetDefault("qualification.threshold", 6)
	v.SetDefault("qualification.min_budget", 500_000)
	v.SetDefault("qualification.max_budget", 5_000_000)
	v.SetDefault("qualification.min_bedrooms", 1)
	v.SetDefault("qualification.max_bedrooms", 4)
	v.SetDefault("qualification.property_types", []string{"apartment", "villa", "townhouse"})
	v.SetDefault("qualification.budget_full_points", 3)
	v.SetDefault("qualification.budget_partial_points", 1)
	v.SetDefault("qualification.property_type_points", 2)
	v.SetDefault("qualification.bedroom_points", 2)
	v.SetDefault("qualification.contact_points", 2)
	v.SetDefault("qualification.verified_points", 1)
	v.SetDefault("qualification.verification_penalty", 3)

	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.base_delay_ms", 500)
	v.SetDefault("retry.max_delay_ms", 30_000)
	v.SetDefault("retry.multiplier", 2.0)

	v.SetDefault("breaker.failure_threshold", 5)
	v.SetDefault("breaker.cooldown_secs", 30)

	v.SetDefault("sinks.salesforce.login_url", "https://login.salesforce.com")
	v.SetDefault("sinks.salesforce.object", "Lead")
	v.SetDefault("sinks.xlsx.path", "leads.xlsx")
	v.SetDefault("sinks.xlsx.sheet", "Leads")

	v.SetDefault("channels.whatsapp.base_url", "https://api.twilio.com")
	v.SetDefault("channels.email.port", 587)
	v.SetDefault("channels.email.subject", "Your Dubai Property Match")

	v.SetDefault("outreach.templates_path", "templates.yaml")

	v.SetDefault("pipeline.concurrency", 4)
	v.SetDefault("pipeline.call_timeout_secs", 15)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// EnabledSinks returns the names of enabled CRM sinks.
func (c *Config) EnabledSinks() []string {
	var names []string
	if c.Sinks.Notion.Enabled {
		names = append(names, "notion")
	}
	if c.Sinks.Salesforce.Enabled {
		names = append(names, "salesforce")
	}
	if c.Sinks.Postgres.Enabled {
		names = append(names, "postgres")
	}
	if c.Sinks.XLSX.Enabled {
		names = append(names, "xlsx")
	}
	return names
}

// EnabledChannels returns the names of enabled outreach channels.
func (c *Config) EnabledChannels() []string {
	var names []string
	if c.Channels.WhatsApp.Enabled {
		names = append(names, "whatsapp")
	}
	if c.Channels.Email.Enabled {
		names = append(names, "email")
	}
	if c.Channels.Webhook.Enabled {
		names = append(names, "webhook")
	}
	return names
}

// Validate checks for fatal configuration errors. The orchestrator calls it
// before any stage starts; a non-nil error means the run never leaves the
// initial state.
func (c *Config) Validate() error {
	q := c.Qualification
	if q.Threshold < 0 || q.Threshold > 10 {
		return eris.Errorf("config: qualification threshold %d outside [0,10]", q.Threshold)
	}
	if q.MinBudget > q.MaxBudget {
		return eris.Errorf("config: min_budget %d exceeds max_budget %d", q.MinBudget, q.MaxBudget)
	}
	if q.MinBedrooms > q.MaxBedrooms {
		return eris.Errorf("config: min_bedrooms %d exceeds max_bedrooms %d", q.MinBedrooms, q.MaxBedrooms)
	}
	if c.Retry.MaxAttempts < 1 {
		return eris.Errorf("config: retry max_attempts must be >= 1, got %d", c.Retry.MaxAttempts)
	}
	if c.Pipeline.Concurrency < 1 {
		return eris.Errorf("config: pipeline concurrency must be >= 1, got %d", c.Pipeline.Concurrency)
	}
	if len(c.EnabledSinks()) == 0 {
		return eris.New("config: no CRM sinks enabled")
	}
	if len(c.EnabledChannels()) == 0 {
		return eris.New("config: no outreach channels enabled")
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
