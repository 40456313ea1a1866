package main

import (
	"context"
	"os"
	"time"

	gosf "github.com/k-capehart/go-salesforce/v3"
	"github.com/rotisserie/eris"

	"github.com/palmgate/leadgen-cli/internal/channel"
	"github.com/palmgate/leadgen-cli/internal/crm"
	"github.com/palmgate/leadgen-cli/internal/outreach"
	"github.com/palmgate/leadgen-cli/internal/pipeline"
	"github.com/palmgate/leadgen-cli/internal/source"
	"github.com/palmgate/leadgen-cli/internal/store"
	"github.com/palmgate/leadgen-cli/pkg/bayut"
	"github.com/palmgate/leadgen-cli/pkg/dld"
	"github.com/palmgate/leadgen-cli/pkg/dubizzle"
	notionpkg "github.com/palmgate/leadgen-cli/pkg/notion"
	"github.com/palmgate/leadgen-cli/pkg/propertyfinder"
	sfpkg "github.com/palmgate/leadgen-cli/pkg/salesforce"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DSN
		if dsn == "" {
			dsn = "leadgen.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DSN)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

func buildAdapters() []source.Adapter {
	var adapters []source.Adapter
	if cfg.Sources.PropertyFinder.Enabled {
		client := propertyfinder.NewClient(cfg.Sources.PropertyFinder.Key,
			propertyfinder.WithBaseURL(cfg.Sources.PropertyFinder.BaseURL))
		adapters = append(adapters, source.NewPropertyFinderAdapter(client))
	}
	if cfg.Sources.Bayut.Enabled {
		client := bayut.NewClient(cfg.Sources.Bayut.Key,
			bayut.WithBaseURL(cfg.Sources.Bayut.BaseURL))
		adapters = append(adapters, source.NewBayutAdapter(client))
	}
	if cfg.Sources.Dubizzle.Enabled {
		client := dubizzle.NewClient(cfg.Sources.Dubizzle.Key,
			dubizzle.WithBaseURL(cfg.Sources.Dubizzle.BaseURL))
		adapters = append(adapters, source.NewDubizzleAdapter(client))
	}
	if cfg.Sources.CSVFeed.Enabled {
		adapters = append(adapters, source.NewCSVFeedAdapter(
			cfg.Sources.CSVFeed.Host,
			cfg.Sources.CSVFeed.User,
			cfg.Sources.CSVFeed.Password,
			cfg.Sources.CSVFeed.Path,
		))
	}
	return adapters
}

func buildVerifier() pipeline.Verifier {
	if !cfg.Verifier.Enabled {
		return nil
	}
	client := dld.NewClient(cfg.Verifier.Key,
		dld.WithBaseURL(cfg.Verifier.BaseURL),
		dld.WithTimeout(time.Duration(cfg.Verifier.TimeoutSecs)*time.Second))
	return pipeline.NewRegistryVerifier(client)
}

func buildSinks(ctx context.Context) ([]crm.Sink, func(), error) {
	var sinks []crm.Sink
	var cleanups []func()
	cleanup := func() {
		for _, fn := range cleanups {
			fn()
		}
	}

	if cfg.Sinks.Notion.Enabled {
		client := notionpkg.NewClient(cfg.Sinks.Notion.Token)
		sinks = append(sinks, crm.NewNotionSink(client, cfg.Sinks.Notion.LeadDB))
	}

	if cfg.Sinks.Salesforce.Enabled {
		client, err := initSalesforce()
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		sinks = append(sinks, crm.NewSalesforceSink(client))
	}

	if cfg.Sinks.Postgres.Enabled {
		pool, err := crm.NewPool(ctx, cfg.Sinks.Postgres.DatabaseURL)
		if err != nil {
			cleanup()
			return nil, nil, eris.Wrap(err, "connect postgres sink")
		}
		cleanups = append(cleanups, pool.Close)
		sink := crm.NewPostgresSink(pool)
		if err := sink.Migrate(ctx); err != nil {
			cleanup()
			return nil, nil, eris.Wrap(err, "migrate postgres sink")
		}
		sinks = append(sinks, sink)
	}

	if cfg.Sinks.XLSX.Enabled {
		sinks = append(sinks, crm.NewXLSXSink(cfg.Sinks.XLSX.Path, cfg.Sinks.XLSX.Sheet))
	}

	return sinks, cleanup, nil
}

func initSalesforce() (sfpkg.Client, error) {
	if cfg.Sinks.Salesforce.ClientID == "" {
		return nil, eris.New("salesforce client ID is required (LEADGEN_SINKS_SALESFORCE_CLIENT_ID)")
	}

	pemData, err := os.ReadFile(cfg.Sinks.Salesforce.KeyPath)
	if err != nil {
		return nil, eris.Wrap(err, "read salesforce JWT private key")
	}

	sf, err := gosf.Init(gosf.Creds{
		Domain:         cfg.Sinks.Salesforce.LoginURL,
		Username:       cfg.Sinks.Salesforce.Username,
		ConsumerKey:    cfg.Sinks.Salesforce.ClientID,
		ConsumerRSAPem: string(pemData),
	})
	if err != nil {
		return nil, eris.Wrap(err, "init salesforce")
	}

	return sfpkg.NewClient(sf), nil
}

func buildChannels() []channel.Channel {
	var channels []channel.Channel
	if cfg.Channels.WhatsApp.Enabled {
		channels = append(channels, channel.NewWhatsAppChannel(
			cfg.Channels.WhatsApp.AccountSID,
			cfg.Channels.WhatsApp.AuthToken,
			cfg.Channels.WhatsApp.FromNumber,
			channel.WithWhatsAppBaseURL(cfg.Channels.WhatsApp.BaseURL),
		))
	}
	if cfg.Channels.Email.Enabled {
		channels = append(channels, channel.NewEmailChannel(
			cfg.Channels.Email.Host,
			cfg.Channels.Email.Port,
			cfg.Channels.Email.Username,
			cfg.Channels.Email.Password,
			cfg.Channels.Email.From,
			cfg.Channels.Email.Subject,
		))
	}
	if cfg.Channels.Webhook.Enabled {
		channels = append(channels, channel.NewWebhookChannel(
			cfg.Channels.Webhook.URL,
			cfg.Channels.Webhook.AuthToken,
		))
	}
	return channels
}

// pipelineEnv bundles everything a command needs to run the pipeline.
type pipelineEnv struct {
	Store    store.Store
	Pipeline *pipeline.Pipeline
	cleanup  func()
}

func (e *pipelineEnv) Close() {
	if e.cleanup != nil {
		e.cleanup()
	}
	_ = e.Store.Close()
}

func initPipeline(ctx context.Context) (*pipelineEnv, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, eris.Wrap(err, "migrate store")
	}

	sinks, cleanup, err := buildSinks(ctx)
	if err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}

	templates, err := outreach.Load(cfg.Outreach.TemplatesPath)
	if err != nil {
		cleanup()
		st.Close() //nolint:errcheck
		return nil, err
	}

	p := pipeline.New(cfg, st, buildAdapters(), buildVerifier(), sinks, buildChannels(), templates)
	return &pipelineEnv{Store: st, Pipeline: p, cleanup: cleanup}, nil
}
