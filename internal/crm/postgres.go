package crm

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/palmgate/leadgen-cli/internal/model"
)

// Pool is the subset of pgxpool.Pool the sink uses. pgxmock satisfies it.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// NewPool connects a pgx pool for the postgres sink.
func NewPool(ctx context.Context, connString string) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres sink: parse config")
	}
	poolCfg.MaxConns = 5

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres sink: connect")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres sink: ping")
	}
	return pool, nil
}

const createLeadsTableSQL = `
CREATE TABLE IF NOT EXISTS crm_leads (
	identity_key  TEXT PRIMARY KEY,
	source        TEXT NOT NULL,
	name          TEXT,
	phone         TEXT,
	email         TEXT,
	budget        TEXT,
	area          TEXT,
	property_type TEXT,
	bedrooms      TEXT,
	listing_url   TEXT,
	score         TEXT,
	verification  TEXT NOT NULL,
	updated_at    TIMESTAMPTZ NOT NULL
)`

const upsertLeadSQL = `
INSERT INTO crm_leads (
	identity_key, source, name, phone, email, budget, area,
	property_type, bedrooms, listing_url, score, verification, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
ON CONFLICT (identity_key) DO UPDATE SET
	source = EXCLUDED.source,
	name = EXCLUDED.name,
	phone = EXCLUDED.phone,
	email = EXCLUDED.email,
	budget = EXCLUDED.budget,
	area = EXCLUDED.area,
	property_type = EXCLUDED.property_type,
	bedrooms = EXCLUDED.bedrooms,
	listing_url = EXCLUDED.listing_url,
	score = EXCLUDED.score,
	verification = EXCLUDED.verification,
	updated_at = EXCLUDED.updated_at`

// PostgresSink upserts leads into a relational record store.
type PostgresSink struct {
	pool Pool
	now  func() time.Time
}

// NewPostgresSink creates the sink.
func NewPostgresSink(pool Pool) *PostgresSink {
	return &PostgresSink{pool: pool, now: time.Now}
}

func (s *PostgresSink) Name() string { return "postgres" }

// Migrate ensures the leads table exists.
func (s *PostgresSink) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, createLeadsTableSQL); err != nil {
		return eris.Wrap(err, "postgres sink: create table")
	}
	return nil
}

func (s *PostgresSink) Upsert(ctx context.Context, lead model.Lead) (string, error) {
	_, err := s.pool.Exec(ctx, upsertLeadSQL,
		lead.IdentityKey,
		lead.Source,
		lead.Attr(model.AttrName),
		lead.Attr(model.AttrPhone),
		lead.Attr(model.AttrEmail),
		lead.Attr(model.AttrBudget),
		lead.Attr(model.AttrArea),
		lead.Attr(model.AttrPropertyType),
		lead.Attr(model.AttrBedrooms),
		lead.Attr(model.AttrListingURL),
		scoreString(lead),
		string(lead.Verification),
		s.now().UTC(),
	)
	if err != nil {
		return "", eris.Wrap(err, "postgres sink: upsert")
	}
	return "crm_leads/" + lead.IdentityKey, nil
}
