package learn

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
)

// DB is the pgxpool subset the provider uses, kept narrow so tests can
// substitute a mock connection.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresProvider implements Provider on pgxpool.
type PostgresProvider struct {
	db      DB
	closeFn func()
}

// NewPostgres connects a PostgresProvider.
func NewPostgres(ctx context.Context, connString string) (*PostgresProvider, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "learn: parse postgres config")
	}
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "learn: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "learn: ping")
	}
	return &PostgresProvider{db: pool, closeFn: pool.Close}, nil
}

// NewPostgresWithDB wires an existing connection, used by tests.
func NewPostgresWithDB(db DB) *PostgresProvider {
	return &PostgresProvider{db: db}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS decisions (
	id         TEXT PRIMARY KEY,
	company    TEXT NOT NULL,
	invested   BOOLEAN NOT NULL,
	score      DOUBLE PRECISION NOT NULL,
	decided_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS score_overrides (
	id         TEXT PRIMARY KEY,
	company    TEXT NOT NULL,
	category   TEXT NOT NULL,
	criterion  TEXT NOT NULL,
	delta      DOUBLE PRECISION NOT NULL,
	reason     TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_decisions_invested ON decisions(invested);
CREATE INDEX IF NOT EXISTS idx_overrides_category ON score_overrides(category);
`

func (p *PostgresProvider) Migrate(ctx context.Context) error {
	_, err := p.db.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "learn: migrate postgres")
}

func (p *PostgresProvider) Close() error {
	if p.closeFn != nil {
		p.closeFn()
	}
	return nil
}

func (p *PostgresProvider) RecordDecision(ctx context.Context, d Decision) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	if d.DecidedAt.IsZero() {
		d.DecidedAt = time.Now().UTC()
	}
	_, err := p.db.Exec(ctx,
		`INSERT INTO decisions (id, company, invested, score, decided_at) VALUES ($1, $2, $3, $4, $5)`,
		d.ID, d.Company, d.Invested, d.Score, d.DecidedAt,
	)
	return eris.Wrap(err, "learn: insert decision")
}

func (p *PostgresProvider) RecordOverride(ctx context.Context, o Override) error {
	if o.ID == "" {
		o.ID = uuid.New().String()
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
	}
	_, err := p.db.Exec(ctx,
		`INSERT INTO score_overrides (id, company, category, criterion, delta, reason, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		o.ID, o.Company, o.Category, o.Criterion, o.Delta, o.Reason, o.CreatedAt,
	)
	return eris.Wrap(err, "learn: insert override")
}

func (p *PostgresProvider) OverrideCalibrations(ctx context.Context) ([]OverrideCalibration, error) {
	rows, err := p.db.Query(ctx,
		`SELECT category, AVG(delta), COUNT(*) FROM score_overrides GROUP BY category ORDER BY category`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "learn: query override calibrations")
	}
	defer rows.Close()

	var out []OverrideCalibration
	for rows.Next() {
		var c OverrideCalibration
		if err := rows.Scan(&c.Category, &c.AvgDelta, &c.SampleCount); err != nil {
			return nil, eris.Wrap(err, "learn: scan override calibration")
		}
		out = append(out, c)
	}
	return out, eris.Wrap(rows.Err(), "learn: iterate override calibrations")
}

func (p *PostgresProvider) Stats(ctx context.Context) (*InvestmentStats, error) {
	var s InvestmentStats
	err := p.db.QueryRow(ctx,
		`SELECT
			COUNT(*) FILTER (WHERE invested),
			COUNT(*) FILTER (WHERE NOT invested),
			COALESCE(AVG(score) FILTER (WHERE invested), 0),
			COALESCE(AVG(score) FILTER (WHERE NOT invested), 0)
		 FROM decisions`,
	).Scan(&s.Invested, &s.Passed, &s.InvestedAvgScore, &s.PassedAvgScore)
	if err != nil {
		return nil, eris.Wrap(err, "learn: query stats")
	}
	return &s, nil
}
