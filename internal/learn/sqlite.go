package learn

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// SQLiteProvider implements Provider on a local SQLite file, for single-user
// CLI installs with no Postgres around.
type SQLiteProvider struct {
	db *sql.DB
}

// NewSQLite opens the database at dsn and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteProvider, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "learn: open sqlite")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "learn: exec %s", pragma)
		}
	}
	return &SQLiteProvider{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS decisions (
	id         TEXT PRIMARY KEY,
	company    TEXT NOT NULL,
	invested   INTEGER NOT NULL,
	score      REAL NOT NULL,
	decided_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS score_overrides (
	id         TEXT PRIMARY KEY,
	company    TEXT NOT NULL,
	category   TEXT NOT NULL,
	criterion  TEXT NOT NULL,
	delta      REAL NOT NULL,
	reason     TEXT,
	created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_decisions_invested ON decisions(invested);
CREATE INDEX IF NOT EXISTS idx_overrides_category ON score_overrides(category);
`

func (p *SQLiteProvider) Migrate(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "learn: migrate sqlite")
}

func (p *SQLiteProvider) Close() error {
	return p.db.Close()
}

func (p *SQLiteProvider) RecordDecision(ctx context.Context, d Decision) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	if d.DecidedAt.IsZero() {
		d.DecidedAt = time.Now().UTC()
	}
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO decisions (id, company, invested, score, decided_at) VALUES (?, ?, ?, ?, ?)`,
		d.ID, d.Company, d.Invested, d.Score, d.DecidedAt,
	)
	return eris.Wrap(err, "learn: insert decision")
}

func (p *SQLiteProvider) RecordOverride(ctx context.Context, o Override) error {
	if o.ID == "" {
		o.ID = uuid.New().String()
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
	}
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO score_overrides (id, company, category, criterion, delta, reason, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.Company, o.Category, o.Criterion, o.Delta, o.Reason, o.CreatedAt,
	)
	return eris.Wrap(err, "learn: insert override")
}

func (p *SQLiteProvider) OverrideCalibrations(ctx context.Context) ([]OverrideCalibration, error) {
	rows, err := p.db.QueryContext(ctx,
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

func (p *SQLiteProvider) Stats(ctx context.Context) (*InvestmentStats, error) {
	var s InvestmentStats
	err := p.db.QueryRowContext(ctx,
		`SELECT
			COALESCE(SUM(CASE WHEN invested THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN invested THEN 0 ELSE 1 END), 0),
			COALESCE(AVG(CASE WHEN invested THEN score END), 0),
			COALESCE(AVG(CASE WHEN invested THEN NULL ELSE score END), 0)
		 FROM decisions`,
	).Scan(&s.Invested, &s.Passed, &s.InvestedAvgScore, &s.PassedAvgScore)
	if err != nil {
		return nil, eris.Wrap(err, "learn: query stats")
	}
	return &s, nil
}
