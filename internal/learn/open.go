package learn

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/diligence-cli/internal/config"
)

// Open constructs the configured Provider and runs its migration.
func Open(ctx context.Context, cfg config.LearningConfig) (Provider, error) {
	var (
		p   Provider
		err error
	)
	switch cfg.Driver {
	case "postgres":
		p, err = NewPostgres(ctx, cfg.DatabaseURL)
	case "sqlite":
		p, err = NewSQLite(cfg.DatabaseURL)
	case "", "memory":
		p = NewMemory()
	default:
		return nil, eris.Errorf("learn: unknown driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := p.Migrate(ctx); err != nil {
		p.Close()
		return nil, err
	}
	return p, nil
}
