package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/diligence-cli/internal/diligence"
	"github.com/sells-group/diligence-cli/internal/learn"
	"github.com/sells-group/diligence-cli/pkg/anthropic"
)

// env holds the wired pipeline dependencies for one command invocation.
type env struct {
	Service  *diligence.Service
	Learning learn.Provider
}

func (e *env) Close() {
	if e.Learning != nil {
		e.Learning.Close()
	}
}

// initEnv builds the service from global config.
func initEnv(ctx context.Context) (*env, error) {
	if cfg.Anthropic.Key == "" {
		return nil, eris.New("anthropic key not configured (set DILIGENCE_ANTHROPIC_KEY)")
	}
	client := anthropic.NewClient(cfg.Anthropic.Key)

	learning, err := learn.Open(ctx, cfg.Learning)
	if err != nil {
		return nil, err
	}

	return &env{
		Service:  diligence.NewService(client, learning, cfg),
		Learning: learning,
	}, nil
}
