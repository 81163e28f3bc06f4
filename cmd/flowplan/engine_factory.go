package main

import (
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/pmorrow/flowplan/internal/config"
	"github.com/pmorrow/flowplan/internal/engine"
	"github.com/pmorrow/flowplan/internal/oracle"
)

// newEngine builds the engine from configuration. When noLLM is set or
// the oracle is disabled, the engine runs heuristics only.
func newEngine(cfg *config.Config, noLLM bool) (*engine.Engine, error) {
	opts := engine.Options{
		OracleTimeout: cfg.Oracle.Timeout,
	}

	// No credentials means no oracle; the heuristic path still works.
	_, keyErr := config.GetAPIKey(cfg)

	if cfg.Oracle.Enabled && !noLLM && keyErr == nil {
		client, err := oracle.NewClient(oracle.ClientConfig{
			Model:         anthropic.Model(cfg.Anthropic.Model),
			APIKey:        cfg.Anthropic.APIKey,
			UseAWSBedrock: cfg.Anthropic.UseBedrock,
			AWSRegion:     cfg.Anthropic.AWSRegion,
			AWSProfile:    cfg.Anthropic.AWSProfile,
		})
		if err != nil {
			return nil, fmt.Errorf("create oracle client: %w", err)
		}
		opts.Oracle = oracle.New(client)
	}

	e := engine.New(opts)
	if fn := debugLog(); fn != nil {
		e.SetDebugLog(fn)
	}
	return e, nil
}
