package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/semgate-ai/semgate/pkg/audit"
	"github.com/semgate-ai/semgate/pkg/budget"
	"github.com/semgate-ai/semgate/pkg/cache/semantic"
	"github.com/semgate-ai/semgate/pkg/config"
	"github.com/semgate-ai/semgate/pkg/embedding"
	embedollama "github.com/semgate-ai/semgate/pkg/embedding/ollama"
	"github.com/semgate-ai/semgate/pkg/gateway"
	"github.com/semgate-ai/semgate/pkg/tracker"
)

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the LLM gateway server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			tr, err := tracker.New(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("init tracker: %w", err)
			}
			defer func() { _ = tr.Close() }()

			var cache *semantic.SemanticCache
			if cfg.Cache.Enabled {
				cache = semantic.New(
					buildEmbedder(cfg),
					cfg.Cache.SimilarityThreshold,
					cfg.Cache.MaxEntries,
					cfg.Cache.TTL.Std(),
				)
			}

			var enforcer *budget.Enforcer
			if cfg.Budget.Enabled {
				enforcer = budget.New(cfg.Budget.Policies, tr)
			}

			var auditor *audit.Logger
			if cfg.Audit.Enabled {
				auditor, err = audit.New(cfg.Audit)
				if err != nil {
					return fmt.Errorf("init audit log: %w", err)
				}
				defer func() { _ = auditor.Close() }()
			}

			srv := gateway.New(cfg, cache, tr, enforcer, auditor)

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			log.Printf("starting semgate with config: %s", configPath)
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "semgate.yaml", "path to config file")
	return cmd
}

// buildEmbedder wraps the Ollama embedding provider with an in-memory
// memoization layer so repeated queries skip the network round trip.
func buildEmbedder(cfg *config.Config) embedding.Provider {
	p := embedollama.New(cfg.Ollama.URL, cfg.Ollama.EmbedModel, cfg.Cache.EmbedTimeout.Std())
	return embedding.NewCached(p, cfg.Cache.EmbedCacheSize, cfg.Cache.TTL.Std())
}
