package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/semgate-ai/semgate/pkg/audit"
	"github.com/semgate-ai/semgate/pkg/budget"
	"github.com/semgate-ai/semgate/pkg/config"
	"github.com/semgate-ai/semgate/pkg/mcp"
	"github.com/semgate-ai/semgate/pkg/router"
	"github.com/semgate-ai/semgate/pkg/tracker"
)

func newMCPCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start semgate as an MCP server on stdio",
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

			// The MCP process has no access to the gateway's in-memory
			// cache, so cache stats are not exposed here.
			srv := mcp.New(tr, nil, enforcer, auditor, router.New(cfg.Paranoid), version)

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return srv.Run(ctx, os.Stdin, os.Stdout)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "semgate.yaml", "path to config file")
	return cmd
}
