package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/semgate-ai/semgate/pkg/config"
	"github.com/semgate-ai/semgate/pkg/models"
)

func newCacheCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the semantic cache of a running gateway",
	}

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show semantic cache statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := cacheRequest(configPath, http.MethodGet)
			if err != nil {
				return err
			}

			var stats models.CacheStats
			if err := json.Unmarshal(body, &stats); err != nil {
				return fmt.Errorf("parse cache stats: %w", err)
			}

			fmt.Printf("Entries:            %d\n", stats.Entries)
			fmt.Printf("Exact hits:         %d\n", stats.ExactHits)
			fmt.Printf("Semantic hits:      %d\n", stats.SemanticHits)
			fmt.Printf("Misses:             %d\n", stats.Misses)
			fmt.Printf("Embedding failures: %d\n", stats.EmbeddingFailures)
			fmt.Printf("Semantic hit rate:  %.1f%%\n", stats.SemanticHitRate*100)
			fmt.Printf("Total hit rate:     %.1f%%\n", stats.TotalHitRate*100)
			return nil
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear all cached responses",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := cacheRequest(configPath, http.MethodDelete); err != nil {
				return err
			}
			fmt.Println("Semantic cache cleared.")
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "semgate.yaml", "path to config file")
	cmd.AddCommand(statsCmd, clearCmd)
	return cmd
}

// cacheRequest calls the running gateway's cache endpoint. The cache lives
// in server memory, so there is no way to reach it except over HTTP.
func cacheRequest(configPath, method string) ([]byte, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest(method, gatewayURL(cfg.Listen)+"/cache/semantic", nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("is the gateway running? %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gateway returned %d: %s", resp.StatusCode, body)
	}
	return body, nil
}

func gatewayURL(listen string) string {
	if strings.HasPrefix(listen, ":") {
		return "http://localhost" + listen
	}
	return "http://" + listen
}
