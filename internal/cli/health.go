package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/adilans/parley/internal/config"
	"github.com/adilans/parley/pkg/llm"
	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check whether the model service is reachable",
	RunE:  runHealth,
}

func init() {
	rootCmd.AddCommand(healthCmd)
}

func runHealth(cmd *cobra.Command, args []string) error {
	cfg, err := config.NewLoader(cfgFile).Load()
	if err != nil {
		return err
	}

	client, err := llm.NewClient(llm.Options{
		Provider: cfg.LLM.Provider,
		Model:    cfg.LLM.Model,
		APIKey:   cfg.LLM.APIKey,
		BaseURL:  cfg.LLM.BaseURL,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()

	up, err := client.HealthCheck(ctx)
	if err != nil || !up {
		return fmt.Errorf("model service (%s) unreachable: %w", cfg.LLM.Provider, err)
	}

	fmt.Printf("model service (%s, model %s) reachable\n", cfg.LLM.Provider, cfg.LLM.Model)
	return nil
}
