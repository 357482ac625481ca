package cli

import (
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/adilans/parley/internal/config"
	"github.com/adilans/parley/internal/logger"
	"github.com/adilans/parley/internal/observability"
	"github.com/adilans/parley/pkg/llm"
	"github.com/adilans/parley/pkg/mesh"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	runSession   string
	runFrom      string
	runTo        string
	runPrompt    string
	runBroadcast bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the agent system",
	Long: `Run the agent system: register the configured agents, connect the
graph, create a session, optionally seed it with a message, then serve until
interrupted. On shutdown the session is torn down and all consumer tasks are
awaited.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVar(&runSession, "session", "", "session id (generated when empty)")
	runCmd.Flags().StringVar(&runFrom, "from", "", "sender agent for the seed message")
	runCmd.Flags().StringVar(&runTo, "to", "", "recipient agent for the seed message")
	runCmd.Flags().StringVar(&runPrompt, "prompt", "", "seed message content")
	runCmd.Flags().BoolVar(&runBroadcast, "broadcast", false, "broadcast the seed message to all of --from's connections")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.NewLoader(cfgFile).Load()
	if err != nil {
		return err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	lg, err := logger.New(logger.Config{
		Level:   cfg.Logging.Level,
		File:    cfg.Logging.File,
		Console: true,
		Pretty:  cfg.Logging.Pretty,
	})
	if err != nil {
		return err
	}
	defer lg.Close()

	client, err := llm.NewClient(llm.Options{
		Provider: cfg.LLM.Provider,
		Model:    cfg.LLM.Model,
		APIKey:   cfg.LLM.APIKey,
		BaseURL:  cfg.LLM.BaseURL,
	})
	if err != nil {
		return err
	}

	system := mesh.NewSystem(client)
	for _, def := range cfg.Agents {
		if err := system.AddAgent(mesh.NewAgent(def.Name, def.Role)); err != nil {
			return err
		}
	}
	for _, pair := range cfg.Connections {
		if err := system.ConnectAgents(pair[0], pair[1]); err != nil {
			return err
		}
	}

	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", observability.MetricsHandler())
		go func() {
			if err := http.ListenAndServe(cfg.Metrics.Addr, mux); err != nil {
				log.Error().Err(err).Msg("Metrics server stopped")
			}
		}()
		log.Info().Str("addr", cfg.Metrics.Addr).Msg("Metrics server listening")
	}

	if cfg.Health.Enabled {
		monitor := llm.NewMonitor(client, cfg.Health.Schedule)
		if err := monitor.Start(); err != nil {
			return fmt.Errorf("failed to start health monitor: %w", err)
		}
		defer monitor.Stop()
	}

	sessionID := runSession
	if sessionID == "" {
		sessionID, err = gonanoid.New()
		if err != nil {
			return err
		}
	}
	if err := system.CreateSession(sessionID); err != nil {
		return err
	}

	if err := seedMessage(system); err != nil {
		log.Error().Err(err).Msg("Seed message rejected")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	log.Info().Str("session", sessionID).Msg("Shutting down")
	dropped, err := system.WaitForSessionTasks(sessionID)
	if err != nil {
		log.Error().Err(err).Msg("Session teardown reported failures")
	}
	if dropped > 0 {
		log.Warn().Int("dropped", dropped).Msg("Messages dropped during teardown")
	}

	usage := client.Usage()
	log.Info().
		Int64("requests", usage.Requests).
		Int64("input_tokens", usage.InputTokens).
		Int64("output_tokens", usage.OutputTokens).
		Msg("Model usage")

	return nil
}

// seedMessage enqueues the optional initial message described by the run flags.
func seedMessage(system *mesh.System) error {
	if runPrompt == "" {
		return nil
	}
	if runFrom == "" {
		return fmt.Errorf("--prompt requires --from")
	}

	if runBroadcast {
		sent, err := system.SendBroadcast(runFrom, runPrompt)
		if err != nil {
			return err
		}
		log.Info().Str("from", runFrom).Int("recipients", len(sent)).Msg("Broadcast sent")
		return nil
	}

	if runTo == "" {
		return fmt.Errorf("--prompt requires --to or --broadcast")
	}
	msg, err := system.SendMessage(runFrom, runTo, runPrompt)
	if err != nil {
		return err
	}
	log.Info().Str("from", msg.From).Str("to", msg.To).Str("id", msg.ID).Msg("Message sent")
	return nil
}
