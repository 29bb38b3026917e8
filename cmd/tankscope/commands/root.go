package commands

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"tankscope/internal/config"
	"tankscope/internal/logging"
	"tankscope/internal/mcp"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	// Version, Commit, and BuildDate are set at build time via ldflags.
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"

	verbose     bool
	profile     string
	datasetPath string
	cfg         *config.AppConfig
)

var rootCmd = &cobra.Command{
	Use:   "tankscope",
	Short: "TankScope is a corrosion statistics and risk projection MCP server for storage tanks",
	Long: `A specialized MCP Server that compares a storage tank's corrosion rate against a cohort
of inspected tanks and projects plate thickness, remaining life and failure probability.
Without a subcommand it serves MCP over stdio.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Init(verbose)

		// Load configuration
		var err error
		cfg, err = config.Load(profile)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load configuration")
		}
		if datasetPath != "" {
			if abs, err := filepath.Abs(datasetPath); err == nil {
				datasetPath = abs
			}
			cfg.DatasetPath = datasetPath
		}

		log.Info().
			Str("version", Version).
			Str("commit", Commit).
			Str("buildDate", BuildDate).
			Str("command", cmd.Name()).
			Msg("TankScope starting")
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		ws := openWorkspace()
		server := mcp.NewServer(cfg, ws.store, ws.cache, Version)
		if cfg.WatchDataset {
			go ws.watch(ctx, nil)
		}
		return server.Start(ctx)
	},
}

// Execute runs the root command until it finishes or the process is interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&profile, "config", "", "engine profile (YAML); overrides TANKSCOPE_PROFILE")
	rootCmd.PersistentFlags().StringVar(&datasetPath, "dataset", "", "tank register (.xlsx or .csv); overrides DATASET_PATH")
}
