package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"tankscope/internal/config"
	"tankscope/internal/logging"
)

var forceInit bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or create the engine profile",
	// The profile named by --config may not exist yet, so it is not read here.
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Init(verbose)
		var err error
		cfg, err = config.Load("")
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load configuration")
		}
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default engine profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := profile
		if path == "" {
			path = cfg.DefaultProfilePath()
		}
		if _, err := os.Stat(path); err == nil && !forceInit {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		if err := config.SaveEngine(config.DefaultEngine(), path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective engine profile as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := config.LoadEngine(profile)
		if err != nil {
			return err
		}
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		defer enc.Close()
		return enc.Encode(e)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "tankscope %s (commit %s, built %s)\n", Version, Commit, BuildDate)
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&forceInit, "force", false, "overwrite an existing profile")
	configCmd.AddCommand(configInitCmd, configShowCmd)
	rootCmd.AddCommand(configCmd, versionCmd)
}
