// Package commands implements the devflow command line: the API server, the
// schema migration, administrative actions against the database and a thin
// client for a running API.
package commands

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tbourn/go-devflow-backend/internal/config"
	"github.com/tbourn/go-devflow-backend/internal/sysutil"
)

// app carries what every subcommand needs once the root has run.
type app struct {
	version string
	cfg     config.Config
}

// Execute runs the CLI with os.Args.
func Execute(version string) error {
	root := NewRootCmd(version)
	err := root.Execute()
	if err != nil {
		var pe printedError
		if !errors.As(err, &pe) {
			log.Error().Err(err).Msg("command failed")
		}
	}
	return err
}

// NewRootCmd builds the command tree.
func NewRootCmd(version string) *cobra.Command {
	a := &app{version: version}

	var (
		envFile    string
		configFile string
	)

	root := &cobra.Command{
		Use:           "devflow",
		Short:         "devflow API server and tooling",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if envFile != "" {
				if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
					return err
				}
			}
			if configFile != "" {
				if err := os.Setenv("CONFIG_FILE", configFile); err != nil {
					return err
				}
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			sysutil.ConfigureLogger(cfg.LogLevel, cfg.LogPretty)
			a.cfg = cfg
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Dotenv file loaded before the environment is read (empty to skip)")
	root.PersistentFlags().StringVar(&configFile, "config", "", "YAML file of KEY: value defaults (overrides $CONFIG_FILE)")

	root.AddCommand(newServeCmd(a))
	root.AddCommand(newMigrateCmd(a))
	root.AddCommand(newAdminCmd(a))
	root.AddCommand(newAPICmd(a))

	return root
}
