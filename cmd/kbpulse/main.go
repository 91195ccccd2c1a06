// Command kbpulse serves the KB weekly housing dashboard API and relays the
// latest weeks of the workbook to a spreadsheet.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"kbpulse/internal/config"
	"kbpulse/internal/infrastructure"
)

// globalOptions are the persistent flags shared by every subcommand
type globalOptions struct {
	configPath string
	envFile    string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "kbpulse",
		Short: "KB weekly housing statistics pipeline",
		Long: `kbpulse downloads the KB weekly housing workbook, cleans the sale and lease
sheets into dated regional series and serves them to the dashboard.`,
		Version:      config.AppVersion,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "Dotenv file loaded before the environment is read")

	rootCmd.AddCommand(
		newServeCmd(opts),
		newUpdateCmd(opts),
		newInspectCmd(opts),
	)
	return rootCmd
}

// loadConfig reads the dotenv file, when present, then the configuration
func (o *globalOptions) loadConfig() (*config.Config, error) {
	if o.envFile != "" {
		if err := godotenv.Load(o.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", o.envFile, err)
		}
	}
	return config.Load(o.configPath)
}

// setup loads configuration and initializes the global logger
func (o *globalOptions) setup() (*config.Config, *slog.Logger, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, logger, nil
}
