package main

import (
	"os"

	"github.com/datallboy/gonzb-assembler/internal/infra/config"
	"github.com/datallboy/gonzb-assembler/internal/infra/logger"
	"github.com/spf13/cobra"
)

var configFile string

func buildCLI() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "gonzb",
		Short:         "GoNZB assembler: turns decoded articles into verified files",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path (defaults when empty)")

	rootCmd.AddCommand(buildAssembleCommand())
	rootCmd.AddCommand(buildPar2Command())
	rootCmd.AddCommand(buildInspectCommand())
	rootCmd.AddCommand(buildRatingCommand())

	return rootCmd
}

func loadConfig() (*config.Config, error) {
	if configFile == "" {
		return config.Default(), nil
	}
	return config.Load(configFile)
}

// newLogger logs to the configured file, or to stderr for one-shot commands.
func newLogger(cfg *config.Config, toFile bool) (*logger.Logger, error) {
	level := logger.ParseLevel(cfg.Log.Level)
	if !toFile || cfg.Log.Path == "" {
		return logger.NewWriter(os.Stderr, level), nil
	}
	return logger.New(cfg.Log.Path, level, cfg.Log.IncludeStdout)
}
