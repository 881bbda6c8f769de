package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tideloom/tideloom/internal/cli"
	"github.com/tideloom/tideloom/internal/config"
	"github.com/tideloom/tideloom/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "tideloom",
	Short: "Tideloom is a recursive workflow execution engine",
	Long:  `Tideloom parses declarative workflow documents and executes them: atomic tasks perform effects, composite tasks arrange children, and every task folds an input value into an output value.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to the host config file")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
}

// setup loads configuration and builds the shared factory for a command
// invocation. The --log-level flag overrides the config file.
func setup(cmd *cobra.Command) (*config.Config, *cli.Factory, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.LogLevel = level
	}
	logger := logging.New(logging.ParseLevel(cfg.LogLevel))
	return cfg, cli.NewFactory(cfg, logger), nil
}
