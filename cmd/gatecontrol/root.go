package main

import (
	"fmt"
	"os"

	"gatecontrol-hq/gatecontrol/pkg/cli"
	"gatecontrol-hq/gatecontrol/pkg/config"
	"gatecontrol-hq/gatecontrol/pkg/telemetry/logging"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile      string
	outputFormat string
	logLevel     string
)

var rootCmd = &cobra.Command{
	Use:   "gatecontrol",
	Short: "GateControl - control plane for Ocelot API gateways",
	Long: `GateControl keeps a canonical model of environments, backend services and
routing rules, compiles it into Ocelot configuration documents, validates the
result and publishes it with auditable history.

Configuration is read from --config (YAML) and GATECONTROL_* environment
variables. Without --config the built-in defaults are used.`,
	Version:           Version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
	}
	return cli.ExitCode(err)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "text", "output format (text, json, csv)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log level (debug, info, warn, error)")
}

// loadConfig initializes the process configuration and the default logger
// before any subcommand runs.
func loadConfig(cmd *cobra.Command, _ []string) error {
	if _, err := cli.ParseOutputFormat(outputFormat); err != nil {
		return err
	}
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return cli.NewConfigError(cfgFile, err.Error())
	}
	config.SetConfig(cfg)
	if logLevel != "" {
		cfg.Telemetry.Logging.Level = logLevel
	}

	// One-shot commands keep stdout for results.
	if _, err := logging.Setup(logging.FromConfig(cfg.Telemetry.Logging, cmd.ErrOrStderr())); err != nil {
		return cli.NewConfigError("telemetry.logging", err.Error())
	}
	return nil
}

// printResult writes data to the command's stdout in the --output format.
func printResult(cmd *cobra.Command, data any) error {
	format, err := cli.ParseOutputFormat(outputFormat)
	if err != nil {
		return err
	}
	return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), data)
}
