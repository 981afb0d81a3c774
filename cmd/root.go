// Package cmd provides the rv-react command-line interface.
//
// Configuration sources, highest priority first:
//  1. Command-line flags (--port, --host, ...)
//  2. Environment variables with the RVREACT_ prefix
//     (RVREACT_SERVER_PORT, RVREACT_APP_ROOT, ...)
//  3. A .rvreact.yml file in the current directory
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "rv-react",
	Short: "A component runtime with a hot-reloading preview server",
	Long: `rv-react renders component trees with persistent per-instance state,
reconciles them incrementally, and serves the committed markup over a
development server with live updates.

Quick Start:
  rv-react serve                  Start the preview server with the demo app
  rv-react components             List registered components
  rv-react version                Show version information`,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .rvreact.yml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log_format", rootCmd.PersistentFlags().Lookup("log-format"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".rvreact")
	}

	viper.SetEnvPrefix("RVREACT")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// A missing config file is fine; defaults and env vars still apply.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
