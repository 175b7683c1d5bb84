// Package cmd provides the CLI commands for ChainGate.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/chaingate/chaingate/internal/config"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "chaingate",
	Short: "ChainGate - NL-to-SQL gateway for process chain monitoring",
	Long: `ChainGate answers natural language questions about SAP BW process chain
runs by generating SQL through an LLM, screening every candidate query
through a security gate, and executing only what the gate allows.

Quick start:
  1. Create a config file: chaingate.yaml
  2. Run: chaingate serve

Configuration:
  Config is loaded from chaingate.yaml in the current directory,
  $HOME/.chaingate/, or /etc/chaingate/.

  Environment variables can override config values with the CHAINGATE_ prefix.
  Example: CHAINGATE_SERVER_HTTP_ADDR=:9090

Commands:
  serve          Start the HTTP API server
  ask            Ask a single question from the command line
  session        Manage sessions against a running server
  hash-password  Generate an argon2id hash for an identities file
  version        Print version information`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./chaingate.yaml)")
}

func initConfig() {
	config.InitViper(cfgFile)
}
