// Package main provides match-inspect, an operator CLI for running the
// matching engine outside a process instance and tailing activity events.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"company-matching/internal/common/config"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "match-inspect",
	Short: "Inspect company matching runs",
	Long:  "match-inspect runs the company matching engine against the configured stores and tails the activity events published by the workers.",
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config YAML (defaults to configs/config.yaml in the project root)")
}

func loadConfig() (*config.Config, error) {
	if configPath == "" {
		return config.Load()
	}
	return config.LoadFromFile(configPath)
}

func main() {
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
