package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dream-ai/ragchat/config"
)

var configPath string

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "ragchat",
		Short:         "Chat with your PDF documents",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (default ./ragchat.yaml or ~/.ragchat/config.yaml)")

	root.AddCommand(serveCmd(), ingestCmd(), chatCmd(), migrateCmd())
	return root
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}
