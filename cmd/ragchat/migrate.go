package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dream-ai/ragchat/internal/db"
)

func migrateCmd() *cobra.Command {
	var steps int
	cmd := &cobra.Command{
		Use:       "migrate up|down",
		Short:     "Apply or roll back database migrations",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := db.Migrate(cfg.Database.ConnectionString, args[0], steps); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Migrations completed successfully")
			return nil
		},
	}
	cmd.Flags().IntVar(&steps, "steps", 0, "number of steps to apply (0 means all)")
	return cmd
}
