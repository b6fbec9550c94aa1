package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dream-ai/ragchat/internal/app"
	"github.com/dream-ai/ragchat/internal/documents"
	"github.com/dream-ai/ragchat/internal/metrics"
)

func ingestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest <pdf>...",
		Short: "Index one or more PDF files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			services := app.Build(cmd.Context(), cfg, metrics.New(), nil)
			defer services.Close()

			var failed int
			for _, path := range args {
				res, err := services.Ingest(cmd.Context(), path)
				if err != nil {
					failed++
					fmt.Fprintf(cmd.ErrOrStderr(), "%v\n", err)
					continue
				}
				if res.Status == documents.StatusSkipped {
					fmt.Fprintf(cmd.OutOrStdout(), "%s: already processed, skipping\n", path)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d chunks indexed\n", path, res.Chunks)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d files failed", failed, len(args))
			}
			return nil
		},
	}
}
