package main

import (
	"fmt"
	"io"
	"log"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/dream-ai/ragchat/internal/app"
	"github.com/dream-ai/ragchat/internal/metrics"
	"github.com/dream-ai/ragchat/internal/tui"
)

func chatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Chat with the indexed documents in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			// keep subsystem logs from corrupting the alt screen
			log.SetOutput(io.Discard)

			services := app.Build(cmd.Context(), cfg, metrics.New(), nil)
			defer services.Close()

			svc, err := services.Chat()
			if err != nil {
				return err
			}

			title := fmt.Sprintf("ragchat · %s", cfg.VectorIndex.Collection)
			p := tea.NewProgram(tui.New(svc, services.UserID, title), tea.WithAltScreen())
			_, err = p.Run()
			return err
		},
	}
}
