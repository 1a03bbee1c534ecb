package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"TipCurator/internal/app"
	"TipCurator/internal/config"
	"TipCurator/internal/logging"
)

func main() {
	_ = godotenv.Load()

	var application *app.Application

	rootCmd := &cobra.Command{
		Use:           "tipsctl",
		Short:         "Operator commands for the tip corpus and newsletter",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Load()
			a, err := app.New(cfg, logging.ForRun(cfg.Logging.Level, "tipsctl "+cmd.Name()))
			if err != nil {
				return err
			}
			application = a
			return nil
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if application == nil {
				return nil
			}
			return application.Close()
		},
	}

	rootCmd.AddCommand(
		newStatsCmd(&application),
		newTipsCmd(&application),
		newDraftCmd(&application),
		newPreviewCmd(&application),
		newSendCmd(&application),
		newImportCmd(&application),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if application != nil {
			_ = application.Close()
		}
		os.Exit(1)
	}
}
