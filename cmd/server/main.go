package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/quanta-kt/CosmicDiversBot/internal/config"
)

var version = "1.0.0"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var debug bool

	cmd := &cobra.Command{
		Use:   "cdbot",
		Short: "Cosmic Divers Discord bot",
		Long: `cdbot runs the Cosmic Divers Discord bot.

Configuration is read from the environment, after loading .env and ../.env
when present. Debug mode stores guild settings in the "debug" schema instead
of "production".`,
		Version:      version,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			loadEnvFiles()

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if debug {
				cfg.Debug = true
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return run(ctx, cfg)
		},
	}
	cmd.Flags().BoolVarP(&debug, "debug", "d", false, "Use the debug storage namespace")
	return cmd
}

func run(ctx context.Context, cfg *config.Config) error {
	app, cleanup, err := newApplication(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := app.Start(ctx); err != nil {
		app.log.Error().Err(err).Msg("application stopped with error")
		return err
	}
	app.log.Info().Msg("application exited cleanly")
	return nil
}

func loadEnvFiles() {
	paths := []string{".env", "../.env"}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Overload(path); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
			}
		}
	}
}
