package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"guildpulse/internal/di"
	"guildpulse/internal/structures"
)

const Version = "1.0.0"

func newRootCmd() *cobra.Command {
	flags := &structures.CliFlags{}

	cmd := &cobra.Command{
		Use:           "guildpulse",
		Short:         "Discord community bot: levels, live stat channels and weather digests",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_ = godotenv.Load()

			app, cleanup, err := di.InitApp(flags)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return app.Run(ctx)
		},
	}
	cmd.Flags().StringVarP(&flags.ConfigPath, "config", "c", "config.yaml", "path to the yaml config file")
	cmd.Flags().BoolVar(&flags.DebugMode, "debug", false, "mirror logs to stderr")
	return cmd
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "guildpulse:", err)
		os.Exit(1)
	}
}
