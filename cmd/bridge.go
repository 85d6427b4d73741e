package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/immxrtalbeast/rnplay/internal/bridge"
	"github.com/immxrtalbeast/rnplay/internal/config"
	"github.com/immxrtalbeast/rnplay/lib/logger/sl"
	"github.com/spf13/cobra"
)

func bridgeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bridge",
		Short: "Run the in-sandbox bridge between the device and the browser",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadBridge()
			if err != nil {
				return err
			}
			log := setupLogger(cfg.Env)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := bridge.Run(ctx, cfg, log); err != nil {
				log.Error("bridge exited", sl.Err(err))
				return err
			}
			return nil
		},
	}
}
