package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/siherrmann/finrag/api"
	"github.com/spf13/cobra"
)

var flagAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the question answering HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := loadConfig()
		if err != nil {
			return err
		}
		logger := newLogger(config)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		f, err := openFinrag(ctx, config, logger, setup{withGenerator: true, withPipeline: true, withMessages: true})
		if err != nil {
			return err
		}
		defer f.Close()

		return api.NewServer(f, f.Healthy, logger).ListenAndServe(ctx, flagAddr)
	},
}

func init() {
	serveCmd.Flags().StringVar(&flagAddr, "addr", ":8000", "listen address")
}
