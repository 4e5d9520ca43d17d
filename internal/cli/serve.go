package cli

import (
	"os/signal"
	"syscall"

	"github.com/existflow/grantline/server"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve timelines and live views over HTTP",
	RunE:  runServe,
}

var serveAddr string

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (defaults to server_addr)")
}

func runServe(cmd *cobra.Command, args []string) error {
	addr := cfg.ServerAddr
	if serveAddr != "" {
		addr = serveAddr
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	live, closeLive, err := openLive(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeLive()

	srv := server.New(live, server.Options{Style: cfg.Style(), Dark: cfg.Dark})
	return srv.Run(ctx, addr)
}
