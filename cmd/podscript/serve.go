package main

import (
	"github.com/spf13/cobra"

	"github.com/podscript-ai/podscript/pkg/logging"
	"github.com/podscript-ai/podscript/pkg/web"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web UI and JSON API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := buildPipeline(cmd.Context())
			if err != nil {
				return err
			}
			if addr == "" {
				addr = p.cfg.ListenAddr
			}

			server := web.NewServer(p.orch, p.store)
			logging.NewLogger(cmd.Context()).Infof("listening addr=%s provider=%s", addr, p.cfg.Provider)
			return server.Run(addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from PODSCRIPT_LISTEN_ADDR)")
	return cmd
}
