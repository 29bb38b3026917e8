package commands

import (
	"github.com/pkg/browser"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"tankscope/internal/dashboard"
)

var (
	httpAddr    string
	openBrowser bool
)

var httpCmd = &cobra.Command{
	Use:   "http",
	Short: "Serve the JSON/WebSocket dashboard API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		addr := cfg.HTTPAddr
		if httpAddr != "" {
			addr = httpAddr
		}

		ws := openWorkspace()
		h := dashboard.New(cfg, ws.store, ws.cache)
		if cfg.WatchDataset {
			go ws.watch(ctx, h.Hub().NotifyDataset)
		}

		return dashboard.Serve(ctx, addr, h, func(bound string) {
			if !openBrowser {
				return
			}
			url := "http://" + bound + "/"
			if err := browser.OpenURL(url); err != nil {
				log.Warn().Err(err).Str("url", url).Msg("Failed to open browser")
			}
		})
	},
}

func init() {
	httpCmd.Flags().StringVar(&httpAddr, "addr", "", "listen address (default HTTP_ADDR or 127.0.0.1:8420)")
	httpCmd.Flags().BoolVar(&openBrowser, "open", false, "open the API root in the default browser")
	rootCmd.AddCommand(httpCmd)
}
