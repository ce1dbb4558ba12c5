package cmd

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/bavix/macscope/internal/apihttp"
	"github.com/bavix/macscope/internal/vendordb"
)

func newServeCmd() *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the resolution API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := zerolog.Ctx(ctx)

			cfg, err := loadConfig(ctx)
			if err != nil {
				return err
			}

			if listen != "" {
				cfg.HTTP.Listen = listen
			}

			d, err := buildDeps(ctx, cfg)
			if err != nil {
				return err
			}
			defer d.close()

			// Hot-reload the static table overlay while serving.
			if cfg.StaticTableFile != "" {
				watcher, err := vendordb.NewWatcher()
				if err != nil {
					return err
				}

				d.static.WatchOverlay(ctx, watcher)
			}

			log.Info().
				Str("listen", cfg.HTTP.Listen).
				Int("sources", len(cfg.Sources)).
				Int("static_entries", d.static.Len()).
				Msg("starting api server")

			server := apihttp.New(cfg.HTTP.Listen, d.resolver, d.classifier, cfg.Resolver.BatchConcurrency)

			return server.Serve(ctx)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "Listen address (overrides config)")

	return cmd
}
