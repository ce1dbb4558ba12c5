package cmd

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/bavix/macscope/internal/ouicache"
)

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the OUI vendor cache",
	}

	cmd.AddCommand(newCacheStatsCmd())
	cmd.AddCommand(newCacheFlushCmd())

	return cmd
}

func openConfiguredCache(cmd *cobra.Command) (*ouicache.Store, error) {
	ctx := cmd.Context()

	cfg, err := loadConfig(ctx)
	if err != nil {
		return nil, err
	}

	if cfg.Cache.Path == "" {
		return nil, fmt.Errorf("no cache path configured") //nolint:err113
	}

	return ouicache.Open(cfg.Cache.Path, cfg.Cache.TTL, cfg.Cache.MaxEntries)
}

func newCacheStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show cache entry count",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openConfiguredCache(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			n, err := store.Len(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Printf("entries: %d\n", n)

			return nil
		},
	}
}

func newCacheFlushCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "flush",
		Short: "Remove all cached vendor records",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openConfiguredCache(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.Flush(cmd.Context()); err != nil {
				return err
			}

			zerolog.Ctx(cmd.Context()).Info().Msg("cache flushed")

			return nil
		},
	}
}
