package cmd

import (
	"context"
	"os"

	"github.com/rs/zerolog"

	"github.com/bavix/macscope/internal/classify"
	"github.com/bavix/macscope/internal/config"
	"github.com/bavix/macscope/internal/ouicache"
	"github.com/bavix/macscope/internal/probe"
	"github.com/bavix/macscope/internal/ratelimit"
	"github.com/bavix/macscope/internal/resolver"
	"github.com/bavix/macscope/internal/vendordb"
)

// deps is the wired resolution core shared by the subcommands.
type deps struct {
	cfg        *config.Config
	static     *vendordb.StaticTable
	cache      *ouicache.Store
	limiter    *ratelimit.Limiter
	resolver   *resolver.Resolver
	classifier *classify.Classifier
	prober     *probe.Prober
}

// loadConfig resolves the effective configuration: the explicit --config
// path, then the default path, then built-in defaults when no file exists.
func loadConfig(ctx context.Context) (*config.Config, error) {
	path := cfgFile
	if path == "" {
		path = defaultConfigPath
	}

	if _, err := os.Stat(path); os.IsNotExist(err) && cfgFile == "" {
		zerolog.Ctx(ctx).Debug().Str("path", path).Msg("no config file, using defaults")

		return config.Default(), nil
	}

	return config.Load(path)
}

// buildDeps wires the resolution pipeline from configuration.
func buildDeps(ctx context.Context, cfg *config.Config) (*deps, error) {
	static, err := vendordb.NewStaticTable(cfg.StaticTableFile)
	if err != nil {
		return nil, err
	}

	var cache *ouicache.Store
	if cfg.Cache.Path != "" {
		cache, err = ouicache.Open(cfg.Cache.Path, cfg.Cache.TTL, cfg.Cache.MaxEntries)
		if err != nil {
			return nil, err
		}
	} else {
		cache = ouicache.OpenEphemeral(cfg.Cache.TTL, cfg.Cache.MaxEntries)
	}

	limiter := ratelimit.New(ratelimit.SourceConfig{})
	adapters := make([]vendordb.Adapter, 0, len(cfg.Sources))

	for _, src := range cfg.Sources {
		limiter.Register(src.Name, ratelimit.SourceConfig{
			Capacity: src.Rate.Capacity,
			Refill:   src.Rate.Refill,
			Cooldown: src.Rate.Cooldown,
		})

		format := vendordb.ResponseFormat(src.Format)

		switch src.Type {
		case config.SourceTypeShell:
			shell := vendordb.NewShellAdapter(src.Name, src.Tool, src.URL, format, src.Timeout)
			if !shell.Available() {
				zerolog.Ctx(ctx).Warn().Str("source", src.Name).Msg("shell tool unavailable, source disabled")

				continue
			}

			adapters = append(adapters, shell)
		default:
			adapters = append(adapters, vendordb.NewHTTPAdapter(src.Name, src.URL, format, src.Timeout))
		}
	}

	res := resolver.New(static, cache, limiter,
		vendordb.NewResponseFilter(cfg.Resolver.InvalidResponses), adapters,
		resolver.Options{
			FanoutWidth:    cfg.Resolver.FanoutWidth,
			OverallTimeout: cfg.Resolver.OverallTimeout,
		})

	return &deps{
		cfg:        cfg,
		static:     static,
		cache:      cache,
		limiter:    limiter,
		resolver:   res,
		classifier: classify.Default(),
		prober:     probe.New(cfg.Probe.Ports, cfg.Probe.DialTimeout, cfg.Probe.DNSServer),
	}, nil
}

func (d *deps) close() {
	_ = d.cache.Close()
}
