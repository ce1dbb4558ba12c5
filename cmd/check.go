package cmd

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/bavix/macscope/internal/config"
)

var errCapabilityMissing = errors.New("required capability unavailable")

// capability is the result of one startup availability check.
type capability struct {
	name      string
	available bool
	detail    string
	required  bool
}

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check configuration and capability availability",
		Long: "Probes every capability the resolver depends on once, up front:\n" +
			"configuration validity, cache directory writability and shell tool\n" +
			"availability. Exits non-zero when a required capability is missing.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := zerolog.Ctx(ctx)

			cfg, err := loadConfig(ctx)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			caps := collectCapabilities(cfg)

			failed := false

			for _, c := range caps {
				event := log.Info()
				if !c.available {
					if c.required {
						event = log.Error()
						failed = true
					} else {
						event = log.Warn()
					}
				}

				event.
					Str("capability", c.name).
					Bool("available", c.available).
					Str("detail", c.detail).
					Msg("capability checked")

				status := "available"
				if !c.available {
					status = "UNAVAILABLE"
				}

				fmt.Printf("%-30s %s  %s\n", c.name, status, c.detail)
			}

			if failed {
				return errCapabilityMissing
			}

			log.Info().Msg("all required capabilities available")

			return nil
		},
	}

	return cmd
}

func collectCapabilities(cfg *config.Config) []capability {
	caps := []capability{checkCacheDir(cfg)}

	for _, src := range cfg.Sources {
		switch src.Type {
		case config.SourceTypeShell:
			caps = append(caps, checkShellTool(src))
		default:
			caps = append(caps, checkSourceURL(src))
		}
	}

	if cfg.StaticTableFile != "" {
		caps = append(caps, checkStaticFile(cfg.StaticTableFile))
	}

	return caps
}

func checkCacheDir(cfg *config.Config) capability {
	c := capability{name: "cache", required: false}

	if cfg.Cache.Path == "" {
		c.available = true
		c.detail = "ephemeral (no path configured)"

		return c
	}

	dir := filepath.Dir(cfg.Cache.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		c.detail = err.Error()

		return c
	}

	probe := filepath.Join(dir, ".macscope-write-check")
	if err := os.WriteFile(probe, nil, 0o600); err != nil {
		c.detail = err.Error()

		return c
	}

	_ = os.Remove(probe)

	c.available = true
	c.detail = cfg.Cache.Path

	return c
}

func checkShellTool(src config.SourceConfig) capability {
	tool := src.Tool
	if tool == "" {
		tool = "curl"
	}

	c := capability{name: "source:" + src.Name, required: false}

	path, err := exec.LookPath(tool)
	if err != nil {
		c.detail = tool + " not found in PATH"

		return c
	}

	c.available = true
	c.detail = path

	return c
}

func checkSourceURL(src config.SourceConfig) capability {
	c := capability{name: "source:" + src.Name, required: false}

	u, err := url.Parse(strings.ReplaceAll(src.URL, "%s", "AABBCC"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		c.detail = "invalid url: " + src.URL

		return c
	}

	c.available = true
	c.detail = u.Host

	return c
}

func checkStaticFile(path string) capability {
	c := capability{name: "static_table_file", required: false}

	if _, err := os.Stat(path); err != nil {
		c.detail = err.Error()

		return c
	}

	c.available = true
	c.detail = path

	return c
}
