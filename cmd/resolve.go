package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/bavix/macscope/internal/classify"
	"github.com/bavix/macscope/internal/macaddr"
	"github.com/bavix/macscope/internal/vendordb"
)

var errAllInputsFailed = errors.New("no input could be resolved or classified")

type resolveOutput struct {
	MAC        string              `json:"mac"`
	Vendor     string              `json:"vendor"`
	Source     string              `json:"source,omitempty"`
	Error      string              `json:"error,omitempty"`
	DeviceType classify.DeviceType `json:"device_type"`
	Risk       string              `json:"risk"`
	Hostname   string              `json:"hostname,omitempty"`
}

func newResolveCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "resolve MAC[=IP]...",
		Short: "Resolve vendor, device type and migration risk for MAC addresses",
		Long: "Resolves each MAC against the static table, the cache and the configured\n" +
			"remote sources, then classifies the device. Appending =IP to a MAC probes\n" +
			"the device's ports and hostname to refine the classification.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := zerolog.Ctx(ctx)

			cfg, err := loadConfig(ctx)
			if err != nil {
				return err
			}

			d, err := buildDeps(ctx, cfg)
			if err != nil {
				return err
			}
			defer d.close()

			macs := make([]string, 0, len(args))
			ips := make(map[string]string, len(args))

			for _, arg := range args {
				mac, ip, found := strings.Cut(arg, "=")

				macs = append(macs, mac)
				if found {
					ips[mac] = ip
				}
			}

			outcomes := d.resolver.BatchResolve(ctx, macs, cfg.Resolver.BatchConcurrency)

			succeeded := 0

			for _, mac := range macs {
				outcome := outcomes[mac]

				obs := classify.Observation{
					MAC:    mac,
					Vendor: outcome.Record.Vendor,
				}

				if ip, ok := ips[mac]; ok {
					obs = d.prober.Observe(ctx, mac, ip, outcome.Record.Vendor)
				}

				verdict := d.classifier.Classify(obs)

				if outcome.Err == nil || verdict.Type != classify.DeviceUnknown {
					succeeded++
				}

				out := resolveOutput{
					MAC:        mac,
					Vendor:     outcome.Record.Vendor,
					Source:     outcome.Record.Source,
					Error:      vendordb.Kind(outcome.Err),
					DeviceType: verdict.Type,
					Risk:       verdict.RiskLabel,
					Hostname:   obs.Hostname,
				}

				if asJSON {
					enc := json.NewEncoder(os.Stdout)
					if err := enc.Encode(out); err != nil {
						return err
					}
				} else {
					printResolveOutput(out)
				}

				log.Debug().
					Str("mac", mac).
					Str("vendor", out.Vendor).
					Str("source", out.Source).
					Str("device_type", string(out.DeviceType)).
					Msg("resolved")
			}

			if succeeded == 0 {
				return errAllInputsFailed
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit one JSON object per line")

	return cmd
}

func printResolveOutput(out resolveOutput) {
	mac := out.MAC
	if normalized, err := macaddr.Normalize(mac); err == nil {
		mac = macaddr.Format(normalized)
	}

	fmt.Printf("%s  vendor=%q source=%s type=%s risk=%q", mac, out.Vendor, orDash(out.Source), out.DeviceType, out.Risk)

	if out.Hostname != "" {
		fmt.Printf(" hostname=%s", out.Hostname)
	}

	if out.Error != "" {
		fmt.Printf(" error=%s", out.Error)
	}

	fmt.Println()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}

	return s
}
