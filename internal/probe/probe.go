// Package probe builds device observations from live network evidence: a
// small TCP port sweep plus a reverse-PTR hostname lookup.
package probe

import (
	"context"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/miekg/dns"
	"github.com/rs/zerolog"

	"github.com/bavix/macscope/internal/classify"
)

const (
	defaultDialTimeout = 2 * time.Second
	defaultDNSTimeout  = 3 * time.Second
)

// DefaultPorts is the sweep used when none are configured: the signature
// ports the classifier knows plus common management ports.
//
//nolint:gochecknoglobals // default policy table
var DefaultPorts = []int{22, 23, 80, 161, 443, 515, 554, 631, 3389, 8554, 9100, 37777}

// Prober collects observations about devices by IP. Safe for concurrent use.
type Prober struct {
	ports       []int
	dialTimeout time.Duration
	dnsServer   string
	dnsClient   *dns.Client
}

// New builds a prober. An empty port list falls back to DefaultPorts; an
// empty dnsServer disables hostname lookups.
func New(ports []int, dialTimeout time.Duration, dnsServer string) *Prober {
	if len(ports) == 0 {
		ports = DefaultPorts
	}

	if dialTimeout <= 0 {
		dialTimeout = defaultDialTimeout
	}

	return &Prober{
		ports:       ports,
		dialTimeout: dialTimeout,
		dnsServer:   dnsServer,
		dnsClient:   &dns.Client{Timeout: defaultDNSTimeout},
	}
}

// Observe sweeps the device's ports and resolves its hostname, producing an
// observation for the classifier. The vendor comes from the resolver; probe
// only fills in the network evidence. A device is responsive when at least
// one probed port accepts a connection.
func (p *Prober) Observe(ctx context.Context, mac, ip, vendor string) classify.Observation {
	open := p.sweep(ctx, ip)

	obs := classify.Observation{
		MAC:        mac,
		Vendor:     vendor,
		OpenPorts:  open,
		Responsive: len(open) > 0,
	}

	if hostname, err := p.reverseLookup(ctx, ip); err == nil {
		obs.Hostname = hostname
	} else {
		zerolog.Ctx(ctx).Debug().Err(err).Str("ip", ip).Msg("reverse lookup failed")
	}

	return obs
}

// sweep dials every configured port concurrently and returns the open ones.
func (p *Prober) sweep(ctx context.Context, ip string) []int {
	var (
		mu   sync.Mutex
		open []int
		wg   sync.WaitGroup
	)

	dialer := &net.Dialer{Timeout: p.dialTimeout}

	for _, port := range p.ports {
		wg.Add(1)

		go func(port int) {
			defer wg.Done()

			addr := net.JoinHostPort(ip, fmt.Sprintf("%d", port))

			conn, err := dialer.DialContext(ctx, "tcp", addr)
			if err != nil {
				return
			}

			_ = conn.Close()

			mu.Lock()
			open = append(open, port)
			mu.Unlock()
		}(port)
	}

	wg.Wait()

	return open
}

func (p *Prober) reverseLookup(ctx context.Context, ip string) (string, error) {
	if p.dnsServer == "" {
		return "", fmt.Errorf("no dns server configured") //nolint:err113
	}

	arpa, err := dns.ReverseAddr(ip)
	if err != nil {
		return "", err
	}

	msg := new(dns.Msg)
	msg.SetQuestion(arpa, dns.TypePTR)

	resp, _, err := p.dnsClient.ExchangeContext(ctx, msg, p.dnsServer)
	if err != nil {
		return "", err
	}

	for _, rr := range resp.Answer {
		if ptr, ok := rr.(*dns.PTR); ok {
			return strings.TrimSuffix(ptr.Ptr, "."), nil
		}
	}

	return "", fmt.Errorf("no ptr record for %s", ip) //nolint:err113
}
