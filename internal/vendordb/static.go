package vendordb

import (
	"context"
	"os"
	"sync"

	yaml "github.com/goccy/go-yaml"
	"github.com/rs/zerolog"

	"github.com/bavix/macscope/internal/macaddr"
)

// builtinOUIs are curated prefixes for hardware commonly found on retail and
// branch networks: cameras, POS terminals, menu boards, network gear. The
// table is deliberately small; anything not listed goes through the remote
// sources.
//
//nolint:gochecknoglobals // curated seed data
var builtinOUIs = map[string]string{
	// Cameras / video surveillance
	"1866DA": "Hikvision Digital Technology",
	"4419B6": "Hangzhou Hikvision Digital Technology",
	"C0518E": "Hangzhou Hikvision Digital Technology",
	"3C8CF8": "Dahua Technology",
	"9C8ECD": "Dahua Technology",
	"00408C": "Axis Communications AB",
	"ACCC8E": "Axis Communications AB",
	// POS / payment terminals
	"00163E": "Verifone",
	"1C232C": "Verifone",
	"00089B": "Ingenico Group",
	"000E8C": "NCR Corporation",
	"0023F8": "NCR Corporation",
	"E8B4C8": "Toshiba Global Commerce Solutions",
	// Digital signage / menu boards
	"8C7712": "Samsung Electronics",
	"E45F01": "Raspberry Pi Trading",
	"B827EB": "Raspberry Pi Foundation",
	"DCA632": "Raspberry Pi Trading",
	// Network infrastructure
	"00000C": "Cisco Systems",
	"001B54": "Cisco Systems",
	"F09FC2": "Ubiquiti Networks",
	"24A43C": "Ubiquiti Networks",
	"B069F5": "Aruba, a Hewlett Packard Enterprise Company",
	// Printers (receipt/label)
	"000485": "Seiko Epson Corporation",
	"00807C": "Zebra Technologies",
}

// StaticTable is the in-process OUI table consulted before any network
// source. Lookups are O(1) and never rate limited. An optional overlay file
// can extend or override the built-in entries and is hot-reloadable.
type StaticTable struct {
	mu      sync.RWMutex
	entries map[string]string
	path    string
}

// NewStaticTable builds a table seeded with the built-in entries. If path is
// non-empty the overlay file is loaded on top; a missing file is not an
// error so deployments can start without one.
func NewStaticTable(path string) (*StaticTable, error) {
	t := &StaticTable{
		entries: make(map[string]string, len(builtinOUIs)),
		path:    path,
	}

	for oui, vendor := range builtinOUIs {
		t.entries[oui] = vendor
	}

	if path != "" {
		if err := t.Reload(); err != nil && !os.IsNotExist(err) {
			return nil, err
		}
	}

	return t, nil
}

// Name implements Adapter.
func (t *StaticTable) Name() string { return SourceStatic }

// Lookup implements Adapter. It never touches the network and reports
// ErrNotFound for unlisted prefixes.
func (t *StaticTable) Lookup(_ context.Context, oui string) (string, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if vendor, ok := t.entries[oui]; ok {
		return vendor, nil
	}

	return "", ErrNotFound
}

// Len returns the number of entries currently loaded.
func (t *StaticTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return len(t.entries)
}

// Reload re-reads the overlay file and rebuilds the table on top of the
// built-in entries. On parse failure the previous table is kept.
func (t *StaticTable) Reload() error {
	if t.path == "" {
		return nil
	}

	data, err := os.ReadFile(t.path)
	if err != nil {
		return err
	}

	var overlay map[string]string
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return err
	}

	entries := make(map[string]string, len(builtinOUIs)+len(overlay))
	for oui, vendor := range builtinOUIs {
		entries[oui] = vendor
	}

	for rawOUI, vendor := range overlay {
		oui, err := macaddr.NormalizeOUI(rawOUI)
		if err != nil {
			return err
		}

		entries[oui] = vendor
	}

	t.mu.Lock()
	t.entries = entries
	t.mu.Unlock()

	return nil
}

// WatchOverlay reloads the overlay file whenever the watcher reports a
// change. It returns immediately; reloads happen on the watcher goroutine.
func (t *StaticTable) WatchOverlay(ctx context.Context, w *Watcher) {
	if t.path == "" || w == nil {
		return
	}

	w.OnChange(func() {
		logger := zerolog.Ctx(ctx)

		if err := t.Reload(); err != nil {
			logger.Warn().Err(err).Str("file", t.path).Msg("static table reload failed")

			return
		}

		logger.Info().Str("file", t.path).Int("entries", t.Len()).Msg("static table reloaded")
	})
	w.Watch(ctx, []string{t.path})
}
