package vendordb

import "time"

// Confidence describes how a vendor record was derived.
type Confidence string

const (
	// ConfidenceExact marks records from the curated static table.
	ConfidenceExact Confidence = "exact"
	// ConfidenceHeuristic marks records resolved through a remote source.
	ConfidenceHeuristic Confidence = "heuristic"
)

// Well-known record sources. Adapter-backed records carry the adapter name
// instead.
const (
	SourceStatic = "static"
	SourceCache  = "cache"
)

// VendorUnknown is the vendor name returned when every source is exhausted.
const VendorUnknown = "Unknown"

// Record is a resolved vendor identity for one OUI. Records are immutable
// after creation; a fresh lookup produces a new record.
type Record struct {
	OUI        string     `json:"oui"`
	Vendor     string     `json:"vendor"`
	Source     string     `json:"source"`
	ResolvedAt time.Time  `json:"resolved_at"`
	Confidence Confidence `json:"confidence"`
}

// Unknown builds the terminal record for an OUI no source could resolve.
func Unknown(oui string) Record {
	return Record{
		OUI:        oui,
		Vendor:     VendorUnknown,
		Source:     "",
		ResolvedAt: time.Now(),
		Confidence: ConfidenceHeuristic,
	}
}

// IsUnknown reports whether the record carries no resolved vendor.
func (r Record) IsUnknown() bool {
	return r.Vendor == "" || r.Vendor == VendorUnknown
}
