// Package classify derives a device type and a migration risk rating from a
// resolved vendor and observed network behavior. Classification is a pure
// function over the observation; no I/O, no hidden state.
package classify

import (
	"sort"
	"strings"
)

// DeviceType is the coarse hardware category a device is assigned to.
type DeviceType string

const (
	DeviceCamera       DeviceType = "camera"
	DevicePOSTerminal  DeviceType = "pos_terminal"
	DeviceDesktop      DeviceType = "desktop"
	DeviceNetworkInfra DeviceType = "network_infra"
	DevicePrinter      DeviceType = "printer"
	DeviceSignage      DeviceType = "signage"
	DeviceUnknown      DeviceType = "unknown"
)

// RiskLevel grades the migration risk a live device poses.
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

const notResponsiveSuffix = " - Device Not Responsive"

// Observation is the evidence about one device. Immutable once constructed.
type Observation struct {
	MAC        string `json:"mac"`
	Vendor     string `json:"vendor"`
	OpenPorts  []int  `json:"open_ports,omitempty"`
	Hostname   string `json:"hostname,omitempty"`
	Responsive bool   `json:"responsive"`
}

// Classification is the deterministic verdict for one observation. Risk is
// the bare level; RiskLabel additionally carries the not-responsive marker
// for offline devices.
type Classification struct {
	Type      DeviceType `json:"device_type"`
	Risk      RiskLevel  `json:"risk_level"`
	RiskLabel string     `json:"risk_label"`
}

type vendorSignature struct {
	token string
	typ   DeviceType
}

// Classifier holds the signature and policy tables. The zero value is not
// usable; construct with Default.
type Classifier struct {
	vendorSignatures []vendorSignature
	portSignatures   map[int]DeviceType
	riskPolicy       map[DeviceType]RiskLevel
}

// Default builds a classifier with the built-in signature tables.
func Default() *Classifier {
	return &Classifier{
		vendorSignatures: []vendorSignature{
			{token: "hikvision", typ: DeviceCamera},
			{token: "dahua", typ: DeviceCamera},
			{token: "axis communications", typ: DeviceCamera},
			{token: "hanwha", typ: DeviceCamera},
			{token: "verifone", typ: DevicePOSTerminal},
			{token: "ingenico", typ: DevicePOSTerminal},
			{token: "ncr", typ: DevicePOSTerminal},
			{token: "toshiba global commerce", typ: DevicePOSTerminal},
			{token: "cisco", typ: DeviceNetworkInfra},
			{token: "ubiquiti", typ: DeviceNetworkInfra},
			{token: "aruba", typ: DeviceNetworkInfra},
			{token: "juniper", typ: DeviceNetworkInfra},
			{token: "mikrotik", typ: DeviceNetworkInfra},
			{token: "zebra", typ: DevicePrinter},
			{token: "seiko epson", typ: DevicePrinter},
			{token: "star micronics", typ: DevicePrinter},
			{token: "raspberry pi", typ: DeviceSignage},
			{token: "dell", typ: DeviceDesktop},
			{token: "hewlett packard", typ: DeviceDesktop},
			{token: "lenovo", typ: DeviceDesktop},
			{token: "microsoft", typ: DeviceDesktop},
			{token: "apple", typ: DeviceDesktop},
			{token: "intel corporate", typ: DeviceDesktop},
		},
		portSignatures: map[int]DeviceType{
			554:   DeviceCamera,
			8554:  DeviceCamera,
			37777: DeviceCamera,
			9100:  DevicePOSTerminal,
			161:   DeviceNetworkInfra,
			23:    DeviceNetworkInfra,
			631:   DevicePrinter,
			515:   DevicePrinter,
			3389:  DeviceDesktop,
		},
		riskPolicy: map[DeviceType]RiskLevel{
			DeviceCamera:       RiskHigh,
			DevicePOSTerminal:  RiskCritical,
			DeviceNetworkInfra: RiskMedium,
			DevicePrinter:      RiskMedium,
			DeviceSignage:      RiskMedium,
			DeviceDesktop:      RiskLow,
			DeviceUnknown:      RiskMedium,
		},
	}
}

// legacyTypes are embedded platforms that rarely tolerate network changes.
//
//nolint:gochecknoglobals // policy table
var legacyTypes = map[DeviceType]struct{}{
	DeviceCamera:       {},
	DevicePOSTerminal:  {},
	DeviceNetworkInfra: {},
	DevicePrinter:      {},
	DeviceSignage:      {},
}

// Classify derives a device type and risk rating from the observation.
// Precedence: vendor signature, then open-port signature, then Unknown.
func (c *Classifier) Classify(obs Observation) Classification {
	typ := c.typeFromVendor(obs.Vendor)
	if typ == DeviceUnknown {
		typ = c.typeFromPorts(obs.OpenPorts)
	}

	risk := c.risk(typ, obs.Responsive)

	label := string(risk)
	if !obs.Responsive {
		label += notResponsiveSuffix
	}

	return Classification{Type: typ, Risk: risk, RiskLabel: label}
}

func (c *Classifier) typeFromVendor(vendor string) DeviceType {
	v := strings.ToLower(strings.TrimSpace(vendor))
	if v == "" || v == "unknown" {
		return DeviceUnknown
	}

	for _, sig := range c.vendorSignatures {
		if strings.Contains(v, sig.token) {
			return sig.typ
		}
	}

	return DeviceUnknown
}

func (c *Classifier) typeFromPorts(ports []int) DeviceType {
	// Deterministic regardless of input order: lowest matching port wins.
	sorted := make([]int, len(ports))
	copy(sorted, ports)
	sort.Ints(sorted)

	for _, port := range sorted {
		if typ, ok := c.portSignatures[port]; ok {
			return typ
		}
	}

	return DeviceUnknown
}

func (c *Classifier) risk(typ DeviceType, responsive bool) RiskLevel {
	if !responsive {
		// An offline device poses negligible immediate migration risk,
		// legacy or not.
		return RiskLow
	}

	if risk, ok := c.riskPolicy[typ]; ok {
		return risk
	}

	return RiskMedium
}

// IsLegacy reports whether the type is an embedded/legacy platform.
func IsLegacy(typ DeviceType) bool {
	_, ok := legacyTypes[typ]

	return ok
}
