package classify_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bavix/macscope/internal/classify"
)

func TestClassify_VendorSignatures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		vendor string
		want   classify.DeviceType
	}{
		{name: "hikvision camera", vendor: "Hangzhou Hikvision Digital Technology", want: classify.DeviceCamera},
		{name: "dahua camera", vendor: "Dahua Technology", want: classify.DeviceCamera},
		{name: "verifone pos", vendor: "Verifone", want: classify.DevicePOSTerminal},
		{name: "ncr pos", vendor: "NCR Corporation", want: classify.DevicePOSTerminal},
		{name: "cisco infra", vendor: "Cisco Systems", want: classify.DeviceNetworkInfra},
		{name: "zebra printer", vendor: "Zebra Technologies", want: classify.DevicePrinter},
		{name: "dell desktop", vendor: "Dell Inc.", want: classify.DeviceDesktop},
		{name: "case insensitive", vendor: "HIKVISION", want: classify.DeviceCamera},
		{name: "unmatched vendor", vendor: "Obscure Gadgets GmbH", want: classify.DeviceUnknown},
		{name: "unknown vendor", vendor: "Unknown", want: classify.DeviceUnknown},
		{name: "empty vendor", vendor: "", want: classify.DeviceUnknown},
	}

	c := classify.Default()

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := c.Classify(classify.Observation{Vendor: tt.vendor, Responsive: true})
			assert.Equal(t, tt.want, got.Type)
		})
	}
}

func TestClassify_PortSignaturesWhenVendorUnknown(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		ports []int
		want  classify.DeviceType
	}{
		{name: "rtsp camera", ports: []int{554}, want: classify.DeviceCamera},
		{name: "pos port", ports: []int{9100}, want: classify.DevicePOSTerminal},
		{name: "snmp infra", ports: []int{161}, want: classify.DeviceNetworkInfra},
		{name: "rdp desktop", ports: []int{3389}, want: classify.DeviceDesktop},
		{name: "no signature ports", ports: []int{80, 443}, want: classify.DeviceUnknown},
		{name: "no ports", ports: nil, want: classify.DeviceUnknown},
		{name: "order independent", ports: []int{8080, 554, 65000}, want: classify.DeviceCamera},
	}

	c := classify.Default()

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := c.Classify(classify.Observation{Vendor: "Unknown", OpenPorts: tt.ports, Responsive: true})
			assert.Equal(t, tt.want, got.Type)
		})
	}
}

func TestClassify_VendorTakesPrecedenceOverPorts(t *testing.T) {
	t.Parallel()

	c := classify.Default()

	got := c.Classify(classify.Observation{
		Vendor:     "Verifone",
		OpenPorts:  []int{554}, // camera port must not override the vendor match
		Responsive: true,
	})
	assert.Equal(t, classify.DevicePOSTerminal, got.Type)
}

func TestClassify_Risk(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		vendor     string
		responsive bool
		wantRisk   classify.RiskLevel
		wantLabel  string
	}{
		{
			name:       "responsive camera is high",
			vendor:     "Hikvision",
			responsive: true,
			wantRisk:   classify.RiskHigh,
			wantLabel:  "HIGH",
		},
		{
			name:       "responsive pos is critical",
			vendor:     "Ingenico Group",
			responsive: true,
			wantRisk:   classify.RiskCritical,
			wantLabel:  "CRITICAL",
		},
		{
			name:       "responsive infra is medium",
			vendor:     "Juniper Networks",
			responsive: true,
			wantRisk:   classify.RiskMedium,
			wantLabel:  "MEDIUM",
		},
		{
			name:       "offline camera is low",
			vendor:     "Hikvision",
			responsive: false,
			wantRisk:   classify.RiskLow,
			wantLabel:  "LOW - Device Not Responsive",
		},
		{
			name:       "unknown responsive is medium",
			vendor:     "Obscure Gadgets GmbH",
			responsive: true,
			wantRisk:   classify.RiskMedium,
			wantLabel:  "MEDIUM",
		},
		{
			name:       "unknown offline is low",
			vendor:     "Obscure Gadgets GmbH",
			responsive: false,
			wantRisk:   classify.RiskLow,
			wantLabel:  "LOW - Device Not Responsive",
		},
		{
			name:       "responsive desktop is low",
			vendor:     "Dell Inc.",
			responsive: true,
			wantRisk:   classify.RiskLow,
			wantLabel:  "LOW",
		},
	}

	c := classify.Default()

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := c.Classify(classify.Observation{Vendor: tt.vendor, Responsive: tt.responsive})
			assert.Equal(t, tt.wantRisk, got.Risk)
			assert.Equal(t, tt.wantLabel, got.RiskLabel)
		})
	}
}

func TestClassify_Deterministic(t *testing.T) {
	t.Parallel()

	c := classify.Default()
	obs := classify.Observation{
		MAC:        "1866DA2A811E",
		Vendor:     "Hikvision Digital Technology",
		OpenPorts:  []int{554, 80},
		Hostname:   "cam-entrance-01",
		Responsive: false,
	}

	first := c.Classify(obs)

	for i := 0; i < 50; i++ {
		assert.Equal(t, first, c.Classify(obs))
	}

	// Scenario: offline camera resolved from the static table.
	assert.Equal(t, classify.DeviceCamera, first.Type)
	assert.Equal(t, "LOW - Device Not Responsive", first.RiskLabel)
}

func TestIsLegacy(t *testing.T) {
	t.Parallel()

	assert.True(t, classify.IsLegacy(classify.DeviceCamera))
	assert.True(t, classify.IsLegacy(classify.DevicePOSTerminal))
	assert.True(t, classify.IsLegacy(classify.DeviceNetworkInfra))
	assert.False(t, classify.IsLegacy(classify.DeviceDesktop))
	assert.False(t, classify.IsLegacy(classify.DeviceUnknown))
}
