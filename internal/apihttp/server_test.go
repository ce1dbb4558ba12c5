package apihttp_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bavix/macscope/internal/apihttp"
	"github.com/bavix/macscope/internal/classify"
	"github.com/bavix/macscope/internal/ouicache"
	"github.com/bavix/macscope/internal/ratelimit"
	"github.com/bavix/macscope/internal/resolver"
	"github.com/bavix/macscope/internal/vendordb"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	static, err := vendordb.NewStaticTable("")
	require.NoError(t, err)

	res := resolver.New(static, ouicache.OpenEphemeral(time.Hour, 100),
		ratelimit.New(ratelimit.SourceConfig{}), vendordb.NewResponseFilter(nil),
		nil, resolver.Options{OverallTimeout: time.Second})

	srv := httptest.NewServer(apihttp.New(":0", res, classify.Default(), 4).Handler())
	t.Cleanup(srv.Close)

	return srv
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()

	data, err := json.Marshal(body)
	require.NoError(t, err)

	resp, err := http.Post(url, "application/json", bytes.NewReader(data)) //nolint:noctx
	require.NoError(t, err)

	return resp
}

func TestServer_Health(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/health") //nolint:noctx
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_Resolve(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/resolve", map[string]string{"mac": "18:66:DA:2A:81:1E"})
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Vendor string `json:"vendor"`
		Source string `json:"source"`
		Error  string `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))

	assert.Contains(t, out.Vendor, "Hikvision")
	assert.Equal(t, "static", out.Source)
	assert.Empty(t, out.Error)
}

func TestServer_ResolveUnknown(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/resolve", map[string]string{"mac": "02:00:00:00:00:01"})
	defer func() { _ = resp.Body.Close() }()

	var out struct {
		Vendor string `json:"vendor"`
		Error  string `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))

	assert.Equal(t, "Unknown", out.Vendor)
	assert.Equal(t, "not_found", out.Error)
}

func TestServer_Batch(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/batch", map[string][]string{
		"macs": {"18:66:DA:2A:81:1E", "bogus"},
	})
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out map[string]struct {
		Vendor string `json:"vendor"`
		Error  string `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Len(t, out, 2)

	assert.Contains(t, out["18:66:DA:2A:81:1E"].Vendor, "Hikvision")
	assert.Equal(t, "invalid_input", out["bogus"].Error)
}

func TestServer_Classify(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/classify", classify.Observation{
		MAC:        "1866DA2A811E",
		Vendor:     "Hikvision",
		Responsive: false,
	})
	defer func() { _ = resp.Body.Close() }()

	var out struct {
		DeviceType string `json:"device_type"`
		RiskLabel  string `json:"risk_label"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))

	assert.Equal(t, "camera", out.DeviceType)
	assert.Equal(t, "LOW - Device Not Responsive", out.RiskLabel)
}

func TestServer_BadRequest(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/resolve", "application/json", bytes.NewReader([]byte("{"))) //nolint:noctx
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
