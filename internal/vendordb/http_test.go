package vendordb_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bavix/macscope/internal/vendordb"
)

func TestHTTPAdapter_TextFormat(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/0050F2", r.URL.Path)
		_, _ = w.Write([]byte("Microsoft Corporation\n"))
	}))
	defer srv.Close()

	adapter := vendordb.NewHTTPAdapter("textsource", srv.URL, vendordb.FormatText, time.Second)

	vendor, err := adapter.Lookup(context.Background(), "0050F2")
	require.NoError(t, err)
	assert.Equal(t, "Microsoft Corporation", vendor)
}

func TestHTTPAdapter_JSONFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "top-level company", body: `{"company":"Apple, Inc."}`, want: "Apple, Inc."},
		{name: "nested result", body: `{"result":{"company":"Dell Inc."}}`, want: "Dell Inc."},
		{name: "nested vendorDetails", body: `{"vendorDetails":{"companyName":"Intel Corporate"}}`, want: "Intel Corporate"},
		{name: "data wrapper", body: `{"data":{"organization_name":"Espressif Inc."}}`, want: "Espressif Inc."},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			adapter := vendordb.NewHTTPAdapter("jsonsource", srv.URL, vendordb.FormatJSON, time.Second)

			vendor, err := adapter.Lookup(context.Background(), "AABBCC")
			require.NoError(t, err)
			assert.Equal(t, tt.want, vendor)
		})
	}
}

func TestHTTPAdapter_URLTemplate(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/AABBCC/vendor", r.URL.Path)
		_, _ = w.Write([]byte("Some Vendor"))
	}))
	defer srv.Close()

	adapter := vendordb.NewHTTPAdapter("tmpl", srv.URL+"/api/v1/%s/vendor", vendordb.FormatText, time.Second)

	vendor, err := adapter.Lookup(context.Background(), "AABBCC")
	require.NoError(t, err)
	assert.Equal(t, "Some Vendor", vendor)
}

func TestHTTPAdapter_StatusMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		wantErr error
	}{
		{name: "404 is not found", status: http.StatusNotFound, wantErr: vendordb.ErrNotFound},
		{name: "429 is rate limited", status: http.StatusTooManyRequests, wantErr: vendordb.ErrRateLimited},
		{name: "500 is transient", status: http.StatusInternalServerError, wantErr: vendordb.ErrTransient},
		{name: "503 is transient", status: http.StatusServiceUnavailable, wantErr: vendordb.ErrTransient},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			adapter := vendordb.NewHTTPAdapter("failing", srv.URL, vendordb.FormatText, time.Second)

			_, err := adapter.Lookup(context.Background(), "AABBCC")
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestHTTPAdapter_Timeout(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	adapter := vendordb.NewHTTPAdapter("slow", srv.URL, vendordb.FormatText, 50*time.Millisecond)

	_, err := adapter.Lookup(context.Background(), "AABBCC")
	require.ErrorIs(t, err, vendordb.ErrTimeout)
}

func TestHTTPAdapter_ConnectionRefusedIsTransient(t *testing.T) {
	t.Parallel()

	// Reserve a port, then close it so nothing is listening.
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	adapter := vendordb.NewHTTPAdapter("dead", url, vendordb.FormatText, time.Second)

	_, err := adapter.Lookup(context.Background(), "AABBCC")
	require.ErrorIs(t, err, vendordb.ErrTransient)
}

func TestParseVendorResponse_Malformed(t *testing.T) {
	t.Parallel()

	_, err := vendordb.ParseVendorResponse(vendordb.FormatJSON, []byte("not json at all"))
	require.ErrorIs(t, err, vendordb.ErrMalformedResponse)

	_, err = vendordb.ParseVendorResponse(vendordb.FormatJSON, []byte(`{"irrelevant":true}`))
	require.ErrorIs(t, err, vendordb.ErrMalformedResponse)
}
