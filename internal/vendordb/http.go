package vendordb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// ResponseFormat tells the HTTP adapter how to extract a vendor name from a
// source's response body.
type ResponseFormat string

const (
	// FormatText means the whole response body is the vendor name.
	FormatText ResponseFormat = "text"
	// FormatJSON means the response is an object with the vendor under one of
	// the well-known result fields.
	FormatJSON ResponseFormat = "json"
)

const (
	defaultHTTPTimeout = 5 * time.Second
	maxResponseBytes   = 64 * 1024
)

var errUnsupportedFormat = errors.New("unsupported response format")

// jsonVendorKeys are the result fields JSON sources are known to use, tried
// in order at the top level and one level below "result"/"data".
//
//nolint:gochecknoglobals // parser policy table
var jsonVendorKeys = []string{"company", "companyName", "vendor", "organization", "organization_name"}

// HTTPAdapter queries one remote vendor-lookup service over HTTP. It issues
// exactly one request per Lookup; retry policy lives in the resolver.
type HTTPAdapter struct {
	name    string
	baseURL string
	format  ResponseFormat
	client  *http.Client
}

// NewHTTPAdapter builds an adapter for a remote source. The base URL may
// contain a "%s" placeholder for the OUI; otherwise the OUI is appended as a
// path segment. A zero timeout falls back to defaultHTTPTimeout.
func NewHTTPAdapter(name, baseURL string, format ResponseFormat, timeout time.Duration) *HTTPAdapter {
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}

	return &HTTPAdapter{
		name:    name,
		baseURL: baseURL,
		format:  format,
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// Name implements Adapter.
func (a *HTTPAdapter) Name() string { return a.name }

// Lookup implements Adapter.
func (a *HTTPAdapter) Lookup(ctx context.Context, oui string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.lookupURL(oui), nil)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrTransient, err)
	}

	req.Header.Set("Accept", acceptFor(a.format))

	resp, err := a.client.Do(req)
	if err != nil {
		return "", classifyTransportError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := classifyStatus(resp.StatusCode); err != nil {
		zerolog.Ctx(ctx).Debug().
			Str("source", a.name).
			Str("oui", oui).
			Int("status", resp.StatusCode).
			Msg("vendor source error status")

		return "", err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrTransient, err)
	}

	return ParseVendorResponse(a.format, body)
}

func (a *HTTPAdapter) lookupURL(oui string) string {
	if strings.Contains(a.baseURL, "%s") {
		return fmt.Sprintf(a.baseURL, oui)
	}

	return strings.TrimSuffix(a.baseURL, "/") + "/" + oui
}

func acceptFor(format ResponseFormat) string {
	if format == FormatJSON {
		return "application/json"
	}

	return "text/plain"
}

// classifyTransportError maps client errors onto the lookup taxonomy.
// Deadline expiry becomes ErrTimeout; everything else is transient.
func classifyTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}

	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}

	return fmt.Errorf("%w: %w", ErrTransient, err)
}

func classifyStatus(status int) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusNotFound:
		return ErrNotFound
	case status == http.StatusTooManyRequests:
		return ErrRateLimited
	default:
		return fmt.Errorf("%w: unexpected status %d", ErrTransient, status)
	}
}

// ParseVendorResponse extracts a vendor name from a raw response body per the
// source's declared format. The shell adapter reuses it for subprocess output.
func ParseVendorResponse(format ResponseFormat, body []byte) (string, error) {
	switch format {
	case FormatText:
		return strings.TrimSpace(string(body)), nil
	case FormatJSON:
		return parseJSONVendor(body)
	default:
		return "", fmt.Errorf("%w: %q", errUnsupportedFormat, format)
	}
}

func parseJSONVendor(body []byte) (string, error) {
	var obj map[string]any
	if err := json.Unmarshal(body, &obj); err != nil {
		return "", fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}

	if v, ok := vendorFromObject(obj); ok {
		return v, nil
	}

	// Sources wrap the payload differently; look one level down.
	for _, wrapper := range []string{"result", "data", "vendorDetails"} {
		if nested, ok := obj[wrapper].(map[string]any); ok {
			if v, ok := vendorFromObject(nested); ok {
				return v, nil
			}
		}
	}

	return "", fmt.Errorf("%w: no vendor field", ErrMalformedResponse)
}

func vendorFromObject(obj map[string]any) (string, bool) {
	for _, key := range jsonVendorKeys {
		if v, ok := obj[key].(string); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v), true
		}
	}

	return "", false
}
