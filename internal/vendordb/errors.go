package vendordb

import (
	"errors"

	"github.com/bavix/macscope/internal/macaddr"
)

// Kind names an error's taxonomy bucket for API payloads and CLI output.
// Unrecognized errors map onto "transient"; nil maps onto the empty string.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, macaddr.ErrInvalidLength), errors.Is(err, macaddr.ErrInvalidCharacter):
		return "invalid_input"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrMalformedResponse):
		return "malformed_response"
	default:
		return "transient"
	}
}

// Lookup error taxonomy. Adapters classify every failure into one of these so
// the resolver and the rate limiter can react without inspecting transport
// details.
var (
	// ErrNotFound means the source answered authoritatively that it has no
	// vendor for the OUI.
	ErrNotFound = errors.New("vendor not found")
	// ErrTimeout means the adapter or the overall deadline expired.
	ErrTimeout = errors.New("vendor lookup timed out")
	// ErrRateLimited means the source signaled quota exhaustion (HTTP 429).
	ErrRateLimited = errors.New("vendor source rate limited")
	// ErrTransient covers connection failures, unexpected HTTP statuses and
	// subprocess failures; a later attempt may succeed.
	ErrTransient = errors.New("transient vendor source error")
	// ErrMalformedResponse means the response could not be parsed per the
	// source's declared format.
	ErrMalformedResponse = errors.New("malformed vendor source response")
)
