package macaddr

import (
	"errors"
	"strings"
)

const (
	// MACLength is the number of hex characters in a normalized MAC address.
	MACLength = 12
	// OUILength is the number of hex characters identifying the vendor.
	OUILength = 6
)

var (
	ErrInvalidLength    = errors.New("mac address must be 12 hex characters")
	ErrInvalidCharacter = errors.New("mac address contains invalid characters")
)

// Normalize converts a MAC address in any common notation (colon-, dash- or
// dot-separated, bare, any case) into the canonical uppercase 12-character hex
// form. Normalizing an already-normalized address returns it unchanged.
func Normalize(mac string) (string, error) {
	var b strings.Builder

	b.Grow(MACLength)

	for _, r := range strings.TrimSpace(mac) {
		switch {
		case r >= '0' && r <= '9', r >= 'A' && r <= 'F':
			b.WriteRune(r)
		case r >= 'a' && r <= 'f':
			b.WriteRune(r - ('a' - 'A'))
		case r == ':' || r == '-' || r == '.':
			continue
		default:
			return "", ErrInvalidCharacter
		}
	}

	if b.Len() != MACLength {
		return "", ErrInvalidLength
	}

	return b.String(), nil
}

// OUI returns the vendor-identifying prefix of a normalized MAC address.
// The input must already be in canonical form (see Normalize).
func OUI(normalized string) string {
	if len(normalized) < OUILength {
		return normalized
	}

	return normalized[:OUILength]
}

// NormalizeOUI normalizes a MAC or a bare OUI prefix down to the canonical
// 6-character uppercase form.
func NormalizeOUI(s string) (string, error) {
	var b strings.Builder

	for _, r := range strings.TrimSpace(s) {
		switch {
		case r >= '0' && r <= '9', r >= 'A' && r <= 'F':
			b.WriteRune(r)
		case r >= 'a' && r <= 'f':
			b.WriteRune(r - ('a' - 'A'))
		case r == ':' || r == '-' || r == '.':
			continue
		default:
			return "", ErrInvalidCharacter
		}
	}

	if b.Len() < OUILength {
		return "", ErrInvalidLength
	}

	return b.String()[:OUILength], nil
}

// Format renders a normalized MAC address in colon-separated notation for
// display. Invalid input is returned as-is.
func Format(normalized string) string {
	if len(normalized) != MACLength {
		return normalized
	}

	var b strings.Builder

	b.Grow(MACLength + 5)

	for i := 0; i < MACLength; i += 2 {
		if i > 0 {
			b.WriteByte(':')
		}

		b.WriteString(normalized[i : i+2])
	}

	return b.String()
}
