// Package sniff extracts routing keys from the first bytes a client sends:
// the Host header for plaintext HTTP and the server_name (SNI) extension
// for a TLS ClientHello. Both extractors treat their input as hostile and
// fail closed on anything malformed or ambiguous.
package sniff

import (
	"errors"
	"strings"
)

// Sentinel errors for Host header extraction.
var (
	ErrNoHostHeader  = errors.New("no Host header found")
	ErrDuplicateHost = errors.New("duplicate Host header")
	ErrInvalidHost   = errors.New("invalid Host header value")
)

// ExtractHost scans raw HTTP header bytes (up to and including the
// \r\n\r\n terminator) for exactly one Host line and returns the
// normalized routing key. Two or more Host lines are rejected outright
// rather than picking one, since intermediaries disagreeing on which
// header wins is how requests get smuggled.
func ExtractHost(headers []byte) (string, error) {
	var value string
	found := false
	for _, line := range strings.Split(string(headers), "\r\n") {
		if len(line) < 5 || !strings.EqualFold(line[:5], "host:") {
			continue
		}
		if found {
			return "", ErrDuplicateHost
		}
		found = true
		value = strings.TrimSpace(line[5:])
	}
	if !found {
		return "", ErrNoHostHeader
	}
	return normalizeHostValue(value)
}

// normalizeHostValue strips an optional port and validates the remaining
// hostname or bracketed IPv6 literal.
func normalizeHostValue(value string) (string, error) {
	if value == "" {
		return "", ErrInvalidHost
	}

	if value[0] == '[' {
		end := strings.IndexByte(value, ']')
		if end < 0 {
			return "", ErrInvalidHost
		}
		rest := value[end+1:]
		if rest != "" {
			if rest[0] != ':' || !validPort(rest[1:]) {
				return "", ErrInvalidHost
			}
		}
		key, ok := normalizeBracketed(value[1:end])
		if !ok {
			return "", ErrInvalidHost
		}
		return key, nil
	}

	// A single colon separates an explicit port; more than one without
	// brackets is an ambiguous bare IPv6 literal and is rejected.
	switch strings.Count(value, ":") {
	case 0:
	case 1:
		i := strings.IndexByte(value, ':')
		if !validPort(value[i+1:]) {
			return "", ErrInvalidHost
		}
		value = value[:i]
	default:
		return "", ErrInvalidHost
	}

	key, ok := normalizeHostname(value)
	if !ok {
		return "", ErrInvalidHost
	}
	return key, nil
}
