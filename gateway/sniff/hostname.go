package sniff

import (
	"net"
	"strconv"
	"strings"
)

// maxHostnameLen is the RFC 1035 limit on a full domain name.
const maxHostnameLen = 253

// maxBracketedLen bounds the literal between '[' and ']'.
const maxBracketedLen = 100

// normalizeHostname lowercases a candidate routing key, strips a single
// trailing dot, and validates it as a DNS name: ASCII only, no control
// characters, total length <= 253, labels of 1-63 alphanumeric/hyphen
// characters that neither start nor end with a hyphen.
// Bracketed IPv6 literals are not accepted here; see normalizeBracketed.
func normalizeHostname(s string) (string, bool) {
	s = strings.ToLower(s)
	s = strings.TrimSuffix(s, ".")
	if !validHostname(s) {
		return "", false
	}
	return s, true
}

func validHostname(s string) bool {
	if len(s) == 0 || len(s) > maxHostnameLen {
		return false
	}
	start := 0
	for i := 0; i <= len(s); i++ {
		if i < len(s) && s[i] != '.' {
			continue
		}
		label := s[start:i]
		if len(label) == 0 || len(label) > 63 {
			return false
		}
		for j := 0; j < len(label); j++ {
			c := label[j]
			switch {
			case c >= 'a' && c <= 'z':
			case c >= '0' && c <= '9':
			case c == '-':
				if j == 0 || j == len(label)-1 {
					return false
				}
			default:
				return false
			}
		}
		start = i + 1
	}
	return true
}

// normalizeBracketed validates the content of a bracketed IPv6 literal
// (without the brackets) and returns the normalized routing key with the
// brackets reattached. The content must be a parseable IPv6 address made
// of hex digits, ':' and '.' only.
func normalizeBracketed(inner string) (string, bool) {
	if len(inner) == 0 || len(inner) > maxBracketedLen {
		return "", false
	}
	inner = strings.ToLower(inner)
	for i := 0; i < len(inner); i++ {
		c := inner[i]
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c == ':' || c == '.':
		default:
			return "", false
		}
	}
	ip := net.ParseIP(inner)
	if ip == nil || !strings.Contains(inner, ":") {
		return "", false
	}
	return "[" + inner + "]", true
}

// validPort reports whether s is a decimal 16-bit port number.
func validPort(s string) bool {
	if len(s) == 0 {
		return false
	}
	_, err := strconv.ParseUint(s, 10, 16)
	return err == nil
}
