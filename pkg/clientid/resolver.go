// Package clientid derives the per-client key used for rate limiting.
package clientid

import (
	"crypto/sha256"
	"encoding/hex"
	"net"
	"net/http"
	"strings"
)

// FingerprintPrefix marks identifiers that are not IP addresses. It can never
// parse as an IP, so fingerprints and addresses do not share buckets.
const FingerprintPrefix = "fp-"

// Header names checked in order of trust.
const (
	HeaderCFConnectingIP = "CF-Connecting-IP"
	HeaderForwardedFor   = "X-Forwarded-For"
	HeaderRealIP         = "X-Real-IP"
	HeaderRealClientIP   = "X-Real-Client-IP"
)

// Resolve returns a non-empty identifier for the client that sent headers.
//
// The first candidate that parses as an IPv4 or IPv6 address wins. When no
// header carries a usable address the identifier falls back to a fingerprint
// of User-Agent and Accept-Language; clients behind one NAT with the same
// browser share a bucket in that case.
func Resolve(headers http.Header) string {
	for _, candidate := range candidates(headers) {
		if ip := parseIP(candidate); ip != "" {
			return ip
		}
	}
	return Fingerprint(headers.Get("User-Agent"), headers.Get("Accept-Language"))
}

// Fingerprint hashes the browser signature into a short opaque token.
func Fingerprint(userAgent, acceptLanguage string) string {
	sum := sha256.Sum256([]byte(userAgent + acceptLanguage))
	return FingerprintPrefix + hex.EncodeToString(sum[:8])
}

// IsFingerprint reports whether id came from the fallback path.
func IsFingerprint(id string) bool {
	return strings.HasPrefix(id, FingerprintPrefix)
}

func candidates(headers http.Header) []string {
	out := make([]string, 0, 4)
	out = append(out, headers.Get(HeaderCFConnectingIP))
	if forwarded := headers.Get(HeaderForwardedFor); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		out = append(out, first)
	}
	out = append(out, headers.Get(HeaderRealIP), headers.Get(HeaderRealClientIP))
	return out
}

// parseIP returns the canonical form of s, or "" when s is not an address.
func parseIP(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	// "[::1]:443" and "1.2.3.4:80" occasionally leak in from proxies
	if host, _, err := net.SplitHostPort(s); err == nil {
		s = host
	}
	ip := net.ParseIP(strings.Trim(s, "[]"))
	if ip == nil {
		return ""
	}
	return ip.String()
}
