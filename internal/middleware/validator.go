package middleware

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// Input validation and sanitization utilities

// ValidateImageURL checks that raw is an absolute http(s) URL. Unless
// allowPrivate is set, loopback and private hosts are refused since some model
// adapters download the image server-side.
func ValidateImageURL(raw string, allowPrivate bool) error {
	if raw == "" {
		return fmt.Errorf("imageUrl is required")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid imageUrl: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid imageUrl scheme: %q (allowed: http, https)", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid imageUrl: missing host")
	}
	if allowPrivate {
		return nil
	}

	host := strings.ToLower(u.Hostname())
	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return fmt.Errorf("localhost/internal hosts are not allowed")
	}
	if ip := net.ParseIP(host); ip != nil {
		if ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() || ip.IsLinkLocalUnicast() {
			return fmt.Errorf("private IP ranges are not allowed")
		}
	}
	return nil
}

// SanitizeString removes dangerous characters from strings
func SanitizeString(input string) string {
	// Remove null bytes
	input = strings.ReplaceAll(input, "\x00", "")

	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}
	return strings.TrimSpace(result.String())
}

// ValidateLimit validates pagination page size
func ValidateLimit(limit int) int {
	if limit <= 0 {
		return 20 // default
	}
	if limit > 100 {
		return 100 // max limit
	}
	return limit
}
